// Command jms-driverstation runs the TCP/UDP relay that speaks the driver
// station wire protocol to every team's laptop (spec §4.4).
package main

import (
	"context"
	"os"

	"github.com/GrappleRobotics/jms/internal/config"
	"github.com/GrappleRobotics/jms/internal/driverstation"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/service"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	log := telemetry.L()

	store := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	dsCfg := driverstation.Config{
		UDPOutPort:      cfg.DSUDPOutPort,
		UDPTickInterval: cfg.DSUDPTickInterval,
		UDPTimeout:      cfg.DSUDPTimeout,
		TCPTickInterval: cfg.DSTCPTickInterval,
		WrongStationMax: cfg.DSWrongStationMax,
	}
	srv := driverstation.NewServer(cfg.DSTCPPort, cfg.DSUDPInPort, store, dsCfg, log.With("component", "driverstation"))

	ctx, stop := service.WithSignalCancel(context.Background())
	defer stop()

	log.Info("jms-driverstation starting", "tcp_port", cfg.DSTCPPort, "udp_in_port", cfg.DSUDPInPort)
	if err := service.Run(ctx, srv.Run); err != nil {
		log.Error("jms-driverstation exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("jms-driverstation shut down cleanly")
}
