// Command jms-arena runs the arena state machine and match runner: the
// single authority over match timing, alliance stations, readiness hooks,
// and score commits.
package main

import (
	"context"
	"os"

	"github.com/GrappleRobotics/jms/internal/arena"
	"github.com/GrappleRobotics/jms/internal/config"
	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/persist"
	_ "github.com/GrappleRobotics/jms/internal/scoring/game2026"
	"github.com/GrappleRobotics/jms/internal/service"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	log := telemetry.L()

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Error("load tuning", "error", err)
		os.Exit(1)
	}

	store := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ps := bus.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	a := arena.New(store, ps, tuning.Phases, log.With("component", "arena"))

	auditStore, err := persist.OpenStore(cfg.SQLitePath)
	if err != nil {
		log.Error("open audit store", "error", err)
		os.Exit(1)
	}
	defer auditStore.Close()

	ctx, stop := service.WithSignalCancel(context.Background())
	defer stop()

	log.Info("jms-arena starting", "redis", cfg.RedisAddr)
	err = service.Run(ctx,
		a.Run,
		a.ServeRPC,
		func(ctx context.Context) error {
			return persist.Run(ctx, ps, auditStore, log.With("component", "persist"))
		},
	)
	if err != nil {
		log.Error("jms-arena exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("jms-arena shut down cleanly")
}
