// Package config loads process settings from the environment (connection
// strings, ports, deployment-specific values) and a YAML tuning file
// (phase durations, hook timeouts) — the same two-tier split the teacher
// used for Kalshi credentials vs. risk limits, grounded on the teacher's
// risk_loader.go pattern.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full set of settings a JMS binary needs to boot. The
// arena, driver-station relay and hook owner binaries load the same struct
// and read only the fields they need; the bench tool does not load it.
type Config struct {
	// Coordination fabric.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Driver Station Service ports (spec §6.1).
	DSTCPPort    int
	DSUDPInPort  int
	DSUDPOutPort int

	// Driver-station connection timing.
	DSUDPTickInterval time.Duration
	DSUDPTimeout      time.Duration
	DSTCPTickInterval time.Duration
	DSWrongStationMax int

	// Local persistence (audit log / match archive).
	SQLitePath string

	// Phase durations / hook timeouts, tunable per game year.
	TuningPath string

	LogLevel string
	LogJSON  bool
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		RedisAddr:     envStr("JMS_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: envStr("JMS_REDIS_PASSWORD", ""),
		RedisDB:       envInt("JMS_REDIS_DB", 0),

		DSTCPPort:    envInt("JMS_DS_TCP_PORT", 1750),
		DSUDPInPort:  envInt("JMS_DS_UDP_IN_PORT", 1160),
		DSUDPOutPort: envInt("JMS_DS_UDP_OUT_PORT", 1121),

		DSUDPTickInterval: 250 * time.Millisecond,
		DSUDPTimeout:      5 * time.Second,
		DSTCPTickInterval: time.Second,
		DSWrongStationMax: 20,

		SQLitePath: envStr("JMS_SQLITE_PATH", "data/jms.db"),
		TuningPath: envStr("JMS_TUNING_PATH", "internal/config/tuning.yaml"),

		LogLevel: envStr("JMS_LOG_LEVEL", "info"),
		LogJSON:  envStr("JMS_LOG_JSON", "false") == "true",
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
