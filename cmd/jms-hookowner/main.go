// Command jms-hookowner is an illustrative peripheral service that gates
// the arena's advance out of Reset{ready:false} and Prestart{ready:false}
// into their ready:true variants (spec §4.3): it installs one hook per
// gating state and replies once its own readiness check passes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/GrappleRobotics/jms/internal/arena"
	"github.com/GrappleRobotics/jms/internal/config"
	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/fabric/component"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/service"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

func main() {
	componentId := flag.String("component", "jms-hookowner", "component id this process installs hooks under")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	log := telemetry.L().With("component", *componentId)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Error("load tuning", "error", err)
		os.Exit(1)
	}

	store := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ps := bus.NewRedisBus(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	client := arena.NewClient(ps)
	timeoutMs := tuning.TimeoutFor(*componentId)

	ctx, stop := service.WithSignalCancel(context.Background())
	defer stop()

	go component.Heartbeat(ctx, store, *componentId, "Example Hook Owner", "HOOK")

	for _, gating := range []model.ArenaState{model.StateReset(false), model.StatePrestart(false)} {
		hookId := *componentId + ":" + gating.String()
		hook := model.ArenaHookDB{Id: hookId, ComponentId: *componentId, State: gating, TimeoutMs: timeoutMs}
		if err := client.InstallHook(ctx, hook); err != nil {
			log.Warn("install hook failed", "state", gating.String(), "error", err)
		}
	}

	sub, err := ps.Subscribe(ctx, model.TopicArenaStateNew)
	if err != nil {
		log.Error("subscribe arena state failed", "error", err)
		os.Exit(1)
	}
	defer sub.Close()

	log.Info("jms-hookowner ready", "component", *componentId)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			var state model.ArenaState
			if err := json.Unmarshal(msg.Payload, &state); err != nil {
				continue
			}
			if !state.IsGating() {
				continue
			}
			go replyWhenReady(ctx, ps, *componentId, state, log)
		}
	}
}

// replyWhenReady simulates this service's own readiness check (e.g. field
// electronics self-test) and publishes a HookReply once it passes.
func replyWhenReady(ctx context.Context, ps bus.PubSub, componentId string, state model.ArenaState, log *slog.Logger) {
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return
	}

	hookId := componentId + ":" + state.String()
	reply := model.HookReply{Id: hookId}
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := ps.Publish(ctx, model.TopicArenaStateHook, data); err == nil {
		log.Info("hook satisfied", "hook", hookId, "state", state.String())
	}
}
