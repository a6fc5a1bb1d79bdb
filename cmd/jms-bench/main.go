// Command jms-bench drives the arena state machine end to end against an
// in-memory store and bus (no Redis required) and narrates every
// transition: load a match, pass prestart, play it, and commit scores.
// It exists for local iteration on the state machine and as a demo of the
// wiring between internal/arena and the fabric packages.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/GrappleRobotics/jms/internal/arena"
	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
	_ "github.com/GrappleRobotics/jms/internal/scoring/game2026"
	"github.com/GrappleRobotics/jms/internal/service"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

func main() {
	matchId := flag.String("match", "bench-q1", "id of the synthetic match to run")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel("info"))
	log := telemetry.L().With("component", "bench")

	store := kv.NewMemStore()
	ps := bus.NewMemBus()

	// Compressed phase durations so a full match plays out in well under a
	// second instead of the ~3 minutes spec's default lengths would take.
	durations := model.PhaseDurations{
		WarmupSec: 0.05, AutoSec: 0.1, PauseSec: 0.05, TeleopSec: 0.2, CooldownSec: 0.05, EndgameSec: 0.05,
	}
	a := arena.New(store, ps, durations, log)
	client := arena.NewClient(ps)

	started := time.Now()
	seedMatch(context.Background(), store, *matchId)
	subscribeNarration(context.Background(), ps, log, started)

	runCtx, cancelRun := context.WithCancel(context.Background())
	go func() {
		if err := service.Run(runCtx, a.Run, a.ServeRPC); err != nil && runCtx.Err() == nil {
			log.Error("arena exited early", "error", err)
		}
	}()
	defer cancelRun()

	// Let the control loop reach its first tick before issuing commands.
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	steps := []struct {
		label string
		fn    func() error
	}{
		{"load match", func() error { return client.LoadMatch(ctx, *matchId) }},
		{"prestart", func() error { return client.Signal(ctx, model.SignalPrestartSig(), "bench") }},
		{"arm match", func() error { return client.Signal(ctx, model.SignalMatchArmSig(false), "bench") }},
		{"start play", func() error { return client.Signal(ctx, model.SignalMatchPlaySig(), "bench") }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			log.Error("bench step failed", "step", step.label, "error", err)
			os.Exit(1)
		}
		log.Info("bench step ok", "step", step.label, "elapsed", humanize.Time(started))
	}

	// The match runner owns phase timing from here; wait for it to reach
	// MatchComplete before committing scores (spec §4.2.3).
	waitForState(ctx, store, model.ArenaMatchComplete, log, started)

	if err := client.Signal(ctx, model.SignalMatchCommitSig(), "bench"); err != nil {
		log.Error("commit failed", "error", err)
		os.Exit(1)
	}
	log.Info("match committed", "match", *matchId, "total_elapsed", humanize.Time(started))
}

func seedMatch(ctx context.Context, store kv.Store, matchId string) {
	matches := kv.NewTable[model.Match](store, model.PrefixMatch)
	_ = matches.Set(ctx, matchId, model.Match{
		Id:        matchId,
		Type:      model.MatchQualification,
		Number:    1,
		RedTeams:  []int{254, 1114, 1678},
		BlueTeams: []int{148, 971, 2056},
		Ready:     true,
	})

	stations := kv.NewTable[model.AllianceStation](store, model.PrefixArenaStation)
	redTeams := []int{254, 1114, 1678}
	blueTeams := []int{148, 971, 2056}
	for i, id := range model.AllStationIds() {
		var team int
		if id.Alliance == model.AllianceRed {
			team = redTeams[i%3]
		} else {
			team = blueTeams[i%3]
		}
		t := team
		dsOk := true
		_ = stations.Set(ctx, id.String(), model.AllianceStation{Id: id, Team: &t, DsEthOk: &dsOk})
	}
}

func waitForState(ctx context.Context, store kv.Store, kind model.ArenaStateKind, log interface {
	Info(string, ...any)
}, started time.Time) {
	singleton := kv.NewSingleton[model.ArenaState](store, model.KeyArenaState)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, err := singleton.GetOptional(ctx)
			if err != nil || state == nil {
				continue
			}
			if state.Kind == kind {
				log.Info("reached state", "state", state.String(), "elapsed", humanize.Time(started))
				return
			}
		}
	}
}

func subscribeNarration(ctx context.Context, ps bus.PubSub, log interface {
	Info(string, ...any)
}, started time.Time) {
	sub, err := ps.Subscribe(ctx, model.TopicArenaStateNew)
	if err != nil {
		return
	}
	go func() {
		for msg := range sub.C() {
			var state model.ArenaState
			if err := json.Unmarshal(msg.Payload, &state); err != nil {
				continue
			}
			log.Info("state transition", "state", state.String(), "since_start", humanize.Time(started))
		}
	}()
}
