package arena

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/fabric/component"
	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/ranking"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

// TickInterval is the period of the arena's fixed-rate control loop
// (spec §4.2, 20 Hz).
const TickInterval = 50 * time.Millisecond

// Arena is the single-authority process-wide state machine and match
// runner. Exactly one goroutine (Run) ever touches currentState, runner,
// and hookGate; every other interaction happens through the signals,
// loadRequests, and unloadRequests channels, following the teacher's
// GameContext actor pattern.
type Arena struct {
	store kv.Store
	ps    bus.PubSub
	log   *slog.Logger

	stateSingleton kv.Singleton[model.ArenaState]
	matchSingleton kv.Singleton[model.SerialisedLoadedMatch]
	stations       kv.Table[model.AllianceStation]
	hooks          kv.Table[model.ArenaHookDB]
	matches        kv.Table[model.Match]
	scores         kv.Table[model.CommittedMatchScores]
	liveScore      kv.Singleton[model.MatchScore]
	recomputer     *ranking.Recomputer

	signals        chan signalRequest
	loadRequests   chan loadRequest
	unloadRequests chan unloadRequest

	signalEnqueueTimeout time.Duration

	currentState    model.ArenaState
	runner          *matchRunner
	loadedMatchId   string
	gate            *hookGate
	stateEnteredAt  model.Millis
}

// New constructs an Arena bound to store/ps; callers must invoke Run in a
// goroutine before any Signal/LoadMatch/UnloadMatch call will complete.
func New(store kv.Store, ps bus.PubSub, durations model.PhaseDurations, log *slog.Logger) *Arena {
	if log == nil {
		log = slog.Default()
	}
	return &Arena{
		store:                store,
		ps:                   ps,
		log:                  log,
		stateSingleton:       kv.NewSingleton[model.ArenaState](store, model.KeyArenaState),
		matchSingleton:       kv.NewSingleton[model.SerialisedLoadedMatch](store, model.KeyArenaMatch),
		stations:             kv.NewTable[model.AllianceStation](store, model.PrefixArenaStation),
		hooks:                kv.NewTable[model.ArenaHookDB](store, model.PrefixArenaHook),
		matches:              kv.NewTable[model.Match](store, model.PrefixMatch),
		scores:               kv.NewTable[model.CommittedMatchScores](store, model.PrefixScores),
		liveScore:            kv.NewSingleton[model.MatchScore](store, model.KeyScoreLive),
		recomputer:           ranking.NewRecomputer(store),
		signals:              make(chan signalRequest, 8),
		loadRequests:         make(chan loadRequest, 1),
		unloadRequests:       make(chan unloadRequest, 1),
		signalEnqueueTimeout: 200 * time.Millisecond,
		currentState:         model.StateInit(),
		runner:               newMatchRunner(durations),
	}
}

// State returns the arena's current in-memory state. Only safe to call
// from within the Run goroutine (e.g. from a handler it calls directly);
// external callers must read "arena:state" from the KV store instead.
func (a *Arena) State() model.ArenaState { return a.currentState }

// Run drives the 20 Hz control loop described in spec §4.2 until ctx is
// cancelled: drain RPC-equivalent channel requests, drain hook replies,
// advance the state machine and match runner on the tick boundary,
// publish the heartbeat.
func (a *Arena) Run(ctx context.Context) error {
	hookReplies := make(chan model.HookReply, 32)
	go func() {
		err := subscribeHookReplies(ctx, a.ps, func(r model.HookReply) {
			select {
			case hookReplies <- r:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			a.log.Error("hook reply subscription ended", "error", err)
		}
	}()

	go component.Heartbeat(ctx, a.store, "arena", "Arena", "ARENA")

	if err := a.enter(ctx, model.StateInit()); err != nil {
		return fmt.Errorf("arena: initial enter failed: %w", err)
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-a.signals:
			err := a.handleSignal(ctx, req.sig)
			select {
			case req.result <- err:
			default:
			}

		case req := <-a.loadRequests:
			err := a.handleLoadMatch(ctx, req.matchId)
			select {
			case req.result <- err:
			default:
			}

		case req := <-a.unloadRequests:
			err := a.handleUnloadMatch(ctx)
			select {
			case req.result <- err:
			default:
			}

		case reply := <-hookReplies:
			a.gate.recordReply(reply)

		case now := <-ticker.C:
			tickStart := time.Now()
			if err := a.onTick(ctx, now); err != nil {
				telemetry.Metrics.ArenaTickOverruns.Inc()
				a.log.Error("arena tick failed", "error", err)
			}
			telemetry.Metrics.ArenaTicksRun.Inc()
			telemetry.Metrics.ArenaTickLatency.Record(time.Since(tickStart))
		}
	}
}

func (a *Arena) handleSignal(ctx context.Context, sig model.ArenaSignal) error {
	if sig.Kind == model.SignalMatchArm && !sig.Force {
		stations, err := a.loadStations(ctx)
		if err != nil {
			return fmt.Errorf("arena: load stations for arm check: %w", err)
		}
		if bad := notDSReady(stations); len(bad) > 0 {
			telemetry.Metrics.ArenaSignalErrors.Inc()
			return fmt.Errorf("arena: refusing to arm, driver station not ready: %v (use force to override)", bad)
		}
	}

	matchLoadedAndWaiting := a.loadedMatchId != "" && a.runner.state == model.MatchWaiting
	next, err := applySignal(a.currentState, sig, matchLoadedAndWaiting)
	if err != nil {
		telemetry.Metrics.ArenaSignalErrors.Inc()
		return err
	}
	if next.Kind == model.ArenaMatchPlay {
		a.runner.start(time.Now())
	}
	if sig.Kind == model.SignalMatchCommit && a.loadedMatchId != "" {
		if err := a.commitScore(ctx, a.loadedMatchId); err != nil {
			return fmt.Errorf("arena: commit score: %w", err)
		}
	}
	return a.enter(ctx, next)
}

// onTick is one iteration of the 20 Hz loop body: station inputs, hook/
// state advance, match runner advance, KV snapshot writes, heartbeat.
func (a *Arena) onTick(ctx context.Context, now time.Time) error {
	stations, err := a.loadStations(ctx)
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}
	changed := processStationInputs(stations, a.runner.state == model.MatchAuto)
	for _, st := range changed {
		if err := a.stations.Set(ctx, st.Id.String(), st); err != nil {
			return fmt.Errorf("persist station latch: %w", err)
		}
	}

	if next, ok := hookAdvance(a.currentState, a.gate, model.NowMillis()); ok {
		if err := a.enter(ctx, next); err != nil {
			return err
		}
	} else if next, ok := unconditionalAdvance(a.currentState); ok {
		if err := a.enter(ctx, next); err != nil {
			return err
		}
	}

	if a.loadedMatchId != "" && a.currentState.Kind == model.ArenaMatchPlay {
		a.runner.tick(now)
		snapshot := a.runner.serialise(a.loadedMatchId, now)
		if err := a.matchSingleton.Set(ctx, snapshot); err != nil {
			return fmt.Errorf("persist match snapshot: %w", err)
		}
		if snapshot.State == model.MatchCompletePlay {
			if next, ok := onMatchComplete(a.currentState); ok {
				if err := a.enter(ctx, next); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// enter performs the full entry-action sequence for a new state: apply
// per-state side effects, persist to KV, publish on the topic bus, and (for
// gating states) snapshot the readiness hooks.
func (a *Arena) enter(ctx context.Context, next model.ArenaState) error {
	prev := a.currentState
	now := model.NowMillis()

	switch {
	case next.Kind == model.ArenaReset && !next.Ready:
		if err := a.resetStations(ctx); err != nil {
			return err
		}
		a.loadedMatchId = ""
		if err := a.matchSingleton.Delete(ctx); err != nil && err != kv.ErrNotFound {
			return err
		}
		a.runner = newMatchRunner(a.runner.durations)
	case next.Kind == model.ArenaIdle && prev.Kind == model.ArenaReset:
		if err := a.clearStationLatches(ctx); err != nil {
			return err
		}
	case next.Kind == model.ArenaEstop:
		if a.loadedMatchId != "" {
			a.runner.fault(now.Time())
		}
	}

	a.currentState = next
	a.stateEnteredAt = now

	if err := a.stateSingleton.Set(ctx, next); err != nil {
		return fmt.Errorf("persist arena state: %w", err)
	}
	if err := a.publishState(ctx, next); err != nil {
		a.log.Error("publish arena state failed", "error", err)
	}

	if next.IsGating() {
		gate, err := a.snapshotHooks(ctx, next, now)
		if err != nil {
			return fmt.Errorf("snapshot hooks: %w", err)
		}
		a.gate = gate
	} else {
		a.gate = nil
	}

	a.log.Info("arena state change", "from", prev.String(), "to", next.String())
	return nil
}

func (a *Arena) publishState(ctx context.Context, state model.ArenaState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return a.ps.Publish(ctx, model.TopicArenaStateNew, data)
}
