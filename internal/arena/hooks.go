package arena

import (
	"context"
	"encoding/json"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/telemetry"
)

type hookStatus int

const (
	hookStatusPending hookStatus = iota
	hookStatusSatisfied
	hookStatusFailed
)

// hookGate tracks the readiness hooks snapshotted for the current gating
// state, per spec §4.3: hooks installed after the snapshot is taken do not
// count for this transition (spec §9, "hook protocol ambiguity").
type hookGate struct {
	forState   model.ArenaState
	enteredAt  model.Millis
	hooks      []model.ArenaHookDB
	replies    map[string]model.HookReply
	failedHook string
}

// snapshotHooks captures the set of hooks gating forState, as of the instant
// the arena entered it. Called once per entry into Reset{false} or
// Prestart{false}.
func (a *Arena) snapshotHooks(ctx context.Context, forState model.ArenaState, now model.Millis) (*hookGate, error) {
	rows, err := a.hooks.List(ctx)
	if err != nil {
		return nil, err
	}
	gate := &hookGate{
		forState:  forState,
		enteredAt: now,
		replies:   make(map[string]model.HookReply),
	}
	for _, h := range rows {
		if h.State.Equal(forState) {
			gate.hooks = append(gate.hooks, h)
		}
	}
	return gate, nil
}

// recordReply stores an incoming HookReply from the bus on the active gate,
// whatever its id; evaluate only consults replies whose id matches a
// snapshotted hook for this transition.
func (g *hookGate) recordReply(reply model.HookReply) {
	if g == nil {
		return
	}
	g.replies[reply.Id] = reply
}

// evaluate reports the gate's current status: failed if any matching hook
// timed out or reported failure, satisfied if every matching hook has a
// successful reply, pending otherwise.
func (g *hookGate) evaluate(now model.Millis) hookStatus {
	if g == nil || len(g.hooks) == 0 {
		return hookStatusSatisfied
	}
	allReplied := true
	for _, h := range g.hooks {
		age := now.Time().Sub(g.enteredAt.Time())
		if age.Milliseconds() > h.TimeoutMs {
			g.failedHook = h.Id
			telemetry.Metrics.HookTimeouts.Inc()
			return hookStatusFailed
		}
		reply, ok := g.replies[h.Id]
		if !ok {
			allReplied = false
			continue
		}
		if reply.Failed() {
			g.failedHook = h.Id
			telemetry.Metrics.HookFailures.Inc()
			return hookStatusFailed
		}
	}
	if allReplied {
		return hookStatusSatisfied
	}
	return hookStatusPending
}

// subscribeHookReplies runs until ctx is cancelled, forwarding every
// HookReply seen on arena.state.hook into the arena's inbox so it is
// applied on the owning goroutine.
func subscribeHookReplies(ctx context.Context, ps bus.PubSub, onReply func(model.HookReply)) error {
	sub, err := ps.Subscribe(ctx, model.TopicArenaStateHook)
	if err != nil {
		return err
	}
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			var reply model.HookReply
			if err := json.Unmarshal(msg.Payload, &reply); err != nil {
				continue
			}
			onReply(reply)
		}
	}
}

// installHook is the RPC-exposed counterpart peripheral services use to
// register a readiness gate (not named explicitly as an RPC method in the
// narrower core spec, but required for the hook table to ever be
// populated — grounded in spec §4.3's "a peripheral service installs").
func (a *Arena) installHook(ctx context.Context, hook model.ArenaHookDB) error {
	return a.hooks.Set(ctx, hook.Id, hook)
}
