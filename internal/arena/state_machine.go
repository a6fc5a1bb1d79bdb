// Package arena owns the single-authority state machine, the match runner,
// and the readiness-hook gate described for the field's central control
// process. It is the only writer of "arena:state", "arena:match", and
// "arena:station:*" — every other service only observes those keys.
//
// Grounded on the teacher's internal/core/state/game.GameContext: a
// single goroutine owns all mutable state and processes every external
// input (signals, match load/unload requests, ticks, hook replies) from
// channels drained by one select loop, the actor shape the teacher used
// for its per-sport trading context.
package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/GrappleRobotics/jms/internal/model"
)

// transitionErr is returned by Signal when the signal is not valid for the
// current state (spec §4.2.4: "rejected if the signal is invalid for the
// current state, except Estop which is always accepted").
type transitionErr struct {
	state  model.ArenaState
	signal model.ArenaSignalKind
}

func (e transitionErr) Error() string {
	return fmt.Sprintf("signal %s is not valid from state %s", e.signal, e.state)
}

// applySignal computes the next ArenaState for sig given the current
// state and whether a match is loaded and Waiting (needed for the
// Idle -> Prestart{false} guard). It never performs side effects; callers
// apply the returned state via enter so hook snapshotting and
// publishing happen uniformly.
func applySignal(cur model.ArenaState, sig model.ArenaSignal, matchLoadedAndWaiting bool) (model.ArenaState, error) {
	if sig.Kind == model.SignalEstop && cur.Kind != model.ArenaEstop {
		return model.StateEstop(), nil
	}

	switch cur.Kind {
	case model.ArenaIdle:
		if sig.Kind == model.SignalPrestart && matchLoadedAndWaiting {
			return model.StatePrestart(false), nil
		}
	case model.ArenaPrestart:
		if !cur.Ready {
			break // only advanced by hook satisfaction, not a signal
		}
		switch sig.Kind {
		case model.SignalMatchArm:
			return model.StateMatchArmed(), nil
		case model.SignalPrestartUndo:
			return model.StateIdle(), nil
		}
	case model.ArenaMatchArmed:
		if sig.Kind == model.SignalMatchPlay {
			return model.StateMatchPlay(), nil
		}
	case model.ArenaMatchComplete:
		if sig.Kind == model.SignalMatchCommit {
			return model.StateReset(false), nil
		}
	case model.ArenaEstop:
		if sig.Kind == model.SignalEstopReset {
			return model.StateReset(false), nil
		}
	}
	return model.ArenaState{}, transitionErr{state: cur, signal: sig.Kind}
}

// hookAdvance computes the {ready:true} transition for a gating state once
// every matching hook is satisfied, or an Estop if any hook failed or timed
// out. ok is false while the gate is still open (no transition this tick).
func hookAdvance(cur model.ArenaState, gate *hookGate, now model.Millis) (next model.ArenaState, ok bool) {
	if !cur.IsGating() {
		return model.ArenaState{}, false
	}
	switch gate.evaluate(now) {
	case hookStatusFailed:
		return model.StateEstop(), true
	case hookStatusSatisfied:
		switch cur.Kind {
		case model.ArenaReset:
			return model.StateReset(true), true
		case model.ArenaPrestart:
			return model.StatePrestart(true), true
		}
	}
	return model.ArenaState{}, false
}

// unconditionalAdvance computes the transitions that fire with no signal
// and no hook gate involved: Init -> Reset{false} on boot, and
// Reset{true} -> Idle.
func unconditionalAdvance(cur model.ArenaState) (model.ArenaState, bool) {
	switch {
	case cur.Kind == model.ArenaInit:
		return model.StateReset(false), true
	case cur.Kind == model.ArenaReset && cur.Ready:
		return model.StateIdle(), true
	}
	return model.ArenaState{}, false
}

// onMatchComplete is the transition the match runner triggers by reporting
// MatchCompletePlay, rather than by an external signal.
func onMatchComplete(cur model.ArenaState) (model.ArenaState, bool) {
	if cur.Kind == model.ArenaMatchPlay {
		return model.StateMatchComplete(), true
	}
	return model.ArenaState{}, false
}

// signalRequest carries one Signal call into the arena's goroutine, with
// the channel on which the outcome is sent back to the caller.
type signalRequest struct {
	sig    model.ArenaSignal
	source string
	result chan<- error
}

// Signal enqueues an external command and blocks (bounded by ctx) for the
// arena loop to process it and report whether the transition was valid.
func (a *Arena) Signal(ctx context.Context, sig model.ArenaSignal, source string) error {
	result := make(chan error, 1)
	req := signalRequest{sig: sig, source: source, result: result}
	select {
	case a.signals <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.signalEnqueueTimeout):
		return fmt.Errorf("arena: signal inbox full, dropped %s", sig.Kind)
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
