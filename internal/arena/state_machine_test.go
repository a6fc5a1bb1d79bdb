package arena

import (
	"testing"

	"github.com/GrappleRobotics/jms/internal/model"
)

func TestApplySignalEstopAlwaysWins(t *testing.T) {
	for _, cur := range []model.ArenaState{
		model.StateIdle(), model.StatePrestart(true), model.StateMatchArmed(), model.StateMatchPlay(),
	} {
		next, err := applySignal(cur, model.SignalEstopSig(), false)
		if err != nil {
			t.Fatalf("Estop from %s: unexpected error %v", cur.String(), err)
		}
		if next.Kind != model.ArenaEstop {
			t.Fatalf("Estop from %s = %s, want Estop", cur.String(), next.Kind)
		}
	}

	// Estop signalled while already Estop is not a self-transition; applySignal's
	// guard only fires when cur.Kind != ArenaEstop, so this falls through to the
	// Estop case below which has no handler for SignalEstop and rejects it.
	if _, err := applySignal(model.StateEstop(), model.SignalEstopSig(), false); err == nil {
		t.Fatalf("Estop while already Estop: expected rejection, got none")
	}
}

func TestApplySignalIdleToPrestartRequiresLoadedWaitingMatch(t *testing.T) {
	if _, err := applySignal(model.StateIdle(), model.SignalPrestartSig(), false); err == nil {
		t.Fatalf("Prestart with no match loaded: expected rejection")
	}
	next, err := applySignal(model.StateIdle(), model.SignalPrestartSig(), true)
	if err != nil {
		t.Fatalf("Prestart with match loaded and waiting: unexpected error %v", err)
	}
	if next != model.StatePrestart(false) {
		t.Fatalf("Prestart transition = %+v, want Prestart{false}", next)
	}
}

func TestApplySignalPrestartOnlyAdvancesWhenReady(t *testing.T) {
	if _, err := applySignal(model.StatePrestart(false), model.SignalMatchArmSig(false), false); err == nil {
		t.Fatalf("MatchArm from Prestart{false}: expected rejection, hooks haven't satisfied yet")
	}
	next, err := applySignal(model.StatePrestart(true), model.SignalMatchArmSig(false), false)
	if err != nil {
		t.Fatalf("MatchArm from Prestart{true}: unexpected error %v", err)
	}
	if next.Kind != model.ArenaMatchArmed {
		t.Fatalf("MatchArm result = %s, want MatchArmed", next.Kind)
	}
}

func TestApplySignalPrestartUndo(t *testing.T) {
	next, err := applySignal(model.StatePrestart(true), model.SignalPrestartUndoSig(), false)
	if err != nil {
		t.Fatalf("PrestartUndo: unexpected error %v", err)
	}
	if next.Kind != model.ArenaIdle {
		t.Fatalf("PrestartUndo result = %s, want Idle", next.Kind)
	}
}

func TestApplySignalFullHappyPath(t *testing.T) {
	next, err := applySignal(model.StateMatchArmed(), model.SignalMatchPlaySig(), false)
	if err != nil || next.Kind != model.ArenaMatchPlay {
		t.Fatalf("MatchPlay from MatchArmed = %+v, %v", next, err)
	}

	next, err = applySignal(model.StateMatchComplete(), model.SignalMatchCommitSig(), false)
	if err != nil || next != model.StateReset(false) {
		t.Fatalf("MatchCommit from MatchComplete = %+v, %v, want Reset{false}", next, err)
	}

	next, err = applySignal(model.StateEstop(), model.SignalEstopResetSig(), false)
	if err != nil || next != model.StateReset(false) {
		t.Fatalf("EstopReset from Estop = %+v, %v, want Reset{false}", next, err)
	}
}

func TestApplySignalRejectsOutOfOrder(t *testing.T) {
	if _, err := applySignal(model.StateMatchArmed(), model.SignalMatchCommitSig(), false); err == nil {
		t.Fatalf("MatchCommit from MatchArmed: expected rejection")
	}
	if _, err := applySignal(model.StateIdle(), model.SignalMatchPlaySig(), false); err == nil {
		t.Fatalf("MatchPlay from Idle: expected rejection")
	}
}

func TestUnconditionalAdvance(t *testing.T) {
	next, ok := unconditionalAdvance(model.StateInit())
	if !ok || next != model.StateReset(false) {
		t.Fatalf("unconditionalAdvance(Init) = %+v, %v, want Reset{false}, true", next, ok)
	}

	next, ok = unconditionalAdvance(model.StateReset(true))
	if !ok || next.Kind != model.ArenaIdle {
		t.Fatalf("unconditionalAdvance(Reset{true}) = %+v, %v, want Idle, true", next, ok)
	}

	if _, ok := unconditionalAdvance(model.StateReset(false)); ok {
		t.Fatalf("unconditionalAdvance(Reset{false}) should not fire without hook satisfaction")
	}
}

func TestOnMatchComplete(t *testing.T) {
	next, ok := onMatchComplete(model.StateMatchPlay())
	if !ok || next.Kind != model.ArenaMatchComplete {
		t.Fatalf("onMatchComplete(MatchPlay) = %+v, %v, want MatchComplete, true", next, ok)
	}
	if _, ok := onMatchComplete(model.StateIdle()); ok {
		t.Fatalf("onMatchComplete(Idle) should never fire")
	}
}
