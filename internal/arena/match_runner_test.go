package arena

import (
	"testing"
	"time"

	"github.com/GrappleRobotics/jms/internal/model"
)

func testDurations() model.PhaseDurations {
	return model.PhaseDurations{
		WarmupSec: 1, AutoSec: 2, PauseSec: 1, TeleopSec: 4, CooldownSec: 1, EndgameSec: 1,
	}
}

func TestMatchRunnerAdvancesThroughAllPhases(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()

	r.start(now)
	if r.state != model.MatchWarmup {
		t.Fatalf("state after start = %v, want Warmup", r.state)
	}

	steps := []struct {
		after time.Duration
		want  model.MatchPlayState
	}{
		{time.Second + time.Millisecond, model.MatchAuto},
		{2*time.Second + time.Millisecond, model.MatchPause},
		{time.Second + time.Millisecond, model.MatchTeleop},
		{4*time.Second + time.Millisecond, model.MatchCooldown},
		{time.Second + time.Millisecond, model.MatchCompletePlay},
	}
	for _, step := range steps {
		now = now.Add(step.after)
		r.tick(now)
		if r.state != step.want {
			t.Fatalf("state = %v, want %v", r.state, step.want)
		}
	}

	// Once Complete, further ticks are a no-op.
	now = now.Add(10 * time.Second)
	r.tick(now)
	if r.state != model.MatchCompletePlay {
		t.Fatalf("state after tick past Complete = %v, want it to stay Complete", r.state)
	}
}

func TestMatchRunnerTickBeforeDurationElapsedDoesNotAdvance(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)

	r.tick(now.Add(500 * time.Millisecond))
	if r.state != model.MatchWarmup {
		t.Fatalf("state = %v, want to remain Warmup before the phase duration elapses", r.state)
	}
}

func TestMatchRunnerFaultOverridesFromAnyState(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)
	r.tick(now.Add(1500 * time.Millisecond)) // -> Auto

	r.fault(now.Add(1600 * time.Millisecond))
	if r.state != model.MatchFault {
		t.Fatalf("state = %v, want Fault", r.state)
	}

	r.tick(now.Add(100 * time.Second))
	if r.state != model.MatchFault {
		t.Fatalf("state = %v, want Fault to be sticky once set", r.state)
	}
}

func TestMatchRunnerMatchTimeNilBeforeAuto(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)
	if mt := r.matchTime(now); mt != nil {
		t.Fatalf("matchTime before Auto = %v, want nil", mt)
	}
}

func TestMatchRunnerMatchTimeTracksSinceAutoBegan(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)
	r.tick(now.Add(1100 * time.Millisecond)) // -> Auto at t=1.1s

	later := now.Add(1100*time.Millisecond + 500*time.Millisecond)
	mt := r.matchTime(later)
	if mt == nil {
		t.Fatalf("matchTime during Auto = nil, want non-nil")
	}
	if mt.Duration() != 500*time.Millisecond {
		t.Fatalf("matchTime = %v, want 500ms", mt.Duration())
	}
}

func TestMatchRunnerEndgameDuringTeleopThreshold(t *testing.T) {
	r := newMatchRunner(testDurations())
	r.state = model.MatchTeleop
	now := time.Now()
	r.phaseEnteredAt = now

	// TeleopSec=4, EndgameSec=1: not endgame until <=1s remains, i.e. t>=3s.
	if r.endgame(now.Add(2 * time.Second)) {
		t.Fatalf("endgame true at t=2s, want false (2s remaining)")
	}
	if !r.endgame(now.Add(3100 * time.Millisecond)) {
		t.Fatalf("endgame false at t=3.1s, want true (<=1s remaining)")
	}
}

func TestMatchRunnerEndgameAlwaysTrueAfterTeleop(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	for _, s := range []model.MatchPlayState{model.MatchCooldown, model.MatchCompletePlay} {
		r.state = s
		if !r.endgame(now) {
			t.Fatalf("endgame(%v) = false, want true", s)
		}
	}
}

func TestMatchRunnerRemainingFlooredAtZero(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)
	if got := r.remaining(now.Add(10 * time.Second)); got != 0 {
		t.Fatalf("remaining past phase end = %v, want 0", got)
	}
}

func TestMatchRunnerSerialiseReflectsState(t *testing.T) {
	r := newMatchRunner(testDurations())
	now := time.Now()
	r.start(now)

	snap := r.serialise("qm1", now)
	if snap.MatchId != "qm1" || snap.State != model.MatchWarmup {
		t.Fatalf("serialise = %+v, want MatchId qm1, State Warmup", snap)
	}
	if snap.MatchTime != nil {
		t.Fatalf("MatchTime before Auto = %v, want nil", snap.MatchTime)
	}
}
