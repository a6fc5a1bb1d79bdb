package arena

import (
	"time"

	"github.com/GrappleRobotics/jms/internal/model"
)

// matchRunner owns phase timing for the currently loaded match, using
// wall-clock deltas so it cannot drift if arena ticks arrive late (spec
// §4.2.3). It holds no KV/bus handles itself; the arena writes its
// observable state out each tick.
type matchRunner struct {
	durations model.PhaseDurations

	state           model.MatchPlayState
	phaseEnteredAt  time.Time
	matchStartedAt  time.Time
	hasMatchStarted bool
}

func newMatchRunner(durations model.PhaseDurations) *matchRunner {
	return &matchRunner{durations: durations, state: model.MatchWaiting}
}

// start transitions Waiting -> Warmup, called when the arena enters
// MatchPlay.
func (r *matchRunner) start(now time.Time) {
	r.state = model.MatchWarmup
	r.phaseEnteredAt = now
}

// fault forces Fault from any state — triggered only by an externally
// delivered Estop signal (spec §5, "the match runner never cancels itself").
func (r *matchRunner) fault(now time.Time) {
	r.state = model.MatchFault
	r.phaseEnteredAt = now
}

func (r *matchRunner) phaseDuration(state model.MatchPlayState) time.Duration {
	switch state {
	case model.MatchWarmup:
		return durationSeconds(r.durations.WarmupSec)
	case model.MatchAuto:
		return durationSeconds(r.durations.AutoSec)
	case model.MatchPause:
		return durationSeconds(r.durations.PauseSec)
	case model.MatchTeleop:
		return durationSeconds(r.durations.TeleopSec)
	case model.MatchCooldown:
		return durationSeconds(r.durations.CooldownSec)
	default:
		return 0
	}
}

func durationSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// tick advances the phase clock by at most one phase per call (call once
// per arena tick). It returns nothing; the arena reads the resulting state
// through serialise to decide whether to advance the top-level state
// machine.
func (r *matchRunner) tick(now time.Time) {
	if r.state == model.MatchWaiting || r.state == model.MatchCompletePlay || r.state == model.MatchFault {
		return
	}

	elapsed := now.Sub(r.phaseEnteredAt)
	duration := r.phaseDuration(r.state)
	if duration <= 0 || elapsed < duration {
		return
	}

	switch r.state {
	case model.MatchWarmup:
		r.state = model.MatchAuto
		r.matchStartedAt = now
		r.hasMatchStarted = true
	case model.MatchAuto:
		r.state = model.MatchPause
	case model.MatchPause:
		r.state = model.MatchTeleop
	case model.MatchTeleop:
		r.state = model.MatchCooldown
	case model.MatchCooldown:
		r.state = model.MatchCompletePlay
	}
	r.phaseEnteredAt = now
}

// remaining returns the time left in the current phase, floored at zero.
func (r *matchRunner) remaining(now time.Time) time.Duration {
	duration := r.phaseDuration(r.state)
	if duration <= 0 {
		return 0
	}
	left := duration - now.Sub(r.phaseEnteredAt)
	if left < 0 {
		return 0
	}
	return left
}

// matchTime returns time elapsed since Auto began, present from Auto
// onward per spec §3.
func (r *matchRunner) matchTime(now time.Time) *model.DurationMillis {
	if !r.hasMatchStarted {
		return nil
	}
	d := model.Millisf(now.Sub(r.matchStartedAt))
	return &d
}

// endgame is asserted when remaining <= 20s during Teleop and always true
// in Cooldown/Complete (spec §4.2.3).
func (r *matchRunner) endgame(now time.Time) bool {
	switch r.state {
	case model.MatchTeleop:
		return r.remaining(now) <= durationSeconds(r.durations.EndgameSec)
	case model.MatchCooldown, model.MatchCompletePlay:
		return true
	default:
		return false
	}
}

// serialise produces the SerialisedLoadedMatch snapshot written to KV each
// tick (spec §4.2.3).
func (r *matchRunner) serialise(matchId string, now time.Time) model.SerialisedLoadedMatch {
	return model.SerialisedLoadedMatch{
		MatchId:   matchId,
		State:     r.state,
		Remaining: model.Millisf(r.remaining(now)),
		MatchTime: r.matchTime(now),
		Endgame:   r.endgame(now),
	}
}
