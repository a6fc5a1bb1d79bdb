package arena

import (
	"context"
	"fmt"

	"github.com/GrappleRobotics/jms/internal/model"
)

// commitScore implements the score-commit path from spec §4.5/§4.2.1,
// run as part of handling the MatchCommit signal: push the live score
// into the match's committed history, mark it played, propagate DQs,
// recompute rankings, and announce the commit on the topic bus.
func (a *Arena) commitScore(ctx context.Context, matchId string) error {
	live, err := a.liveScore.GetOptional(ctx)
	if err != nil {
		return fmt.Errorf("arena: read live score: %w", err)
	}
	if live == nil {
		return nil // no score was ever entered for this match; nothing to commit
	}

	match, err := a.matches.Get(ctx, matchId)
	if err != nil {
		return fmt.Errorf("arena: load match %s for commit: %w", matchId, err)
	}

	committed, err := a.scores.GetOptional(ctx, matchId)
	if err != nil {
		return fmt.Errorf("arena: read committed scores for %s: %w", matchId, err)
	}
	if committed == nil {
		committed = &model.CommittedMatchScores{MatchId: matchId}
	}
	propagateDqs(match, live)
	committed.Push(*live)
	if err := a.scores.Set(ctx, matchId, *committed); err != nil {
		return fmt.Errorf("arena: persist committed scores for %s: %w", matchId, err)
	}

	match.Played = true
	if err := a.matches.Set(ctx, matchId, match); err != nil {
		return fmt.Errorf("arena: mark match %s played: %w", matchId, err)
	}

	if a.recomputer != nil {
		if err := a.recomputer.Recompute(ctx); err != nil {
			return fmt.Errorf("arena: recompute rankings after %s: %w", matchId, err)
		}
	}

	data := []byte(fmt.Sprintf("%q", matchId))
	if err := a.ps.Publish(ctx, model.TopicArenaScoresPublish, data); err != nil {
		a.log.Error("publish arena.scores.publish failed", "error", err)
	}

	return a.liveScore.Delete(ctx)
}

// propagateDqs flags each alliance's live score disqualified if any of its
// teams is listed in Match.RedDqs/BlueDqs (spec §3). Only playoff/final
// matches are elimination rounds where a DQ forfeits the match outright.
func propagateDqs(match model.Match, score *model.MatchScore) {
	if match.Type != model.MatchPlayoff && match.Type != model.MatchFinal {
		return
	}
	if len(match.RedDqs) > 0 && score.Red != nil {
		score.Red.SetDisqualified(true)
	}
	if len(match.BlueDqs) > 0 && score.Blue != nil {
		score.Blue.SetDisqualified(true)
	}
}
