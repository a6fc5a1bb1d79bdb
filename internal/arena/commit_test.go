package arena

import (
	"context"
	"testing"

	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/scoring/game2026"
)

func TestPropagateDqsOnlyAppliesToPlayoffAndFinal(t *testing.T) {
	red, blue := &game2026.Score{}, &game2026.Score{}
	score := &model.MatchScore{Red: red, Blue: blue}
	match := model.Match{Type: model.MatchQualification, RedDqs: []int{254}}

	propagateDqs(match, score)

	if red.IsDisqualified() {
		t.Fatalf("qualification match DQ should not forfeit the live score")
	}
}

func TestPropagateDqsFlagsRedAndBlueIndependently(t *testing.T) {
	red, blue := &game2026.Score{}, &game2026.Score{}
	score := &model.MatchScore{Red: red, Blue: blue}
	match := model.Match{Type: model.MatchPlayoff, RedDqs: []int{254}}

	propagateDqs(match, score)

	if !red.IsDisqualified() {
		t.Fatalf("expected red alliance flagged disqualified")
	}
	if blue.IsDisqualified() {
		t.Fatalf("blue alliance should be untouched when only RedDqs is set")
	}
}

func TestPropagateDqsNoopWhenNoDqs(t *testing.T) {
	red, blue := &game2026.Score{}, &game2026.Score{}
	score := &model.MatchScore{Red: red, Blue: blue}
	match := model.Match{Type: model.MatchFinal}

	propagateDqs(match, score)

	if red.IsDisqualified() || blue.IsDisqualified() {
		t.Fatalf("no dqs listed, expected both alliances untouched")
	}
}

func TestCommitScorePropagatesDqIntoStoredScore(t *testing.T) {
	a := newTestArena(t)
	ctx := context.Background()

	if err := a.matches.Set(ctx, "f1", model.Match{
		Id: "f1", Type: model.MatchFinal, RedTeams: []int{254, 1114, 1678}, BlueTeams: []int{148, 971, 2056},
		RedDqs: []int{254},
	}); err != nil {
		t.Fatalf("seed match: %v", err)
	}
	if err := a.liveScore.Set(ctx, model.MatchScore{
		Red:  &game2026.Score{AutoPoints: 50},
		Blue: &game2026.Score{AutoPoints: 10},
	}); err != nil {
		t.Fatalf("seed live score: %v", err)
	}

	if err := a.commitScore(ctx, "f1"); err != nil {
		t.Fatalf("commitScore: %v", err)
	}

	committed, err := a.scores.Get(ctx, "f1")
	if err != nil {
		t.Fatalf("read committed scores: %v", err)
	}
	current, ok := committed.Current()
	if !ok {
		t.Fatalf("expected a committed score to be present")
	}
	red := current.Red.(*game2026.Score)
	if !red.IsDisqualified() {
		t.Fatalf("stored red score should carry the disqualification")
	}
	derived := current.DeriveRed()
	if derived.WinStatus != model.Loss {
		t.Fatalf("WinStatus = %v, want Loss for a disqualified alliance despite outscoring its opponent", derived.WinStatus)
	}
}
