package model_test

import (
	"encoding/json"
	"testing"

	"github.com/GrappleRobotics/jms/internal/model"
	"github.com/GrappleRobotics/jms/internal/scoring/game2026"
)

func TestMatchScoreRoundTripsThroughRegisteredFactory(t *testing.T) {
	ms := model.MatchScore{
		Red:  &game2026.Score{AutoPoints: 12, TeleopPoints: 34},
		Blue: &game2026.Score{AutoPoints: 1, TeleopPoints: 2},
	}

	data, err := json.Marshal(ms)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out model.MatchScore
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	red, ok := out.Red.(*game2026.Score)
	if !ok {
		t.Fatalf("out.Red = %T, want *game2026.Score", out.Red)
	}
	if red.AutoPoints != 12 || red.TeleopPoints != 34 {
		t.Fatalf("red = %+v, want AutoPoints 12, TeleopPoints 34", red)
	}

	derived := out.DeriveRed()
	if derived.TotalScore != 12+34 {
		t.Fatalf("DeriveRed().TotalScore = %d, want 46", derived.TotalScore)
	}
}

func TestMatchScoreUnmarshalUnregisteredGameKeyFails(t *testing.T) {
	var out model.MatchScore
	err := json.Unmarshal([]byte(`{"red":{"game_key":"nonexistent","data":{}},"blue":null}`), &out)
	if err == nil {
		t.Fatalf("expected error unmarshaling an unregistered game key")
	}
}

func TestCommittedMatchScoresCurrent(t *testing.T) {
	var c model.CommittedMatchScores
	if _, ok := c.Current(); ok {
		t.Fatalf("Current() on empty scores reported ok=true")
	}

	first := model.MatchScore{Red: &game2026.Score{AutoPoints: 1}, Blue: &game2026.Score{}}
	second := model.MatchScore{Red: &game2026.Score{AutoPoints: 2}, Blue: &game2026.Score{}}
	c.Push(first)
	c.Push(second)

	current, ok := c.Current()
	if !ok {
		t.Fatalf("Current() reported ok=false after Push")
	}
	red := current.Red.(*game2026.Score)
	if red.AutoPoints != 2 {
		t.Fatalf("Current().Red.AutoPoints = %d, want 2 (last pushed wins)", red.AutoPoints)
	}
}
