package game2026

import (
	"encoding/json"
	"testing"

	"github.com/GrappleRobotics/jms/internal/model"
)

func apply(t *testing.T, s *Score, u ScoreUpdate) {
	t.Helper()
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal update: %v", err)
	}
	if err := s.ApplyUpdate(data); err != nil {
		t.Fatalf("ApplyUpdate(%+v): %v", u, err)
	}
}

func TestApplyUpdateAccumulates(t *testing.T) {
	s := &Score{}
	apply(t, s, ScoreUpdate{Kind: UpdateAutoMobility})
	apply(t, s, ScoreUpdate{Kind: UpdateAutoMobility})
	apply(t, s, ScoreUpdate{Kind: UpdateAutoScore, Points: 10})
	apply(t, s, ScoreUpdate{Kind: UpdateTeleopScore, Points: 20})
	apply(t, s, ScoreUpdate{Kind: UpdateEndgameClimb, RobotIndex: 0, Climb: ClimbHigh})
	apply(t, s, ScoreUpdate{Kind: UpdateFoul, Major: true})
	apply(t, s, ScoreUpdate{Kind: UpdateAdjustment, Adjustment: -5})

	if s.MobilityCount != 2 {
		t.Errorf("MobilityCount = %d, want 2", s.MobilityCount)
	}
	if s.AutoPoints != 10 || s.TeleopPoints != 20 {
		t.Errorf("points = %d/%d, want 10/20", s.AutoPoints, s.TeleopPoints)
	}
	if s.Climbs[0] != ClimbHigh {
		t.Errorf("Climbs[0] = %v, want High", s.Climbs[0])
	}
	if s.MajorFouls != 1 {
		t.Errorf("MajorFouls = %d, want 1", s.MajorFouls)
	}
	if s.Adjustment != -5 {
		t.Errorf("Adjustment = %d, want -5", s.Adjustment)
	}
}

func TestApplyUpdateRejectsBadRobotIndex(t *testing.T) {
	s := &Score{}
	if err := s.ApplyUpdate([]byte(`{"kind":"EndgameClimb","robot_index":5,"climb":"Low"}`)); err == nil {
		t.Fatalf("expected error for out-of-range robot index")
	}
}

func TestApplyUpdateRejectsUnknownKind(t *testing.T) {
	s := &Score{}
	if err := s.ApplyUpdate([]byte(`{"kind":"Nonsense"}`)); err == nil {
		t.Fatalf("expected error for unknown update kind")
	}
}

func TestDeriveFoulsCreditOpponent(t *testing.T) {
	red := &Score{AutoPoints: 10, TeleopPoints: 10}  // total 20
	blue := &Score{AutoPoints: 10, TeleopPoints: 10, MajorFouls: 1} // blue's foul credits red +6

	derived := red.Derive(blue)
	if derived.PenaltyScore != 6 {
		t.Fatalf("PenaltyScore = %d, want 6", derived.PenaltyScore)
	}
	if derived.TotalScore != 26 {
		t.Fatalf("TotalScore = %d, want 26", derived.TotalScore)
	}
	if derived.WinStatus != model.Win {
		t.Fatalf("WinStatus = %v, want Win (20+6 penalty beats blue's 20)", derived.WinStatus)
	}
	if derived.WinRP != 2 {
		t.Fatalf("WinRP = %d, want 2", derived.WinRP)
	}
}

func TestDeriveTieWhenEqual(t *testing.T) {
	red := &Score{AutoPoints: 5, TeleopPoints: 5}
	blue := &Score{AutoPoints: 5, TeleopPoints: 5}

	if got := red.Derive(blue).WinStatus; got != model.Tie {
		t.Fatalf("WinStatus = %v, want Tie", got)
	}
	if got := blue.Derive(red).WinStatus; got != model.Tie {
		t.Fatalf("WinStatus (blue) = %v, want Tie", got)
	}
}

func TestDeriveBonusRPThresholds(t *testing.T) {
	s := &Score{}
	s.MobilityCount = mobilityRPThreshold
	s.Climbs = [3]ClimbLevel{ClimbLow, ClimbHigh, ClimbNone}

	derived := s.Derive(&Score{})
	if derived.TotalBonusRP != 2 {
		t.Fatalf("TotalBonusRP = %d, want 2 (mobility + climb thresholds both met)", derived.TotalBonusRP)
	}
	if derived.EndgamePoints != climbPoints[ClimbLow]+climbPoints[ClimbHigh] {
		t.Fatalf("EndgamePoints = %d, want %d", derived.EndgamePoints, climbPoints[ClimbLow]+climbPoints[ClimbHigh])
	}
}

func TestDeriveNeverGoesNegative(t *testing.T) {
	s := &Score{Adjustment: -1000}
	derived := s.Derive(&Score{})
	if derived.TotalScore != 0 {
		t.Fatalf("TotalScore = %d, want clamped to 0", derived.TotalScore)
	}
}

func TestDeriveDisqualifiedAllianceAlwaysLoses(t *testing.T) {
	red := &Score{AutoPoints: 100, TeleopPoints: 100, Disqualified: true}
	blue := &Score{AutoPoints: 1}

	derived := red.Derive(blue)
	if derived.WinStatus != model.Loss {
		t.Fatalf("WinStatus = %v, want Loss despite outscoring the opponent", derived.WinStatus)
	}
	if derived.WinRP != 0 || derived.TotalBonusRP != 0 {
		t.Fatalf("WinRP=%d TotalBonusRP=%d, want both 0 for a disqualified alliance", derived.WinRP, derived.TotalBonusRP)
	}

	opponentDerived := blue.Derive(red)
	if opponentDerived.WinStatus != model.Win {
		t.Fatalf("opponent WinStatus = %v, want Win against a disqualified alliance", opponentDerived.WinStatus)
	}
	if opponentDerived.WinRP != 2 {
		t.Fatalf("opponent WinRP = %d, want 2", opponentDerived.WinRP)
	}
}

func TestDeriveBothDisqualifiedIsATie(t *testing.T) {
	red := &Score{Disqualified: true}
	blue := &Score{Disqualified: true}

	if got := red.Derive(blue).WinStatus; got != model.Tie {
		t.Fatalf("WinStatus = %v, want Tie when both alliances are disqualified", got)
	}
}

func TestSetAndIsDisqualified(t *testing.T) {
	s := &Score{}
	if s.IsDisqualified() {
		t.Fatalf("new Score reported disqualified")
	}
	s.SetDisqualified(true)
	if !s.IsDisqualified() {
		t.Fatalf("SetDisqualified(true) did not stick")
	}
}

func TestGameKeyAndRegistration(t *testing.T) {
	s := &Score{}
	if s.GameKey() != GameKey {
		t.Fatalf("GameKey() = %q, want %q", s.GameKey(), GameKey)
	}

	var ms model.MatchScore
	if err := json.Unmarshal([]byte(`{"red":{"game_key":"game2026","data":{}},"blue":null}`), &ms); err != nil {
		t.Fatalf("unmarshal with game key %q: %v, want the init() registration to resolve it", GameKey, err)
	}
}
