// Package game2026 is a concrete, illustrative LiveScore implementation
// satisfying the narrow capability interface in internal/model (spec
// §4.5/§9: "model as a narrow capability interface... do not inherit").
// It stands in for whichever scoring rubric a given season actually uses;
// the core never imports this package — it registers itself from its own
// init(), and a binary wires it in with a blank import from its main, the
// same opt-in pattern the teacher used for game-specific strategy plugins.
package game2026

import (
	"encoding/json"
	"fmt"

	"github.com/GrappleRobotics/jms/internal/model"
)

const GameKey = "game2026"

func init() {
	model.RegisterLiveScore(GameKey, func() model.LiveScore { return &Score{} })
}

// UpdateKind enumerates the scoring events this game recognises.
type UpdateKind string

const (
	UpdateAutoMobility UpdateKind = "AutoMobility"
	UpdateAutoScore    UpdateKind = "AutoScore"
	UpdateTeleopScore  UpdateKind = "TeleopScore"
	UpdateEndgameClimb UpdateKind = "EndgameClimb"
	UpdateFoul         UpdateKind = "Foul"
	UpdateAdjustment   UpdateKind = "Adjustment"
)

// ClimbLevel is the endgame climb tier, worth escalating points.
type ClimbLevel string

const (
	ClimbNone   ClimbLevel = "None"
	ClimbLow    ClimbLevel = "Low"
	ClimbHigh   ClimbLevel = "High"
	ClimbSummit ClimbLevel = "Summit"
)

var climbPoints = map[ClimbLevel]int{
	ClimbNone:   0,
	ClimbLow:    5,
	ClimbHigh:   10,
	ClimbSummit: 15,
}

// ScoreUpdate is the tagged-variant mutation command (spec §4.5:
// "mutation via a tagged-variant ScoreUpdate").
type ScoreUpdate struct {
	Kind UpdateKind `json:"kind"`

	RobotIndex int `json:"robot_index,omitempty"` // 0..2, for per-robot events
	Points     int `json:"points,omitempty"`      // for AutoScore/TeleopScore
	Major      bool `json:"major,omitempty"`       // for Foul: major fouls are worth more

	Climb      ClimbLevel `json:"climb,omitempty"`
	Adjustment int        `json:"adjustment,omitempty"`
}

// Score is one alliance's mutable scoring state for a match.
type Score struct {
	MobilityCount int `json:"mobility_count"`
	AutoPoints    int `json:"auto_points"`
	TeleopPoints  int `json:"teleop_points"`

	Climbs [3]ClimbLevel `json:"climbs"`

	MinorFouls int `json:"minor_fouls"`
	MajorFouls int `json:"major_fouls"`
	Adjustment int `json:"adjustment"`

	Disqualified bool `json:"disqualified"`
}

func (s *Score) GameKey() string { return GameKey }

func (s *Score) SetDisqualified(dq bool) { s.Disqualified = dq }

func (s *Score) IsDisqualified() bool { return s.Disqualified }

func (s *Score) ApplyUpdate(data json.RawMessage) error {
	var u ScoreUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("game2026: decode score update: %w", err)
	}
	switch u.Kind {
	case UpdateAutoMobility:
		s.MobilityCount++
	case UpdateAutoScore:
		s.AutoPoints += u.Points
	case UpdateTeleopScore:
		s.TeleopPoints += u.Points
	case UpdateEndgameClimb:
		if u.RobotIndex < 0 || u.RobotIndex > 2 {
			return fmt.Errorf("game2026: robot index %d out of range", u.RobotIndex)
		}
		s.Climbs[u.RobotIndex] = u.Climb
	case UpdateFoul:
		if u.Major {
			s.MajorFouls++
		} else {
			s.MinorFouls++
		}
	case UpdateAdjustment:
		s.Adjustment += u.Adjustment
	default:
		return fmt.Errorf("game2026: unknown score update kind %q", u.Kind)
	}
	return nil
}

// endgamePoints sums the per-robot climb scores.
func (s *Score) endgamePoints() int {
	total := 0
	for _, c := range s.Climbs {
		total += climbPoints[c]
	}
	return total
}

// mobilityBonus returns how many auto mobility events were recorded;
// Derive awards one bonus ranking point once it reaches
// mobilityRPThreshold.
func (s *Score) mobilityBonus() int {
	return s.MobilityCount
}

const (
	minorFoulPoints = 2
	majorFoulPoints = 6

	mobilityRPThreshold = 3
	climbRPThreshold    = 2
)

// rawTotal computes this alliance's total score given the penalty it was
// credited from the opponent's fouls, without comparing against the
// opponent's total — used both directly and by the opponent's Derive to
// determine the win/loss/tie outcome. This folds endgame climb points into
// the total directly rather than reporting them only via EndgamePoints
// (climbing is worth real match points in this game, same as auto/teleop
// scoring zones), which is why TotalScore here is auto+teleop+penalty+
// adjustment+endgame rather than the narrower formula a scoreless-endgame
// game would use.
func (s *Score) rawTotal(penaltyFromOpponent int) int {
	total := s.AutoPoints + s.TeleopPoints + penaltyFromOpponent + s.Adjustment + s.endgamePoints()
	if total < 0 {
		total = 0
	}
	return total
}

// Derive implements spec §4.5's derivation contract. other is the
// opponent's Score; fouls committed by other credit penalty points here.
func (s *Score) Derive(other model.LiveScore) model.DerivedScore {
	opponent, _ := other.(*Score)
	penalty, opponentPenalty := 0, 0
	if opponent != nil {
		penalty = opponent.MinorFouls*minorFoulPoints + opponent.MajorFouls*majorFoulPoints
		opponentPenalty = s.MinorFouls*minorFoulPoints + s.MajorFouls*majorFoulPoints
	}

	total := s.rawTotal(penalty)
	endgame := s.endgamePoints()

	winStatus := model.Tie
	winRP := 1
	if opponent != nil {
		opponentTotal := opponent.rawTotal(opponentPenalty)
		switch {
		case total > opponentTotal:
			winStatus, winRP = model.Win, 2
		case total < opponentTotal:
			winStatus, winRP = model.Loss, 0
		}
	}

	bonusRP := 0
	if s.mobilityBonus() >= mobilityRPThreshold {
		bonusRP++
	}
	climbed := 0
	for _, c := range s.Climbs {
		if c != ClimbNone {
			climbed++
		}
	}
	if climbed >= climbRPThreshold {
		bonusRP++
	}

	// A disqualified alliance forfeits the match: no ranking points at all,
	// and it can only draw (never win) against an opponent also DQ'd.
	if s.Disqualified {
		bonusRP, winRP = 0, 0
		winStatus = model.Loss
		if opponent != nil && opponent.Disqualified {
			winStatus = model.Tie
		}
	} else if opponent != nil && opponent.Disqualified {
		winStatus, winRP = model.Win, 2
	}

	return model.DerivedScore{
		ModeScore:     model.ModeScore{Auto: s.AutoPoints, Teleop: s.TeleopPoints},
		PenaltyScore:  penalty,
		TotalScore:    total,
		WinStatus:     winStatus,
		WinRP:         winRP,
		TotalBonusRP:  bonusRP,
		TotalRP:       winRP + bonusRP,
		EndgamePoints: endgame,
	}
}
