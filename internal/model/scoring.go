package model

import (
	"encoding/json"
	"fmt"
)

// WinStatus is the result of comparing two alliances' total scores.
type WinStatus string

const (
	Win  WinStatus = "Win"
	Loss WinStatus = "Loss"
	Tie  WinStatus = "Tie"
)

// ModeScore splits a score into its autonomous and teleop contributions.
type ModeScore struct {
	Auto   int `json:"auto"`
	Teleop int `json:"teleop"`
}

// DerivedScore is the output of LiveScore.Derive (spec §3/§4.5): the
// read-only view used for display, ranking point accounting, and winner
// determination. It is intentionally flat — every field named in the spec
// is present directly, none nested behind game-specific structure.
type DerivedScore struct {
	ModeScore     ModeScore `json:"mode_score"`
	PenaltyScore  int       `json:"penalty_score"`
	TotalScore    int       `json:"total_score"`
	WinStatus     WinStatus `json:"win_status"`
	WinRP         int       `json:"win_rp"`
	TotalBonusRP  int       `json:"total_bonus_rp"`
	TotalRP       int       `json:"total_rp"`
	EndgamePoints int       `json:"endgame_points"`
}

// LiveScore is the narrow capability interface every game-specific scoring
// implementation satisfies (spec §3/§9: "model as a narrow capability
// interface ... do not inherit"). The core never inspects a LiveScore's
// internal fields; it only mutates via ApplyUpdate and reads via Derive.
type LiveScore interface {
	// GameKey identifies which registered implementation produced this
	// value, used to pick the right concrete type back out of JSON.
	GameKey() string
	// ApplyUpdate decodes and applies a single game-specific ScoreUpdate
	// (a tagged JSON payload whose shape is opaque to the core).
	ApplyUpdate(update json.RawMessage) error
	// Derive computes the read-only view of this alliance's score, given
	// the other alliance's LiveScore (needed because fouls committed by
	// the other alliance credit penalty points to this one).
	Derive(other LiveScore) DerivedScore
	// SetDisqualified marks this alliance disqualified, propagated from
	// Match.RedDqs/BlueDqs on commit (spec §3: "propagate DQs into the
	// score before storing"). A disqualified alliance forfeits the match
	// regardless of points scored.
	SetDisqualified(dq bool)
	// IsDisqualified reports the flag SetDisqualified last set.
	IsDisqualified() bool
}

// liveScoreFactories is the registry concrete game packages install
// themselves into via RegisterLiveScore, so MatchScore can deserialize a
// polymorphic LiveScore value out of the KV store without the model
// package importing any specific game package.
var liveScoreFactories = map[string]func() LiveScore{}

// RegisterLiveScore installs a factory for a game key. Call from a game
// package's init().
func RegisterLiveScore(gameKey string, factory func() LiveScore) {
	liveScoreFactories[gameKey] = factory
}

type liveScoreEnvelope struct {
	GameKey string          `json:"game_key"`
	Data    json.RawMessage `json:"data"`
}

func marshalLiveScore(ls LiveScore) ([]byte, error) {
	if ls == nil {
		return json.Marshal(nil)
	}
	data, err := json.Marshal(ls)
	if err != nil {
		return nil, fmt.Errorf("marshal live score: %w", err)
	}
	return json.Marshal(liveScoreEnvelope{GameKey: ls.GameKey(), Data: data})
}

func unmarshalLiveScore(data []byte) (LiveScore, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var env liveScoreEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal live score envelope: %w", err)
	}
	factory, ok := liveScoreFactories[env.GameKey]
	if !ok {
		return nil, fmt.Errorf("no registered live score for game key %q", env.GameKey)
	}
	ls := factory()
	if err := json.Unmarshal(env.Data, ls); err != nil {
		return nil, fmt.Errorf("unmarshal live score data: %w", err)
	}
	return ls, nil
}

// MatchScore is a pair of LiveScore records, one per alliance (spec §3).
type MatchScore struct {
	Red  LiveScore `json:"-"`
	Blue LiveScore `json:"-"`
}

func (ms MatchScore) MarshalJSON() ([]byte, error) {
	red, err := marshalLiveScore(ms.Red)
	if err != nil {
		return nil, err
	}
	blue, err := marshalLiveScore(ms.Blue)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Red  json.RawMessage `json:"red"`
		Blue json.RawMessage `json:"blue"`
	}{Red: red, Blue: blue})
}

func (ms *MatchScore) UnmarshalJSON(data []byte) error {
	var raw struct {
		Red  json.RawMessage `json:"red"`
		Blue json.RawMessage `json:"blue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	red, err := unmarshalLiveScore(raw.Red)
	if err != nil {
		return fmt.Errorf("red alliance: %w", err)
	}
	blue, err := unmarshalLiveScore(raw.Blue)
	if err != nil {
		return fmt.Errorf("blue alliance: %w", err)
	}
	ms.Red, ms.Blue = red, blue
	return nil
}

// DeriveRed/DeriveBlue compute each alliance's DerivedScore against the
// opponent, per spec §4.5.
func (ms MatchScore) DeriveRed() DerivedScore  { return ms.Red.Derive(ms.Blue) }
func (ms MatchScore) DeriveBlue() DerivedScore { return ms.Blue.Derive(ms.Red) }

// CommittedMatchScores is the append-only table "db:scores"; the last
// element is authoritative (spec §3).
type CommittedMatchScores struct {
	MatchId    string       `json:"match_id"`
	Scores     []MatchScore `json:"scores"`
	LastUpdate Millis       `json:"last_update"`
}

// Current returns the authoritative (most recent) score, or false if none
// have been committed yet.
func (c CommittedMatchScores) Current() (MatchScore, bool) {
	if len(c.Scores) == 0 {
		return MatchScore{}, false
	}
	return c.Scores[len(c.Scores)-1], true
}

// Push appends a new score snapshot and bumps LastUpdate (spec §4.5: "append
// to CommittedMatchScores.scores, update last_update").
func (c *CommittedMatchScores) Push(ms MatchScore) {
	c.Scores = append(c.Scores, ms)
	c.LastUpdate = NowMillis()
}
