package model

import "fmt"

// MatchType enumerates the tournament phases a Match can belong to.
type MatchType string

const (
	MatchTest          MatchType = "Test"
	MatchQualification MatchType = "Qualification"
	MatchPlayoff       MatchType = "Playoff"
	MatchFinal         MatchType = "Final"
)

// MatchId encodes a Match's schedule position into its table key, following
// spec §3: test{set}m{n}, qm{set}m{n}, el{round}s{set}m{n}, f{n}.
func MatchId(matchType MatchType, round, set, number int) string {
	switch matchType {
	case MatchTest:
		return fmt.Sprintf("test%dm%d", set, number)
	case MatchQualification:
		return fmt.Sprintf("qm%dm%d", set, number)
	case MatchPlayoff:
		return fmt.Sprintf("el%ds%dm%d", round, set, number)
	case MatchFinal:
		return fmt.Sprintf("f%d", number)
	default:
		return fmt.Sprintf("unk%dm%d", set, number)
	}
}

// Match is a schedule record (table "db:match").
type Match struct {
	Id       string    `json:"id"`
	Type     MatchType `json:"match_type"`
	Round    int       `json:"round,omitempty"`
	Set      int       `json:"set_number"`
	Number   int       `json:"match_number"`
	RedTeams  []int `json:"red_teams"`
	BlueTeams []int `json:"blue_teams"`
	// RedAlliance/BlueAlliance identify the playoff alliance number, if any.
	RedAlliance  int `json:"red_alliance,omitempty"`
	BlueAlliance int `json:"blue_alliance,omitempty"`

	RedDqs  []int `json:"red_dqs,omitempty"`
	BlueDqs []int `json:"blue_dqs,omitempty"`

	Played bool `json:"played"`
	Ready  bool `json:"ready"`
}

func (m Match) DisplayName() string {
	switch m.Type {
	case MatchQualification:
		return fmt.Sprintf("Qualification %d", m.Number)
	case MatchPlayoff:
		return fmt.Sprintf("Playoff %d-%d-%d", m.Round, m.Set, m.Number)
	case MatchFinal:
		return fmt.Sprintf("Final %d", m.Number)
	default:
		return fmt.Sprintf("Test %d", m.Number)
	}
}

// Teams returns the first three red and first three blue team numbers,
// padding with 0 where an alliance lists fewer — used by the arena to
// populate stations.
func (m Match) Teams() (red [3]int, blue [3]int) {
	for i := 0; i < 3 && i < len(m.RedTeams); i++ {
		red[i] = m.RedTeams[i]
	}
	for i := 0; i < 3 && i < len(m.BlueTeams); i++ {
		blue[i] = m.BlueTeams[i]
	}
	return
}

// MatchPlayState is the match runner's phase (spec §3/§4.2.3).
type MatchPlayState string

const (
	MatchWaiting  MatchPlayState = "Waiting"
	MatchWarmup   MatchPlayState = "Warmup"
	MatchAuto     MatchPlayState = "Auto"
	MatchPause    MatchPlayState = "Pause"
	MatchTeleop   MatchPlayState = "Teleop"
	MatchCooldown MatchPlayState = "Cooldown"
	MatchCompletePlay MatchPlayState = "Complete"
	MatchFault    MatchPlayState = "Fault"
)

// SerialisedLoadedMatch is the singleton at "arena:match", present only
// while a match is loaded.
type SerialisedLoadedMatch struct {
	MatchId   string         `json:"match_id"`
	State     MatchPlayState `json:"state"`
	Remaining DurationMillis `json:"remaining"`
	// MatchTime is present from Auto onward.
	MatchTime *DurationMillis `json:"match_time,omitempty"`
	Endgame   bool            `json:"endgame"`
}

// PhaseDurations holds the game-configurable phase lengths (spec §4.2.3
// defaults: Warmup 3s, Auto 15s, Pause 3s, Teleop 2m15s, Cooldown 3s).
type PhaseDurations struct {
	WarmupSec   float64 `yaml:"warmup_sec"`
	AutoSec     float64 `yaml:"auto_sec"`
	PauseSec    float64 `yaml:"pause_sec"`
	TeleopSec   float64 `yaml:"teleop_sec"`
	CooldownSec float64 `yaml:"cooldown_sec"`
	EndgameSec  float64 `yaml:"endgame_sec"`
}

func DefaultPhaseDurations() PhaseDurations {
	return PhaseDurations{
		WarmupSec:   3,
		AutoSec:     15,
		PauseSec:    3,
		TeleopSec:   135,
		CooldownSec: 3,
		EndgameSec:  20,
	}
}
