// Package ranking recomputes TeamRanking rows from committed qualification
// match scores (spec §4.6). Recomputation is idempotent and safe to run
// from multiple triggers concurrently — singleflight collapses concurrent
// callers into one scan, the same dedup pattern the teacher's
// ticker.Resolver used to collapse concurrent odds recomputation.
package ranking

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/sync/singleflight"

	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
)

// Recomputer owns the singleflight group so repeated calls from the
// arena's commit path and any manual admin trigger collapse into one scan.
type Recomputer struct {
	store kv.Store
	group singleflight.Group
}

func NewRecomputer(store kv.Store) *Recomputer {
	return &Recomputer{store: store}
}

// Recompute rescans every committed qualification match and rewrites the
// "db:ranking" table: rows of teams no longer ranked are deleted, then
// every current row is overwritten, non-atomically by design (spec §4.6:
// "best-effort... readers retry").
func (r *Recomputer) Recompute(ctx context.Context) error {
	_, err, _ := r.group.Do("recompute", func() (any, error) {
		return nil, r.recomputeOnce(ctx)
	})
	return err
}

func (r *Recomputer) recomputeOnce(ctx context.Context) error {
	matches := kv.NewTable[model.Match](r.store, model.PrefixMatch)
	scores := kv.NewTable[model.CommittedMatchScores](r.store, model.PrefixScores)
	rankings := kv.NewTable[model.TeamRanking](r.store, model.PrefixRanking)

	allMatches, err := matches.List(ctx)
	if err != nil {
		return fmt.Errorf("ranking: list matches: %w", err)
	}

	priorRandom := make(map[int]float64)
	priorRows, err := rankings.List(ctx)
	if err != nil {
		return fmt.Errorf("ranking: list prior rows: %w", err)
	}
	for _, row := range priorRows {
		priorRandom[row.Team] = row.RandomNum
	}

	totals := make(map[int]*model.TeamRanking)
	touch := func(team int) *model.TeamRanking {
		if t, ok := totals[team]; ok {
			return t
		}
		// Seed the random tiebreak once per team, the first time it's ever
		// ranked, and carry it forward on every later recompute.
		random, seen := priorRandom[team]
		if !seen {
			random = rand.Float64()
		}
		t := &model.TeamRanking{Team: team, RandomNum: random}
		totals[team] = t
		return t
	}

	for _, m := range allMatches {
		if m.Type != model.MatchQualification || !m.Played {
			continue
		}
		committed, err := scores.GetOptional(ctx, m.Id)
		if err != nil {
			return fmt.Errorf("ranking: scores for %s: %w", m.Id, err)
		}
		if committed == nil {
			continue
		}
		current, ok := committed.Current()
		if !ok {
			continue
		}
		red := current.DeriveRed()
		blue := current.DeriveBlue()

		applyAlliance(touch, m.RedTeams, red)
		applyAlliance(touch, m.BlueTeams, blue)
	}

	for _, row := range priorRows {
		if _, stillPlayed := totals[row.Team]; !stillPlayed {
			if err := rankings.Delete(ctx, fmt.Sprint(row.Team)); err != nil {
				return fmt.Errorf("ranking: clear stale row %d: %w", row.Team, err)
			}
		}
	}
	for team, t := range totals {
		if err := rankings.Set(ctx, fmt.Sprint(team), *t); err != nil {
			return fmt.Errorf("ranking: write row %d: %w", team, err)
		}
	}
	return nil
}

func applyAlliance(touch func(int) *model.TeamRanking, teams []int, derived model.DerivedScore) {
	for _, team := range teams {
		if team == 0 {
			continue
		}
		t := touch(team)
		t.RP += derived.TotalRP
		t.AutoPoints += derived.ModeScore.Auto
		t.TeleopPoints += derived.ModeScore.Teleop
		t.EndgamePoints += derived.EndgamePoints
		t.Played++
		switch derived.WinStatus {
		case model.Win:
			t.Win++
		case model.Loss:
			t.Loss++
		case model.Tie:
			t.Tie++
		}
	}
}
