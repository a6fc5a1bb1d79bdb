package arena

import (
	"context"

	"github.com/GrappleRobotics/jms/internal/model"
)

// processStationInputs applies the latching estop/astop rule from spec
// §4.2.2: a physically-estopped station latches astop while the match
// runner is in Auto, otherwise it latches the full estop. Called at the
// top of every tick, before state evaluation.
func processStationInputs(stations []model.AllianceStation, runnerInAuto bool) (changed []model.AllianceStation) {
	for i := range stations {
		s := &stations[i]
		if !s.PhysicalEstop {
			continue
		}
		before := *s
		if runnerInAuto {
			s.Astop = true
		} else {
			s.Estop = true
		}
		if *s != before {
			changed = append(changed, *s)
		}
	}
	return changed
}

// notDSReady returns the ids of every non-bypassed station whose driver
// station hasn't reported a good ethernet link, used to gate MatchArm
// unless the signal carries force:true.
func notDSReady(stations []model.AllianceStation) []model.AllianceStationId {
	var bad []model.AllianceStationId
	for _, s := range stations {
		if s.Bypass {
			continue
		}
		if s.DsEthOk == nil || !*s.DsEthOk {
			bad = append(bad, s.Id)
		}
	}
	return bad
}

// loadStations reads all six AllianceStation rows, creating any missing
// ones with defaults (used defensively; Reset is the normal creator).
func (a *Arena) loadStations(ctx context.Context) ([]model.AllianceStation, error) {
	out := make([]model.AllianceStation, 0, 6)
	for _, id := range model.AllStationIds() {
		st, err := a.stations.GetOptional(ctx, id.String())
		if err != nil {
			return nil, err
		}
		if st == nil {
			fresh := model.NewAllianceStation(id)
			st = &fresh
		}
		out = append(out, *st)
	}
	return out, nil
}

func (a *Arena) saveStations(ctx context.Context, stations []model.AllianceStation) error {
	for _, st := range stations {
		if err := a.stations.Set(ctx, st.Id.String(), st); err != nil {
			return err
		}
	}
	return nil
}

// resetStations recreates all six stations with default values and clears
// the current match, performed on entry into Reset{false} (spec §4.2.1).
func (a *Arena) resetStations(ctx context.Context) error {
	for _, id := range model.AllStationIds() {
		if err := a.stations.Set(ctx, id.String(), model.NewAllianceStation(id)); err != nil {
			return err
		}
	}
	return nil
}

// clearStationLatches clears estop/astop/physical_estop/bypass on every
// station, performed on first entry into Idle after Reset (spec §4.2.1).
func (a *Arena) clearStationLatches(ctx context.Context) error {
	stations, err := a.loadStations(ctx)
	if err != nil {
		return err
	}
	for i := range stations {
		stations[i].ClearLatches()
	}
	return a.saveStations(ctx, stations)
}
