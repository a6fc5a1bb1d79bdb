package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
)

type loadRequest struct {
	matchId string
	result  chan<- error
}

type unloadRequest struct {
	result chan<- error
}

// LoadMatch loads a Match's teams into the alliance stations. Permitted
// only while the arena is Idle (spec §4.2.4).
func (a *Arena) LoadMatch(ctx context.Context, matchId string) error {
	result := make(chan error, 1)
	select {
	case a.loadRequests <- loadRequest{matchId: matchId, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UnloadMatch clears the loaded match and resets station team assignments.
// Permitted only while the arena is Idle (spec §4.2.4).
func (a *Arena) UnloadMatch(ctx context.Context) error {
	result := make(chan error, 1)
	select {
	case a.unloadRequests <- unloadRequest{result: result}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Arena) handleLoadMatch(ctx context.Context, matchId string) error {
	if a.currentState.Kind != model.ArenaIdle {
		return fmt.Errorf("arena: load_match only permitted in Idle, current state is %s", a.currentState)
	}
	match, err := a.matches.Get(ctx, matchId)
	if err != nil {
		return fmt.Errorf("arena: load match %s: %w", matchId, err)
	}

	red, blue := match.Teams()
	assignments := map[model.AllianceStationId]int{
		{Alliance: model.AllianceRed, Station: 1}:  red[0],
		{Alliance: model.AllianceRed, Station: 2}:  red[1],
		{Alliance: model.AllianceRed, Station: 3}:  red[2],
		{Alliance: model.AllianceBlue, Station: 1}: blue[0],
		{Alliance: model.AllianceBlue, Station: 2}: blue[1],
		{Alliance: model.AllianceBlue, Station: 3}: blue[2],
	}
	stations, err := a.loadStations(ctx)
	if err != nil {
		return err
	}
	for i := range stations {
		team := assignments[stations[i].Id]
		if team != 0 {
			t := team
			stations[i].Team = &t
		}
	}
	if err := a.saveStations(ctx, stations); err != nil {
		return err
	}

	if err := a.liveScore.Delete(ctx); err != nil && err != kv.ErrNotFound {
		return fmt.Errorf("arena: clear stale live score: %w", err)
	}

	a.loadedMatchId = matchId
	a.runner = newMatchRunner(a.runner.durations)
	snapshot := a.runner.serialise(matchId, time.Now())
	return a.matchSingleton.Set(ctx, snapshot)
}

func (a *Arena) handleUnloadMatch(ctx context.Context) error {
	if a.currentState.Kind != model.ArenaIdle {
		return fmt.Errorf("arena: unload_match only permitted in Idle, current state is %s", a.currentState)
	}
	stations, err := a.loadStations(ctx)
	if err != nil {
		return err
	}
	for i := range stations {
		stations[i].Team = nil
	}
	if err := a.saveStations(ctx, stations); err != nil {
		return err
	}
	a.loadedMatchId = ""
	return a.matchSingleton.Delete(ctx)
}
