// Package component publishes and observes the JmsComponent heartbeat rows
// that every service writes to the coordination fabric (spec §3/§6.4), so
// that e.g. the arena can tell whether the scoring table or a driver
// station relay process is still alive without a dedicated health RPC.
// Grounded on the teacher's internal/telemetry.Metrics periodic-snapshot
// pattern, generalized from in-process counters to a shared KV row.
package component

import (
	"context"
	"time"

	"github.com/GrappleRobotics/jms/internal/fabric/kv"
	"github.com/GrappleRobotics/jms/internal/model"
)

// Heartbeat periodically upserts this process's JmsComponent row until ctx
// is cancelled. id should be stable across restarts of the same logical
// service (e.g. "arena", "ds-relay-3"); symbol is the short code shown on
// field monitor displays.
func Heartbeat(ctx context.Context, store kv.Store, id, name, symbol string) {
	table := kv.NewTable[model.JmsComponent](store, model.PrefixComponent)
	interval := time.Duration(model.ComponentHeartbeatIntervalMillis) * time.Millisecond
	timeoutMs := model.ComponentHeartbeatIntervalMillis * 4

	tick := func() {
		row := model.JmsComponent{
			Id:        id,
			Name:      name,
			Symbol:    symbol,
			TimeoutMs: int64(timeoutMs),
			LastTick:  model.NowMillis(),
		}
		// Best-effort: a missed heartbeat write is observed as staleness by
		// readers, not as a crash here.
		_ = table.Set(ctx, id, row)
	}

	tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// Status is one component heartbeat row annotated with whether it is
// within its own timeout window; ListStatus returns one per row in the
// table.
type Status struct {
	model.JmsComponent
	Alive bool
}

func ListStatus(ctx context.Context, store kv.Store) ([]Status, error) {
	table := kv.NewTable[model.JmsComponent](store, model.PrefixComponent)
	rows, err := table.List(ctx)
	if err != nil {
		return nil, err
	}
	now := model.NowMillis()
	out := make([]Status, 0, len(rows))
	for _, row := range rows {
		out = append(out, Status{JmsComponent: row, Alive: row.Live(now)})
	}
	return out, nil
}
