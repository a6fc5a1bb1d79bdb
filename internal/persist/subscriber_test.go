package persist

import (
	"context"
	"testing"
	"time"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/model"
)

func TestRunRecordsStateAndScorePublishes(t *testing.T) {
	store := openTestStore(t)
	ps := bus.NewMemBus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Run(ctx, ps, store, nil) }()

	time.Sleep(10 * time.Millisecond)

	if err := ps.Publish(ctx, model.TopicArenaStateNew, []byte(`{"kind":"Idle"}`)); err != nil {
		t.Fatalf("publish state: %v", err)
	}
	if err := ps.Publish(ctx, model.TopicArenaScoresPublish, []byte(`"qm1"`)); err != nil {
		t.Fatalf("publish score: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		var stateCount, scoreCount int
		store.db.QueryRow(`SELECT COUNT(*) FROM arena_state_log`).Scan(&stateCount)
		store.db.QueryRow(`SELECT COUNT(*) FROM score_publish_log`).Scan(&scoreCount)
		if stateCount == 1 && scoreCount == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for records: state=%d score=%d", stateCount, scoreCount)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not exit after cancel")
	}
}
