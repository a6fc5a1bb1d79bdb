package persist

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/GrappleRobotics/jms/internal/fabric/bus"
	"github.com/GrappleRobotics/jms/internal/model"
)

// Run subscribes to arena.state.new and arena.scores.publish and appends
// every delivery to store until ctx is cancelled.
func Run(ctx context.Context, ps bus.PubSub, store *Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	stateSub, err := ps.Subscribe(ctx, model.TopicArenaStateNew)
	if err != nil {
		return err
	}
	defer stateSub.Close()

	scoreSub, err := ps.Subscribe(ctx, model.TopicArenaScoresPublish)
	if err != nil {
		return err
	}
	defer scoreSub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-stateSub.C():
			if !ok {
				return nil
			}
			if err := store.RecordState(msg.Payload); err != nil {
				log.Warn("persist: record state failed", "error", err)
			}
		case msg, ok := <-scoreSub.C():
			if !ok {
				return nil
			}
			var matchId string
			if err := json.Unmarshal(msg.Payload, &matchId); err != nil {
				log.Warn("persist: decode match id failed", "error", err)
				continue
			}
			if err := store.RecordScorePublish(matchId); err != nil {
				log.Warn("persist: record score publish failed", "error", err)
			}
		}
	}
}
