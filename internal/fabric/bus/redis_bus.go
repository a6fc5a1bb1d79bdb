package bus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus is the production PubSub backed by a single Redis instance.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(addr, password string, db int) *RedisBus {
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (b *RedisBus) Close() error { return b.client.Close() }

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("bus publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, pattern string) (Subscription, error) {
	pubsub := b.client.PSubscribe(ctx, pattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("bus subscribe %s: %w", pattern, err)
	}
	sub := &redisSubscription{pubsub: pubsub, out: make(chan Message, 64)}
	go sub.pump()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	out    chan Message
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	ch := s.pubsub.Channel()
	for msg := range ch {
		s.out <- Message{Topic: msg.Channel, Payload: []byte(msg.Payload)}
	}
}

func (s *redisSubscription) C() <-chan Message { return s.out }

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
