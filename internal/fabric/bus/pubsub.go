// Package bus implements the coordination fabric's topic exchange (fan-out
// pub/sub with wildcard routing keys) and its direct exchange (request/reply
// RPC correlated by id), per spec §4.1. The production transport is Redis
// pub/sub (github.com/redis/go-redis/v9) — PSUBSCRIBE gives pattern-
// matched routing keys for free, and a reply-to channel per call gives the
// direct exchange without any broker-side queue bookkeeping.
package bus

import "context"

// Message is one delivery from a subscription: the concrete topic it was
// published on (not the subscriber's pattern) and the raw payload bytes.
type Message struct {
	Topic   string
	Payload []byte
}

// Subscription is a live topic subscription. Per spec §4.1, subscribers
// process messages strictly sequentially — callers must drain C() in a
// single goroutine per subscription to preserve that guarantee.
type Subscription interface {
	C() <-chan Message
	Close() error
}

// PubSub is the topic exchange contract: durable exchange, non-durable
// per-subscriber queues, wildcard-capable routing-key matching. A fresh
// Subscribe call only observes messages published after it returns
// ("queue-delete-on-subscribe semantics", spec §4.1) — there is no
// backlog replay.
type PubSub interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe pattern may contain '*' wildcards, matched the way Redis
	// PSUBSCRIBE matches them (any sequence of characters, including the
	// topic separator).
	Subscribe(ctx context.Context, pattern string) (Subscription, error)
}
