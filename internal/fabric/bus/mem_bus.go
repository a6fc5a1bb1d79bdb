package bus

import (
	"context"
	"path"
	"sync"
)

// MemBus is an in-process PubSub used by tests, grounded on the teacher's
// events.Bus (a synchronous in-process dispatcher) but generalized from
// exact-topic handlers to pattern subscriptions with one buffered channel
// per subscriber — so a slow subscriber cannot stall delivery to others,
// matching the "subscribers process messages strictly sequentially, but
// independently of each other" guarantee in spec §4.1.
type MemBus struct {
	mu   sync.Mutex
	subs map[*memSubscription]struct{}
}

func NewMemBus() *MemBus {
	return &MemBus{subs: make(map[*memSubscription]struct{})}
}

func (b *MemBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		matched, _ := path.Match(sub.pattern, topic)
		if !matched {
			continue
		}
		select {
		case sub.out <- Message{Topic: topic, Payload: append([]byte(nil), payload...)}:
		default:
			// Drop rather than block the publisher — a subscriber that
			// can't keep up shouldn't stall arena state changes.
		}
	}
	return nil
}

func (b *MemBus) Subscribe(_ context.Context, pattern string) (Subscription, error) {
	sub := &memSubscription{
		bus:     b,
		pattern: pattern,
		out:     make(chan Message, 256),
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

type memSubscription struct {
	bus     *MemBus
	pattern string
	out     chan Message
}

func (s *memSubscription) C() <-chan Message { return s.out }

func (s *memSubscription) Close() error {
	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
	close(s.out)
	return nil
}
