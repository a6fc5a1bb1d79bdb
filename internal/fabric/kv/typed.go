package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Singleton is a typed accessor for a fixed-key value, e.g. "arena:state"
// or "arena:match" (spec §3/§6.2).
type Singleton[T any] struct {
	store Store
	key   string
}

func NewSingleton[T any](store Store, key string) Singleton[T] {
	return Singleton[T]{store: store, key: key}
}

// Get returns ErrNotFound if the singleton has never been written.
func (s Singleton[T]) Get(ctx context.Context) (T, error) {
	var out T
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("kv singleton %s: unmarshal: %w", s.key, err)
	}
	return out, nil
}

// GetOptional returns (nil, nil) instead of ErrNotFound when absent — used
// for singletons the spec documents as "absent when no match loaded".
func (s Singleton[T]) GetOptional(ctx context.Context) (*T, error) {
	v, err := s.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s Singleton[T]) Set(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv singleton %s: marshal: %w", s.key, err)
	}
	return s.store.Set(ctx, s.key, data)
}

func (s Singleton[T]) Delete(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

// Table is a typed accessor for a prefix-keyed collection, e.g.
// "arena:station:*" or "db:match:*" (spec §3/§6.2).
type Table[T any] struct {
	store  Store
	prefix string
}

func NewTable[T any](store Store, prefix string) Table[T] {
	return Table[T]{store: store, prefix: prefix}
}

func (t Table[T]) key(id string) string {
	return t.prefix + ":" + id
}

func (t Table[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	data, err := t.store.Get(ctx, t.key(id))
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("kv table %s: unmarshal %s: %w", t.prefix, id, err)
	}
	return out, nil
}

func (t Table[T]) GetOptional(ctx context.Context, id string) (*T, error) {
	v, err := t.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (t Table[T]) Set(ctx context.Context, id string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv table %s: marshal %s: %w", t.prefix, id, err)
	}
	return t.store.Set(ctx, t.key(id), data)
}

func (t Table[T]) SetTTL(ctx context.Context, id string, value T, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv table %s: marshal %s: %w", t.prefix, id, err)
	}
	return t.store.SetTTL(ctx, t.key(id), data, ttl)
}

func (t Table[T]) Delete(ctx context.Context, id string) error {
	return t.store.Delete(ctx, t.key(id))
}

// List enumerates every row currently in the table. Rows that expired
// between Keys() and Get() are silently skipped rather than erroring,
// matching the spec's "a missing DriverStationReport disappears naturally"
// framing for TTL'd tables.
func (t Table[T]) List(ctx context.Context) ([]T, error) {
	keys, err := t.store.Keys(ctx, t.prefix)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(keys))
	for _, key := range keys {
		id := key[len(t.prefix)+1:]
		v, err := t.GetOptional(ctx, id)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}
