// Package kv implements the coordination fabric's key-value contract
// (spec §4.1): typed get/set of JSON-structured values, expiry with
// second granularity, and key-prefix enumeration. The production
// implementation is backed by Redis (github.com/redis/go-redis/v9), the
// same client the broader example corpus's game-backend services reach
// for when they need a shared, highly-available KV layer.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Store is the minimal contract every persisted model type is built on:
// get/set of raw bytes, optional TTL, delete, and prefix enumeration (used
// by Table to implement "enumeration of a table uses a glob on the
// prefix", spec §4.1).
//
// All writes are fire-and-forget from the caller's perspective (spec
// §4.1) — Store.Set does not guarantee the write is flushed to other
// readers before it returns, only that it has been accepted by the
// store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys enumerates every key beginning with prefix+":".
	Keys(ctx context.Context, prefix string) ([]string, error)
}
