package adapter

import (
	"context"
	"time"
)

// LeaseStore is the set of primitives a lock needs from the shared store.
//
// Every mutating method must be atomic as seen by all clients of the store.
// CompareAndDelete and CompareAndExtend must never be implemented as a
// client-side get followed by a write.
type LeaseStore interface {
	// Create key with value and ttl only if it does not exist.
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Get the current value of key. Returns ErrNotFound if the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Delete key only if its current value equals expected.
	CompareAndDelete(ctx context.Context, key string, expected string) (bool, error)

	// Reset the ttl of key only if its current value equals expected.
	CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Delete key unconditionally. Not used by the lock protocol itself.
	Delete(ctx context.Context, key string) error
}
