package seglock

import (
	"context"
	"time"
)

type (
	// ActionFunc is the critical section run by Do while the lock is held.
	// Its context is cancelled if ownership of the lease is lost.
	ActionFunc func(ctx context.Context) error

	// Owner is the record stored as the value of a held lock key. Its encoded
	// form is the ownership token compared on release and extend.
	Owner struct {
		// Random per acquisition.
		ID string `json:"id" msgpack:"id"`

		// Identity of the acquiring process, hostname:pid unless configured.
		Holder string `json:"holder" msgpack:"holder"`

		// Local clock at acquisition. Informational only.
		AcquiredAt time.Time `json:"acquired_at" msgpack:"acquired_at"`
	}

	ReleaseResult int

	Locker interface {
		// Try to take the lock for name once. Returns ErrBusy if another owner holds it.
		Acquire(ctx context.Context, name string, ttl time.Duration) (*Handle, error)

		// Retry Acquire while the lock is busy, until the retry strategy is
		// exhausted or ctx is done.
		AcquireWait(ctx context.Context, name string, ttl time.Duration, opts ...WaitOption) (*Handle, error)

		// Release the lease held by h. Safe to call more than once.
		Release(ctx context.Context, h *Handle) (ReleaseResult, error)

		// Set the remaining lease lifetime of h to ttl. Does not add to it.
		// Returns false if ownership was lost.
		Extend(ctx context.Context, h *Handle, ttl time.Duration) (bool, error)

		// Report the current owner of the lock for name, or nil if free.
		Holder(ctx context.Context, name string) (*Owner, error)

		// Acquire, run action, and release on every exit path.
		Do(ctx context.Context, name string, ttl time.Duration, action ActionFunc) error

		// The store key guarding name.
		KeyFor(name string) (string, error)
	}
)

const (
	// The lease was deleted by this call.
	Released ReleaseResult = iota + 1

	// The lease had expired or belongs to another owner. Nothing was deleted.
	NotHeld

	// The handle was released before.
	AlreadyReleased
)

func (r ReleaseResult) String() string {
	switch r {
	case Released:
		return "released"
	case NotHeld:
		return "not held"
	case AlreadyReleased:
		return "already released"
	default:
		return "unknown"
	}
}
