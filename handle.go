package seglock

import (
	"context"
	"sync"
	"time"

	"github.com/pwnedgod/seglock/metrics"
)

type handleState int

const (
	stateHeld handleState = iota
	stateReleased
	stateLost
)

// Handle is one successful acquisition. It is owned by the caller that
// acquired it and must be released on every exit path of the critical section.
//
// A Handle only remembers what was acquired. Whether the lease is still ours is
// decided by the store on every release and extend.
type Handle struct {
	c       *core
	name    string
	key     string
	token   string
	owner   Owner
	started time.Time
	renewer *renewer

	mu       sync.Mutex
	state    handleState
	ttl      time.Duration
	lost     chan struct{}
	lostOnce sync.Once
	endOnce  sync.Once
}

func newHandle(c *core, name string, key string, owner Owner, token string, ttl time.Duration) *Handle {
	return &Handle{
		c:       c,
		name:    name,
		key:     key,
		token:   token,
		owner:   owner,
		started: time.Now(),
		ttl:     ttl,
		lost:    make(chan struct{}),
	}
}

// Name returns the logical name the lock was acquired for.
func (h *Handle) Name() string {
	return h.name
}

// Key returns the store key of the lease. With a segmented manager several
// names share one key.
func (h *Handle) Key() string {
	return h.key
}

// Token returns the exact value stored under Key while the lease is ours.
func (h *Handle) Token() string {
	return h.token
}

func (h *Handle) Owner() Owner {
	return h.owner
}

// TTL returns the ttl of the latest successful acquire or extend.
func (h *Handle) TTL() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.ttl
}

// Valid reports whether the handle is neither released nor known to be lost.
// A true result is local knowledge only.
func (h *Handle) Valid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state == stateHeld
}

// Lost is closed once the handle learns that its lease is gone, either from a
// failed renewal or from an ownership-checked extend or release.
func (h *Handle) Lost() <-chan struct{} {
	return h.lost
}

// Release stops renewal, then deletes the lease only if it still carries this
// handle's token.
func (h *Handle) Release(ctx context.Context) (ReleaseResult, error) {
	// Renewal must be fully stopped before the delete so a late extend cannot
	// race it.
	h.stopRenewal()

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case stateReleased:
		h.c.opts.metrics.Release(metrics.ResultAlreadyReleased)
		return AlreadyReleased, nil
	case stateLost:
		h.c.opts.metrics.Release(metrics.ResultNotHeld)
		return NotHeld, nil
	}

	ok, err := h.c.store.CompareAndDelete(ctx, h.key, h.token)
	if err != nil {
		h.c.opts.metrics.Release(metrics.ResultError)
		h.c.opts.logger.Error("lease release failed", "key", h.key, "error", err)
		return 0, newStoreError("release", "error while releasing lease", err)
	}

	if !ok {
		h.markLost()
		h.c.opts.metrics.Release(metrics.ResultNotHeld)
		h.c.opts.logger.Info("lease was lost before release", "key", h.key, "name", h.name)
		return NotHeld, nil
	}

	h.state = stateReleased
	h.end()
	h.c.opts.metrics.Release(metrics.ResultReleased)
	h.c.opts.logger.Debug("lease released", "key", h.key, "name", h.name)
	return Released, nil
}

// Extend sets the remaining lifetime of the lease to ttl, counted from now, if
// the lease still carries this handle's token. ttl replaces the remaining time
// rather than adding to it, and becomes the ttl renewal keeps the lease at.
// A false result means ownership is gone and the handle is now invalid.
func (h *Handle) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	if err := validateTTL(ttl); err != nil {
		return false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.extendLocked(ctx, ttl)
}

func (h *Handle) extendLocked(ctx context.Context, ttl time.Duration) (bool, error) {
	if h.state != stateHeld {
		return false, nil
	}

	ok, err := h.c.store.CompareAndExtend(ctx, h.key, h.token, ttl)
	if err != nil {
		h.c.opts.metrics.Extend(metrics.ResultError)
		return false, newStoreError("extend", "error while extending lease", err)
	}

	if !ok {
		h.markLost()
		h.c.opts.metrics.Extend(metrics.ResultLost)
		h.c.opts.logger.Info("lease lost on extend", "key", h.key, "name", h.name)
		return false, nil
	}

	if ttl != h.ttl {
		h.ttl = ttl
		h.rescheduleRenewal()
	}
	h.c.opts.metrics.Extend(metrics.ResultExtended)
	return true, nil
}

// markLost must be called with mu held.
func (h *Handle) markLost() {
	h.state = stateLost
	h.lostOnce.Do(func() {
		close(h.lost)
	})
	h.end()
}

func (h *Handle) end() {
	h.endOnce.Do(func() {
		h.c.opts.metrics.Held(time.Since(h.started))
	})
}
