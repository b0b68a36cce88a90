package seglock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/metrics"
)

// core implements the lease protocol on concrete store keys. The managers only
// decide which key a name maps to.
type core struct {
	store adapter.LeaseStore
	opts  *options
}

func newCore(store adapter.LeaseStore, opts []Option) (*core, error) {
	if store == nil {
		return nil, newConfigError("store", "lease store is nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	return &core{
		store: store,
		opts:  o,
	}, nil
}

func (c *core) acquire(ctx context.Context, name string, key string, ttl time.Duration) (*Handle, error) {
	if err := validateTTL(ttl); err != nil {
		return nil, err
	}
	if c.opts.renewal && c.opts.renewalInterval >= ttl {
		return nil, newConfigError("interval", "renewal interval must be shorter than ttl")
	}

	owner := Owner{
		ID:         uuid.NewString(),
		Holder:     c.opts.identity,
		AcquiredAt: time.Now(),
	}
	data, err := c.opts.codec.Marshal(&owner)
	if err != nil {
		return nil, fmt.Errorf("seglock: encode ownership token: %w", err)
	}
	token := string(data)

	ok, err := c.store.SetIfAbsent(ctx, key, token, ttl)
	if err != nil {
		c.opts.metrics.Acquire(metrics.ResultError)
		c.opts.logger.Error("lease acquire failed", "key", key, "name", name, "error", err)
		return nil, newStoreError("acquire", "error while acquiring lease", err)
	}

	if !ok {
		c.opts.metrics.Acquire(metrics.ResultBusy)
		c.opts.logger.Debug("lease busy", "key", key, "name", name)
		return nil, ErrBusy
	}

	c.opts.metrics.Acquire(metrics.ResultAcquired)
	c.opts.logger.Debug("lease acquired", "key", key, "name", name, "ttl", ttl)

	h := newHandle(c, name, key, owner, token, ttl)
	if c.opts.renewal {
		h.startRenewal()
	}

	return h, nil
}

func (c *core) holder(ctx context.Context, key string) (*Owner, error) {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return nil, nil
		}

		return nil, newStoreError("holder", "error while reading lease", err)
	}

	var owner Owner
	if err := c.opts.codec.Unmarshal([]byte(value), &owner); err != nil {
		return nil, fmt.Errorf("seglock: decode ownership token of %s: %w", key, err)
	}

	return &owner, nil
}

// do runs action under h and releases h on every exit path, panics included.
func (c *core) do(ctx context.Context, h *Handle, action ActionFunc) (err error) {
	runCtx, cancel := context.WithCancel(ctx)

	go func() {
		select {
		case <-h.Lost():
			cancel()
		case <-runCtx.Done():
		}
	}()

	defer func() {
		cancel()

		releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer releaseCancel()

		result, releaseErr := h.Release(releaseCtx)
		if err != nil {
			return
		}
		if releaseErr != nil {
			err = releaseErr
			return
		}
		if result == NotHeld {
			err = ErrOwnershipLost
		}
	}()

	return action(runCtx)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newConfigError("name", "name must not be empty")
	}
	return nil
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return newConfigError("ttl", "ttl must be positive")
	}
	return nil
}

func releaseHandle(ctx context.Context, h *Handle) (ReleaseResult, error) {
	if h == nil {
		return 0, newConfigError("handle", "handle is nil")
	}
	return h.Release(ctx)
}

func extendHandle(ctx context.Context, h *Handle, ttl time.Duration) (bool, error) {
	if h == nil {
		return false, newConfigError("handle", "handle is nil")
	}
	return h.Extend(ctx, ttl)
}
