package seglock

import (
	"context"
	"time"

	"github.com/pwnedgod/seglock/adapter"
)

// Manager guards every logical name with its own store key.
type Manager struct {
	c *core
}

var _ Locker = (*Manager)(nil)

func NewManager(store adapter.LeaseStore, opts ...Option) (*Manager, error) {
	c, err := newCore(store, opts)
	if err != nil {
		return nil, err
	}

	c.opts.logger.Debug("lock manager created", "prefix", c.opts.keyPrefix, "codec", c.opts.codec.Name())
	return &Manager{c: c}, nil
}

func (m *Manager) KeyFor(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return m.c.opts.keyPrefix + name, nil
}

func (m *Manager) Acquire(ctx context.Context, name string, ttl time.Duration) (*Handle, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.acquire(ctx, name, key, ttl)
}

func (m *Manager) AcquireWait(ctx context.Context, name string, ttl time.Duration, opts ...WaitOption) (*Handle, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.acquireWait(ctx, name, key, ttl, opts)
}

func (m *Manager) Release(ctx context.Context, h *Handle) (ReleaseResult, error) {
	return releaseHandle(ctx, h)
}

func (m *Manager) Extend(ctx context.Context, h *Handle, ttl time.Duration) (bool, error) {
	return extendHandle(ctx, h, ttl)
}

func (m *Manager) Holder(ctx context.Context, name string) (*Owner, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.holder(ctx, key)
}

func (m *Manager) Do(ctx context.Context, name string, ttl time.Duration, action ActionFunc) error {
	h, err := m.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	return m.c.do(ctx, h, action)
}
