package seglock

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pwnedgod/seglock/adapter"
)

const segmentKeyInfix = "seg:"

// SegmentedManager maps names onto a fixed number of store keys. At most
// NumSegments leases exist at once no matter how many names are in use, at the
// price of unrelated names that share a segment excluding each other.
//
// The segment count is part of the key space. Processes sharing a prefix must
// agree on it, and changing it lets old and new segment keys coexist.
type SegmentedManager struct {
	c        *core
	segments int
}

var _ Locker = (*SegmentedManager)(nil)

func NewSegmentedManager(store adapter.LeaseStore, numSegments int, opts ...Option) (*SegmentedManager, error) {
	if numSegments <= 0 {
		return nil, newConfigError("segments", "segment count must be positive")
	}

	c, err := newCore(store, opts)
	if err != nil {
		return nil, err
	}

	c.opts.logger.Debug("segmented lock manager created", "prefix", c.opts.keyPrefix, "segments", numSegments)
	return &SegmentedManager{
		c:        c,
		segments: numSegments,
	}, nil
}

func (m *SegmentedManager) NumSegments() int {
	return m.segments
}

// Segment returns the segment of name in [0, NumSegments).
func (m *SegmentedManager) Segment(name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	return int(xxhash.Sum64String(name) % uint64(m.segments)), nil
}

func (m *SegmentedManager) KeyFor(name string) (string, error) {
	segment, err := m.Segment(name)
	if err != nil {
		return "", err
	}
	return m.c.opts.keyPrefix + segmentKeyInfix + strconv.Itoa(segment), nil
}

func (m *SegmentedManager) Acquire(ctx context.Context, name string, ttl time.Duration) (*Handle, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.acquire(ctx, name, key, ttl)
}

func (m *SegmentedManager) AcquireWait(ctx context.Context, name string, ttl time.Duration, opts ...WaitOption) (*Handle, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.acquireWait(ctx, name, key, ttl, opts)
}

func (m *SegmentedManager) Release(ctx context.Context, h *Handle) (ReleaseResult, error) {
	return releaseHandle(ctx, h)
}

func (m *SegmentedManager) Extend(ctx context.Context, h *Handle, ttl time.Duration) (bool, error) {
	return extendHandle(ctx, h, ttl)
}

// Holder reports the owner of the segment name maps to, which may have
// acquired it for a different name.
func (m *SegmentedManager) Holder(ctx context.Context, name string) (*Owner, error) {
	key, err := m.KeyFor(name)
	if err != nil {
		return nil, err
	}
	return m.c.holder(ctx, key)
}

func (m *SegmentedManager) Do(ctx context.Context, name string, ttl time.Duration, action ActionFunc) error {
	h, err := m.Acquire(ctx, name, ttl)
	if err != nil {
		return err
	}
	return m.c.do(ctx, h, action)
}
