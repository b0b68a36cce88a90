package seglock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pwnedgod/seglock/adapter"
)

var errMock = errors.New("mock error")

// proxiedStore forwards to store unless an override is installed, and counts
// every call it receives.
type proxiedStore struct {
	store adapter.LeaseStore

	mu                       sync.RWMutex
	setIfAbsentOverride      func(context.Context, string, string, time.Duration) (bool, error)
	getOverride              func(context.Context, string) (string, error)
	compareAndDeleteOverride func(context.Context, string, string) (bool, error)
	compareAndExtendOverride func(context.Context, string, string, time.Duration) (bool, error)

	calls                 atomic.Int64
	setIfAbsentCalls      atomic.Int64
	compareAndDeleteCalls atomic.Int64
	compareAndExtendCalls atomic.Int64
}

var _ adapter.LeaseStore = (*proxiedStore)(nil)

func (p *proxiedStore) onSetIfAbsent(fn func(context.Context, string, string, time.Duration) (bool, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setIfAbsentOverride = fn
}

func (p *proxiedStore) onGet(fn func(context.Context, string) (string, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.getOverride = fn
}

func (p *proxiedStore) onCompareAndDelete(fn func(context.Context, string, string) (bool, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compareAndDeleteOverride = fn
}

func (p *proxiedStore) onCompareAndExtend(fn func(context.Context, string, string, time.Duration) (bool, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.compareAndExtendOverride = fn
}

func (p *proxiedStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	p.calls.Add(1)
	p.setIfAbsentCalls.Add(1)

	p.mu.RLock()
	override := p.setIfAbsentOverride
	p.mu.RUnlock()

	if override != nil {
		return override(ctx, key, value, ttl)
	}

	return p.store.SetIfAbsent(ctx, key, value, ttl)
}

func (p *proxiedStore) Get(ctx context.Context, key string) (string, error) {
	p.calls.Add(1)

	p.mu.RLock()
	override := p.getOverride
	p.mu.RUnlock()

	if override != nil {
		return override(ctx, key)
	}

	return p.store.Get(ctx, key)
}

func (p *proxiedStore) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	p.calls.Add(1)
	p.compareAndDeleteCalls.Add(1)

	p.mu.RLock()
	override := p.compareAndDeleteOverride
	p.mu.RUnlock()

	if override != nil {
		return override(ctx, key, expected)
	}

	return p.store.CompareAndDelete(ctx, key, expected)
}

func (p *proxiedStore) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	p.calls.Add(1)
	p.compareAndExtendCalls.Add(1)

	p.mu.RLock()
	override := p.compareAndExtendOverride
	p.mu.RUnlock()

	if override != nil {
		return override(ctx, key, expected, ttl)
	}

	return p.store.CompareAndExtend(ctx, key, expected, ttl)
}

func (p *proxiedStore) Exists(ctx context.Context, key string) (bool, error) {
	p.calls.Add(1)
	return p.store.Exists(ctx, key)
}

func (p *proxiedStore) Delete(ctx context.Context, key string) error {
	p.calls.Add(1)
	return p.store.Delete(ctx, key)
}
