package memory

import (
	"context"
	"math"
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/internal/keymutex"
)

// Adapter is an in-process lease store. It only coordinates goroutines of a
// single process and is meant for tests and single-instance deployments.
type Adapter struct {
	cache *ccache.Cache
	keys  *keymutex.KeyMutex
}

var _ adapter.LeaseStore = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return NewAdapterWithConfiguration(ccache.Configure())
}

// NewAdapterWithConfiguration builds the store on cacheCfg. The size limit of
// cacheCfg is overridden: pruning would drop leases that have not expired.
func NewAdapterWithConfiguration(cacheCfg *ccache.Configuration) *Adapter {
	return &Adapter{
		cache: ccache.New(cacheCfg.MaxSize(math.MaxInt64)),
		keys:  keymutex.New(),
	}
}

func (a *Adapter) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	a.keys.Lock(key)
	defer a.keys.Unlock(key)

	if _, ok := a.live(key); ok {
		return false, nil
	}

	a.cache.Set(key, value, ttl)
	return true, nil
}

func (a *Adapter) Get(ctx context.Context, key string) (string, error) {
	value, ok := a.live(key)
	if !ok {
		return "", adapter.ErrNotFound
	}

	return value, nil
}

func (a *Adapter) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	a.keys.Lock(key)
	defer a.keys.Unlock(key)

	if value, ok := a.live(key); !ok || value != expected {
		return false, nil
	}

	a.cache.Delete(key)
	return true, nil
}

func (a *Adapter) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	a.keys.Lock(key)
	defer a.keys.Unlock(key)

	item := a.cache.Get(key)
	if item == nil || item.Expired() {
		return false, nil
	}

	// Ignore casting errors.
	if value, _ := item.Value().(string); value != expected {
		return false, nil
	}

	item.Extend(ttl)
	return true, nil
}

func (a *Adapter) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := a.live(key)
	return ok, nil
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	a.keys.Lock(key)
	defer a.keys.Unlock(key)

	a.cache.Delete(key)
	return nil
}

// Close stops the background worker of the underlying cache.
func (a *Adapter) Close() error {
	a.cache.Stop()
	return nil
}

func (a *Adapter) live(key string) (string, bool) {
	item := a.cache.Get(key)
	if item == nil || item.Expired() {
		return "", false
	}

	value, ok := item.Value().(string)
	return value, ok
}
