// Package redsync adapts any redsync connection pool into a lease store, so a
// deployment that already builds redsync pools (go-redis v8/v9, redigo, rueidis)
// can share them with seglock.
//
// Only the pool and script plumbing of redsync is used. Acquisition is a single
// SET NX on one endpoint, not the multi-node Redlock algorithm.
package redsync

import (
	"context"
	"fmt"
	"time"

	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/adapter/script"
)

var (
	compareAndDeleteScript = rsredis.NewScript(1, script.CompareAndDelete)
	compareAndExtendScript = rsredis.NewScript(1, script.CompareAndExtend)
	existsScript           = rsredis.NewScript(1, script.Exists)
	deleteScript           = rsredis.NewScript(1, script.Delete)
)

type redsyncAdapter struct {
	pool rsredis.Pool
}

func NewAdapter(pool rsredis.Pool) (adapter.LeaseStore, error) {
	if pool == nil {
		return nil, adapter.ErrNilClient
	}

	return &redsyncAdapter{
		pool: pool,
	}, nil
}

func (a redsyncAdapter) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	conn, err := a.pool.Get(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	return conn.SetNX(key, value, time.Duration(script.Milliseconds(ttl))*time.Millisecond)
}

func (a redsyncAdapter) Get(ctx context.Context, key string) (string, error) {
	conn, err := a.pool.Get(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	// redsync connections map a nil reply to the empty string. Tokens are never empty.
	value, err := conn.Get(key)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", adapter.ErrNotFound
	}

	return value, nil
}

func (a redsyncAdapter) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	n, err := a.eval(ctx, compareAndDeleteScript, key, expected)
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a redsyncAdapter) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	n, err := a.eval(ctx, compareAndExtendScript, key, expected, script.Milliseconds(ttl))
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a redsyncAdapter) Exists(ctx context.Context, key string) (bool, error) {
	n, err := a.eval(ctx, existsScript, key)
	if err != nil {
		return false, err
	}

	return n != 0, nil
}

func (a redsyncAdapter) Delete(ctx context.Context, key string) error {
	_, err := a.eval(ctx, deleteScript, key)
	return err
}

func (a redsyncAdapter) eval(ctx context.Context, s *rsredis.Script, keysAndArgs ...any) (int64, error) {
	conn, err := a.pool.Get(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	reply, err := conn.Eval(s, keysAndArgs...)
	if err != nil {
		return 0, err
	}

	return toInt64(reply)
}

func toInt64(reply any) (int64, error) {
	switch v := reply.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("seglock: unexpected script reply type %T", reply)
	}
}
