package redigo

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/adapter/script"
)

var (
	compareAndDeleteScript = redis.NewScript(1, script.CompareAndDelete)
	compareAndExtendScript = redis.NewScript(1, script.CompareAndExtend)
)

type redigoAdapter struct {
	pool *redis.Pool
}

// NewAdapter returns a lease store backed by a redigo pool. Every call borrows
// one connection and returns it before completing.
func NewAdapter(pool *redis.Pool) (adapter.LeaseStore, error) {
	if pool == nil {
		return nil, adapter.ErrNilClient
	}

	return &redigoAdapter{
		pool: pool,
	}, nil
}

func (a redigoAdapter) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	args := []any{key, value}
	args = append(args, formatExpirationArgs(ttl)...)
	args = append(args, "NX")

	if _, err := redis.String(redis.DoContext(conn, ctx, commandSet, args...)); err != nil {
		// SET NX replies nil when the key already exists.
		if errors.Is(err, redis.ErrNil) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (a redigoAdapter) Get(ctx context.Context, key string) (string, error) {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	value, err := redis.String(redis.DoContext(conn, ctx, commandGet, key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			err = adapter.ErrNotFound
		}

		return "", err
	}

	return value, nil
}

func (a redigoAdapter) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	n, err := redis.Int64(compareAndDeleteScript.DoContext(ctx, conn, key, expected))
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a redigoAdapter) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	n, err := redis.Int64(compareAndExtendScript.DoContext(ctx, conn, key, expected, script.Milliseconds(ttl)))
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a redigoAdapter) Exists(ctx context.Context, key string) (bool, error) {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	count, err := redis.Int64(redis.DoContext(conn, ctx, commandExists, key))
	if err != nil {
		return false, err
	}

	return count != 0, nil
}

func (a redigoAdapter) Delete(ctx context.Context, key string) error {
	conn, err := a.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = redis.DoContext(conn, ctx, commandDel, key)
	return err
}
