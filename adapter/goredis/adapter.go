package goredis

import (
	"context"
	"errors"
	"time"

	"github.com/pwnedgod/seglock/adapter"
	"github.com/pwnedgod/seglock/adapter/script"
	"github.com/redis/go-redis/v9"
)

var (
	compareAndDeleteScript = redis.NewScript(script.CompareAndDelete)
	compareAndExtendScript = redis.NewScript(script.CompareAndExtend)
)

type goredisAdapter struct {
	client redis.UniversalClient
}

// NewAdapter returns a lease store backed by a go-redis client. The client's
// lifecycle stays with the caller.
func NewAdapter(client redis.UniversalClient) (adapter.LeaseStore, error) {
	if client == nil {
		return nil, adapter.ErrNilClient
	}

	return &goredisAdapter{
		client: client,
	}, nil
}

func (a goredisAdapter) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return a.client.SetNX(ctx, key, value, time.Duration(script.Milliseconds(ttl))*time.Millisecond).Result()
}

func (a goredisAdapter) Get(ctx context.Context, key string) (string, error) {
	value, err := a.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = adapter.ErrNotFound
		}

		return "", err
	}

	return value, nil
}

func (a goredisAdapter) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	n, err := compareAndDeleteScript.Run(ctx, a.client, []string{key}, expected).Int64()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a goredisAdapter) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	n, err := compareAndExtendScript.Run(ctx, a.client, []string{key}, expected, script.Milliseconds(ttl)).Int64()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (a goredisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	count, err := a.client.Exists(ctx, key).Uint64()
	if err != nil {
		return false, err
	}

	return count != 0, nil
}

func (a goredisAdapter) Delete(ctx context.Context, key string) error {
	return a.client.Del(ctx, key).Err()
}
