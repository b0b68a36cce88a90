package seglock

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/bsm/redislock"
)

const PollIntervalDefault = 100 * time.Millisecond

type WaitOption func(*waitOptions)

type waitOptions struct {
	retry   redislock.RetryStrategy
	timeout time.Duration
}

// WithRetryStrategy sets the pause between attempts. The strategy is consulted
// after every busy attempt and waiting stops with ErrBusy once it returns a
// non-positive backoff, e.g. redislock.LimitRetry. Strategies keep state, so pass
// a fresh one per call.
func WithRetryStrategy(s redislock.RetryStrategy) WaitOption {
	return func(o *waitOptions) {
		if s != nil {
			o.retry = s
		}
	}
}

// WithPollInterval retries at a fixed period until ctx is done.
func WithPollInterval(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		if d > 0 {
			o.retry = redislock.LinearBackoff(d)
		}
	}
}

// WithWaitTimeout bounds the total time spent waiting, on top of any ctx deadline.
func WithWaitTimeout(d time.Duration) WaitOption {
	return func(o *waitOptions) {
		o.timeout = d
	}
}

type jitteredBackoff struct {
	base   time.Duration
	jitter time.Duration
}

// JitteredBackoff waits base plus a uniform random amount below jitter, which
// keeps waiters started together from polling in lockstep.
func JitteredBackoff(base time.Duration, jitter time.Duration) redislock.RetryStrategy {
	return jitteredBackoff{base: base, jitter: jitter}
}

func (b jitteredBackoff) NextBackoff() time.Duration {
	if b.jitter <= 0 {
		return b.base
	}
	return b.base + rand.N(b.jitter)
}

func (c *core) acquireWait(ctx context.Context, name string, key string, ttl time.Duration, opts []WaitOption) (*Handle, error) {
	o := &waitOptions{
		retry: redislock.LinearBackoff(PollIntervalDefault),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		h, err := c.acquire(ctx, name, key, ttl)
		if err == nil {
			return h, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, ErrBusy) {
			return nil, err
		}

		backoff := o.retry.NextBackoff()
		if backoff < 1 {
			return nil, ErrBusy
		}

		if timer == nil {
			timer = time.NewTimer(backoff)
		} else {
			timer.Reset(backoff)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
