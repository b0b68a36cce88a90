// Package breaker wraps a lease store in a circuit breaker so that a store
// outage turns into fast failures instead of every caller paying the full
// network timeout.
//
// Only returned errors count as failures. A false result from SetIfAbsent or a
// compare primitive is a normal answer from a healthy store.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/pwnedgod/seglock/adapter"
	"github.com/sony/gobreaker/v2"
)

type Option func(*options)

type options struct {
	name          string
	maxFailures   uint32
	maxRequests   uint32
	timeout       time.Duration
	onStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// WithName sets the breaker name reported to state change callbacks.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMaxFailures sets the number of consecutive failures that opens the breaker.
func WithMaxFailures(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFailures = n
		}
	}
}

// WithTimeout sets how long the breaker stays open before probing again.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRequests sets the number of probe requests allowed while half-open.
func WithMaxRequests(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRequests = n
		}
	}
}

func WithOnStateChange(fn func(name string, from gobreaker.State, to gobreaker.State)) Option {
	return func(o *options) {
		o.onStateChange = fn
	}
}

type Adapter struct {
	next adapter.LeaseStore
	cb   *gobreaker.CircuitBreaker[any]
}

var _ adapter.LeaseStore = (*Adapter)(nil)

func NewAdapter(next adapter.LeaseStore, opts ...Option) (*Adapter, error) {
	if next == nil {
		return nil, adapter.ErrNilClient
	}

	o := &options{
		name:        "seglock",
		maxFailures: 5,
		maxRequests: 1,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	st := gobreaker.Settings{
		Name:        o.name,
		MaxRequests: o.maxRequests,
		Timeout:     o.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.maxFailures
		},
		IsSuccessful: isSuccessful,
	}
	if o.onStateChange != nil {
		st.OnStateChange = o.onStateChange
	}

	return &Adapter{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](st),
	}, nil
}

// State reports the current breaker state.
func (a *Adapter) State() gobreaker.State {
	return a.cb.State()
}

func (a *Adapter) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return a.execBool(func() (bool, error) {
		return a.next.SetIfAbsent(ctx, key, value, ttl)
	})
}

func (a *Adapter) Get(ctx context.Context, key string) (string, error) {
	v, err := a.cb.Execute(func() (any, error) {
		return a.next.Get(ctx, key)
	})
	if err != nil {
		return "", err
	}

	value, _ := v.(string)
	return value, nil
}

func (a *Adapter) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	return a.execBool(func() (bool, error) {
		return a.next.CompareAndDelete(ctx, key, expected)
	})
}

func (a *Adapter) CompareAndExtend(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	return a.execBool(func() (bool, error) {
		return a.next.CompareAndExtend(ctx, key, expected, ttl)
	})
}

func (a *Adapter) Exists(ctx context.Context, key string) (bool, error) {
	return a.execBool(func() (bool, error) {
		return a.next.Exists(ctx, key)
	})
}

func (a *Adapter) Delete(ctx context.Context, key string) error {
	_, err := a.cb.Execute(func() (any, error) {
		return nil, a.next.Delete(ctx, key)
	})
	return err
}

func (a *Adapter) execBool(fn func() (bool, error)) (bool, error) {
	v, err := a.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return false, err
	}

	ok, _ := v.(bool)
	return ok, nil
}

// IsOpen reports whether err was produced by the breaker rejecting the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, adapter.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}
