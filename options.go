package seglock

import (
	"fmt"
	"os"
	"time"

	"github.com/pwnedgod/seglock/codec"
	"github.com/pwnedgod/seglock/codec/json"
	"github.com/pwnedgod/seglock/logger"
	"github.com/pwnedgod/seglock/metrics"
)

const (
	KeyPrefixDefault = "lock:"

	// Upper bound for a single renewal round trip.
	renewalTimeoutMax = 5 * time.Second

	// Budget for the release Do performs after the action returns.
	releaseTimeout = 5 * time.Second

	renewalIntervalMin = time.Millisecond
)

type Option func(*options)

type options struct {
	keyPrefix       string
	codec           codec.Codec
	logger          logger.Logger
	metrics         metrics.Recorder
	identity        string
	renewal         bool
	renewalInterval time.Duration
}

func defaultOptions() *options {
	return &options{
		keyPrefix: KeyPrefixDefault,
		codec:     json.NewCodec(),
		logger:    logger.Nop(),
		metrics:   metrics.Nop(),
		identity:  defaultIdentity(),
		renewal:   true,
	}
}

// WithKeyPrefix sets the namespace prepended to every store key.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithCodec sets how ownership records are encoded into tokens. Every process
// sharing a key space must use the same codec for Holder to decode values.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithIdentity sets the holder written into ownership records.
func WithIdentity(identity string) Option {
	return func(o *options) {
		o.identity = identity
	}
}

// WithRenewalInterval fixes the period of background lease renewal. The
// default is half of the current lease ttl. The interval must be shorter than
// the ttl passed to Acquire; a lease later shortened below it by Extend is
// renewed at half its ttl instead.
func WithRenewalInterval(d time.Duration) Option {
	return func(o *options) {
		o.renewal = true
		o.renewalInterval = d
	}
}

// WithoutRenewal disables background renewal. Leases then live exactly as long
// as their ttl unless extended by hand.
func WithoutRenewal() Option {
	return func(o *options) {
		o.renewal = false
	}
}

func (o *options) validate() error {
	if o.renewal && o.renewalInterval < 0 {
		return newConfigError("interval", "renewal interval must not be negative")
	}
	return nil
}

// renewalIntervalFor falls back to half the ttl when the fixed interval would
// not fit inside it, e.g. after Extend shortened the lease.
func (o *options) renewalIntervalFor(ttl time.Duration) time.Duration {
	if o.renewalInterval > 0 && o.renewalInterval < ttl {
		return o.renewalInterval
	}
	return max(ttl/2, renewalIntervalMin)
}

func defaultIdentity() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d", hostname, os.Getpid())
}
