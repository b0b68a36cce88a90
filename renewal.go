package seglock

import (
	"context"
	"time"
)

// renewer keeps one handle's lease alive by extending it before it expires.
type renewer struct {
	cancel context.CancelFunc
	done   chan struct{}

	// Signalled when the lease ttl changes outside of renewal.
	reset chan struct{}
}

func (h *Handle) startRenewal() {
	ctx, cancel := context.WithCancel(context.Background())
	h.renewer = &renewer{
		cancel: cancel,
		done:   make(chan struct{}),
		reset:  make(chan struct{}, 1),
	}

	go h.renewer.run(ctx, h)
}

// stopRenewal returns only after the renewal goroutine has exited.
func (h *Handle) stopRenewal() {
	if h.renewer == nil {
		return
	}
	h.renewer.cancel()
	<-h.renewer.done
}

// rescheduleRenewal must be called with mu held.
func (h *Handle) rescheduleRenewal() {
	if h.renewer == nil {
		return
	}

	select {
	case h.renewer.reset <- struct{}{}:
	default:
	}
}

func (h *Handle) renewalInterval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.c.opts.renewalIntervalFor(h.ttl)
}

func (r *renewer) run(ctx context.Context, h *Handle) {
	defer close(r.done)

	// The period is derived from the current ttl on every round, so a lease
	// shortened by Extend is renewed before it runs out.
	timer := time.NewTimer(h.renewalInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.reset:
			timer.Reset(h.renewalInterval())
		case <-timer.C:
			if !h.renew(ctx) {
				return
			}
			timer.Reset(h.renewalInterval())
		}
	}
}

// renew extends the lease once. It returns false when renewal must stop.
func (h *Handle) renew(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	interval := h.c.opts.renewalIntervalFor(h.ttl)
	attemptCtx, cancel := context.WithTimeout(ctx, min(interval, renewalTimeoutMax))
	defer cancel()

	ok, err := h.extendLocked(attemptCtx, h.ttl)
	if err != nil {
		// Stopped by Release while the call was in flight.
		if ctx.Err() != nil {
			return false
		}

		h.markLost()
		h.c.opts.logger.Error("lease renewal failed, handle invalidated", "key", h.key, "name", h.name, "error", err)
		return false
	}

	if ok {
		h.c.opts.logger.Debug("lease renewed", "key", h.key, "ttl", h.ttl)
	}
	return ok
}
