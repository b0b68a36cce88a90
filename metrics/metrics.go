// Package metrics defines the hooks a lock manager reports outcomes through.
package metrics

import "time"

// Outcome labels.
const (
	ResultAcquired = "acquired"
	ResultBusy     = "busy"
	ResultError    = "error"

	ResultReleased        = "released"
	ResultNotHeld         = "not_held"
	ResultAlreadyReleased = "already_released"

	ResultExtended = "extended"
	ResultLost     = "lost"
)

type Recorder interface {
	// Acquire is called once per acquisition attempt.
	Acquire(result string)

	Release(result string)

	// Extend is called for both manual and scheduled extensions.
	Extend(result string)

	// Held is called when a lease ends, with the time it was held locally.
	Held(d time.Duration)
}

type nopRecorder struct {
}

func Nop() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Acquire(string)     {}
func (nopRecorder) Release(string)     {}
func (nopRecorder) Extend(string)      {}
func (nopRecorder) Held(time.Duration) {}
