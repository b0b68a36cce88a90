package seglock

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when another owner currently holds the lock. It is a
	// normal outcome, not a failure of the store.
	ErrBusy = errors.New("seglock: lock is held by another owner")

	// ErrStoreUnavailable matches any failure talking to the lease store.
	// The underlying cause stays reachable through errors.Is and errors.As.
	ErrStoreUnavailable = errors.New("seglock: lease store unavailable")

	// ErrInvalidConfiguration matches arguments rejected before any store call.
	ErrInvalidConfiguration = errors.New("seglock: invalid configuration")

	// ErrOwnershipLost is returned by Do when the lease was no longer ours at release.
	ErrOwnershipLost = errors.New("seglock: lease ownership lost")
)

type (
	baseError struct {
		category    string
		message     string
		previousErr error
	}

	storeError struct {
		baseError
	}

	configError struct {
		baseError
	}
)

func newStoreError(category string, message string, previousErr error) *storeError {
	return &storeError{
		baseError: baseError{
			category:    category,
			message:     message,
			previousErr: previousErr,
		},
	}
}

func newConfigError(category string, message string) *configError {
	return &configError{
		baseError: baseError{
			category: category,
			message:  message,
		},
	}
}

func (e baseError) Error() string {
	if e.previousErr == nil {
		return "seglock: " + e.message
	}
	return fmt.Sprintf("seglock: %s (%s)", e.message, e.previousErr.Error())
}

func (e baseError) Unwrap() error {
	return e.previousErr
}

// Category names the operation or argument the error is about.
func (e baseError) Category() string {
	return e.category
}

func (e *storeError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *configError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
