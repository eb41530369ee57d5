package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a state change not allowed by policy.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrLockHeld indicates another caller holds the critical-section lock.
	ErrLockHeld = errors.New("lock already held")
)
