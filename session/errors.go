package session

import "errors"

var (
	// ErrNotFound is returned when a session is absent, expired, stale, or
	// unreadable. Callers cannot tell those apart; all of them mean the
	// bearer must log in again.
	ErrNotFound = errors.New("session not found or expired")
	// ErrSaveFailed is returned when a session record could not be written.
	ErrSaveFailed = errors.New("session save failed")
	// ErrCorruptRecord wraps JSON decode failures of stored records.
	ErrCorruptRecord = errors.New("session record corrupt")
)
