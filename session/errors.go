package session

import "errors"

// Sentinel errors for session operations.
var (
	ErrNotFound          = errors.New("session not found")
	ErrCorrupt           = errors.New("session file corrupt")
	ErrInvalidID         = errors.New("invalid session id")
	ErrInvalidTransition = errors.New("invalid state transition")
)
