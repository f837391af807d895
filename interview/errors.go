package interview

import "errors"

// Sentinel errors for interview operations.
var (
	ErrInvalidInput = errors.New("invalid interview input")
	ErrCompleted    = errors.New("interview already completed")
	ErrNotCompleted = errors.New("interview not completed")
	ErrNoHistory    = errors.New("profile history not configured")
)
