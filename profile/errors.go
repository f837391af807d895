package profile

import "errors"

// Sentinel errors for profile operations.
var (
	ErrNotFound       = errors.New("profile not found")
	ErrCorrupt        = errors.New("profile file corrupt")
	ErrInvalidKey     = errors.New("invalid profile key")
	ErrInvalidProfile = errors.New("invalid profile")
)
