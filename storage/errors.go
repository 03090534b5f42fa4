package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when no snapshot or source exists for an ID.
	ErrNotFound = errors.New("snapshot not found")

	// ErrFingerprintMismatch is returned when stored content does not hash
	// to the ID it was stored under. The entry is dropped, never served.
	ErrFingerprintMismatch = errors.New("snapshot fingerprint mismatch")
)
