package access

import "errors"

// Sentinel errors for registry, schedule and authentication operations.
var (
	// ErrStoreCorrupt indicates the backing JSON document could not be
	// parsed. Load falls back to an empty dataset and returns this so the
	// caller can surface a warning instead of crashing.
	ErrStoreCorrupt = errors.New("access: store corrupt")

	// ErrStoreWrite indicates a save could not be persisted. The previous
	// on-disk document is left intact.
	ErrStoreWrite = errors.New("access: store write failed")

	// ErrUserNotFound indicates a mutation referenced an unknown UID.
	ErrUserNotFound = errors.New("access: user not found")

	// ErrAuthFailed indicates the presented admin secret did not match.
	// It carries no detail about why, deliberately.
	ErrAuthFailed = errors.New("access: authentication failed")

	// ErrInvalidInterval indicates a schedule interval with a malformed
	// HH:MM clock value was submitted.
	ErrInvalidInterval = errors.New("access: invalid schedule interval")
)
