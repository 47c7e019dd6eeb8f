package garage

import "errors"

// Sentinel errors for controller operations.
var (
	// ErrRateLimited rejects a trigger arriving too soon after the
	// previous one. Deliberately a no-op, not a failure: no hardware
	// action was taken.
	ErrRateLimited = errors.New("garage: trigger rate limited")

	// ErrClosed indicates the controller has been shut down.
	ErrClosed = errors.New("garage: controller closed")
)
