package gpio

import "errors"

// Sentinel errors for GPIO operations.
var (
	// ErrHardware indicates the underlying GPIO controller failed.
	// Callers treat this as a hardware fault: log it, surface it, and leave
	// any modelled state unchanged.
	ErrHardware = errors.New("gpio: hardware operation failed")

	// ErrPinNotConfigured indicates an operation on a pin that has not been
	// claimed, or was claimed with the wrong direction.
	ErrPinNotConfigured = errors.New("gpio: pin not configured")

	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("gpio: backend closed")
)
