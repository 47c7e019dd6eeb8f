package gpio

import (
	"context"
	"fmt"
	"time"
)

// Level represents the logical state of a GPIO line.
type Level int

// GPIO line levels.
const (
	Low  Level = 0
	High Level = 1
)

// String returns a human-readable level name.
func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == High {
		return Low
	}
	return High
}

// Pull selects the internal resistor configuration for an input line.
type Pull int

// Input pull configurations.
const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// EdgeKind selects which transitions an edge subscription reports.
type EdgeKind int

// Edge subscription kinds.
const (
	EdgeRising EdgeKind = iota
	EdgeFalling
	EdgeBoth
)

// Edge describes a single observed transition on an input line.
type Edge struct {
	// Pin is the BCM pin number the transition occurred on.
	Pin int

	// Level is the line state after the transition.
	Level Level

	// Time is when the transition was observed.
	Time time.Time
}

// Backend abstracts a GPIO controller.
//
// Two implementations exist: Sysfs drives real hardware through the kernel's
// sysfs GPIO interface, and Mock runs entirely in memory for development
// machines and tests. Both are safe for concurrent use.
//
// Pin numbers are BCM numbers throughout.
type Backend interface {
	// ConfigureOutput claims pin as an output and drives it to initial.
	ConfigureOutput(pin int, initial Level) error

	// ConfigureInput claims pin as an input with the given pull resistor.
	ConfigureInput(pin int, pull Pull) error

	// SetOutput drives a configured output pin to level.
	SetOutput(pin int, level Level) error

	// ReadInput returns the current level of a configured input pin.
	ReadInput(pin int) (Level, error)

	// SubscribeEdges delivers transitions on a configured input pin until
	// ctx is cancelled or the backend is closed. The channel is closed when
	// delivery stops. Slow consumers may miss intermediate transitions.
	SubscribeEdges(ctx context.Context, pin int, kind EdgeKind) (<-chan Edge, error)

	// Close releases all claimed pins. Outputs are driven low first.
	Close() error
}

// New creates a backend by name. Recognised kinds are "mock" and "sysfs".
func New(kind string) (Backend, error) {
	switch kind {
	case "mock":
		return NewMock(), nil
	case "sysfs":
		return NewSysfs(), nil
	default:
		return nil, fmt.Errorf("gpio: unknown backend %q", kind)
	}
}

// matches reports whether a transition to level is covered by kind.
func (k EdgeKind) matches(level Level) bool {
	switch k {
	case EdgeRising:
		return level == High
	case EdgeFalling:
		return level == Low
	default:
		return true
	}
}
