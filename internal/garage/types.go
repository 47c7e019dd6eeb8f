package garage

import (
	"time"

	"github.com/gatewise/gatewise-core/internal/events"
)

// State is the modelled position of the garage door.
type State string

// Door states. Unknown is the initial state when no sensor is configured
// and no persisted state exists, or when the first sensor read fails.
const (
	StateClosed  State = "closed"
	StateOpen    State = "open"
	StateOpening State = "opening"
	StateClosing State = "closing"
	StateUnknown State = "unknown"
)

// valid reports whether s is one of the defined states.
func (s State) valid() bool {
	switch s {
	case StateClosed, StateOpen, StateOpening, StateClosing, StateUnknown:
		return true
	}
	return false
}

// Config holds the controller's hardware and timing settings.
type Config struct {
	// RelayPin drives the door opener. Required.
	RelayPin int

	// ButtonPin is the physical wall button input. Zero disables it.
	ButtonPin int

	// SensorPin is the door position sensor input. Zero disables it.
	// The line is asserted when the door is fully closed.
	SensorPin int

	// RelayActiveLow inverts the relay drive polarity.
	RelayActiveLow bool

	// SensorActiveLow inverts the sensor read polarity.
	SensorActiveLow bool

	// Pulse is how long the relay stays active per trigger.
	Pulse time.Duration

	// Debounce ignores button edges this close to the previous accepted
	// edge.
	Debounce time.Duration

	// MinInterval is the enforced spacing between accepted triggers.
	MinInterval time.Duration

	// AutoClose re-triggers the door this long after it is observed
	// open. Zero disables auto-close.
	AutoClose time.Duration

	// StateFile persists the last modelled state across restarts.
	// Empty disables persistence.
	StateFile string
}

// EventSink receives garage events. It must not block.
type EventSink interface {
	RecordGarage(kind events.Kind, detail map[string]any)
}

// nopSink discards garage events.
type nopSink struct{}

func (nopSink) RecordGarage(events.Kind, map[string]any) {}

// Logger defines the logging interface for the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
