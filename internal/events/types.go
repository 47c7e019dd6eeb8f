package events

import (
	"time"

	"github.com/google/uuid"
)

// Category separates the two event streams sharing the log.
type Category string

// Event categories.
const (
	CategoryAccess Category = "access"
	CategoryGarage Category = "garage"
)

// Kind identifies what happened within a category.
type Kind string

// Access event kinds.
const (
	// KindDecision records one access decision, allowed or denied.
	KindDecision Kind = "decision"
)

// Garage event kinds.
const (
	KindTriggered          Kind = "triggered"
	KindStateChanged       Kind = "state_changed"
	KindAutoCloseScheduled Kind = "auto_close_scheduled"
	KindAutoCloseCancelled Kind = "auto_close_cancelled"
	KindRateLimited        Kind = "rate_limited"
	KindFault              Kind = "fault"
)

// Event is one immutable entry in the append-only log.
//
// Access events carry Identity, Allowed and Reason; garage events carry
// their particulars in Detail. Events are never mutated or deleted by the
// engine; retention is an operator concern.
type Event struct {
	ID        string         `json:"id"`
	Category  Category       `json:"category"`
	Kind      Kind           `json:"kind"`
	Identity  string         `json:"identity,omitempty"`
	Allowed   bool           `json:"allowed"`
	Reason    string         `json:"reason,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAccessEvent builds a decision event.
func NewAccessEvent(identity string, allowed bool, reason string, at time.Time) Event {
	return Event{
		ID:        newEventID(),
		Category:  CategoryAccess,
		Kind:      KindDecision,
		Identity:  identity,
		Allowed:   allowed,
		Reason:    reason,
		CreatedAt: at.UTC(),
	}
}

// NewGarageEvent builds a garage event of the given kind.
func NewGarageEvent(kind Kind, detail map[string]any) Event {
	return Event{
		ID:        newEventID(),
		Category:  CategoryGarage,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
}

// newEventID generates a short unique event identifier.
func newEventID() string {
	return "evt-" + uuid.NewString()[:8]
}
