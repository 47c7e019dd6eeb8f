package access

import "time"

// DecisionRecorder receives one record per access decision.
//
// Implementations must not block: Decide runs on the scan path and its
// latency is user-visible at the reader.
type DecisionRecorder interface {
	RecordDecision(identity string, verdict Verdict, at time.Time)
}

// nopRecorder discards decision records.
type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, Verdict, time.Time) {}

// Engine composes the registry and schedule into access decisions.
//
// Decide is read-only with respect to both stores and may be called
// concurrently for different identities.
type Engine struct {
	registry *Registry
	schedule *Schedule
	recorder DecisionRecorder
	logger   Logger
}

// NewEngine creates a decision engine over the given stores.
func NewEngine(registry *Registry, schedule *Schedule) *Engine {
	return &Engine{
		registry: registry,
		schedule: schedule,
		recorder: nopRecorder{},
		logger:   noopLogger{},
	}
}

// SetRecorder sets the decision recorder for the engine.
func (e *Engine) SetRecorder(recorder DecisionRecorder) {
	e.recorder = recorder
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// Decide authorizes identity at the given time.
//
// Unknown identities are denied. Admin users are allowed regardless of the
// schedule. Everyone else is checked against the blackout windows for the
// local weekday and time. Exactly one decision record is emitted per call,
// whatever the verdict.
func (e *Engine) Decide(identity string, now time.Time) Verdict {
	verdict := e.evaluate(identity, now)
	e.recorder.RecordDecision(identity, verdict, now)
	return verdict
}

// evaluate computes the verdict without recording it.
func (e *Engine) evaluate(identity string, now time.Time) Verdict {
	user, ok := e.registry.Lookup(identity)
	if !ok {
		return denied(ReasonUnknownUser)
	}
	if user.IsAdmin {
		return allowed(ReasonAdmin)
	}
	if e.schedule.IsBlocked(now) {
		return denied(ReasonBlackout)
	}
	return allowed(ReasonPermitted)
}
