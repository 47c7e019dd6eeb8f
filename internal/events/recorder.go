package events

import (
	"context"
	"sync"
	"time"
)

const (
	// recorderQueueSize bounds the number of events awaiting persistence.
	recorderQueueSize = 256

	// appendTimeout bounds a single repository append.
	appendTimeout = 5 * time.Second
)

// Sink receives every recorded event for best-effort side delivery, such
// as the door-module notifier or telemetry. Implementations must return
// quickly; slow work belongs behind their own queue.
type Sink interface {
	Consume(event Event)
}

// Logger defines the logging interface for the recorder.
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

// Recorder is the single writer of the event log.
//
// Record methods enqueue without blocking; one background worker appends
// to the repository, publishes to the hub and feeds the sinks. When the
// queue is full the event is dropped with a warning rather than stalling
// the caller, which may be inside the garage controller's critical
// section.
type Recorder struct {
	repo   Repository
	hub    *Hub
	sinks  []Sink
	logger Logger

	mu     sync.Mutex
	queue  chan Event
	closed bool
	done   chan struct{}
}

// NewRecorder creates a recorder. repo and hub may each be nil, in which
// case that destination is skipped.
func NewRecorder(repo Repository, hub *Hub) *Recorder {
	return &Recorder{
		repo:   repo,
		hub:    hub,
		logger: noopLogger{},
		queue:  make(chan Event, recorderQueueSize),
		done:   make(chan struct{}),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// AddSink registers a best-effort delivery target.
// Must be called before Start.
func (r *Recorder) AddSink(sink Sink) {
	r.sinks = append(r.sinks, sink)
}

// Start launches the background worker.
func (r *Recorder) Start() {
	go r.run()
}

// run drains the queue until Close.
func (r *Recorder) run() {
	defer close(r.done)

	for event := range r.queue {
		r.deliver(event)
	}
}

// deliver writes one event to every destination.
func (r *Recorder) deliver(event Event) {
	if r.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := r.repo.Append(ctx, &event); err != nil {
			r.logger.Error("event append failed", "id", event.ID, "kind", event.Kind, "error", err)
		}
		cancel()
	}
	if r.hub != nil {
		r.hub.Publish(event)
	}
	for _, sink := range r.sinks {
		sink.Consume(event)
	}
}

// Record enqueues an event without blocking.
func (r *Recorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.logger.Warn("event queue full, dropping event", "kind", event.Kind)
	}
}

// RecordAccess enqueues one access decision event.
func (r *Recorder) RecordAccess(identity string, allowed bool, reason string, at time.Time) {
	r.Record(NewAccessEvent(identity, allowed, reason, at))
}

// RecordGarage enqueues one garage event.
func (r *Recorder) RecordGarage(kind Kind, detail map[string]any) {
	r.Record(NewGarageEvent(kind, detail))
}

// Close stops accepting events and waits for the worker to drain the
// queue.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}
