package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockRepository records appended events in memory.
type mockRepository struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *mockRepository) Append(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockRepository) List(context.Context, Filter) (*ListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &ListResult{Events: m.events, Total: len(m.events)}, nil
}

func (m *mockRepository) appended() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// mockSink counts consumed events.
type mockSink struct {
	mu     sync.Mutex
	events []Event
}

func (m *mockSink) Consume(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestRecorder_DeliversToAllDestinations(t *testing.T) {
	repo := &mockRepository{}
	hub := NewHub()
	sub := hub.Subscribe()
	defer sub.Close()
	sink := &mockSink{}

	rec := NewRecorder(repo, hub)
	rec.AddSink(sink)
	rec.Start()

	rec.RecordAccess("04A1B2", true, "permitted", time.Now())
	rec.RecordGarage(KindTriggered, map[string]any{"source": "api"})
	rec.Close()

	appended := repo.appended()
	if len(appended) != 2 {
		t.Fatalf("repository got %d events, want 2", len(appended))
	}
	if appended[0].Category != CategoryAccess || appended[0].Identity != "04A1B2" {
		t.Errorf("first event = %+v, want access decision for 04A1B2", appended[0])
	}
	if appended[1].Kind != KindTriggered {
		t.Errorf("second event kind = %q, want triggered", appended[1].Kind)
	}

	if sink.count() != 2 {
		t.Errorf("sink got %d events, want 2", sink.count())
	}

	// Hub delivery.
	received := 0
	for received < 2 {
		select {
		case <-sub.Events():
			received++
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d hub events, want 2", received)
		}
	}
}

func TestRecorder_RecordAfterCloseIsNoop(t *testing.T) {
	repo := &mockRepository{}
	rec := NewRecorder(repo, nil)
	rec.Start()
	rec.Close()

	rec.RecordGarage(KindTriggered, nil)

	if n := len(repo.appended()); n != 0 {
		t.Errorf("repository got %d events after Close, want 0", n)
	}
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	rec := NewRecorder(nil, nil)
	rec.Start()
	rec.Close()
	rec.Close()
}

func TestRecorder_RepositoryErrorDoesNotStopWorker(t *testing.T) {
	repo := &mockRepository{err: context.DeadlineExceeded}
	sink := &mockSink{}

	rec := NewRecorder(repo, nil)
	rec.AddSink(sink)
	rec.Start()

	rec.RecordGarage(KindFault, nil)
	rec.RecordGarage(KindTriggered, nil)
	rec.Close()

	// Appends failed, but sinks still saw both events.
	if sink.count() != 2 {
		t.Errorf("sink got %d events, want 2 despite append failures", sink.count())
	}
}
