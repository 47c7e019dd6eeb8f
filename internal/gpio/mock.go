package gpio

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// edgeBuffer is the per-subscription channel capacity. Transitions beyond
// this while the consumer is busy are dropped.
const edgeBuffer = 16

// Mock is an in-memory Backend for development machines and tests.
//
// Beyond the Backend interface it offers test hooks: SetInput simulates an
// external transition on an input line, OutputHistory records every level an
// output was driven to, and FailNext injects a one-shot hardware fault.
type Mock struct {
	mu      sync.Mutex
	closed  bool
	outputs map[int]Level
	inputs  map[int]Level
	history map[int][]Level
	subs    map[*mockSub]struct{}
	nextErr error
}

type mockSub struct {
	pin  int
	kind EdgeKind
	ch   chan Edge
}

// NewMock creates a mock backend with no pins configured.
func NewMock() *Mock {
	return &Mock{
		outputs: make(map[int]Level),
		inputs:  make(map[int]Level),
		history: make(map[int][]Level),
		subs:    make(map[*mockSub]struct{}),
	}
}

// ConfigureOutput claims pin as an output and records initial as its level.
func (m *Mock) ConfigureOutput(pin int, initial Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUsable(); err != nil {
		return err
	}
	m.outputs[pin] = initial
	m.history[pin] = append(m.history[pin], initial)
	return nil
}

// ConfigureInput claims pin as an input. The pull resistor selects the idle
// level: PullUp idles high, anything else idles low.
func (m *Mock) ConfigureInput(pin int, pull Pull) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUsable(); err != nil {
		return err
	}
	idle := Low
	if pull == PullUp {
		idle = High
	}
	m.inputs[pin] = idle
	return nil
}

// SetOutput drives a configured output pin.
func (m *Mock) SetOutput(pin int, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUsable(); err != nil {
		return err
	}
	if _, ok := m.outputs[pin]; !ok {
		return fmt.Errorf("%w: output pin %d", ErrPinNotConfigured, pin)
	}
	m.outputs[pin] = level
	m.history[pin] = append(m.history[pin], level)
	return nil
}

// ReadInput returns the current level of a configured input pin.
func (m *Mock) ReadInput(pin int) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUsable(); err != nil {
		return Low, err
	}
	level, ok := m.inputs[pin]
	if !ok {
		return Low, fmt.Errorf("%w: input pin %d", ErrPinNotConfigured, pin)
	}
	return level, nil
}

// SubscribeEdges delivers simulated transitions on an input pin.
func (m *Mock) SubscribeEdges(ctx context.Context, pin int, kind EdgeKind) (<-chan Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUsable(); err != nil {
		return nil, err
	}
	if _, ok := m.inputs[pin]; !ok {
		return nil, fmt.Errorf("%w: input pin %d", ErrPinNotConfigured, pin)
	}

	sub := &mockSub{
		pin:  pin,
		kind: kind,
		ch:   make(chan Edge, edgeBuffer),
	}
	m.subs[sub] = struct{}{}

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[sub]; ok {
			delete(m.subs, sub)
			close(sub.ch)
		}
	}()

	return sub.ch, nil
}

// Close releases all pins and closes every edge subscription.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for sub := range m.subs {
		delete(m.subs, sub)
		close(sub.ch)
	}
	return nil
}

// SetInput simulates an external transition on an input line and fans it out
// to matching edge subscriptions. Setting the current level again is a no-op.
func (m *Mock) SetInput(pin int, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.inputs[pin]
	if !ok || current == level {
		return
	}
	m.inputs[pin] = level

	edge := Edge{Pin: pin, Level: level, Time: time.Now()}
	for sub := range m.subs {
		if sub.pin != pin || !sub.kind.matches(level) {
			continue
		}
		select {
		case sub.ch <- edge:
		default:
			// Consumer is behind; this transition is lost to it.
		}
	}
}

// OutputLevel returns the current level of an output pin.
func (m *Mock) OutputLevel(pin int) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputs[pin]
}

// OutputHistory returns every level an output pin has been driven to,
// including its configured initial level.
func (m *Mock) OutputHistory(pin int) []Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Level, len(m.history[pin]))
	copy(out, m.history[pin])
	return out
}

// FailNext makes the next backend operation return err.
func (m *Mock) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextErr = err
}

// checkUsable returns an injected or closed-state error. Callers must hold mu.
func (m *Mock) checkUsable() error {
	if m.closed {
		return ErrClosed
	}
	if m.nextErr != nil {
		err := m.nextErr
		m.nextErr = nil
		return err
	}
	return nil
}
