package garage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gatewise/gatewise-core/internal/events"
	"github.com/gatewise/gatewise-core/internal/gpio"
)

// captureSink records garage events for assertions.
type captureSink struct {
	mu   sync.Mutex
	recs []capturedEvent
}

type capturedEvent struct {
	kind   events.Kind
	detail map[string]any
}

func (s *captureSink) RecordGarage(kind events.Kind, detail map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, capturedEvent{kind: kind, detail: detail})
}

func (s *captureSink) countKind(kind events.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.recs {
		if r.kind == kind {
			n++
		}
	}
	return n
}

func (s *captureSink) waitKind(t *testing.T, kind events.Kind, want int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.countKind(kind) >= want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s events, have %d", want, kind, s.countKind(kind))
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	testRelayPin  = 17
	testButtonPin = 27
	testSensorPin = 22
)

// newTestController builds a controller on a mock backend with an
// instant pulse and a manual clock.
func newTestController(t *testing.T, cfg Config) (*Controller, *gpio.Mock, *captureSink, *testClock) {
	t.Helper()

	mock := gpio.NewMock()
	if cfg.RelayPin == 0 {
		cfg.RelayPin = testRelayPin
	}
	if cfg.Pulse == 0 {
		cfg.Pulse = 500 * time.Millisecond
	}

	ctrl, err := NewController(cfg, mock)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	sink := &captureSink{}
	ctrl.SetEventSink(sink)

	clock := newTestClock()
	ctrl.now = clock.Now
	ctrl.sleep = func(time.Duration) {} // pulses complete instantly

	t.Cleanup(func() { ctrl.Close() }) //nolint:errcheck // Test cleanup
	return ctrl, mock, sink, clock
}

func TestTrigger_RateLimit(t *testing.T) {
	ctrl, mock, sink, clock := newTestController(t, Config{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("first Trigger() error = %v", err)
	}
	if err := ctrl.Trigger(SourceAPI); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Trigger() error = %v, want ErrRateLimited", err)
	}

	// Exactly one physical pulse: initial low, active, release.
	history := mock.OutputHistory(testRelayPin)
	if len(history) != 3 {
		t.Errorf("relay history = %v, want one pulse (3 writes)", history)
	}
	if sink.countKind(events.KindTriggered) != 1 {
		t.Errorf("triggered events = %d, want 1", sink.countKind(events.KindTriggered))
	}
	if sink.countKind(events.KindRateLimited) != 1 {
		t.Errorf("rate_limited events = %d, want 1", sink.countKind(events.KindRateLimited))
	}

	// Past the interval the next trigger is accepted.
	clock.Advance(time.Second + time.Millisecond)
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Errorf("Trigger() after interval error = %v", err)
	}
}

func TestTrigger_OptimisticFlipWithoutSensor(t *testing.T) {
	ctrl, mock, _, clock := newTestController(t, Config{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got := ctrl.State(); got != StateUnknown {
		t.Fatalf("initial State() = %q, want unknown", got)
	}

	// Unknown flips to open on the first trigger.
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got := ctrl.State(); got != StateOpen {
		t.Errorf("State() = %q, want open", got)
	}

	// Relay is back at its inactive level before Trigger returned.
	if level := mock.OutputLevel(testRelayPin); level != gpio.Low {
		t.Errorf("relay level after Trigger = %v, want inactive", level)
	}

	clock.Advance(2 * time.Second)
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got := ctrl.State(); got != StateClosed {
		t.Errorf("State() = %q, want closed after second flip", got)
	}
}

func TestTrigger_ActiveLowPolarity(t *testing.T) {
	ctrl, mock, _, _ := newTestController(t, Config{RelayActiveLow: true})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Inactive is high for an active-low relay.
	if level := mock.OutputLevel(testRelayPin); level != gpio.High {
		t.Fatalf("idle relay level = %v, want High for active-low", level)
	}

	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	history := mock.OutputHistory(testRelayPin)
	want := []gpio.Level{gpio.High, gpio.Low, gpio.High}
	if len(history) != len(want) {
		t.Fatalf("relay history = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("relay history[%d] = %v, want %v", i, history[i], want[i])
		}
	}
}

func TestTrigger_HardwareFaultLeavesStateUnchanged(t *testing.T) {
	ctrl, mock, sink, clock := newTestController(t, Config{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	mock.FailNext(gpio.ErrHardware)
	err := ctrl.Trigger(SourceAPI)
	if !errors.Is(err, gpio.ErrHardware) {
		t.Fatalf("Trigger() error = %v, want ErrHardware", err)
	}

	if got := ctrl.State(); got != StateUnknown {
		t.Errorf("State() = %q, want unchanged unknown after fault", got)
	}
	if sink.countKind(events.KindFault) != 1 {
		t.Errorf("fault events = %d, want 1", sink.countKind(events.KindFault))
	}
	// Release was still attempted: the relay sits at its inactive level.
	if level := mock.OutputLevel(testRelayPin); level != gpio.Low {
		t.Errorf("relay level after fault = %v, want inactive", level)
	}

	// The fault did not arm the rate limiter; the next call is a fresh
	// attempt.
	clock.Advance(time.Millisecond)
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Errorf("Trigger() after fault error = %v, want fresh attempt to succeed", err)
	}
}

func TestButton_DebounceCollapsesRapidEdges(t *testing.T) {
	ctrl, _, sink, clock := newTestController(t, Config{ButtonPin: testButtonPin})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctrl.handleButtonPress()
	clock.Advance(10 * time.Millisecond) // inside the 50ms debounce
	ctrl.handleButtonPress()
	clock.Advance(10 * time.Millisecond)
	ctrl.handleButtonPress()

	if got := sink.countKind(events.KindTriggered); got != 1 {
		t.Errorf("triggered events = %d, want rapid presses collapsed to 1", got)
	}
}

func TestButton_EdgeReachesTrigger(t *testing.T) {
	ctrl, mock, sink, _ := newTestController(t, Config{ButtonPin: testButtonPin})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Press: pull-up idles high, press shorts to ground.
	mock.SetInput(testButtonPin, gpio.Low)

	sink.waitKind(t, events.KindTriggered, 1, time.Second)
	if got := ctrl.State(); got != StateOpen {
		t.Errorf("State() = %q, want open after button press", got)
	}
}

func TestSensor_SeedsAndTracksState(t *testing.T) {
	ctrl, mock, sink, clock := newTestController(t, Config{SensorPin: testSensorPin})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Mock input idles high with pull-up; asserted means closed.
	if got := ctrl.State(); got != StateClosed {
		t.Fatalf("seeded State() = %q, want closed", got)
	}

	// Trigger moves to a transitional state until the sensor confirms.
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got := ctrl.State(); got != StateOpening {
		t.Errorf("State() = %q, want opening", got)
	}

	// Door leaves the closed switch.
	mock.SetInput(testSensorPin, gpio.Low)
	sink.waitKind(t, events.KindStateChanged, 2, time.Second)
	if got := ctrl.State(); got != StateOpen {
		t.Errorf("State() = %q, want open after sensor edge", got)
	}

	// Door returns to the closed switch.
	clock.Advance(2 * time.Second)
	mock.SetInput(testSensorPin, gpio.High)
	sink.waitKind(t, events.KindStateChanged, 3, time.Second)
	if got := ctrl.State(); got != StateClosed {
		t.Errorf("State() = %q, want closed after sensor edge", got)
	}
}

func TestAutoClose_FiresAfterDwell(t *testing.T) {
	ctrl, _, sink, _ := newTestController(t, Config{
		Pulse:       time.Millisecond,
		MinInterval: 2 * time.Millisecond,
		AutoClose:   30 * time.Millisecond,
	})
	ctrl.now = time.Now // real clock so the rate limiter sees time pass
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Unknown -> open arms the timer.
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if sink.countKind(events.KindAutoCloseScheduled) != 1 {
		t.Fatalf("auto_close_scheduled events = %d, want 1", sink.countKind(events.KindAutoCloseScheduled))
	}
	if !ctrl.AutoClosePending() {
		t.Fatal("AutoClosePending() = false, want armed timer")
	}

	// Expiry re-triggers through the normal path.
	sink.waitKind(t, events.KindTriggered, 2, time.Second)
	if got := ctrl.State(); got != StateClosed {
		t.Errorf("State() = %q, want closed after auto-close", got)
	}
	if ctrl.AutoClosePending() {
		t.Error("AutoClosePending() = true after expiry, want disarmed")
	}
}

func TestAutoClose_CancelPreventsFire(t *testing.T) {
	ctrl, _, sink, _ := newTestController(t, Config{
		Pulse:       time.Millisecond,
		MinInterval: 2 * time.Millisecond,
		AutoClose:   30 * time.Millisecond,
	})
	ctrl.now = time.Now
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if !ctrl.CancelAutoClose() {
		t.Fatal("CancelAutoClose() = false, want armed timer cancelled")
	}
	if sink.countKind(events.KindAutoCloseCancelled) != 1 {
		t.Errorf("auto_close_cancelled events = %d, want 1", sink.countKind(events.KindAutoCloseCancelled))
	}

	time.Sleep(80 * time.Millisecond)
	if got := sink.countKind(events.KindTriggered); got != 1 {
		t.Errorf("triggered events = %d, want cancel to prevent the second", got)
	}

	// Cancelling again reports nothing to cancel.
	if ctrl.CancelAutoClose() {
		t.Error("CancelAutoClose() = true with no armed timer")
	}
}

func TestAutoClose_SensorClosedCancelsTimer(t *testing.T) {
	ctrl, mock, sink, clock := newTestController(t, Config{
		SensorPin: testSensorPin,
		AutoClose: time.Hour,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Someone opens the door; timer arms.
	mock.SetInput(testSensorPin, gpio.Low)
	sink.waitKind(t, events.KindAutoCloseScheduled, 1, time.Second)

	// Door closes by hand before expiry; timer cancels.
	clock.Advance(time.Minute)
	mock.SetInput(testSensorPin, gpio.High)
	sink.waitKind(t, events.KindAutoCloseCancelled, 1, time.Second)

	if ctrl.AutoClosePending() {
		t.Error("AutoClosePending() = true after door closed, want cancelled")
	}
}

func TestStateFile_PersistsAcrossRestart(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "garage_state.json")

	ctrl, _, _, _ := newTestController(t, Config{StateFile: stateFile})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if got := ctrl.State(); got != StateOpen {
		t.Fatalf("State() = %q, want open", got)
	}
	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh controller with no sensor seeds from the file.
	restarted, _, _, _ := newTestController(t, Config{StateFile: stateFile})
	if err := restarted.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := restarted.State(); got != StateOpen {
		t.Errorf("restarted State() = %q, want persisted open", got)
	}
}

func TestClose_RejectsFurtherTriggers(t *testing.T) {
	ctrl, mock, _, _ := newTestController(t, Config{})
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := ctrl.Trigger(SourceAPI); !errors.Is(err, ErrClosed) {
		t.Errorf("Trigger() after Close error = %v, want ErrClosed", err)
	}
	if level := mock.OutputLevel(testRelayPin); level != gpio.Low {
		t.Errorf("relay level after Close = %v, want inactive", level)
	}
}

func TestClose_CancelsAutoCloseTimer(t *testing.T) {
	ctrl, _, sink, _ := newTestController(t, Config{
		Pulse:       time.Millisecond,
		MinInterval: 2 * time.Millisecond,
		AutoClose:   20 * time.Millisecond,
	})
	ctrl.now = time.Now
	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := ctrl.Trigger(SourceAPI); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if err := ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if got := sink.countKind(events.KindTriggered); got != 1 {
		t.Errorf("triggered events = %d, want no stray auto-close after Close", got)
	}
}
