package garage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gatewise/gatewise-core/internal/events"
	"github.com/gatewise/gatewise-core/internal/gpio"
)

// Fallback timings applied when the config carries zero values.
const (
	defaultPulse    = 500 * time.Millisecond
	defaultDebounce = 50 * time.Millisecond
)

// Trigger sources reported in event detail.
const (
	SourceButton    = "button"
	SourceAPI       = "api"
	SourceScan      = "scan"
	SourceAutoClose = "auto_close"
)

// Controller owns the garage door hardware and its state machine.
//
// One mutex serializes every hardware-affecting operation: software
// triggers, button edges, sensor edges and auto-close expiry. At most one
// relay pulse is ever in flight.
type Controller struct {
	cfg     Config
	backend gpio.Backend
	sink    EventSink
	logger  Logger

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)

	mu          sync.Mutex
	state       State
	lastTrigger time.Time
	lastButton  time.Time
	autoClose   *time.Timer
	watchCancel context.CancelFunc
	closed      bool

	wg sync.WaitGroup
}

// NewController claims the configured pins and prepares the controller.
// The relay is driven to its inactive level immediately. Call Start to
// seed the door state and begin watching inputs.
func NewController(cfg Config, backend gpio.Backend) (*Controller, error) {
	if cfg.Pulse <= 0 {
		cfg.Pulse = defaultPulse
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 2 * cfg.Pulse
	}

	c := &Controller{
		cfg:     cfg,
		backend: backend,
		sink:    nopSink{},
		logger:  noopLogger{},
		now:     time.Now,
		sleep:   time.Sleep,
		state:   StateUnknown,
	}

	_, inactive := c.relayLevels()
	if err := backend.ConfigureOutput(cfg.RelayPin, inactive); err != nil {
		return nil, fmt.Errorf("configuring relay pin %d: %w", cfg.RelayPin, err)
	}
	if cfg.ButtonPin > 0 {
		if err := backend.ConfigureInput(cfg.ButtonPin, gpio.PullUp); err != nil {
			return nil, fmt.Errorf("configuring button pin %d: %w", cfg.ButtonPin, err)
		}
	}
	if cfg.SensorPin > 0 {
		if err := backend.ConfigureInput(cfg.SensorPin, gpio.PullUp); err != nil {
			return nil, fmt.Errorf("configuring sensor pin %d: %w", cfg.SensorPin, err)
		}
	}

	return c, nil
}

// SetEventSink sets the garage event sink. Must be called before Start.
func (c *Controller) SetEventSink(sink EventSink) {
	c.sink = sink
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Start seeds the door state and begins consuming button and sensor
// edges. It returns once the watchers are running; they stop when ctx is
// cancelled or Close is called.
func (c *Controller) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.watchCancel = cancel
	c.seedStateLocked()
	c.mu.Unlock()

	if c.cfg.ButtonPin > 0 {
		// Standard wiring: pull-up with the button shorting to ground,
		// so a press is a falling edge.
		edges, err := c.backend.SubscribeEdges(watchCtx, c.cfg.ButtonPin, gpio.EdgeFalling)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribing to button edges: %w", err)
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for range edges {
				c.handleButtonPress()
			}
		}()
	}

	if c.cfg.SensorPin > 0 {
		edges, err := c.backend.SubscribeEdges(watchCtx, c.cfg.SensorPin, gpio.EdgeBoth)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribing to sensor edges: %w", err)
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for edge := range edges {
				c.handleSensorLevel(edge.Level)
			}
		}()
	}

	c.logger.Info("garage controller started",
		"state", string(c.State()),
		"sensor", c.cfg.SensorPin > 0,
		"auto_close", c.cfg.AutoClose.String())
	return nil
}

// seedStateLocked establishes the initial door state. A configured sensor
// wins; otherwise the persisted state from the previous run is used.
// Callers must hold mu.
func (c *Controller) seedStateLocked() {
	if c.cfg.SensorPin > 0 {
		level, err := c.backend.ReadInput(c.cfg.SensorPin)
		if err == nil {
			c.state = c.sensorState(level)
			c.armAutoCloseIfOpenLocked()
			return
		}
		c.logger.Warn("sensor seed read failed, falling back to persisted state", "error", err)
	}
	c.state = loadState(c.cfg.StateFile)
	c.armAutoCloseIfOpenLocked()
}

// Trigger pulses the relay on behalf of source.
//
// Triggers inside MinInterval of the previous accepted one are rejected
// with ErrRateLimited and a rate_limited event; no hardware action is
// taken. A hardware fault emits a fault event and leaves the modelled
// state unchanged; the next call is a fresh attempt.
func (c *Controller) Trigger(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.triggerLocked(source)
}

// triggerLocked implements Trigger. Callers must hold mu.
func (c *Controller) triggerLocked(source string) error {
	if c.closed {
		return ErrClosed
	}

	now := c.now()
	if !c.lastTrigger.IsZero() && now.Sub(c.lastTrigger) < c.cfg.MinInterval {
		c.logger.Debug("trigger rate limited", "source", source)
		c.sink.RecordGarage(events.KindRateLimited, map[string]any{"source": source})
		return ErrRateLimited
	}

	if err := c.pulseLocked(); err != nil {
		c.logger.Error("relay pulse failed", "source", source, "error", err)
		c.sink.RecordGarage(events.KindFault, map[string]any{
			"source": source,
			"error":  err.Error(),
		})
		return err
	}

	c.lastTrigger = now
	c.logger.Info("garage triggered", "source", source)
	c.sink.RecordGarage(events.KindTriggered, map[string]any{"source": source})
	c.advanceAfterPulseLocked()
	return nil
}

// pulseLocked drives the relay active for the pulse window and releases
// it. The relay is released on every exit path. Callers must hold mu.
func (c *Controller) pulseLocked() error {
	active, inactive := c.relayLevels()

	if err := c.backend.SetOutput(c.cfg.RelayPin, active); err != nil {
		// Release regardless: never leave the relay energized after a
		// fault.
		if derr := c.backend.SetOutput(c.cfg.RelayPin, inactive); derr != nil {
			c.logger.Error("relay release failed after activation fault", "error", derr)
		}
		return fmt.Errorf("activating relay: %w", err)
	}

	c.sleep(c.cfg.Pulse)

	if err := c.backend.SetOutput(c.cfg.RelayPin, inactive); err != nil {
		// The relay is recorded as logically inactive even though the
		// release write failed, so the next pulse starts from a known
		// level.
		return fmt.Errorf("releasing relay: %w", err)
	}
	return nil
}

// advanceAfterPulseLocked moves the state machine after a successful
// pulse. With a sensor, the door is expected to pass through a
// transitional state until edges confirm; without one, the state flips
// optimistically. Callers must hold mu.
func (c *Controller) advanceAfterPulseLocked() {
	if c.cfg.SensorPin > 0 {
		switch c.state {
		case StateClosed:
			c.setStateLocked(StateOpening)
		case StateOpen:
			c.setStateLocked(StateClosing)
		default:
			// Mid-travel or unknown: wait for sensor edges.
		}
		return
	}

	switch c.state {
	case StateClosed:
		c.setStateLocked(StateOpen)
	case StateOpen:
		c.setStateLocked(StateClosed)
	default:
		// Unknown flips to open: assuming the door may now be open is
		// the safe reading for an unattended close timer.
		c.setStateLocked(StateOpen)
	}
}

// handleButtonPress debounces and forwards a physical button press.
// The button is deliberately not access-controlled: pressing it proves
// physical presence.
func (c *Controller) handleButtonPress() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastButton.IsZero() && now.Sub(c.lastButton) < c.cfg.Debounce {
		return
	}
	c.lastButton = now

	// Rate limiting and fault handling are reported through events, not
	// to the button.
	_ = c.triggerLocked(SourceButton) //nolint:errcheck // Intentional
}

// handleSensorLevel applies a sensor transition to the state machine.
func (c *Controller) handleSensorLevel(level gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.setStateLocked(c.sensorState(level))
}

// sensorState maps a raw sensor level to a door state. The sensor line is
// asserted when the door is fully closed.
func (c *Controller) sensorState(level gpio.Level) State {
	asserted := level == gpio.High
	if c.cfg.SensorActiveLow {
		asserted = level == gpio.Low
	}
	if asserted {
		return StateClosed
	}
	return StateOpen
}

// setStateLocked records a state change, persists it, emits the event and
// manages the auto-close timer. Callers must hold mu.
func (c *Controller) setStateLocked(to State) {
	if to == c.state {
		return
	}
	from := c.state
	c.state = to

	c.logger.Info("garage state changed", "from", string(from), "to", string(to))
	c.sink.RecordGarage(events.KindStateChanged, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	if err := saveState(c.cfg.StateFile, to); err != nil {
		c.logger.Warn("persisting garage state failed", "error", err)
	}

	switch to {
	case StateOpen:
		c.armAutoCloseLocked()
	case StateClosing, StateClosed:
		c.cancelAutoCloseLocked(true)
	}
}

// armAutoCloseIfOpenLocked arms the timer when seeding lands on an open
// door. Callers must hold mu.
func (c *Controller) armAutoCloseIfOpenLocked() {
	if c.state == StateOpen {
		c.armAutoCloseLocked()
	}
}

// armAutoCloseLocked starts the one-shot auto-close timer if configured
// and not already armed. Callers must hold mu.
func (c *Controller) armAutoCloseLocked() {
	if c.cfg.AutoClose <= 0 || c.autoClose != nil || c.closed {
		return
	}
	c.autoClose = time.AfterFunc(c.cfg.AutoClose, c.autoCloseFire)
	c.logger.Debug("auto-close armed", "after", c.cfg.AutoClose.String())
	c.sink.RecordGarage(events.KindAutoCloseScheduled, map[string]any{
		"after_seconds": c.cfg.AutoClose.Seconds(),
	})
}

// autoCloseFire runs on timer expiry and re-triggers through the normal
// path, so rate limiting still applies.
func (c *Controller) autoCloseFire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.autoClose == nil {
		return
	}
	c.autoClose = nil

	if c.state != StateOpen {
		return
	}
	if err := c.triggerLocked(SourceAutoClose); err != nil {
		c.logger.Warn("auto-close trigger failed", "error", err)
	}
}

// CancelAutoClose stops a pending auto-close. It reports whether a timer
// was actually cancelled.
func (c *Controller) CancelAutoClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelAutoCloseLocked(true)
}

// cancelAutoCloseLocked stops the timer if armed. Callers must hold mu.
func (c *Controller) cancelAutoCloseLocked(emit bool) bool {
	if c.autoClose == nil {
		return false
	}
	c.autoClose.Stop()
	c.autoClose = nil
	c.logger.Debug("auto-close cancelled")
	if emit {
		c.sink.RecordGarage(events.KindAutoCloseCancelled, nil)
	}
	return true
}

// State returns the current modelled door state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AutoClosePending reports whether an auto-close timer is armed.
func (c *Controller) AutoClosePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoClose != nil
}

// Close cancels the auto-close timer, stops the edge watchers and drives
// the relay to its inactive level.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancelAutoCloseLocked(false)
	if c.watchCancel != nil {
		c.watchCancel()
	}
	_, inactive := c.relayLevels()
	err := c.backend.SetOutput(c.cfg.RelayPin, inactive)
	c.mu.Unlock()

	c.wg.Wait()
	return err
}

// relayLevels returns the active and inactive drive levels honoring the
// configured polarity.
func (c *Controller) relayLevels() (active, inactive gpio.Level) {
	if c.cfg.RelayActiveLow {
		return gpio.Low, gpio.High
	}
	return gpio.High, gpio.Low
}
