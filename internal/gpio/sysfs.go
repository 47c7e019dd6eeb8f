package gpio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// defaultSysfsRoot is the kernel GPIO sysfs mount point.
	defaultSysfsRoot = "/sys/class/gpio"

	// defaultPollInterval is how often input lines are sampled for edges.
	// 10ms comfortably resolves a relay pulse or a held button; contact
	// bounce faster than this is filtered by the consumer's debounce anyway.
	defaultPollInterval = 10 * time.Millisecond

	// exportSettle is how long to wait after exporting a pin before the
	// kernel has created its attribute files and fixed their permissions.
	exportSettle = 50 * time.Millisecond
)

// Sysfs drives GPIO lines through the kernel's sysfs interface.
//
// Pull resistors cannot be set via sysfs; the Pull argument to
// ConfigureInput is accepted but the physical pull must come from the
// board's external resistors or boot-time device tree configuration.
//
// Edge detection is implemented by polling the value attribute. Transitions
// shorter than the poll interval are not observed.
type Sysfs struct {
	mu      sync.Mutex
	root    string
	poll    time.Duration
	closed  bool
	done    chan struct{}
	outputs map[int]bool
	inputs  map[int]bool
}

// NewSysfs creates a sysfs backend rooted at /sys/class/gpio.
func NewSysfs() *Sysfs {
	return newSysfsAt(defaultSysfsRoot)
}

// newSysfsAt creates a sysfs backend rooted at an arbitrary directory.
func newSysfsAt(root string) *Sysfs {
	return &Sysfs{
		root:    root,
		poll:    defaultPollInterval,
		done:    make(chan struct{}),
		outputs: make(map[int]bool),
		inputs:  make(map[int]bool),
	}
}

// ConfigureOutput exports pin, sets its direction to out and drives initial.
func (s *Sysfs) ConfigureOutput(pin int, initial Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.export(pin); err != nil {
		return err
	}
	if err := s.writeAttr(pin, "direction", "out"); err != nil {
		return err
	}
	s.outputs[pin] = true
	return s.writeValue(pin, initial)
}

// ConfigureInput exports pin and sets its direction to in.
func (s *Sysfs) ConfigureInput(pin int, _ Pull) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := s.export(pin); err != nil {
		return err
	}
	if err := s.writeAttr(pin, "direction", "in"); err != nil {
		return err
	}
	s.inputs[pin] = true
	return nil
}

// SetOutput drives a configured output pin.
func (s *Sysfs) SetOutput(pin int, level Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.outputs[pin] {
		return fmt.Errorf("%w: output pin %d", ErrPinNotConfigured, pin)
	}
	return s.writeValue(pin, level)
}

// ReadInput samples a configured input pin.
func (s *Sysfs) ReadInput(pin int) (Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Low, ErrClosed
	}
	if !s.inputs[pin] {
		return Low, fmt.Errorf("%w: input pin %d", ErrPinNotConfigured, pin)
	}
	return s.readValue(pin)
}

// SubscribeEdges polls a configured input pin and delivers transitions.
func (s *Sysfs) SubscribeEdges(ctx context.Context, pin int, kind EdgeKind) (<-chan Edge, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if !s.inputs[pin] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: input pin %d", ErrPinNotConfigured, pin)
	}
	last, err := s.readValue(pin)
	done := s.done
	interval := s.poll
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ch := make(chan Edge, edgeBuffer)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
			}

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			level, err := s.readValue(pin)
			s.mu.Unlock()
			if err != nil {
				// Line vanished or hardware fault; stop delivering.
				return
			}
			if level == last {
				continue
			}
			last = level
			if !kind.matches(level) {
				continue
			}
			select {
			case ch <- Edge{Pin: pin, Level: level, Time: time.Now()}:
			default:
				// Consumer is behind; this transition is lost to it.
			}
		}
	}()

	return ch, nil
}

// Close drives outputs low, unexports all pins and stops edge watchers.
func (s *Sysfs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)

	var firstErr error
	for pin := range s.outputs {
		if err := s.writeValue(pin, Low); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.unexport(pin); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for pin := range s.inputs {
		if err := s.unexport(pin); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// export makes pin visible under the sysfs root. Already-exported pins are
// left alone. Callers must hold mu.
func (s *Sysfs) export(pin int) error {
	pinDir := filepath.Join(s.root, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinDir); err == nil {
		return nil
	}
	path := filepath.Join(s.root, "export")
	if err := os.WriteFile(path, []byte(strconv.Itoa(pin)), 0220); err != nil {
		return fmt.Errorf("%w: exporting pin %d: %v", ErrHardware, pin, err)
	}
	// The kernel creates gpioN/ asynchronously after the export write.
	time.Sleep(exportSettle)
	return nil
}

// unexport releases pin. Callers must hold mu.
func (s *Sysfs) unexport(pin int) error {
	path := filepath.Join(s.root, "unexport")
	if err := os.WriteFile(path, []byte(strconv.Itoa(pin)), 0220); err != nil {
		return fmt.Errorf("%w: unexporting pin %d: %v", ErrHardware, pin, err)
	}
	return nil
}

// writeAttr writes a pin attribute file. Callers must hold mu.
func (s *Sysfs) writeAttr(pin int, attr, value string) error {
	path := filepath.Join(s.root, fmt.Sprintf("gpio%d", pin), attr)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("%w: writing %s of pin %d: %v", ErrHardware, attr, pin, err)
	}
	return nil
}

// writeValue drives a pin's value attribute. Callers must hold mu.
func (s *Sysfs) writeValue(pin int, level Level) error {
	return s.writeAttr(pin, "value", strconv.Itoa(int(level)))
}

// readValue samples a pin's value attribute. Callers must hold mu.
func (s *Sysfs) readValue(pin int) (Level, error) {
	path := filepath.Join(s.root, fmt.Sprintf("gpio%d", pin), "value")
	data, err := os.ReadFile(path)
	if err != nil {
		return Low, fmt.Errorf("%w: reading value of pin %d: %v", ErrHardware, pin, err)
	}
	if strings.TrimSpace(string(data)) == "1" {
		return High, nil
	}
	return Low, nil
}
