package access

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// minutesPerHour converts clock hours to minutes since midnight.
const minutesPerHour = 60

// Interval is a single denial window within one weekday.
//
// Start and End are 24-hour zero-padded "HH:MM" clock values. Containment
// is half-open [Start, End): a scan at exactly End is allowed. An interval
// whose End is not after its Start has no effect; cross-midnight windows
// are not supported.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Schedule is the per-weekday blackout schedule backed by a JSON document.
//
// Keys are English weekday names. Intervals within a day may overlap; the
// denial window is their union.
type Schedule struct {
	mu     sync.RWMutex
	path   string
	days   map[string][]Interval
	logger Logger
}

// NewSchedule creates a schedule backed by the JSON document at path.
// Call Load before first use.
func NewSchedule(path string) *Schedule {
	return &Schedule{
		path:   path,
		days:   make(map[string][]Interval),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the schedule.
func (s *Schedule) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads the backing document into memory.
//
// A missing file means no blackout windows. A file that cannot be parsed
// resets the schedule to empty and returns ErrStoreCorrupt.
func (s *Schedule) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days = make(map[string][]Interval)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("blackout store absent, no denial windows", "path", s.path)
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", ErrStoreCorrupt, s.path, err)
	}

	var days map[string][]Interval
	if err := json.Unmarshal(data, &days); err != nil {
		s.logger.Warn("blackout store corrupt, no denial windows", "path", s.path, "error", err)
		return fmt.Errorf("%w: parsing %s: %v", ErrStoreCorrupt, s.path, err)
	}

	s.days = days
	return nil
}

// Save persists the current schedule atomically.
func (s *Schedule) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.days, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding schedule: %v", ErrStoreWrite, err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	s.logger.Debug("blackout store saved", "path", s.path)
	return nil
}

// SetDay replaces the interval sequence for one weekday.
// Every interval must carry well-formed clock values.
func (s *Schedule) SetDay(weekday string, intervals []Interval) error {
	if !validWeekday(weekday) {
		return fmt.Errorf("%w: unknown weekday %q", ErrInvalidInterval, weekday)
	}
	for _, iv := range intervals {
		if _, err := parseClock(iv.Start); err != nil {
			return fmt.Errorf("%w: start %q: %v", ErrInvalidInterval, iv.Start, err)
		}
		if _, err := parseClock(iv.End); err != nil {
			return fmt.Errorf("%w: end %q: %v", ErrInvalidInterval, iv.End, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[weekday] = intervals
	return nil
}

// Replace swaps the whole schedule. Used by the admin API.
// Nothing changes unless every interval validates.
func (s *Schedule) Replace(days map[string][]Interval) error {
	next := make(map[string][]Interval, len(days))
	for weekday, intervals := range days {
		if !validWeekday(weekday) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidInterval, weekday)
		}
		for _, iv := range intervals {
			if _, err := parseClock(iv.Start); err != nil {
				return fmt.Errorf("%w: start %q: %v", ErrInvalidInterval, iv.Start, err)
			}
			if _, err := parseClock(iv.End); err != nil {
				return fmt.Errorf("%w: end %q: %v", ErrInvalidInterval, iv.End, err)
			}
		}
		next[weekday] = append([]Interval(nil), intervals...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.days = next
	return nil
}

// Snapshot returns a copy of the current schedule.
func (s *Schedule) Snapshot() map[string][]Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Interval, len(s.days))
	for weekday, intervals := range s.days {
		out[weekday] = append([]Interval(nil), intervals...)
	}
	return out
}

// IsBlocked reports whether t falls inside any denial window for its
// weekday. Malformed or non-positive-duration intervals never block.
func (s *Schedule) IsBlocked(t time.Time) bool {
	minute := t.Hour()*minutesPerHour + t.Minute()
	weekday := t.Weekday().String()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, iv := range s.days[weekday] {
		start, err := parseClock(iv.Start)
		if err != nil {
			continue
		}
		end, err := parseClock(iv.End)
		if err != nil {
			continue
		}
		if end <= start {
			continue
		}
		if minute >= start && minute < end {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("bad hour in %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad minute in %q", clock)
	}
	return hour*minutesPerHour + minute, nil
}

// validWeekday reports whether name is an English weekday name.
func validWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}
