package gpio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

// fakeSysfsRoot builds a sysfs-shaped directory with the given pins already
// exported, sidestepping the kernel's export handshake.
func fakeSysfsRoot(t *testing.T, pins ...int) string {
	t.Helper()
	root := t.TempDir()

	for _, name := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0644); err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
	}
	for _, pin := range pins {
		dir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("creating pin dir: %v", err)
		}
		for attr, val := range map[string]string{"direction": "in", "value": "0"} {
			if err := os.WriteFile(filepath.Join(dir, attr), []byte(val), 0644); err != nil {
				t.Fatalf("creating %s: %v", attr, err)
			}
		}
	}
	return root
}

func TestSysfs_OutputWritesValue(t *testing.T) {
	root := fakeSysfsRoot(t, 17)
	s := newSysfsAt(root)

	if err := s.ConfigureOutput(17, Low); err != nil {
		t.Fatalf("ConfigureOutput() error = %v", err)
	}
	if err := s.SetOutput(17, High); err != nil {
		t.Fatalf("SetOutput() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "gpio17", "value"))
	if err != nil {
		t.Fatalf("reading value file: %v", err)
	}
	if string(data) != "1" {
		t.Errorf("value file = %q, want %q", data, "1")
	}

	dir, _ := os.ReadFile(filepath.Join(root, "gpio17", "direction"))
	if string(dir) != "out" {
		t.Errorf("direction file = %q, want %q", dir, "out")
	}
}

func TestSysfs_ReadInput(t *testing.T) {
	root := fakeSysfsRoot(t, 27)
	s := newSysfsAt(root)

	if err := s.ConfigureInput(27, PullUp); err != nil {
		t.Fatalf("ConfigureInput() error = %v", err)
	}

	level, err := s.ReadInput(27)
	if err != nil {
		t.Fatalf("ReadInput() error = %v", err)
	}
	if level != Low {
		t.Errorf("ReadInput() = %v, want Low", level)
	}

	if err := os.WriteFile(filepath.Join(root, "gpio27", "value"), []byte("1\n"), 0644); err != nil {
		t.Fatalf("writing value file: %v", err)
	}
	level, err = s.ReadInput(27)
	if err != nil {
		t.Fatalf("ReadInput() error = %v", err)
	}
	if level != High {
		t.Errorf("ReadInput() = %v, want High after external change", level)
	}
}

func TestSysfs_UnconfiguredPin(t *testing.T) {
	s := newSysfsAt(fakeSysfsRoot(t))

	if err := s.SetOutput(17, High); !errors.Is(err, ErrPinNotConfigured) {
		t.Errorf("SetOutput() error = %v, want ErrPinNotConfigured", err)
	}
}

func TestSysfs_MissingValueFileIsHardwareFault(t *testing.T) {
	root := fakeSysfsRoot(t, 27)
	s := newSysfsAt(root)

	if err := s.ConfigureInput(27, PullNone); err != nil {
		t.Fatalf("ConfigureInput() error = %v", err)
	}
	if err := os.Remove(filepath.Join(root, "gpio27", "value")); err != nil {
		t.Fatalf("removing value file: %v", err)
	}

	if _, err := s.ReadInput(27); !errors.Is(err, ErrHardware) {
		t.Errorf("ReadInput() error = %v, want ErrHardware", err)
	}
}

func TestSysfs_SubscribeEdges(t *testing.T) {
	root := fakeSysfsRoot(t, 27)
	s := newSysfsAt(root)
	s.poll = time.Millisecond

	if err := s.ConfigureInput(27, PullNone); err != nil {
		t.Fatalf("ConfigureInput() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	edges, err := s.SubscribeEdges(ctx, 27, EdgeRising)
	if err != nil {
		t.Fatalf("SubscribeEdges() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "gpio27", "value"), []byte("1"), 0644); err != nil {
		t.Fatalf("writing value file: %v", err)
	}

	select {
	case edge := <-edges:
		if edge.Level != High || edge.Pin != 27 {
			t.Errorf("edge = %+v, want pin 27 High", edge)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for rising edge")
	}
}

func TestSysfs_CloseDrivesOutputsLow(t *testing.T) {
	root := fakeSysfsRoot(t, 17)
	s := newSysfsAt(root)

	if err := s.ConfigureOutput(17, High); err != nil {
		t.Fatalf("ConfigureOutput() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "gpio17", "value"))
	if err != nil {
		t.Fatalf("reading value file: %v", err)
	}
	if string(data) != "0" {
		t.Errorf("value file after Close = %q, want %q", data, "0")
	}
}
