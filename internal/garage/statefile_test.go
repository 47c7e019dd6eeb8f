package garage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage_state.json")

	if err := saveState(path, StateOpen); err != nil {
		t.Fatalf("saveState() error = %v", err)
	}
	if got := loadState(path); got != StateOpen {
		t.Errorf("loadState() = %q, want open", got)
	}
}

func TestStateFile_MissingFileIsUnknown(t *testing.T) {
	if got := loadState(filepath.Join(t.TempDir(), "absent.json")); got != StateUnknown {
		t.Errorf("loadState() = %q, want unknown for missing file", got)
	}
}

func TestStateFile_CorruptFileIsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage_state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if got := loadState(path); got != StateUnknown {
		t.Errorf("loadState() = %q, want unknown for corrupt file", got)
	}
}

func TestStateFile_InvalidStateIsUnknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage_state.json")
	if err := os.WriteFile(path, []byte(`{"state":"ajar"}`), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if got := loadState(path); got != StateUnknown {
		t.Errorf("loadState() = %q, want unknown for unrecognised state", got)
	}
}

func TestStateFile_TransitionalStatesNormalise(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garage_state.json")

	if err := saveState(path, StateOpening); err != nil {
		t.Fatalf("saveState() error = %v", err)
	}
	if got := loadState(path); got != StateOpen {
		t.Errorf("loadState(opening) = %q, want open", got)
	}

	if err := saveState(path, StateClosing); err != nil {
		t.Fatalf("saveState() error = %v", err)
	}
	if got := loadState(path); got != StateClosed {
		t.Errorf("loadState(closing) = %q, want closed", got)
	}
}

func TestStateFile_EmptyPathDisablesPersistence(t *testing.T) {
	if err := saveState("", StateOpen); err != nil {
		t.Errorf("saveState(\"\") error = %v, want nil", err)
	}
	if got := loadState(""); got != StateUnknown {
		t.Errorf("loadState(\"\") = %q, want unknown", got)
	}
}
