package garage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stateFilePermissions is the mode for the persisted state document.
const stateFilePermissions = 0600

// persistedState is the on-disk shape of the remembered door state.
type persistedState struct {
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// loadState reads the remembered state from path.
//
// A missing, unreadable or corrupt file yields Unknown: the state file is
// a convenience, never a source of failure.
func loadState(path string) State {
	if path == "" {
		return StateUnknown
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return StateUnknown
	}
	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return StateUnknown
	}
	if !ps.State.valid() {
		return StateUnknown
	}
	// Transitional states do not survive a restart; the door finished
	// moving long before we came back up.
	if ps.State == StateOpening {
		return StateOpen
	}
	if ps.State == StateClosing {
		return StateClosed
	}
	return ps.State
}

// saveState persists state to path atomically. Errors are returned for
// logging only; the in-memory state is already authoritative.
func saveState(path string, state State) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(persistedState{
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck // Cleanup on error path
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("closing state file: %w", err)
	}
	if err := os.Chmod(tmpName, stateFilePermissions); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("setting state file permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
