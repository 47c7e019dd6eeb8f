package access

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// storeFilePermissions is the mode for persisted JSON documents.
const storeFilePermissions = 0600

// Registry is the in-memory user store backed by a JSON document.
//
// The registry is the single writer of user data. Lookups may run
// concurrently with each other; mutations take an exclusive lock.
type Registry struct {
	mu     sync.RWMutex
	path   string
	users  map[string]User
	logger Logger
}

// NewRegistry creates a registry backed by the JSON document at path.
// Call Load before first use.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:   path,
		users:  make(map[string]User),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Load reads the backing document into memory.
//
// A missing file is a normal first run: the registry starts empty with no
// error. A file that exists but cannot be parsed resets the registry to
// empty and returns ErrStoreCorrupt so the caller can warn the operator.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]User)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("user store absent, starting empty", "path", r.path)
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", ErrStoreCorrupt, r.path, err)
	}

	var records []User
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn("user store corrupt, starting empty", "path", r.path, "error", err)
		return fmt.Errorf("%w: parsing %s: %v", ErrStoreCorrupt, r.path, err)
	}

	for _, u := range records {
		if u.UID == "" {
			continue
		}
		r.users[u.UID] = u
	}
	r.logger.Debug("user store loaded", "path", r.path, "users", len(r.users))
	return nil
}

// Save persists the current user set atomically.
//
// The document is written to a temporary file in the same directory and
// renamed over the original, so a failed write never truncates the
// existing store.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.sortedLocked()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding users: %v", ErrStoreWrite, err)
	}
	if err := atomicWrite(r.path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}
	r.logger.Debug("user store saved", "path", r.path, "users", len(records))
	return nil
}

// Lookup returns the user for uid, if registered.
func (r *Registry) Lookup(uid string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[uid]
	return u, ok
}

// Upsert inserts or fully replaces the user with the same UID.
func (r *Registry) Upsert(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.UID] = u
}

// Remove deletes the user with the given UID.
func (r *Registry) Remove(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[uid]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, uid)
	}
	delete(r.users, uid)
	return nil
}

// List returns all users ordered by UID.
func (r *Registry) List() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// sortedLocked returns users ordered by UID. Callers must hold mu.
func (r *Registry) sortedLocked() []User {
	records := make([]User, 0, len(r.users))
	for _, u := range r.users {
		records = append(records, u)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UID < records[j].UID
	})
	return records
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %v", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck // Cleanup on error path
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("writing temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("closing temp file: %v", err)
	}
	if err := os.Chmod(tmpName, storeFilePermissions); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("setting permissions: %v", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Cleanup on error path
		return fmt.Errorf("replacing %s: %v", path, err)
	}
	return nil
}
