package access

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	reg := NewRegistry(path)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load() on missing file error = %v", err)
	}

	reg.Upsert(User{UID: "04A1B2", Name: "Alice", IsAdmin: true})
	reg.Upsert(User{UID: "09FFEE", Name: "Bob"})
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Fresh instance reading the same file must reproduce the set.
	reloaded := NewRegistry(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reloaded.Count())
	}

	alice, ok := reloaded.Lookup("04A1B2")
	if !ok {
		t.Fatal("Lookup(04A1B2) not found after reload")
	}
	if alice.Name != "Alice" || !alice.IsAdmin {
		t.Errorf("Lookup(04A1B2) = %+v, want Alice admin", alice)
	}
}

func TestRegistry_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	reg := NewRegistry(path)
	err := reg.Load()
	if !errors.Is(err, ErrStoreCorrupt) {
		t.Fatalf("Load() error = %v, want ErrStoreCorrupt", err)
	}
	if reg.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after corrupt load", reg.Count())
	}

	// A corrupt load must not prevent normal operation afterwards.
	reg.Upsert(User{UID: "04A1B2", Name: "Alice"})
	if err := reg.Save(); err != nil {
		t.Errorf("Save() after corrupt load error = %v", err)
	}
}

func TestRegistry_UpsertReplacesEntirely(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "users.json"))

	reg.Upsert(User{UID: "04A1B2", Name: "Alice", IsAdmin: true})
	reg.Upsert(User{UID: "04A1B2", Name: "Alice Smith"})

	u, ok := reg.Lookup("04A1B2")
	if !ok {
		t.Fatal("Lookup() not found")
	}
	if u.Name != "Alice Smith" {
		t.Errorf("Name = %q, want replacement", u.Name)
	}
	if u.IsAdmin {
		t.Error("IsAdmin = true, want full overwrite to clear it")
	}
	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "users.json"))
	reg.Upsert(User{UID: "04A1B2", Name: "Alice"})

	if err := reg.Remove("04A1B2"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if err := reg.Remove("04A1B2"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Remove() of absent user error = %v, want ErrUserNotFound", err)
	}
}

func TestRegistry_SaveFailureIsStoreWrite(t *testing.T) {
	dir := t.TempDir()

	// The parent of the store path is a regular file, so the temp file
	// can never be created.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("writing blocker file: %v", err)
	}

	reg := NewRegistry(filepath.Join(blocker, "users.json"))
	reg.Upsert(User{UID: "04A1B2", Name: "Alice"})

	if err := reg.Save(); !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("Save() error = %v, want ErrStoreWrite", err)
	}
}

func TestRegistry_ListOrderedByUID(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "users.json"))
	reg.Upsert(User{UID: "zz", Name: "Zed"})
	reg.Upsert(User{UID: "aa", Name: "Ann"})

	list := reg.List()
	if len(list) != 2 || list[0].UID != "aa" || list[1].UID != "zz" {
		t.Errorf("List() = %+v, want ordered by UID", list)
	}
}
