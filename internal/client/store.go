// Package client is the consumer side of the todolist API: a persisted
// session snapshot, a route guard over it and an HTTP client that attaches
// the session token to every request.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// UserSummary is the identity returned by sign-in.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Snapshot is the persisted {token, user} pair of the signed-in account.
type Snapshot struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// IsAdmin reports whether the snapshot belongs to an administrator.
func (s Snapshot) IsAdmin() bool {
	return s.User.Role == RoleAdmin
}

// Store persists at most one snapshot. Load reports false when nothing is
// stored.
type Store interface {
	Load() (Snapshot, bool, error)
	Save(Snapshot) error
	Clear() error
}

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return Snapshot{}, false, nil
	}
	return *m.snapshot, true, nil
}

func (m *MemoryStore) Save(s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

// FileStore keeps the snapshot as JSON in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (Snapshot, bool, error) {
	data, ok, err := readSlot(f.path)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return s, true, nil
}

func (f *FileStore) Save(s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return writeSlot(f.path, data)
}

func (f *FileStore) Clear() error {
	return clearSlot(f.path)
}

func readSlot(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read session %s: %w", path, err)
	}
	return data, true, nil
}

// writeSlot replaces the file atomically so a crash never leaves half a
// snapshot behind.
func writeSlot(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func clearSlot(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", path, err)
	}
	return nil
}
