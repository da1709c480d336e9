package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirConfig captures the parameters for the file-backed session store.
type DirConfig struct {
	// BaseDir is the directory session state lives under. Required.
	BaseDir string
	// SessionID scopes this store to one development session. Required.
	SessionID string
}

// DirStore persists each key as one file under a per-session directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the session directory if needed and returns a store
// rooted there.
func NewDirStore(cfg DirConfig) (*DirStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if strings.TrimSpace(cfg.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	dir := filepath.Join(cfg.BaseDir, "errbeacon-"+cfg.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the session directory path.
func (s *DirStore) Dir() string {
	return s.dir
}

// Get reads the value stored under key. Absent keys report false.
func (s *DirStore) Get(key string) (string, bool) {
	path, err := s.keyPath(key)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes value under key.
func (s *DirStore) Set(key, value string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write session key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. An absent key is not an error.
func (s *DirStore) Delete(key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session key %q: %w", key, err)
	}
	return nil
}

// keyPath maps a key to its file, rejecting keys that would escape the
// session directory.
func (s *DirStore) keyPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}
	full := filepath.Join(s.dir, key+".json")
	if filepath.Dir(filepath.Clean(full)) != filepath.Clean(s.dir) {
		return "", fmt.Errorf("invalid session key %q", key)
	}
	return full, nil
}
