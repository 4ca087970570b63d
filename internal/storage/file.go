package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultStorageDir is the default directory for SDK state, relative to the
// user's home directory. This follows XDG conventions.
const DefaultStorageDir = ".config/agentland"

// credentialsFileName is the file the FileStore persists to.
const credentialsFileName = "credentials.json"

// FileStore is a Store persisted to a single JSON file.
//
// SECURITY: This store holds credentials. The file is created with 0600
// permissions (owner read/write only) and the directory with 0700. Values
// are never logged by this package.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileStore creates a file-backed store in dir. If dir is empty the
// default directory under the user's home is used. Existing contents are
// loaded eagerly so a corrupt file fails at construction, not first use.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	store := &FileStore{
		path:   filepath.Join(dir, credentialsFileName),
		values: make(map[string]string),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

// Path returns the path of the backing file. Used by the store watcher to
// observe writes from other processes.
func (s *FileStore) Path() string {
	return s.path
}

// Set stores a value and writes it through to disk.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Get returns the value for key, or def if the key is absent.
// Reads re-load the file so changes made by another process (e.g. a CLI
// login next to a long-running host) are observed.
func (s *FileStore) Get(key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return def, err
	}
	if value, ok := s.values[key]; ok {
		return value, nil
	}
	return def, nil
}

// Delete removes key and writes the change through to disk.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flushLocked()
}

// load reads the backing file into memory. A missing file is an empty store.
// REQUIRES: s.mu held, or called from the constructor.
func (s *FileStore) load() error {
	// #nosec G304 -- path is constructed internally, not from user input
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.values = make(map[string]string)
			return nil
		}
		return fmt.Errorf("failed to read credentials file: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse credentials file: %w", err)
	}
	s.values = values
	return nil
}

// flushLocked persists the in-memory map with restricted permissions.
// REQUIRES: s.mu held.
func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}
