package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FSStore keeps the three token slots in a JSON file readable only by the
// current user.
type FSStore struct {
	Path string
	mu   sync.Mutex
}

func NewFSStore(path string) *FSStore {
	return &FSStore{Path: path}
}

func (f *FSStore) Get() (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *FSStore) Set(c Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(c)
}

// Update reads, modifies and writes the file under one lock.
func (f *FSStore) Update(fn func(c *Credentials)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, err := f.read()
	if err != nil {
		return err
	}
	fn(&c)
	return f.write(c)
}

// Clear removes the credentials file. A missing file is not an error.
func (f *FSStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// read returns empty credentials when the file does not exist yet.
func (f *FSStore) read() (Credentials, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if len(b) == 0 {
		return Credentials{}, nil
	}

	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return c, nil
}

func (f *FSStore) write(c Credentials) error {
	if err := EnsureParentDir(f.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
