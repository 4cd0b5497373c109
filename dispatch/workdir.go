package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WorkDir is the directory commands run in and cd changes.
type WorkDir interface {
	Get() (string, error)
	Set(dir string) error
}

// ProcessDir is the working directory of the crust process itself.
type ProcessDir struct{}

// Get implements WorkDir.
func (ProcessDir) Get() (string, error) {
	return os.Getwd()
}

// Set implements WorkDir.
func (ProcessDir) Set(dir string) error {
	return os.Chdir(dir)
}

// SessionDir is a working directory private to one session. Sessions served
// from the same process use it so cd in one does not move the others.
type SessionDir struct {
	mu  sync.RWMutex
	dir string
}

// NewSessionDir starts a session in dir.
func NewSessionDir(dir string) *SessionDir {
	if dir == "" {
		return &SessionDir{}
	}
	return &SessionDir{dir: filepath.Clean(dir)}
}

// Get implements WorkDir.
func (s *SessionDir) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dir == "" {
		return "", fmt.Errorf("session directory not set")
	}
	return s.dir, nil
}

// Set implements WorkDir.
func (s *SessionDir) Set(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}
	s.mu.Lock()
	s.dir = filepath.Clean(dir)
	s.mu.Unlock()
	return nil
}
