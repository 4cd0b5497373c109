// Package history keeps the in-memory list of submitted lines.
package history

import "sync"

// Store is an append-only list of submitted lines. It is never persisted.
type Store struct {
	mu      sync.RWMutex
	entries []string
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Append adds a line as the most recent entry. Duplicates are kept.
func (s *Store) Append(line string) {
	s.mu.Lock()
	s.entries = append(s.entries, line)
	s.mu.Unlock()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// At returns entry i counting from the oldest. Out of range indexes yield "".
func (s *Store) At(i int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return ""
	}
	return s.entries[i]
}

// Entries returns a copy of all entries, oldest first.
func (s *Store) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}
