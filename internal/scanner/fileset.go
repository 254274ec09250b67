package scanner

import (
	"path/filepath"
	"strings"
	"sync"
)

// FileSet is an insertion-ordered set of files keyed by path. It is safe
// for concurrent use; enumeration tasks add to it while the foreground
// reads it.
type FileSet struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]FileEntry
}

// NewFileSet creates an empty FileSet
func NewFileSet() *FileSet {
	return &FileSet{entries: make(map[string]FileEntry)}
}

// Add inserts e unless its path is already present. Returns true if added.
func (s *FileSet) Add(e FileEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.Path]; ok {
		return false
	}
	s.entries[e.Path] = e
	s.order = append(s.order, e.Path)
	return true
}

// AddAll inserts every entry and returns how many were new
func (s *FileSet) AddAll(entries []FileEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range entries {
		if _, ok := s.entries[e.Path]; ok {
			continue
		}
		s.entries[e.Path] = e
		s.order = append(s.order, e.Path)
		added++
	}
	return added
}

// Remove deletes path from the set. Returns true if it was present.
func (s *FileSet) Remove(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; !ok {
		return false
	}
	delete(s.entries, path)
	s.compactLocked()
	return true
}

// RemoveUnder deletes path itself and every entry inside directory path.
// Returns the number removed.
func (s *FileSet) RemoveUnder(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := strings.TrimSuffix(path, string(filepath.Separator)) + string(filepath.Separator)
	removed := 0
	for p := range s.entries {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(s.entries, p)
			removed++
		}
	}
	if removed > 0 {
		s.compactLocked()
	}
	return removed
}

// Contains reports whether path is in the set
func (s *FileSet) Contains(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[path]
	return ok
}

// Len returns the number of files
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a snapshot in insertion order
func (s *FileSet) Entries() []FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FileEntry, 0, len(s.entries))
	for _, p := range s.order {
		out = append(out, s.entries[p])
	}
	return out
}

// Clear empties the set
func (s *FileSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.entries = make(map[string]FileEntry)
}

// compactLocked drops order slots whose entry is gone (caller holds lock)
func (s *FileSet) compactLocked() {
	kept := s.order[:0]
	for _, p := range s.order {
		if _, ok := s.entries[p]; ok {
			kept = append(kept, p)
		}
	}
	s.order = kept
}
