package security

import (
	"path/filepath"
	"sync"
)

// DirCache memoizes symlink resolution of directories
type DirCache struct {
	mu      sync.Mutex
	entries map[string]string
	order   []string
	maxSize int
}

// NewDirCache creates a cache holding at most maxSize directories
func NewDirCache(maxSize int) *DirCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &DirCache{
		entries: make(map[string]string, maxSize),
		maxSize: maxSize,
	}
}

// Resolve returns filepath.EvalSymlinks(dir), cached. Errors are not cached.
func (c *DirCache) Resolve(dir string) (string, error) {
	c.mu.Lock()
	if resolved, ok := c.entries[dir]; ok {
		c.mu.Unlock()
		return resolved, nil
	}
	c.mu.Unlock()

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[dir]; !ok {
		// Evict oldest when full
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, dir)
	}
	c.entries[dir] = resolved
	return resolved, nil
}

// Len returns the number of cached directories
func (c *DirCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache
func (c *DirCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]string, c.maxSize)
	c.order = nil
}
