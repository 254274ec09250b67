package scanner

import (
	"time"
)

// FileEntry is a snapshot of a file taken at enumeration time
type FileEntry struct {
	Path    string
	Size    uint64
	ModTime time.Time
}

// DuplicateGroup is a set of files with byte-identical content. Files keep
// discovery order; the first entry is the default keeper.
type DuplicateGroup struct {
	ID     int
	Size   uint64
	Digest string
	Files  []FileEntry
}

// Len returns the number of files in the group
func (g DuplicateGroup) Len() int {
	return len(g.Files)
}

// Paths returns the member paths in discovery order
func (g DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}

// TotalSize is the combined size of every member
func (g DuplicateGroup) TotalSize() uint64 {
	return g.Size * uint64(len(g.Files))
}

// ReclaimableSize is what deleting all but one copy would free
func (g DuplicateGroup) ReclaimableSize() uint64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * uint64(len(g.Files)-1)
}

// Clone returns a deep copy so callers never share the Files slice
func (g DuplicateGroup) Clone() DuplicateGroup {
	files := make([]FileEntry, len(g.Files))
	copy(files, g.Files)
	g.Files = files
	return g
}

// CloneGroups deep-copies a group list
func CloneGroups(groups []DuplicateGroup) []DuplicateGroup {
	if groups == nil {
		return nil
	}
	out := make([]DuplicateGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// DuplicateFileCount counts every file that belongs to some group
func DuplicateFileCount(groups []DuplicateGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Files)
	}
	return n
}

// ReclaimableSize sums ReclaimableSize over groups
func ReclaimableSize(groups []DuplicateGroup) uint64 {
	var total uint64
	for _, g := range groups {
		total += g.ReclaimableSize()
	}
	return total
}
