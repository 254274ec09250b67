// Package retention decides which member of a duplicate group is kept.
// It never touches the filesystem.
package retention

import (
	"fmt"
	"strings"

	"github.com/fenilsonani/dupcleaner/internal/scanner"
)

// Policy is applied uniformly to every group in a deletion pass
type Policy int

const (
	// KeepFirst keeps the earliest discovered file
	KeepFirst Policy = iota
	// KeepNewest keeps the most recently modified file
	KeepNewest
)

func (p Policy) String() string {
	switch p {
	case KeepFirst:
		return "keep-first"
	case KeepNewest:
		return "keep-newest"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a name to a Policy. Empty means KeepFirst.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first", "keep-first", "keepfirst":
		return KeepFirst, nil
	case "newest", "keep-newest", "keepnewest":
		return KeepNewest, nil
	default:
		return KeepFirst, fmt.Errorf("unknown retention policy %q", name)
	}
}

// FromKeepNewest converts the persisted keep_newest flag
func FromKeepNewest(keepNewest bool) Policy {
	if keepNewest {
		return KeepNewest
	}
	return KeepFirst
}

// Resolve splits a group into the kept file and the removal candidates.
// Candidates keep group order. An empty group yields a zero kept entry and
// no candidates.
func Resolve(group scanner.DuplicateGroup, policy Policy) (kept scanner.FileEntry, candidates []scanner.FileEntry) {
	if len(group.Files) == 0 {
		return scanner.FileEntry{}, nil
	}

	keep := 0
	if policy == KeepNewest {
		for i, f := range group.Files[1:] {
			// strictly after, so ties stay with the earlier file
			if f.ModTime.After(group.Files[keep].ModTime) {
				keep = i + 1
			}
		}
	}

	candidates = make([]scanner.FileEntry, 0, len(group.Files)-1)
	for i, f := range group.Files {
		if i != keep {
			candidates = append(candidates, f)
		}
	}
	return group.Files[keep], candidates
}

// Resolution is the outcome of Resolve for one group
type Resolution struct {
	GroupID    int
	Kept       scanner.FileEntry
	Candidates []scanner.FileEntry
}

// ResolveAll resolves every group in order
func ResolveAll(groups []scanner.DuplicateGroup, policy Policy) []Resolution {
	out := make([]Resolution, 0, len(groups))
	for _, g := range groups {
		kept, candidates := Resolve(g, policy)
		out = append(out, Resolution{GroupID: g.ID, Kept: kept, Candidates: candidates})
	}
	return out
}

// Candidates flattens the removal candidates of every resolution
func Candidates(resolutions []Resolution) []scanner.FileEntry {
	var out []scanner.FileEntry
	for _, r := range resolutions {
		out = append(out, r.Candidates...)
	}
	return out
}

// KeptPaths returns the set of kept paths
func KeptPaths(resolutions []Resolution) map[string]bool {
	out := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		out[r.Kept.Path] = true
	}
	return out
}
