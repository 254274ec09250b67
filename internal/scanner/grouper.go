package scanner

import (
	"github.com/fenilsonani/dupcleaner/internal/hasher"
)

// Digester computes content digests. *hasher.Hasher satisfies it.
type Digester interface {
	Digest(path string, mode hasher.Mode) (hasher.Digest, error)
}

// Stage names a narrowing pass of the grouping pipeline
type Stage int

const (
	StageQuick Stage = iota
	StageFull
)

func (s Stage) String() string {
	switch s {
	case StageQuick:
		return "quick"
	case StageFull:
		return "full"
	default:
		return "unknown"
	}
}

// Hooks let a caller observe and interrupt grouping. Any nil hook is skipped.
type Hooks struct {
	// Before runs ahead of every digest. A non-nil error stops grouping.
	Before func(stage Stage, file FileEntry) error
	// After runs once a digest attempt finished, successful or not.
	After func(stage Stage, file FileEntry, err error)
	// OnGroup runs for each group as soon as it is resolved.
	OnGroup func(group DuplicateGroup)
}

// GrouperOptions bounds which files take part in grouping
type GrouperOptions struct {
	MinSize uint64 // files smaller than this are ignored
	MaxSize uint64 // 0 means unlimited
}

// Grouper narrows a file list into duplicate groups by size, then quick
// digest, then full digest. Each stage only looks at files that collided in
// the previous one.
type Grouper struct {
	digester Digester
	opts     GrouperOptions
}

// NewGrouper creates a Grouper
func NewGrouper(d Digester, opts GrouperOptions) *Grouper {
	return &Grouper{digester: d, opts: opts}
}

// SizeBuckets groups files by exact size and keeps only buckets with at
// least two members. Buckets are ordered by the discovery position of their
// first member and members keep discovery order. Repeated paths are counted
// once.
func (g *Grouper) SizeBuckets(files []FileEntry) [][]FileEntry {
	seen := make(map[string]struct{}, len(files))
	index := make(map[uint64]int)
	var buckets [][]FileEntry

	for _, f := range files {
		if !g.inRange(f.Size) {
			continue
		}
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}

		i, ok := index[f.Size]
		if !ok {
			i = len(buckets)
			index[f.Size] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], f)
	}

	return keepCollisions(buckets)
}

// CandidateCount is the number of files that will be quick-hashed
func CandidateCount(buckets [][]FileEntry) int {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	return n
}

// Group runs the pipeline over buckets produced by SizeBuckets. Groups are
// numbered from 1 in emission order. When Before returns an error the bucket
// being narrowed is abandoned, the groups resolved so far are returned, and
// the error is passed back.
func (g *Grouper) Group(buckets [][]FileEntry, hooks Hooks) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup

	for _, bucket := range buckets {
		resolved, err := g.narrow(bucket, hooks)
		if err != nil {
			return groups, err
		}
		for _, members := range resolved {
			group := DuplicateGroup{
				ID:     len(groups) + 1,
				Size:   members.files[0].Size,
				Digest: string(members.digest),
				Files:  members.files,
			}
			groups = append(groups, group)
			if hooks.OnGroup != nil {
				hooks.OnGroup(group.Clone())
			}
		}
	}

	return groups, nil
}

// GroupFiles is SizeBuckets followed by Group
func (g *Grouper) GroupFiles(files []FileEntry, hooks Hooks) ([]DuplicateGroup, error) {
	return g.Group(g.SizeBuckets(files), hooks)
}

type digestBucket struct {
	digest hasher.Digest
	files  []FileEntry
}

// narrow resolves one size bucket. Nothing from it is returned unless both
// digest stages finish.
func (g *Grouper) narrow(bucket []FileEntry, hooks Hooks) ([]digestBucket, error) {
	quick, err := g.rebucket(StageQuick, bucket, hooks)
	if err != nil {
		return nil, err
	}

	var out []digestBucket
	for _, qb := range quick {
		// A file no longer than the quick window was digested whole already
		if qb.files[0].Size <= hasher.QuickHashSize {
			out = append(out, qb)
			continue
		}
		full, err := g.rebucket(StageFull, qb.files, hooks)
		if err != nil {
			return nil, err
		}
		out = append(out, full...)
	}
	return out, nil
}

// rebucket digests every file and returns the digest buckets with two or
// more members, in order of first appearance. Files whose digest fails are
// dropped.
func (g *Grouper) rebucket(stage Stage, files []FileEntry, hooks Hooks) ([]digestBucket, error) {
	mode := hasher.ModeQuick
	if stage == StageFull {
		mode = hasher.ModeFull
	}

	index := make(map[hasher.Digest]int)
	var buckets []digestBucket

	for _, f := range files {
		if hooks.Before != nil {
			if err := hooks.Before(stage, f); err != nil {
				return nil, err
			}
		}

		d, err := g.digester.Digest(f.Path, mode)

		if hooks.After != nil {
			hooks.After(stage, f, err)
		}
		if err != nil {
			continue
		}

		i, ok := index[d]
		if !ok {
			i = len(buckets)
			index[d] = i
			buckets = append(buckets, digestBucket{digest: d})
		}
		buckets[i].files = append(buckets[i].files, f)
	}

	kept := buckets[:0]
	for _, b := range buckets {
		if len(b.files) >= 2 {
			kept = append(kept, b)
		}
	}
	return kept, nil
}

func (g *Grouper) inRange(size uint64) bool {
	if size < g.opts.MinSize {
		return false
	}
	if g.opts.MaxSize > 0 && size > g.opts.MaxSize {
		return false
	}
	return true
}

func keepCollisions(buckets [][]FileEntry) [][]FileEntry {
	kept := buckets[:0]
	for _, b := range buckets {
		if len(b) >= 2 {
			kept = append(kept, b)
		}
	}
	return kept
}
