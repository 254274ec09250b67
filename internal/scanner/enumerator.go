package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/fenilsonani/dupcleaner/internal/eventlog"
)

// ErrNotFound is returned when an enumeration root does not exist
var ErrNotFound = errors.New("path not found")

// EnumerateStats counts what a walk saw
type EnumerateStats struct {
	Files    int64
	Skipped  int64
	Warnings int64
}

// Enumerator turns target paths into FileEntry values
type Enumerator struct {
	log     *eventlog.Logger
	workers int
}

// NewEnumerator creates an Enumerator. workers <= 0 lets fastwalk choose.
func NewEnumerator(log *eventlog.Logger, workers int) *Enumerator {
	return &Enumerator{log: log, workers: workers}
}

// Enumerate walks root and calls yield for every regular file found. A file
// root is yielded directly. For a directory root the immediate children are
// visited in name order: files are yielded as they are reached and each
// subdirectory is walked in parallel, then yielded as one batch sorted by
// path, so discovery order is stable across runs and results arrive before
// the whole tree is walked. Unreadable subtrees, vanished entries and
// non-regular files are skipped with a logged warning. Returns ErrNotFound
// (wrapped) if root does not exist and ctx.Err() if the walk was cancelled.
func (e *Enumerator) Enumerate(ctx context.Context, root string, yield func(FileEntry)) (EnumerateStats, error) {
	var stats EnumerateStats

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return stats, fmt.Errorf("enumerate %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Printf("Path not found: %s", absRoot)
			return stats, fmt.Errorf("enumerate %s: %w", absRoot, ErrNotFound)
		}
		e.log.Printf("Cannot access path: %s | %v", absRoot, err)
		return stats, fmt.Errorf("enumerate %s: %w", absRoot, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			stats.Skipped++
			e.log.Printf("Skipped non-regular file: %s", absRoot)
			return stats, nil
		}
		stats.Files++
		yield(entryFromInfo(absRoot, info))
		return stats, nil
	}

	err = e.enumerateDir(ctx, absRoot, &stats, yield)
	return stats, err
}

func (e *Enumerator) enumerateDir(ctx context.Context, root string, stats *EnumerateStats, yield func(FileEntry)) error {
	children, err := os.ReadDir(root)
	if err != nil {
		stats.Warnings++
		e.log.Printf("Skipped unreadable path: %s | %v", root, err)
		return nil
	}

	for _, d := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(root, d.Name())
		switch {
		case d.IsDir():
			batch, err := e.walk(ctx, path, stats)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				stats.Warnings++
			}
			sort.Slice(batch, func(i, j int) bool {
				return batch[i].Path < batch[j].Path
			})
			for _, entry := range batch {
				yield(entry)
			}

		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				stats.Warnings++
				e.log.Printf("Skipped vanished file: %s | %v", path, err)
				continue
			}
			stats.Files++
			yield(entryFromInfo(path, info))

		default:
			stats.Skipped++
		}
	}

	return nil
}

func (e *Enumerator) walk(ctx context.Context, root string, stats *EnumerateStats) ([]FileEntry, error) {
	var (
		mu      sync.Mutex
		entries []FileEntry
	)

	conf := &fastwalk.Config{
		Follow:     false, // symlinks are never followed, so cycles cannot form
		NumWorkers: e.workers,
	}

	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			atomic.AddInt64(&stats.Warnings, 1)
			e.log.Printf("Skipped unreadable path: %s | %v", path, err)
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !d.Type().IsRegular() {
			atomic.AddInt64(&stats.Skipped, 1)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			atomic.AddInt64(&stats.Warnings, 1)
			e.log.Printf("Skipped vanished file: %s | %v", path, err)
			return nil
		}

		atomic.AddInt64(&stats.Files, 1)

		mu.Lock()
		entries = append(entries, entryFromInfo(path, info))
		mu.Unlock()

		return nil
	})

	if walkErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.log.Printf("Walk of %s ended early | %v", root, walkErr)
		return entries, fmt.Errorf("enumerate %s: %w", root, walkErr)
	}

	return entries, nil
}

func entryFromInfo(path string, info fs.FileInfo) FileEntry {
	size := info.Size()
	if size < 0 {
		size = 0
	}
	return FileEntry{
		Path:    path,
		Size:    uint64(size),
		ModTime: info.ModTime(),
	}
}
