package cleaner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/security"
)

// DefaultLockPatterns match the transient lock files office suites leave
// next to open documents
var DefaultLockPatterns = []string{"~$*", ".~lock.*#"}

// SelectionFilter reports whether a candidate may be removed. A nil filter
// selects everything.
type SelectionFilter func(path string) bool

// Options configures an Executor
type Options struct {
	LockPatterns []string
	DryRun       bool
	SampleSize   int
	// Validator refuses unsafe paths; nil skips validation
	Validator *security.PathValidator
}

// Executor removes duplicate candidates: to the trash first, then directly
// if the trash refuses. It never returns an error; every candidate ends up
// as one Outcome in the report.
type Executor struct {
	opts             Options
	trasher          Trasher
	log              *eventlog.Logger
	progressReporter *progress.Reporter
	onDeleted        func(scanner.FileEntry)
	remove           func(string) error
	retryDelays      []time.Duration
}

// NewExecutor creates an Executor. The default lock patterns always apply
// on top of opts.LockPatterns. A nil trasher means trash always fails and
// every removal is permanent.
func NewExecutor(opts Options, trasher Trasher, log *eventlog.Logger) *Executor {
	opts.LockPatterns = mergeLockPatterns(opts.LockPatterns)
	if trasher == nil {
		trasher = TrasherFunc(func(string) error { return ErrTrashUnavailable })
	}
	return &Executor{
		opts:    opts,
		trasher: trasher,
		log:     log,
		remove:  os.Remove,
		retryDelays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
			2 * time.Second,
		},
	}
}

// mergeLockPatterns returns DefaultLockPatterns followed by the extra
// patterns not already in it
func mergeLockPatterns(extra []string) []string {
	merged := append([]string(nil), DefaultLockPatterns...)
	for _, p := range extra {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	return merged
}

// SetProgressReporter sets a progress reporter for DeleteProgress events
func (e *Executor) SetProgressReporter(pr *progress.Reporter) {
	e.progressReporter = pr
}

// OnDeleted registers a callback run after each successful removal
func (e *Executor) OnDeleted(fn func(scanner.FileEntry)) {
	e.onDeleted = fn
}

// IsLockFile reports whether name matches any lock pattern
func IsLockFile(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
		// The office prefix is matched literally too, in case a pattern
		// is malformed
		if strings.HasSuffix(p, "*") && !strings.ContainsAny(p[:len(p)-1], "*?[\\") &&
			strings.HasPrefix(name, p[:len(p)-1]) {
			return true
		}
	}
	return false
}

// Execute processes candidates in order and returns the aggregate report.
// Once ctx is cancelled the remaining candidates are not attempted and are
// reported as failed.
func (e *Executor) Execute(ctx context.Context, candidates []scanner.FileEntry, filter SelectionFilter) *DeletionReport {
	report := newReport(e.opts.SampleSize, e.opts.DryRun)
	defer func() { report.EndTime = time.Now() }()

	if e.opts.DryRun {
		e.log.Printf("Dry run: simulating deletion of %d files", len(candidates))
	}

	e.reportProgress(report, "", len(candidates))

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			for _, rest := range candidates[i:] {
				report.add(Outcome{
					Path:   rest.Path,
					Kind:   Failed,
					Reason: "cancelled",
					Err:    CategorizeError(rest.Path, err),
				})
			}
			e.log.Printf("Deletion cancelled: %d files not attempted", len(candidates)-i)
			break
		}

		out := e.process(c, filter)
		report.add(out)

		if out.Kind == Deleted && !e.opts.DryRun && e.onDeleted != nil {
			e.onDeleted(c)
		}

		e.reportProgress(report, c.Path, len(candidates))
	}

	e.log.Printf("Deletion finished: %d deleted, %d skipped, %d failed, %d bytes freed",
		report.Deleted, report.Skipped(), report.Failed, report.BytesFreed)

	return report
}

// process decides the outcome of one candidate. Panics become a Failed
// outcome so one bad file cannot abort the pass.
func (e *Executor) process(c scanner.FileEntry, filter SelectionFilter) (out Outcome) {
	out = Outcome{Path: c.Path}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			out = Outcome{Path: c.Path, Kind: Failed, Reason: err.Error(), Err: CategorizeError(c.Path, err)}
			e.log.Printf("Failed to delete: %s | %v", c.Path, err)
		}
	}()

	// Lock files are never removed, selected or not
	if IsLockFile(filepath.Base(c.Path), e.opts.LockPatterns) {
		out.Kind = SkippedTemp
		e.log.Printf("Skipped temp file: %s", c.Path)
		return out
	}

	if filter != nil && !filter(c.Path) {
		out.Kind = SkippedUnselected
		e.log.Printf("Skipped unselected file: %s", c.Path)
		return out
	}

	// Use Lstat to not follow symlinks
	info, err := os.Lstat(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			out.Kind = SkippedMissing
			e.log.Printf("File not found: %s", c.Path)
			return out
		}
		return e.failed(out, CategorizeError(c.Path, err))
	}

	// SECURITY: the candidate must still be the regular file we hashed
	if !info.Mode().IsRegular() {
		return e.failed(out, &DeletionError{
			Path:     c.Path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("no longer a regular file (%s)", info.Mode().Type()),
		})
	}

	if e.opts.Validator != nil {
		if err := e.opts.Validator.ValidatePathForDeletion(c.Path); err != nil {
			return e.failed(out, &DeletionError{Path: c.Path, Reason: ErrorInvalidPath, Original: err})
		}
	}

	size := uint64(info.Size())

	if e.opts.DryRun {
		out.Kind = Deleted
		out.BytesFreed = size
		e.log.Printf("Dry run, would delete: %s", c.Path)
		return out
	}

	trashErr := e.trasher.Trash(c.Path)
	if trashErr == nil {
		out.Kind = Deleted
		out.BytesFreed = size
		e.log.Printf("Moved to trash: %s", c.Path)
		return out
	}

	e.log.Printf("Trash failed, deleting permanently: %s | %v", c.Path, trashErr)

	if delErr := e.removeWithRetry(c.Path); delErr != nil {
		return e.failed(out, delErr)
	}

	out.Kind = Deleted
	out.BytesFreed = size
	out.UsedFallback = true
	e.log.Printf("Deleted permanently: %s", c.Path)
	return out
}

func (e *Executor) failed(out Outcome, delErr *DeletionError) Outcome {
	out.Kind = Failed
	out.Err = delErr
	out.Reason = delErr.Reason.String()
	e.log.Printf("Failed to delete: %s | %v", out.Path, delErr.Original)
	return out
}

// removeWithRetry attempts a direct unlink with retries for transient errors
func (e *Executor) removeWithRetry(path string) *DeletionError {
	var lastErr *DeletionError

	for attempt := 0; attempt <= len(e.retryDelays); attempt++ {
		err := e.remove(path)
		if err == nil {
			return nil
		}

		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable {
			// Not retryable (permission denied, path invalid, etc.), give up
			return lastErr
		}

		// File is in use or temporarily unavailable
		// On last attempt, don't sleep
		if attempt < len(e.retryDelays) {
			time.Sleep(e.retryDelays[attempt])
		}
	}

	// All retries exhausted - return last error
	return lastErr
}

// reportProgress reports deletion progress to listeners
func (e *Executor) reportProgress(r *DeletionReport, current string, total int) {
	if e.progressReporter == nil {
		return
	}

	e.progressReporter.Publish(progress.DeleteProgress{
		CurrentFile: current,
		Attempted:   r.Total(),
		Total:       total,
		Deleted:     r.Deleted,
		Skipped:     r.Skipped(),
		Failed:      r.Failed,
		BytesFreed:  r.BytesFreed,
		StartTime:   r.StartTime,
		DryRun:      r.DryRun,
	})
}

// DeletionManifest keeps track of deleted files
type DeletionManifest struct {
	Files     []DeletedFileInfo `json:"files"`
	Timestamp time.Time         `json:"timestamp"`
	TotalSize uint64            `json:"total_size"`
	DryRun    bool              `json:"dry_run"`
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path     string    `json:"path"`
	Size     uint64    `json:"size"`
	Method   string    `json:"method"` // trash, permanent or dry-run
	Recorded time.Time `json:"recorded"`
}

// NewDeletionManifest builds a manifest from a finished report
func NewDeletionManifest(r *DeletionReport) *DeletionManifest {
	m := &DeletionManifest{
		Files:     []DeletedFileInfo{},
		Timestamp: r.EndTime,
		DryRun:    r.DryRun,
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	for _, o := range r.Outcomes {
		if o.Kind != Deleted {
			continue
		}
		method := "trash"
		switch {
		case r.DryRun:
			method = "dry-run"
		case o.UsedFallback:
			method = "permanent"
		}
		m.Files = append(m.Files, DeletedFileInfo{
			Path:     o.Path,
			Size:     o.BytesFreed,
			Method:   method,
			Recorded: m.Timestamp,
		})
		m.TotalSize += o.BytesFreed
	}
	return m
}

// Save writes the manifest to path as indented JSON
func (m *DeletionManifest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		file.Close()
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return file.Close()
}
