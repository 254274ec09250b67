package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/config"
	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/hasher"
	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/retention"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/internal/security"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/afero"
)

// ErrNoDuplicates is returned by Delete when the last scan left nothing to
// delete
var ErrNoDuplicates = errors.New("no duplicate groups to delete")

// Options configures a Session
type Options struct {
	Config *config.Config
	Log    *eventlog.Logger
	// Fs is the filesystem files are hashed through; nil means the OS
	Fs afero.Fs
	// Trasher receives deleted files; nil picks the platform trash
	Trasher cleaner.Trasher
	// SettingsPath overrides where settings are persisted
	SettingsPath string
	// Context bounds every background enumeration; nil means Background
	Context context.Context
}

// target is one folder or file the user asked to scan. Its context
// cancels a background enumeration when the target is removed.
type target struct {
	path   string
	cancel context.CancelFunc
}

// Session is the foreground context of the application: the target paths,
// the live file set, the last scan and the user's selections. All methods
// are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	cfg          *config.Config
	log          *eventlog.Logger
	settingsPath string

	files      *scanner.FileSet
	targets    []*target
	enumerator *scanner.Enumerator
	pool       *ants.Pool
	pending    sync.WaitGroup

	coordinator *scanner.Coordinator
	executor    *cleaner.Executor
	validator   *security.PathValidator
	progress    *progress.Reporter

	policy     retention.Policy
	unselected map[string]bool
	// consumed is the ID of the scan whose groups were already deleted
	consumed string
}

// New creates a Session
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	minSize, maxSize, err := cfg.SizeLimits()
	if err != nil {
		return nil, err
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	trasher := opts.Trasher
	if trasher == nil {
		if cfg.TrashDir != "" {
			trasher = cleaner.NewDirTrash(cfg.TrashDir)
		} else {
			trasher = cleaner.NewPlatformTrasher()
		}
	}

	settingsPath := opts.SettingsPath
	if settingsPath == "" {
		settingsPath = config.SettingsPath()
	}

	pool, err := ants.NewPool(cfg.EnumerationWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create enumeration pool: %w", err)
	}

	grouper := scanner.NewGrouper(hasher.New(fs, cfg.Algorithm()), scanner.GrouperOptions{
		MinSize: minSize,
		MaxSize: maxSize,
	})

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		ctx:          ctx,
		cancel:       cancel,
		cfg:          cfg,
		log:          opts.Log,
		settingsPath: settingsPath,
		files:        scanner.NewFileSet(),
		enumerator:   scanner.NewEnumerator(opts.Log, cfg.EnumerationWorkers),
		pool:         pool,
		coordinator:  scanner.NewCoordinator(grouper, opts.Log),
		progress:     progress.NewReporter(),
		policy:       retention.KeepFirst,
		unselected:   make(map[string]bool),
		validator:    security.NewPathValidator(cfg.ProtectedPaths...),
	}

	s.executor = cleaner.NewExecutor(cleaner.Options{
		LockPatterns: cfg.LockPatterns,
		DryRun:       cfg.DryRun,
		SampleSize:   cfg.ReportSampleSize,
		Validator:    s.validator,
	}, trasher, opts.Log)
	s.executor.SetProgressReporter(s.progress)
	s.executor.OnDeleted(func(fe scanner.FileEntry) {
		s.files.Remove(fe.Path)
	})

	return s, nil
}

// Progress returns the reporter carrying enumeration and deletion events
func (s *Session) Progress() *progress.Reporter {
	return s.progress
}

// Config returns the session configuration
func (s *Session) Config() *config.Config {
	return s.cfg
}

// =============================================================================
// Targets
// =============================================================================

// AddPath records path as a scan target. A file is added to the live set
// immediately; a directory is enumerated in the background and its files
// merge into the set as the walk completes. Adding a path twice is a no-op.
func (s *Session) AddPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Printf("Path not found: %s", abs)
			return fmt.Errorf("%s: %w", abs, scanner.ErrNotFound)
		}
		return err
	}

	s.mu.Lock()
	for _, t := range s.targets {
		if t.path == abs {
			s.mu.Unlock()
			return nil
		}
	}

	ctx, cancel := context.WithCancel(s.ctx)
	t := &target{path: abs, cancel: cancel}
	s.targets = append(s.targets, t)
	s.log.Printf("Added target: %s", abs)

	if !info.IsDir() {
		defer s.mu.Unlock()
		cancel()
		if !info.Mode().IsRegular() {
			s.log.Printf("Skipped non-regular file: %s", abs)
			return nil
		}
		s.files.Add(scanner.FileEntry{Path: abs, Size: uint64(info.Size()), ModTime: info.ModTime()})
		return nil
	}
	s.pending.Add(1)
	s.mu.Unlock()

	// Submit blocks while every worker is busy, and workers take s.mu
	if err := s.pool.Submit(func() { s.enumerate(ctx, t) }); err != nil {
		s.pending.Done()
		s.mu.Lock()
		s.removeTargetLocked(abs)
		s.mu.Unlock()
		return fmt.Errorf("failed to schedule enumeration: %w", err)
	}
	return nil
}

// enumerate walks one directory target. Files only land in the set while
// the target is still registered, so a RemovePath racing the walk wins.
func (s *Session) enumerate(ctx context.Context, t *target) {
	defer s.pending.Done()
	defer t.cancel()

	added := 0
	stats, err := s.enumerator.Enumerate(ctx, t.path, func(fe scanner.FileEntry) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ctx.Err() != nil || !s.hasTargetLocked(t) {
			return
		}
		if s.files.Add(fe) {
			added++
		}
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Printf("Enumeration failed: %s | %v", t.path, err)
	} else if err == nil {
		s.log.Printf("Enumerated %s: %d files (%d skipped)", t.path, stats.Files, stats.Skipped)
	}

	s.progress.Publish(progress.EnumerationProgress{
		Root:  t.path,
		Files: added,
		Done:  true,
		Err:   err,
	})
}

// WaitEnumeration blocks until every pending enumeration has finished. If
// ctx ends first the pending enumerations are cancelled, waited for, and
// ctx.Err() is returned.
func (s *Session) WaitEnumeration(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for _, t := range s.targets {
			t.cancel()
		}
		s.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

// RemovePath drops a target and every file under it from the live set.
// Returns false if path was not a target.
func (s *Session) RemovePath(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeTargetLocked(abs) {
		return false
	}
	n := s.files.RemoveUnder(abs)
	s.log.Printf("Removed target: %s (%d files dropped)", abs, n)
	return true
}

func (s *Session) removeTargetLocked(abs string) bool {
	for i, t := range s.targets {
		if t.path == abs {
			t.cancel()
			s.targets = append(s.targets[:i], s.targets[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Session) hasTargetLocked(t *target) bool {
	for _, cur := range s.targets {
		if cur == t {
			return true
		}
	}
	return false
}

// Targets returns the target paths in the order they were added
func (s *Session) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.targets))
	for i, t := range s.targets {
		out[i] = t.path
	}
	return out
}

// Files returns a snapshot of the live file set
func (s *Session) Files() []scanner.FileEntry {
	return s.files.Entries()
}

// FileCount returns the number of files in the live set
func (s *Session) FileCount() int {
	return s.files.Len()
}

// =============================================================================
// Scanning
// =============================================================================

// StartScan snapshots the live set and starts a duplicate scan. The
// channel carries progress snapshots and ends with one scanner.ScanFinished.
func (s *Session) StartScan(ctx context.Context) (<-chan progress.Event, error) {
	if s.coordinator.Running() {
		return nil, scanner.ErrScanActive
	}

	events, err := s.coordinator.Start(ctx, scanner.ScanRequest{
		Files: s.files.Entries(),
		Roots: s.Targets(),
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.unselected = make(map[string]bool)
	s.mu.Unlock()

	return events, nil
}

// Scanning reports whether a scan is running
func (s *Session) Scanning() bool {
	return s.coordinator.Running()
}

// WaitScan blocks until the running scan, if any, has finished
func (s *Session) WaitScan() {
	s.coordinator.Wait()
}

// LastScan returns a copy of the most recent scan session
func (s *Session) LastScan() scanner.ScanSession {
	return s.coordinator.Snapshot()
}

// Groups returns a copy of the groups found by the last finished scan.
// Groups already passed to Delete are not returned again.
func (s *Session) Groups() []scanner.DuplicateGroup {
	snap := s.coordinator.Snapshot()
	if !snap.State.Terminal() {
		return nil
	}

	s.mu.Lock()
	consumed := s.consumed
	s.mu.Unlock()
	if snap.ID == consumed {
		return nil
	}
	return snap.GroupList()
}

// =============================================================================
// Selection and retention
// =============================================================================

// SetSelected marks a removal candidate as selected or not. Every
// candidate starts selected.
func (s *Session) SetSelected(path string, selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if selected {
		delete(s.unselected, path)
	} else {
		s.unselected[path] = true
	}
}

// Selected reports whether path is selected for removal
func (s *Session) Selected(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unselected[path]
}

// SetPolicy sets the retention policy used by Delete
func (s *Session) SetPolicy(p retention.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// Policy returns the current retention policy
func (s *Session) Policy() retention.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// Plan resolves the last scan's groups with the current policy
func (s *Session) Plan() []retention.Resolution {
	return retention.ResolveAll(s.Groups(), s.Policy())
}

// Preflight checks whether the planned candidates can be removed without
// touching anything. Candidates inside a protected tree count as blocked.
func (s *Session) Preflight() *cleaner.PermissionReport {
	var allowed, protected []scanner.FileEntry
	for _, c := range retention.Candidates(s.Plan()) {
		if s.validator.IsProtectedPath(c.Path) {
			protected = append(protected, c)
		} else {
			allowed = append(allowed, c)
		}
	}

	report := cleaner.NewPermissionManager().AnalyzePermissions(allowed)
	for _, c := range protected {
		report.Blocked = append(report.Blocked, c.Path)
		report.TotalBlockedSize += c.Size
	}
	return report
}

// =============================================================================
// Deletion
// =============================================================================

// Delete removes every selected candidate of the last scan, keeping one
// file per group according to the policy. Deleted files leave the live
// set. After a real (not dry-run) pass the groups are cleared; a new scan
// is needed to see what remains.
func (s *Session) Delete(ctx context.Context) (*cleaner.DeletionReport, error) {
	if s.coordinator.Running() {
		return nil, scanner.ErrScanActive
	}

	snap := s.coordinator.Snapshot()
	groups := s.Groups()
	if len(groups) == 0 {
		return nil, ErrNoDuplicates
	}

	candidates := retention.Candidates(retention.ResolveAll(groups, s.Policy()))
	s.log.Printf("Deleting duplicates: %d groups, %d candidates, policy %s",
		len(groups), len(candidates), s.Policy())

	report := s.executor.Execute(ctx, candidates, s.Selected)

	if !report.DryRun {
		s.mu.Lock()
		s.consumed = snap.ID
		s.unselected = make(map[string]bool)
		s.mu.Unlock()
	}

	return report, nil
}

// =============================================================================
// Settings
// =============================================================================

// LoadSettings restores the policy and target paths saved by a previous
// run. Targets that no longer exist are logged and skipped. A non-nil
// error is a warning; the session is usable either way.
func (s *Session) LoadSettings() error {
	settings, warn := config.LoadSettings(s.settingsPath)
	if warn != nil {
		s.log.Printf("Settings not loaded: %v", warn)
	}

	s.SetPolicy(retention.FromKeepNewest(settings.KeepNewest))

	var errs []error
	if warn != nil {
		errs = append(errs, warn)
	}
	for _, p := range settings.TargetPaths {
		if err := s.AddPath(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveSettings persists the current targets and policy
func (s *Session) SaveSettings() error {
	settings := &config.Settings{
		TargetPaths: s.Targets(),
		KeepNewest:  s.Policy() == retention.KeepNewest,
	}
	if err := config.SaveSettings(settings, s.settingsPath); err != nil {
		s.log.Printf("Settings not saved: %v", err)
		return err
	}
	return nil
}

// Close cancels background enumerations and releases the worker pool
func (s *Session) Close() {
	s.cancel()

	s.pending.Wait()
	s.coordinator.Wait()
	s.pool.Release()
}
