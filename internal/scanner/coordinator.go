package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/google/uuid"
)

// State is the lifecycle position of a scan
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

var (
	// ErrNoInput rejects a scan over an empty file set
	ErrNoInput = errors.New("no files to scan")
	// ErrScanActive rejects a scan while another is running
	ErrScanActive = errors.New("a scan is already running")
	// ErrTargetsVanished fails a scan whose target paths are all gone
	ErrTargetsVanished = errors.New("every target path vanished before the scan started")
)

// ScanSession is the state of one scan. The coordinator goroutine is its
// only writer; everyone else reads copies from Snapshot.
type ScanSession struct {
	ID        string
	Files     []FileEntry
	Groups    map[int]DuplicateGroup
	Order     []int
	Processed int
	Total     int
	StartTime time.Time
	EndTime   time.Time
	State     State
	Errors    int
	Err       error
}

// GroupList returns the groups in emission order
func (s ScanSession) GroupList() []DuplicateGroup {
	out := make([]DuplicateGroup, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Groups[id].Clone())
	}
	return out
}

// Elapsed is the scan duration so far, or in total once finished
func (s ScanSession) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if !s.EndTime.IsZero() {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

func (s *ScanSession) clone() ScanSession {
	c := *s
	c.Files = append([]FileEntry(nil), s.Files...)
	c.Order = append([]int(nil), s.Order...)
	c.Groups = make(map[int]DuplicateGroup, len(s.Groups))
	for id, g := range s.Groups {
		c.Groups[id] = g.Clone()
	}
	return c
}

// ScanFinished is the last event of every scan
type ScanFinished struct {
	SessionID string
	State     State
	Groups    []DuplicateGroup
	Progress  progress.ScanProgress
	Errors    int
	Err       error
}

// Kind implements progress.Event
func (ScanFinished) Kind() progress.Kind { return progress.KindScanFinished }

// ScanRequest is the input of Coordinator.Start
type ScanRequest struct {
	Files []FileEntry
	// Roots are the target paths the files were enumerated from. When set
	// and none of them exists any more, the scan fails instead of running.
	Roots []string
}

// eventBuffer is the progress channel capacity; the last slots are kept
// free for the final snapshot and ScanFinished
const eventBuffer = 64

// Coordinator runs at most one scan at a time on a background goroutine
type Coordinator struct {
	mu      sync.Mutex
	grouper *Grouper
	log     *eventlog.Logger
	now     func() time.Time
	session *ScanSession
	done    chan struct{}
}

// NewCoordinator creates a Coordinator
func NewCoordinator(grouper *Grouper, log *eventlog.Logger) *Coordinator {
	return &Coordinator{
		grouper: grouper,
		log:     log,
		now:     time.Now,
		session: &ScanSession{State: StateIdle},
	}
}

// Start begins a scan over req.Files. The returned channel carries
// progress.ScanProgress snapshots followed by exactly one ScanFinished, then
// closes. Cancelling ctx stops the scan before its next digest.
func (c *Coordinator) Start(ctx context.Context, req ScanRequest) (<-chan progress.Event, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoInput
	}

	c.mu.Lock()
	if c.session.State == StateRunning {
		c.mu.Unlock()
		return nil, ErrScanActive
	}

	session := &ScanSession{
		ID:        uuid.NewString(),
		Files:     append([]FileEntry(nil), req.Files...),
		Groups:    make(map[int]DuplicateGroup),
		StartTime: c.now(),
		State:     StateRunning,
	}
	c.session = session
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	events := make(chan progress.Event, eventBuffer)
	roots := append([]string(nil), req.Roots...)

	c.log.Printf("Scan %s started: %d files", session.ID, len(session.Files))

	go func() {
		defer close(done)
		defer close(events)
		c.run(ctx, session, roots, events)
	}()

	return events, nil
}

// Snapshot returns a copy of the current (or last) scan session
func (c *Coordinator) Snapshot() ScanSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Running reports whether a scan is in progress
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.State == StateRunning
}

// Wait blocks until the current scan, if any, reaches a terminal state
func (c *Coordinator) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Coordinator) run(ctx context.Context, s *ScanSession, roots []string, events chan<- progress.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.finish(s, StateFailed, fmt.Errorf("scan panicked: %v", r), nil, events)
		}
	}()

	if len(roots) > 0 && !anyExists(roots) {
		c.finish(s, StateFailed, ErrTargetsVanished, nil, events)
		return
	}

	buckets := c.grouper.SizeBuckets(s.Files)

	c.mu.Lock()
	s.Total = CandidateCount(buckets)
	c.mu.Unlock()

	c.publish(events, c.progressOf(s, StageQuick, ""))

	hooks := Hooks{
		Before: func(stage Stage, f FileEntry) error {
			return ctx.Err()
		},
		After: func(stage Stage, f FileEntry, err error) {
			c.mu.Lock()
			if err != nil {
				s.Errors++
			}
			if stage == StageQuick {
				s.Processed++
			}
			c.mu.Unlock()

			if err != nil {
				c.log.Printf("Hash failed (%s): %s | %v", stage, f.Path, err)
			}
			if stage == StageQuick {
				c.publish(events, c.progressOf(s, stage, f.Path))
			}
		},
	}

	groups, err := c.grouper.Group(buckets, hooks)

	switch {
	case err == nil:
		c.finish(s, StateCompleted, nil, groups, events)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.finish(s, StateCancelled, err, groups, events)
	default:
		c.finish(s, StateFailed, err, groups, events)
	}
}

func (c *Coordinator) finish(s *ScanSession, state State, err error, groups []DuplicateGroup, events chan<- progress.Event) {
	c.mu.Lock()
	if s.State.Terminal() {
		c.mu.Unlock()
		return
	}
	for _, g := range groups {
		s.Groups[g.ID] = g
		s.Order = append(s.Order, g.ID)
	}
	s.State = state
	s.Err = err
	s.EndTime = c.now()
	snap := s.clone()
	c.mu.Unlock()

	final := progress.NewScanProgress(snap.Processed, snap.Total, snap.Elapsed(snap.EndTime))
	final.Stage = state.String()

	switch state {
	case StateFailed:
		c.log.Printf("Scan %s failed: %v", snap.ID, err)
	default:
		c.log.Printf("Scan %s %s: %d/%d files hashed, %d groups, %d errors",
			snap.ID, state, snap.Processed, snap.Total, len(snap.Order), snap.Errors)
	}

	// The buffer always has room for these two
	events <- final
	events <- ScanFinished{
		SessionID: snap.ID,
		State:     state,
		Groups:    snap.GroupList(),
		Progress:  final,
		Errors:    snap.Errors,
		Err:       err,
	}
}

func (c *Coordinator) progressOf(s *ScanSession, stage Stage, path string) progress.ScanProgress {
	c.mu.Lock()
	processed, total := s.Processed, s.Total
	start := s.StartTime
	c.mu.Unlock()

	p := progress.NewScanProgress(processed, total, c.now().Sub(start))
	p.Stage = stage.String()
	p.CurrentPath = path
	return p
}

// publish drops intermediate snapshots when the consumer lags so the scan
// never blocks on presentation
func (c *Coordinator) publish(events chan<- progress.Event, p progress.ScanProgress) {
	if len(events) >= cap(events)-2 {
		return
	}
	events <- p
}

func anyExists(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Lstat(p); err == nil {
			return true
		}
	}
	return false
}
