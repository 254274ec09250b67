package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/eventlog"
	"github.com/fenilsonani/dupcleaner/internal/hasher"
	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/spf13/afero"
)

// drain reads every event until the channel closes
func drain(t *testing.T, events <-chan progress.Event) ([]progress.ScanProgress, ScanFinished) {
	t.Helper()

	var snaps []progress.ScanProgress
	var finished *ScanFinished
	timeout := time.After(10 * time.Second)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if finished == nil {
					t.Fatal("channel closed without ScanFinished")
				}
				return snaps, *finished
			}
			switch e := ev.(type) {
			case progress.ScanProgress:
				snaps = append(snaps, e)
			case ScanFinished:
				if finished != nil {
					t.Fatal("ScanFinished delivered twice")
				}
				finished = &e
			}
		case <-timeout:
			t.Fatal("timed out waiting for scan events")
		}
	}
}

func newTestCoordinator(d Digester) *Coordinator {
	return NewCoordinator(NewGrouper(d, GrouperOptions{MinSize: 1}), eventlog.Discard())
}

func TestCoordinatorRejectsEmptyInput(t *testing.T) {
	c := newTestCoordinator(hasher.New(afero.NewMemMapFs(), ""))
	if _, err := c.Start(context.Background(), ScanRequest{}); !errors.Is(err, ErrNoInput) {
		t.Fatalf("Start() error = %v, want ErrNoInput", err)
	}
	if snap := c.Snapshot(); snap.State != StateIdle {
		t.Errorf("state = %v, want idle", snap.State)
	}
}

func TestCoordinatorCompletes(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := []byte("0123456789")
	entries := memFiles(t, fs, map[string][]byte{
		"/a": content, "/b": content, "/c": []byte("01234567890123456789"),
	}, []string{"/a", "/b", "/c"})

	c := newTestCoordinator(hasher.New(fs, ""))
	events, err := c.Start(context.Background(), ScanRequest{Files: entries})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	snaps, fin := drain(t, events)

	if fin.State != StateCompleted {
		t.Fatalf("state = %v, want completed (err %v)", fin.State, fin.Err)
	}
	if len(fin.Groups) != 1 || fin.Groups[0].Len() != 2 {
		t.Errorf("groups = %+v", fin.Groups)
	}
	if fin.Progress.Processed != fin.Progress.Total || fin.Progress.Total != 2 {
		t.Errorf("final progress %d/%d, want 2/2", fin.Progress.Processed, fin.Progress.Total)
	}

	last := -1
	for _, s := range snaps {
		if s.Processed < last {
			t.Errorf("processed went backwards: %d after %d", s.Processed, last)
		}
		last = s.Processed
		if s.ETAAvailable != (s.Processed > 0) {
			t.Errorf("ETAAvailable = %v at processed %d", s.ETAAvailable, s.Processed)
		}
		if s.ETA < 0 {
			t.Errorf("negative ETA %v", s.ETA)
		}
	}

	snap := c.Snapshot()
	if snap.ID == "" || snap.ID != fin.SessionID {
		t.Errorf("session id %q, finished id %q", snap.ID, fin.SessionID)
	}
	if snap.EndTime.IsZero() || c.Running() {
		t.Error("session should be frozen after completion")
	}
	if len(snap.GroupList()) != 1 {
		t.Errorf("snapshot groups = %d", len(snap.GroupList()))
	}
}

// cancellingDigester cancels the scan after n quick digests
type cancellingDigester struct {
	inner  Digester
	n      int
	cancel context.CancelFunc
	mu     sync.Mutex
	done   int
}

func (c *cancellingDigester) Digest(path string, mode hasher.Mode) (hasher.Digest, error) {
	d, err := c.inner.Digest(path, mode)
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == hasher.ModeQuick {
		c.done++
		if c.done == c.n {
			c.cancel()
		}
	}
	return d, err
}

func TestCoordinatorCancelAfterTwoOfFive(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string][]byte{}
	var order []string
	for i := 0; i < 5; i++ {
		p := fmt.Sprintf("/f%d", i)
		files[p] = []byte("identical")
		order = append(order, p)
	}
	entries := memFiles(t, fs, files, order)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &cancellingDigester{inner: hasher.New(fs, ""), n: 2, cancel: cancel}
	c := newTestCoordinator(d)

	events, err := c.Start(ctx, ScanRequest{Files: entries})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	_, fin := drain(t, events)

	if fin.State != StateCancelled {
		t.Fatalf("state = %v, want cancelled", fin.State)
	}
	if fin.Progress.Processed > 2 {
		t.Errorf("processed = %d, want <= 2", fin.Progress.Processed)
	}
	if len(fin.Groups) != 0 {
		t.Errorf("no group may need unprocessed files, got %+v", fin.Groups)
	}
	if !errors.Is(fin.Err, context.Canceled) {
		t.Errorf("err = %v", fin.Err)
	}
}

// blockingDigester holds every digest until released
type blockingDigester struct {
	inner   Digester
	release chan struct{}
}

func (b *blockingDigester) Digest(path string, mode hasher.Mode) (hasher.Digest, error) {
	<-b.release
	return b.inner.Digest(path, mode)
}

func TestCoordinatorRejectsConcurrentScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := memFiles(t, fs, map[string][]byte{
		"/a": []byte("xx"), "/b": []byte("xx"),
	}, []string{"/a", "/b"})

	d := &blockingDigester{inner: hasher.New(fs, ""), release: make(chan struct{})}
	c := newTestCoordinator(d)

	events, err := c.Start(context.Background(), ScanRequest{Files: entries})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !c.Running() {
		t.Error("Running() should be true while the first scan is blocked")
	}

	if _, err := c.Start(context.Background(), ScanRequest{Files: entries}); !errors.Is(err, ErrScanActive) {
		t.Errorf("second Start() error = %v, want ErrScanActive", err)
	}

	close(d.release)
	_, fin := drain(t, events)
	if fin.State != StateCompleted {
		t.Errorf("state = %v", fin.State)
	}

	// A new scan is allowed once the first is terminal and replaces it
	first := fin.SessionID
	events, err = c.Start(context.Background(), ScanRequest{Files: entries})
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	_, fin = drain(t, events)
	if fin.SessionID == first {
		t.Error("a new scan must get a new session")
	}
}

func TestCoordinatorFailsWhenTargetsVanish(t *testing.T) {
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone")

	c := newTestCoordinator(hasher.New(nil, ""))
	events, err := c.Start(context.Background(), ScanRequest{
		Files: []FileEntry{{Path: filepath.Join(gone, "a"), Size: 1}},
		Roots: []string{gone},
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	_, fin := drain(t, events)

	if fin.State != StateFailed || !errors.Is(fin.Err, ErrTargetsVanished) {
		t.Errorf("state = %v err = %v, want failed/ErrTargetsVanished", fin.State, fin.Err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle: "idle", StateRunning: "running", StateCompleted: "completed",
		StateCancelled: "cancelled", StateFailed: "failed",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
	if StateRunning.Terminal() || !StateCancelled.Terminal() {
		t.Error("Terminal() wrong")
	}
}
