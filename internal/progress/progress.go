package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/dupcleaner/pkg/utils"
)

// Kind identifies an event published on a progress channel
type Kind string

const (
	KindEnumeration  Kind = "enumeration"
	KindScan         Kind = "scan"
	KindScanFinished Kind = "scan_finished"
	KindDelete       Kind = "delete"
)

// Event is anything published to progress listeners. Every event is an
// immutable value; receivers never share state with the publisher.
type Event interface {
	Kind() Kind
}

// ScanProgress is a snapshot of a running scan
type ScanProgress struct {
	Processed    int
	Total        int
	Elapsed      time.Duration
	Throughput   float64 // files per second
	ETA          time.Duration
	ETAAvailable bool
	Stage        string
	CurrentPath  string
}

// Kind implements Event
func (ScanProgress) Kind() Kind { return KindScan }

// NewScanProgress derives throughput and ETA from the raw counters
func NewScanProgress(processed, total int, elapsed time.Duration) ScanProgress {
	p := ScanProgress{
		Processed: processed,
		Total:     total,
		Elapsed:   elapsed,
	}
	p.Throughput = Throughput(processed, elapsed)
	p.ETA, p.ETAAvailable = ComputeETA(processed, total, elapsed)
	return p
}

// Percent returns completion in [0, 100]
func (p ScanProgress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Processed) * 100 / float64(p.Total)
	if pct > 100 {
		return 100
	}
	return pct
}

// EnumerationProgress reports files discovered for one target path
type EnumerationProgress struct {
	Root  string
	Files int
	Done  bool
	Err   error
}

// Kind implements Event
func (EnumerationProgress) Kind() Kind { return KindEnumeration }

// DeleteProgress is a snapshot of a running deletion pass
type DeleteProgress struct {
	CurrentFile string
	Attempted   int
	Total       int
	Deleted     int
	Skipped     int
	Failed      int
	BytesFreed  uint64
	StartTime   time.Time
	DryRun      bool
}

// Kind implements Event
func (DeleteProgress) Kind() Kind { return KindDelete }

// Throughput returns processed/elapsed in files per second, 0 when no time
// has passed
func Throughput(processed int, elapsed time.Duration) float64 {
	if elapsed <= 0 || processed <= 0 {
		return 0
	}
	return float64(processed) / elapsed.Seconds()
}

// ComputeETA estimates the remaining time. The estimate is unavailable
// exactly when nothing has been processed; otherwise it is non-negative.
func ComputeETA(processed, total int, elapsed time.Duration) (time.Duration, bool) {
	if processed <= 0 {
		return 0, false
	}
	remaining := total - processed
	if remaining <= 0 || elapsed <= 0 {
		return 0, true
	}
	// elapsed * remaining / processed is (total-processed)/throughput without
	// going through floats
	return time.Duration(int64(elapsed) / int64(processed) * int64(remaining)), true
}

// Reporter fans progress events out to any number of subscribers
type Reporter struct {
	mu        sync.RWMutex
	last      Event
	listeners []chan Event
}

// NewReporter creates a new progress reporter
func NewReporter() *Reporter {
	return &Reporter{
		listeners: make([]chan Event, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (r *Reporter) Subscribe() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Event, 16)
	r.listeners = append(r.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (r *Reporter) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, listener := range r.listeners {
		if listener == ch {
			close(listener)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Publish records ev as the latest event and notifies listeners. Slow
// listeners miss intermediate updates rather than blocking the publisher.
func (r *Reporter) Publish(ev Event) {
	if r == nil {
		return
	}
	// sends never block, so holding the lock keeps Unsubscribe from
	// closing a channel mid-send
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = ev

	for _, listener := range r.listeners {
		select {
		case listener <- ev:
		default:
			// Skip if channel is full
		}
	}
}

// Last returns the most recently published event, or nil
func (r *Reporter) Last() Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Close closes every listener channel
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, listener := range r.listeners {
		close(listener)
	}
	r.listeners = nil
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p ScanProgress) string {
	if p.Total == 0 && p.Processed == 0 {
		return "Preparing scan..."
	}
	return fmt.Sprintf("Hashing %s/%s files (%.0f%%) - %.1f files/s - elapsed %s - ETA %s",
		utils.FormatCount(p.Processed),
		utils.FormatCount(p.Total),
		p.Percent(),
		p.Throughput,
		FormatDuration(p.Elapsed),
		FormatETA(p.ETA, p.ETAAvailable))
}

// FormatDeleteProgress returns a human-readable deletion progress string
func FormatDeleteProgress(p DeleteProgress) string {
	verb := "Deleting"
	if p.DryRun {
		verb = "Simulating"
	}
	percentage := 0
	if p.Total > 0 {
		percentage = (p.Attempted * 100) / p.Total
	}
	return fmt.Sprintf("%s... %d/%d files (%d%%) - %s freed",
		verb,
		p.Attempted,
		p.Total,
		percentage,
		utils.FormatSize(p.BytesFreed))
}

// FormatETA renders an ETA, or "unavailable" before any work is done
func FormatETA(eta time.Duration, available bool) string {
	if !available {
		return "unavailable"
	}
	return FormatDuration(eta)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
