package cleaner

import (
	"time"
)

// DefaultSampleSize is how many skipped and failed paths a report lists
const DefaultSampleSize = 10

// OutcomeKind is what happened to one removal candidate
type OutcomeKind int

const (
	Deleted OutcomeKind = iota
	SkippedTemp
	SkippedMissing
	SkippedUnselected
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Deleted:
		return "deleted"
	case SkippedTemp:
		return "skipped (temporary lock file)"
	case SkippedMissing:
		return "skipped (missing)"
	case SkippedUnselected:
		return "skipped (not selected)"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records the result for one candidate
type Outcome struct {
	Path         string
	Kind         OutcomeKind
	BytesFreed   uint64
	UsedFallback bool
	Reason       string
	Err          *DeletionError
}

// DeletionReport aggregates the outcomes of a deletion pass. It accounts for
// every candidate handed to the executor.
type DeletionReport struct {
	Outcomes []Outcome

	Deleted           int
	SkippedTemp       int
	SkippedMissing    int
	SkippedUnselected int
	Failed            int

	BytesFreed    uint64
	FallbackCount int
	DryRun        bool

	// DeletedPaths lists every removed path in order
	DeletedPaths []string
	// SkippedSample and FailedSample hold the first paths of each kind
	SkippedSample []string
	FailedSample  []string
	Errors        []*DeletionError

	StartTime time.Time
	EndTime   time.Time

	sampleSize int
}

func newReport(sampleSize int, dryRun bool) *DeletionReport {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &DeletionReport{
		Outcomes:     []Outcome{},
		DeletedPaths: []string{},
		DryRun:       dryRun,
		StartTime:    time.Now(),
		sampleSize:   sampleSize,
	}
}

func (r *DeletionReport) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)

	switch o.Kind {
	case Deleted:
		r.Deleted++
		r.BytesFreed += o.BytesFreed
		r.DeletedPaths = append(r.DeletedPaths, o.Path)
		if o.UsedFallback {
			r.FallbackCount++
		}
	case SkippedTemp:
		r.SkippedTemp++
		r.sampleSkipped(o.Path)
	case SkippedMissing:
		r.SkippedMissing++
		r.sampleSkipped(o.Path)
	case SkippedUnselected:
		r.SkippedUnselected++
	case Failed:
		r.Failed++
		if o.Err != nil {
			r.Errors = append(r.Errors, o.Err)
		}
		if len(r.FailedSample) < r.sampleSize {
			r.FailedSample = append(r.FailedSample, o.Path)
		}
	}
}

func (r *DeletionReport) sampleSkipped(path string) {
	if len(r.SkippedSample) < r.sampleSize {
		r.SkippedSample = append(r.SkippedSample, path)
	}
}

// Skipped counts every skip kind
func (r *DeletionReport) Skipped() int {
	return r.SkippedTemp + r.SkippedMissing + r.SkippedUnselected
}

// Total is the number of candidates accounted for
func (r *DeletionReport) Total() int {
	return len(r.Outcomes)
}

// Duration is how long the pass took
func (r *DeletionReport) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
