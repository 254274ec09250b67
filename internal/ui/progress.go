package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// LiveProgress renders scan and deletion progress for the CLI: a
// progress bar on a terminal, throttled plain lines otherwise
type LiveProgress struct {
	mu          sync.Mutex
	out         io.Writer
	bar         *progressbar.ProgressBar
	max         int
	interactive bool
	lastUpdate  time.Time
	interval    time.Duration
	now         func() time.Time
}

// NewLiveProgress creates a progress display writing to out
func NewLiveProgress(out io.Writer) *LiveProgress {
	return &LiveProgress{
		out:         out,
		interactive: IsTerminal(out),
		interval:    2 * time.Second,
		now:         time.Now,
	}
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (lp *LiveProgress) termWidth() int {
	if f, ok := lp.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

// ensureBar creates the bar on first use and follows changes of total
func (lp *LiveProgress) ensureBar(total int, description string) {
	if lp.bar == nil {
		width := lp.termWidth() - 60
		if width < 10 {
			width = 10
		}
		lp.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(lp.out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(width),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		lp.max = total
		return
	}
	if total != lp.max {
		lp.bar.ChangeMax(total)
		lp.max = total
	}
	lp.bar.Describe(description)
}

// plainDue throttles plain output; the final snapshot always prints
func (lp *LiveProgress) plainDue(final bool) bool {
	now := lp.now()
	if !final && now.Sub(lp.lastUpdate) < lp.interval {
		return false
	}
	lp.lastUpdate = now
	return true
}

// UpdateScan shows a scan snapshot
func (lp *LiveProgress) UpdateScan(p progress.ScanProgress) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.interactive {
		if p.Total == 0 {
			return
		}
		lp.ensureBar(p.Total, "Hashing ("+p.Stage+")")
		_ = lp.bar.Set(p.Processed)
		return
	}

	final := p.Total > 0 && p.Processed >= p.Total
	if lp.plainDue(final) {
		fmt.Fprintln(lp.out, progress.FormatScanProgress(p))
	}
}

// UpdateDelete shows a deletion snapshot
func (lp *LiveProgress) UpdateDelete(p progress.DeleteProgress) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.interactive {
		verb := "Deleting"
		if p.DryRun {
			verb = "Simulating"
		}
		lp.ensureBar(p.Total, verb)
		_ = lp.bar.Set(p.Attempted)
		return
	}

	if lp.plainDue(p.Attempted >= p.Total) {
		fmt.Fprintln(lp.out, progress.FormatDeleteProgress(p))
	}
}

// Finish clears the bar so the next output starts on a clean line
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if lp.bar != nil {
		_ = lp.bar.Finish()
		lp.bar = nil
		lp.max = 0
	}
}

// PrintGroupTree prints every group as a tree of its members. The kept
// paths, if any, are marked; at most maxFiles members are listed per group.
func PrintGroupTree(w io.Writer, groups []scanner.DuplicateGroup, kept map[string]bool, maxFiles int) {
	if maxFiles <= 0 {
		maxFiles = 5
	}

	for i, g := range groups {
		fmt.Fprintf(w, "\n╭─ Group %d: %d files x %s (%s reclaimable)\n",
			i+1, g.Len(), utils.FormatSize(g.Size), utils.FormatSize(g.ReclaimableSize()))

		shown := min(g.Len(), maxFiles)
		for j := 0; j < shown; j++ {
			f := g.Files[j]
			connector := "├"
			if j == shown-1 && g.Len() <= maxFiles {
				connector = "╰"
			}
			marker := ""
			if kept[f.Path] {
				marker = "  [keep]"
			}
			fmt.Fprintf(w, "%s── %s  %s%s\n", connector, filepath.Base(f.Path), filepath.Dir(f.Path), marker)
		}
		if g.Len() > maxFiles {
			fmt.Fprintf(w, "╰── ... and %d more files\n", g.Len()-maxFiles)
		}
	}

	fmt.Fprintf(w, "\n════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Total: %s groups | %s files | %s reclaimable\n",
		utils.FormatCount(len(groups)),
		utils.FormatCount(scanner.DuplicateFileCount(groups)),
		utils.FormatSize(scanner.ReclaimableSize(groups)))
}
