package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/progress"
	"github.com/fenilsonani/dupcleaner/internal/scanner"
)

func TestLiveProgressPlainThrottles(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLiveProgress(&buf)
	if lp.interactive {
		t.Fatal("a buffer is not a terminal")
	}

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }

	lp.UpdateScan(progress.NewScanProgress(1, 10, time.Second))
	lp.UpdateScan(progress.NewScanProgress(2, 10, 2*time.Second)) // throttled
	now = now.Add(3 * time.Second)
	lp.UpdateScan(progress.NewScanProgress(3, 10, 3*time.Second))
	lp.UpdateScan(progress.NewScanProgress(10, 10, 4*time.Second)) // final always prints
	lp.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], "10/10") {
		t.Errorf("last line = %q", lines[2])
	}
}

func TestLiveProgressPlainDelete(t *testing.T) {
	var buf bytes.Buffer
	lp := NewLiveProgress(&buf)

	lp.UpdateDelete(progress.DeleteProgress{Attempted: 2, Total: 2, Deleted: 2, BytesFreed: 2048, DryRun: true})
	if !strings.Contains(buf.String(), "Simulating... 2/2 files (100%)") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintGroupTree(t *testing.T) {
	groups := []scanner.DuplicateGroup{
		{ID: 1, Size: 100, Files: []scanner.FileEntry{{Path: "/a/one.txt"}, {Path: "/b/one.txt"}}},
		{ID: 2, Size: 10, Files: []scanner.FileEntry{
			{Path: "/c/1"}, {Path: "/c/2"}, {Path: "/c/3"}, {Path: "/c/4"},
		}},
	}

	var buf bytes.Buffer
	PrintGroupTree(&buf, groups, map[string]bool{"/a/one.txt": true}, 3)
	out := buf.String()

	for _, want := range []string{
		"Group 1: 2 files x 100 B (100 B reclaimable)",
		"├── one.txt  /a  [keep]",
		"╰── one.txt  /b\n",
		"╰── ... and 1 more files",
		"Total: 2 groups | 6 files | 130 B reclaimable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}
}
