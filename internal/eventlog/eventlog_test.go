package eventlog

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var lineRE = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[^\]]*\] (.*)$`)

func TestPrintfFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Printf("Skipped temp file: %s", "/tmp/~$report.docx")

	line := strings.TrimRight(buf.String(), "\n")
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		t.Fatalf("line %q does not match [timestamp] message", line)
	}
	if m[1] != "Skipped temp file: /tmp/~$report.docx" {
		t.Errorf("message = %q", m[1])
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupcleaner.log")

	for i := 0; i < 2; i++ {
		l, err := Open(path, nil)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		l.Printf("entry %d", i)
		if err := l.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	for i, line := range lines {
		if !lineRE.MatchString(line) || !strings.HasSuffix(line, "entry "+string(rune('0'+i))) {
			t.Errorf("unexpected line %d: %q", i, line)
		}
	}
}

func TestOpenMirror(t *testing.T) {
	var mirror bytes.Buffer
	path := filepath.Join(t.TempDir(), "log.txt")

	l, err := Open(path, &mirror)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	l.Printf("hello")
	if !strings.Contains(mirror.String(), "] hello") {
		t.Errorf("mirror did not receive line: %q", mirror.String())
	}
}

func TestOpenFailureDegrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "log.txt")

	l, err := Open(path, nil)
	if err == nil {
		t.Fatal("expected error for unopenable path")
	}
	if l == nil {
		t.Fatal("Open should return a usable logger even on failure")
	}
	l.Printf("dropped")
	if err := l.Close(); err != nil {
		t.Errorf("Close() on degraded logger = %v", err)
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Printf("ignored %d", 1)
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil logger = %v", err)
	}
}
