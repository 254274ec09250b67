package components

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/dupcleaner/internal/scanner"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "Image"},
		{"video/mp4", "Video"},
		{"audio/mpeg", "Audio"},
		{"application/pdf", "Document"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "Document"},
		{"application/zip", "Archive"},
		{"application/gzip", "Archive"},
		{"text/plain; charset=utf-8", "Text"},
		{"application/json", "Text"},
		{"application/octet-stream", "Binary"},
	}

	for _, tt := range tests {
		if got := KindOf(tt.mime); got.Kind != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.mime, got.Kind, tt.want)
		}
	}

	if got := KindOf("text/plain; charset=utf-8").MIME; got != "text/plain" {
		t.Errorf("parameters should be dropped, got %q", got)
	}
}

func TestKindDetectorDetect(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "pic.bin")
	// PNG signature, wrong extension on purpose
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes")
	if err := os.WriteFile(txt, []byte("plain words\n"), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewKindDetector()
	if got := d.Detect(png); got.Kind != "Image" {
		t.Errorf("Detect(png) = %+v", got)
	}
	if got := d.Detect(txt); got.Kind != "Text" {
		t.Errorf("Detect(txt) = %+v", got)
	}
	if got := d.Detect(filepath.Join(dir, "missing")); got.Kind != "Unknown" {
		t.Errorf("Detect(missing) = %+v", got)
	}

	// cached result survives the file changing
	if err := os.Remove(png); err != nil {
		t.Fatal(err)
	}
	if got := d.Detect(png); got.Kind != "Image" {
		t.Errorf("cached Detect(png) = %+v", got)
	}
}

func TestStatusBarRender(t *testing.T) {
	sb := NewStatusBar()
	sb.SetView("Review")
	sb.SetSelection(3, 5, 2048)
	sb.SetShortcuts(map[string]string{"q": "quit", "space": "toggle", "x": "extra"})

	out := sb.Render(120)
	for _, want := range []string{"Review", "3/5 selected", "2.0 KiB", "quit", "toggle", "extra"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
	if strings.Index(out, "toggle") > strings.Index(out, "quit") {
		t.Error("ordered shortcuts should come first")
	}
}

func TestStatusBarNarrow(t *testing.T) {
	sb := NewStatusBar()
	sb.SetView("Review")
	sb.SetShortcuts(map[string]string{"↑/↓": "move", "space": "toggle", "enter": "delete", "q": "quit"})
	// must not panic however small the terminal is
	for _, w := range []int{0, 5, 12, 20} {
		_ = sb.Render(w)
	}
}

func TestRenderSimple(t *testing.T) {
	if out := RenderSimple("Press q to quit.", 40); !strings.Contains(out, "Press q to quit.") {
		t.Errorf("RenderSimple() = %q", out)
	}
	// zero width falls back to a default instead of collapsing
	if out := RenderSimple("hi", 0); !strings.Contains(out, "hi") {
		t.Errorf("RenderSimple(width 0) = %q", out)
	}
}

func TestInfoPanels(t *testing.T) {
	g := scanner.DuplicateGroup{
		ID:     7,
		Size:   1024,
		Digest: "d41d8cd98f00b204e9800998ecf8427e",
		Files: []scanner.FileEntry{
			{Path: "/a/x.jpg", Size: 1024},
			{Path: "/b/x.jpg", Size: 1024},
		},
	}

	panel := GroupInfoPanel(g, "/a/x.jpg", 100)
	if panel.Render() != "" {
		t.Error("hidden panel should render nothing")
	}
	panel.Toggle()
	out := panel.Render()
	for _, want := range []string{"Group 7", "Copies", "1.0 KiB", "/a/x.jpg"} {
		if !strings.Contains(out, want) {
			t.Errorf("group panel missing %q", want)
		}
	}

	fe := scanner.FileEntry{Path: "/b/x.jpg", Size: 1024, ModTime: time.Date(2024, 3, 4, 5, 6, 7, 0, time.Local)}
	fp := FileInfoPanel(fe, KindOf("image/jpeg"), false, 100)
	fp.SetVisible(true)
	out = fp.Render()
	for _, want := range []string{"2024-03-04 05:06:07", "Image (image/jpeg)", "Delete if selected"} {
		if !strings.Contains(out, want) {
			t.Errorf("file panel missing %q", want)
		}
	}
}
