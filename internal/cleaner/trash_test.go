package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/dupcleaner/internal/testutil"
)

func TestDirTrash(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.Path(".Trash")
	a := f.CreateFile("photos/a.txt", []byte("a"))
	b := f.CreateFile("backup/a.txt", []byte("b"))

	trash := NewDirTrash(dir)
	if err := trash.Trash(a); err != nil {
		t.Fatalf("Trash(a) error = %v", err)
	}
	if err := trash.Trash(b); err != nil {
		t.Fatalf("Trash(b) error = %v", err)
	}

	f.AssertFileContent(filepath.Join(dir, "a.txt"), []byte("a"))
	f.AssertFileContent(filepath.Join(dir, "a.2.txt"), []byte("b"))
}

func TestTrashName(t *testing.T) {
	tests := []struct {
		base    string
		attempt int
		want    string
	}{
		{"a.txt", 1, "a.txt"},
		{"a.txt", 3, "a.3.txt"},
		{"archive.tar.gz", 2, "archive.tar.2.gz"},
		{"README", 2, "README.2"},
		{".bashrc", 2, ".bashrc.2"},
	}
	for _, tt := range tests {
		if got := trashName(tt.base, tt.attempt); got != tt.want {
			t.Errorf("trashName(%q, %d) = %q, want %q", tt.base, tt.attempt, got, tt.want)
		}
	}
}

func TestDirTrashMissingFile(t *testing.T) {
	f := testutil.NewFixture(t)
	dir := f.Path("bin")

	if err := NewDirTrash(dir).Trash(f.Path("docs/none.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed trash left files behind: %v", entries)
	}
}

func TestTrasherFunc(t *testing.T) {
	var got string
	trasher := TrasherFunc(func(path string) error {
		got = path
		return ErrTrashUnavailable
	})

	if err := trasher.Trash("/tmp/x"); !errors.Is(err, ErrTrashUnavailable) {
		t.Errorf("Trash() error = %v", err)
	}
	if got != "/tmp/x" {
		t.Errorf("path = %q", got)
	}
	if NewPlatformTrasher() == nil {
		t.Error("NewPlatformTrasher() returned nil")
	}
}
