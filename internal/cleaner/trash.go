package cleaner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// Trasher moves a file somewhere it can be recovered from
type Trasher interface {
	Trash(path string) error
}

// TrasherFunc adapts a function to Trasher
type TrasherFunc func(path string) error

// Trash implements Trasher
func (f TrasherFunc) Trash(path string) error { return f(path) }

// ErrTrashUnavailable is returned when the platform has no usable trash
var ErrTrashUnavailable = errors.New("trash is not available on this platform")

// NewPlatformTrasher returns a Trasher backed by the desktop trash of the
// running OS (freedesktop.org trash on Linux, Finder on macOS, the Recycle
// Bin on Windows)
func NewPlatformTrasher() Trasher {
	return TrasherFunc(func(path string) error {
		return wastebasket.Trash(path)
	})
}

// DirTrash moves files into a plain directory chosen by the user (the
// trash_dir setting). Name clashes get a numeric suffix.
type DirTrash struct {
	dir string
}

// NewDirTrash creates a DirTrash
func NewDirTrash(dir string) *DirTrash {
	return &DirTrash{dir: dir}
}

// Trash implements Trasher
func (t *DirTrash) Trash(path string) error {
	if err := os.MkdirAll(t.dir, 0700); err != nil {
		return fmt.Errorf("failed to create trash directory: %w", err)
	}

	base := filepath.Base(path)
	for attempt := 1; attempt < 10000; attempt++ {
		target := filepath.Join(t.dir, trashName(base, attempt))
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		return os.Rename(path, target)
	}
	return fmt.Errorf("no free name in trash for %s", base)
}

// trashName returns base for the first attempt and "name.N.ext" after that
func trashName(base string, attempt int) string {
	if attempt == 1 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s.%d%s", stem, attempt, ext)
}
