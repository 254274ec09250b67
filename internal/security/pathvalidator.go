package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator handles secure path validation for file operations
type PathValidator struct {
	protectedPaths []string
	dirs           *DirCache
}

// DefaultProtectedPaths are refused when no platform list is supplied
var DefaultProtectedPaths = []string{
	"/",
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/sbin",
	"/sys",
	"/usr/bin",
	"/usr/lib",
	"/usr/sbin",
	// macOS system directories
	"/System",
	"/Library/System",
	"/private/etc",
}

// NewPathValidator creates a PathValidator refusing anything inside the
// given trees. "/" only matches itself. An empty list uses
// DefaultProtectedPaths.
func NewPathValidator(protected ...string) *PathValidator {
	if len(protected) == 0 {
		protected = DefaultProtectedPaths
	}
	pv := &PathValidator{dirs: NewDirCache(1024)}
	for _, p := range protected {
		pv.AddProtectedPath(p)
	}
	return pv
}

// ValidatePathForDeletion checks a duplicate before it is removed: the path
// must be absolute and clean, and neither it nor its resolved parent
// directory may sit inside a protected tree.
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	// Step 1: Path must be absolute
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// Step 2: Reject paths that change under cleaning (.., //, trailing /)
	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	// Step 3: Control characters never appear in paths we enumerated
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains control characters: %q", path)
	}

	if err := pv.checkProtectedPaths(path); err != nil {
		return err
	}

	// Step 4: Resolve the parent so a symlinked directory cannot smuggle
	// the file into a protected tree. The file itself is never followed.
	resolvedDir, err := pv.dirs.Resolve(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to resolve symlinks: %w", err)
	}

	return pv.checkProtectedPaths(filepath.Join(resolvedDir, filepath.Base(path)))
}

// checkProtectedPaths validates that a path is not in a protected system directory
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete protected path: %s", cleanPath)
		}
		if protected == "/" {
			continue
		}
		if strings.HasPrefix(cleanPath, protected+"/") {
			return fmt.Errorf("refusing to delete inside system path %s: %s", protected, cleanPath)
		}
	}

	return nil
}

// IsProtectedPath checks if a path is a protected system path
func (pv *PathValidator) IsProtectedPath(path string) bool {
	return pv.checkProtectedPaths(filepath.Clean(path)) != nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	cleanPath := filepath.Clean(path)
	for _, p := range pv.protectedPaths {
		if p == cleanPath {
			return
		}
	}
	pv.protectedPaths = append(pv.protectedPaths, cleanPath)
}

// ValidateGlobPattern validates that a glob pattern is safe
func ValidateGlobPattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("glob pattern is empty")
	}

	// Patterns match basenames only
	if strings.ContainsRune(pattern, '/') || strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern must match a file name, not a path: %s", pattern)
	}

	// Try to match the pattern to ensure it's valid
	_, err := filepath.Match(pattern, "test")
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
