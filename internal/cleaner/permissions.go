package cleaner

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/fenilsonani/dupcleaner/internal/scanner"
)

// PermissionManager handles permission checking
type PermissionManager struct {
	isRoot bool
	uid    uint32
	gid    uint32
}

// NewPermissionManager creates a new PermissionManager
func NewPermissionManager() *PermissionManager {
	pm := &PermissionManager{
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}
	if currentUser, err := user.Current(); err == nil {
		pm.isRoot = currentUser.Uid == "0"
		if uid, err := strconv.ParseUint(currentUser.Uid, 10, 32); err == nil {
			pm.uid = uint32(uid)
		}
		if gid, err := strconv.ParseUint(currentUser.Gid, 10, 32); err == nil {
			pm.gid = uint32(gid)
		}
	}
	return pm
}

// IsRunningAsRoot checks if the current process is running as root
func (pm *PermissionManager) IsRunningAsRoot() bool {
	return pm.isRoot
}

// CanDelete checks if we have permission to unlink a file, which depends on
// write access to its parent directory
func (pm *PermissionManager) CanDelete(path string) (bool, error) {
	// If running as root, we can delete anything
	if pm.isRoot {
		return true, nil
	}

	if _, err := os.Lstat(path); err != nil {
		return false, err
	}

	parentInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return false, err
	}

	stat, ok := parentInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("unable to get file stats")
	}

	// Check if user owns the parent directory
	if uint32(stat.Uid) == pm.uid {
		return parentInfo.Mode()&0200 != 0, nil
	}

	// Check group permissions
	if uint32(stat.Gid) == pm.gid {
		return parentInfo.Mode()&0020 != 0, nil
	}

	// Check other permissions
	return parentInfo.Mode()&0002 != 0, nil
}

// IsSpecialFile checks if a path is a special file (device, socket, pipe, symlink)
func IsSpecialFile(path string) (bool, error) {
	info, err := os.Lstat(path) // Use Lstat to not follow symlinks
	if err != nil {
		return false, err
	}

	mode := info.Mode()

	switch {
	case mode&os.ModeDevice != 0:
		return true, fmt.Errorf("is a device file")
	case mode&os.ModeCharDevice != 0:
		return true, fmt.Errorf("is a character device")
	case mode&os.ModeSocket != 0:
		return true, fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return true, fmt.Errorf("is a named pipe (FIFO)")
	case mode&os.ModeSymlink != 0:
		return true, fmt.Errorf("is a symbolic link")
	}

	return false, nil
}

// PermissionReport sorts removal candidates by whether they can be removed
type PermissionReport struct {
	Deletable        []string
	Blocked          []string
	Missing          []string
	Inaccessible     map[string]error
	TotalDeletable   uint64
	TotalBlockedSize uint64
	// AsRoot is set when the checks were skipped because we run as root
	AsRoot bool
}

// AnalyzePermissions checks every candidate ahead of a deletion pass so the
// caller can warn before anything is touched
func (pm *PermissionManager) AnalyzePermissions(candidates []scanner.FileEntry) *PermissionReport {
	report := &PermissionReport{
		Deletable:    []string{},
		Blocked:      []string{},
		Missing:      []string{},
		Inaccessible: make(map[string]error),
		AsRoot:       pm.IsRunningAsRoot(),
	}

	for _, c := range candidates {
		if special, err := IsSpecialFile(c.Path); err != nil || special {
			switch {
			case os.IsNotExist(err):
				report.Missing = append(report.Missing, c.Path)
			case err != nil:
				report.Inaccessible[c.Path] = err
			}
			continue
		}

		canDelete, err := pm.CanDelete(c.Path)
		if err != nil {
			if os.IsNotExist(err) {
				report.Missing = append(report.Missing, c.Path)
			} else {
				report.Inaccessible[c.Path] = err
			}
			continue
		}

		if canDelete {
			report.Deletable = append(report.Deletable, c.Path)
			report.TotalDeletable += c.Size
		} else {
			report.Blocked = append(report.Blocked, c.Path)
			report.TotalBlockedSize += c.Size
		}
	}

	return report
}
