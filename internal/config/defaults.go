package config

import (
	"github.com/fenilsonani/dupcleaner/internal/cleaner"
	"github.com/fenilsonani/dupcleaner/internal/platform"
	"github.com/fenilsonani/dupcleaner/internal/security"
)

// defaultProtectedPaths uses the platform list, or the generic one when the
// platform is unknown
func defaultProtectedPaths() []string {
	if info, err := platform.GetInfo(); err == nil && len(info.ProtectedPaths) > 0 {
		return append([]string(nil), info.ProtectedPaths...)
	}
	return append([]string(nil), security.DefaultProtectedPaths...)
}

// GetDefault returns the default configuration
func GetDefault() *Config {
	return &Config{
		HashAlgorithm:      "md5",
		MinFileSize:        "1B", // empty files are never duplicates worth reclaiming
		MaxFileSize:        "",
		LockPatterns:       append([]string(nil), cleaner.DefaultLockPatterns...),
		ProtectedPaths:     defaultProtectedPaths(),
		DryRun:             false,
		TrashDir:           "",
		LogFile:            "",
		EnumerationWorkers: 4,
		ReportSampleSize:   cleaner.DefaultSampleSize,
		Verbose:            false,
	}
}

// GetExampleConfig returns an example configuration with comments
func GetExampleConfig() string {
	return `# dupcleaner configuration file
# Location: ~/.config/dupcleaner/config.yaml

# Digest used to confirm duplicates: md5 or xxhash
# xxhash is much faster; md5 matches what most other tools print
hash_algorithm: md5

# Size window for files to consider
min_file_size: "1B"   # Ignore files smaller than this
max_file_size: ""     # Empty means no upper limit

# Lock files that are never deleted, even when selected
lock_patterns:
  - "~$*"          # Microsoft Office owner files
  - ".~lock.*#"    # LibreOffice lock files

# Directories whose contents are never deleted
protected_paths:
  - "/"
  - "/bin"
  - "/boot"
  - "/dev"
  - "/etc"
  - "/lib"
  - "/lib64"
  - "/proc"
  - "/sbin"
  - "/sys"
  - "/usr/bin"
  - "/usr/lib"
  - "/usr/sbin"
  - "/System"
  - "/Library/System"
  - "/private/etc"

# Dry-run mode - report what would be deleted without touching anything
dry_run: false

# Move deleted copies into this folder instead of the system trash
trash_dir: ""

# Event log; empty writes dupcleaner.log beside the executable
log_file: ""

# Parallel directory walkers per root
enumeration_workers: 4

# How many skipped/failed paths a deletion summary lists
report_sample_size: 10

# Verbose output
verbose: false
`
}
