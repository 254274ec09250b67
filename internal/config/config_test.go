package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/dupcleaner/internal/hasher"
)

// =============================================================================
// GetDefault Tests
// =============================================================================

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()

	if cfg == nil {
		t.Fatal("GetDefault returned nil")
	}
	if cfg.HashAlgorithm != "md5" {
		t.Errorf("expected md5 by default, got %q", cfg.HashAlgorithm)
	}
	if cfg.DryRun {
		t.Error("expected DryRun to be disabled by default")
	}
	if cfg.EnumerationWorkers != 4 {
		t.Errorf("expected 4 enumeration workers, got %d", cfg.EnumerationWorkers)
	}
	if cfg.ReportSampleSize != 10 {
		t.Errorf("expected sample size 10, got %d", cfg.ReportSampleSize)
	}
	if len(cfg.LockPatterns) != 2 {
		t.Errorf("expected 2 default lock patterns, got %v", cfg.LockPatterns)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetDefaultSizeLimits(t *testing.T) {
	lo, hi, err := GetDefault().SizeLimits()
	if err != nil {
		t.Fatalf("SizeLimits() error = %v", err)
	}
	if lo != 1 || hi != 0 {
		t.Errorf("SizeLimits() = %d, %d; want 1, 0 (unlimited)", lo, hi)
	}
}

func TestGetDefaultIsIndependent(t *testing.T) {
	a := GetDefault()
	a.LockPatterns[0] = "changed"
	if GetDefault().LockPatterns[0] == "changed" {
		t.Error("GetDefault should not share slices between calls")
	}
}

// =============================================================================
// Load Tests
// =============================================================================

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load should not error for non-existent file: %v", err)
	}
	if cfg == nil || cfg.HashAlgorithm != "md5" {
		t.Errorf("expected default config, got %+v", cfg)
	}
}

func TestLoadValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
hash_algorithm: xxhash
min_file_size: "4KB"
max_file_size: "1GB"
lock_patterns:
  - "*.lock"
dry_run: true
trash_dir: /tmp/dup-trash
log_file: /tmp/dup.log
enumeration_workers: 8
report_sample_size: 25
verbose: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Algorithm() != hasher.AlgorithmXXHash {
		t.Errorf("expected xxhash, got %s", cfg.Algorithm())
	}
	lo, hi, err := cfg.SizeLimits()
	if err != nil || lo != 4096 || hi != 1<<30 {
		t.Errorf("SizeLimits() = %d, %d, %v", lo, hi, err)
	}
	if len(cfg.LockPatterns) != 1 || cfg.LockPatterns[0] != "*.lock" {
		t.Errorf("LockPatterns = %v", cfg.LockPatterns)
	}
	if !cfg.DryRun || !cfg.Verbose {
		t.Error("expected DryRun and Verbose to be true")
	}
	if cfg.TrashDir != "/tmp/dup-trash" {
		t.Errorf("TrashDir = %q", cfg.TrashDir)
	}
	if cfg.LogFile != "/tmp/dup.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.EnumerationWorkers != 8 || cfg.ReportSampleSize != 25 {
		t.Errorf("workers = %d, sample = %d", cfg.EnumerationWorkers, cfg.ReportSampleSize)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "dry_run: true\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Defaults are preserved for unspecified values
	if cfg.HashAlgorithm != "md5" || cfg.EnumerationWorkers != 4 || len(cfg.LockPatterns) != 2 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if !cfg.DryRun {
		t.Error("expected DryRun to be true (overridden)")
	}
}

func TestLoadEmptyConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ReportSampleSize != 10 {
		t.Errorf("expected defaults from empty file, got %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "lock_patterns: [invalid\n"},
		{"unknown algorithm", "hash_algorithm: sha999\n"},
		{"bad min size", "min_file_size: lots\n"},
		{"bad unit", "max_file_size: 10XB\n"},
		{"min above max", "min_file_size: 2MB\nmax_file_size: 1MB\n"},
		{"invalid lock glob", "lock_patterns: [\"[invalid\"]\n"},
		{"lock pattern with path", "lock_patterns: [\"dir/~$*\"]\n"},
		{"relative protected path", "protected_paths: [\"relative/protected\"]\n"},
		{"relative trash dir", "trash_dir: trash\n"},
		{"zero workers", "enumeration_workers: 0\n"},
		{"zero sample", "report_sample_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfigWithComments(t *testing.T) {
	cfg, err := Load(writeConfig(t, GetExampleConfig()))
	if err != nil {
		t.Fatalf("example config should load: %v", err)
	}
	if len(cfg.ProtectedPaths) == 0 {
		t.Error("example config should list protected paths")
	}
}

// =============================================================================
// Save Tests
// =============================================================================

func TestSaveAndLoadRoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "deep", "nested", "config.yaml")

	cfg := GetDefault()
	cfg.HashAlgorithm = "xxhash"
	cfg.MaxFileSize = "2GB"
	cfg.DryRun = true

	if err := Save(cfg, configPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.HashAlgorithm != "xxhash" || loaded.MaxFileSize != "2GB" || !loaded.DryRun {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "dupcleaner", "config.yaml")) {
		t.Errorf("unexpected config path: %s", path)
	}
}

// =============================================================================
// Settings Tests
// =============================================================================

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	want := &Settings{TargetPaths: []string{"/home/u/Photos", "/mnt/backup"}, KeepNewest: true}

	if err := SaveSettings(want, path); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if !got.KeepNewest || len(got.TargetPaths) != 2 || got.TargetPaths[1] != "/mnt/backup" {
		t.Errorf("LoadSettings() = %+v", got)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  \"target_paths\"") {
		t.Errorf("settings should be indented JSON:\n%s", data)
	}
}

func TestLoadSettingsMissing(t *testing.T) {
	got, err := LoadSettings(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Errorf("missing settings should not warn: %v", err)
	}
	if got == nil || len(got.TargetPaths) != 0 || got.KeepNewest {
		t.Errorf("expected empty defaults, got %+v", got)
	}
}

func TestLoadSettingsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSettings(path)
	if err == nil {
		t.Error("corrupt settings should return a warning")
	}
	if got == nil || got.TargetPaths == nil {
		t.Fatal("corrupt settings must still yield usable defaults")
	}
}

func TestSettingsPath(t *testing.T) {
	if filepath.Base(SettingsPath()) != SettingsFileName {
		t.Errorf("SettingsPath() = %s", SettingsPath())
	}
}
