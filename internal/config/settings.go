package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SettingsFileName is the settings file kept beside the executable
const SettingsFileName = "dupcleaner_settings.json"

// Settings is the state remembered between runs: which folders were
// being scanned and which retention policy was chosen
type Settings struct {
	TargetPaths []string `json:"target_paths"`
	KeepNewest  bool     `json:"keep_newest"`
}

// SettingsPath returns the settings location beside the running
// executable, falling back to the working directory
func SettingsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return SettingsFileName
	}
	return filepath.Join(filepath.Dir(exe), SettingsFileName)
}

// LoadSettings reads settings from path. A missing or unreadable file
// yields empty settings; the returned error is then only a warning for the
// caller to log.
func LoadSettings(path string) (*Settings, error) {
	settings := &Settings{TargetPaths: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings file: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		return settings, fmt.Errorf("failed to parse settings file, using defaults: %w", err)
	}
	if loaded.TargetPaths == nil {
		loaded.TargetPaths = []string{}
	}

	return &loaded, nil
}

// SaveSettings writes settings to path as indented JSON
func SaveSettings(settings *Settings, path string) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
