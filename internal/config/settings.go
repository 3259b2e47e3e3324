package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LogSettings controls the rotating debug.log.
type LogSettings struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Debug      bool `yaml:"debug"`
}

// Settings is the optional settings.yaml in the data dir.
type Settings struct {
	// Fonts are tried, in order, before the platform bold fonts.
	Fonts []string `yaml:"fonts,omitempty"`
	// VendorIDs extends the built-in list of supported USB vendor IDs.
	VendorIDs []uint16 `yaml:"vendor_ids,omitempty"`
	// HidePercentage draws the battery without the number on top.
	HidePercentage bool        `yaml:"hide_percentage,omitempty"`
	Log            LogSettings `yaml:"log"`
}

func DefaultSettings() Settings {
	return Settings{
		Log: LogSettings{
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadSettings reads path. A missing file yields defaults with no error; a
// file that fails to parse yields defaults and the parse error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.Fonts = loaded.Fonts
	s.VendorIDs = loaded.VendorIDs
	s.HidePercentage = loaded.HidePercentage
	s.Log.Debug = loaded.Log.Debug
	if loaded.Log.MaxSizeMB > 0 {
		s.Log.MaxSizeMB = loaded.Log.MaxSizeMB
	}
	if loaded.Log.MaxBackups > 0 {
		s.Log.MaxBackups = loaded.Log.MaxBackups
	}
	if loaded.Log.MaxAgeDays > 0 {
		s.Log.MaxAgeDays = loaded.Log.MaxAgeDays
	}
	return s, nil
}

// SaveSettings writes s to path as YAML.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
