// Package config handles the data directory, the persisted poll interval and
// the optional settings.yaml file.
package config

import (
	"os"
	"path/filepath"
)

const (
	// AppDirName is the directory created under the user config dir.
	AppDirName = "MouseBatteryMonitor"

	IntervalFileName = "interval.txt"
	SettingsFileName = "settings.yaml"
	LogFileName      = "debug.log"
	ProfileFileName  = "device.yaml"
)

// Paths resolves every file the app reads or writes from one data directory.
type Paths struct {
	Dir string
}

// DefaultDir returns <user config dir>/MouseBatteryMonitor, falling back to the
// working directory when no config dir can be determined.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, AppDirName)
}

// NewPaths uses dir, or DefaultDir when dir is empty.
func NewPaths(dir string) Paths {
	if dir == "" {
		dir = DefaultDir()
	}
	return Paths{Dir: dir}
}

// Ensure creates the data directory.
func (p Paths) Ensure() error {
	return os.MkdirAll(p.Dir, 0o755)
}

func (p Paths) IntervalFile() string { return filepath.Join(p.Dir, IntervalFileName) }
func (p Paths) SettingsFile() string { return filepath.Join(p.Dir, SettingsFileName) }
func (p Paths) LogFile() string      { return filepath.Join(p.Dir, LogFileName) }
func (p Paths) ProfileFile() string  { return filepath.Join(p.Dir, ProfileFileName) }
