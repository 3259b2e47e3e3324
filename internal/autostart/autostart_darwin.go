//go:build darwin

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

const labelPrefix = "io.github.mousebattery."

func itemPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents", labelPrefix+name+".plist"), nil
}

func enable(e Entry) error {
	path, err := itemPath(e.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(launchAgent(labelPrefix+e.Name, e)), 0o644)
}
