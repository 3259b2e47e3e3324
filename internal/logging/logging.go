// Package logging sets up the rotating debug.log shared by every component.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"mousebattery/internal/config"
)

// Logger is the process logger and the file behind it.
type Logger struct {
	*log.Logger
	Path   string
	output *lumberjack.Logger
}

// Open creates the log directory and a logger writing to path, rotated per
// s. With s.Debug the output is mirrored to stderr.
func Open(path string, s config.LogSettings) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAge:     s.MaxAgeDays,
	}
	var w io.Writer = out
	if s.Debug {
		w = io.MultiWriter(out, os.Stderr)
	}
	l := &Logger{
		Logger: log.New(w, "", log.LstdFlags),
		Path:   path,
		output: out,
	}
	l.Printf("[STARTUP] logging to %s", path)
	return l, nil
}

// Discard is used when the log file cannot be opened.
func Discard() *Logger {
	return &Logger{Logger: log.New(io.Discard, "", 0)}
}

// Stderr logs to the terminal only, for one-shot CLI commands.
func Stderr(debug bool) *Logger {
	if !debug {
		return Discard()
	}
	return &Logger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) Close() error {
	if l == nil || l.output == nil {
		return nil
	}
	return l.output.Close()
}
