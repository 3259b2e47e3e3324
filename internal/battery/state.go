// Package battery holds the process-wide battery snapshot shared between the
// polling worker and the tray host.
package battery

import (
	"fmt"
	"sync"
	"time"
)

// State is an immutable snapshot of the last known battery telemetry.
// The zero value means nothing has been read yet.
type State struct {
	DeviceName  string
	Level       int
	HasLevel    bool
	Charging    bool
	HasCharging bool
	LastUpdate  time.Time
}

// Updated reports whether a reading with a known level was ever stored.
func (s State) Updated() bool { return !s.LastUpdate.IsZero() }

// LevelText renders the level the way the tray shows it, e.g. "45%" or "N/A".
func (s State) LevelText() string {
	if !s.HasLevel {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", s.Level)
}

// IconInputs returns the values the icon is drawn from. Unknown values draw as
// an empty, non-charging battery.
func (s State) IconInputs() (int, bool) {
	level := 0
	if s.HasLevel {
		level = s.Level
	}
	return level, s.HasCharging && s.Charging
}

// Clamp limits a raw level to [0,100].
func Clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

// Store guards the shared State. Writers replace the whole snapshot under the
// lock so readers never observe a half-applied reading.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store { return &Store{} }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Record stores a reading with a known level, clamped into [0,100].
func (s *Store) Record(name string, level int, charging bool, at time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		DeviceName:  name,
		Level:       Clamp(level),
		HasLevel:    true,
		Charging:    charging,
		HasCharging: true,
		LastUpdate:  at,
	}
	return s.state
}

// SetDeviceName updates only the device name, leaving the last reading intact.
func (s *Store) SetDeviceName(name string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DeviceName = name
	return s.state
}
