package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultInterval is used when interval.txt is missing, empty or unreadable.
const DefaultInterval = 5 * time.Minute

// IntervalChoices is the fixed set offered in the tray menu.
var IntervalChoices = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
}

// IsIntervalChoice reports whether d is one of IntervalChoices.
func IsIntervalChoice(d time.Duration) bool {
	for _, c := range IntervalChoices {
		if c == d {
			return true
		}
	}
	return false
}

// IntervalLabel formats a choice for the menu: "1 minute", "5 minutes".
func IntervalLabel(d time.Duration) string {
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// maxIntervalSeconds is the largest second count a time.Duration can hold.
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

// ParseInterval turns file content into a duration. Anything that is not a
// positive whole number of seconds, or too large for a Duration, yields
// DefaultInterval.
func ParseInterval(content string) time.Duration {
	s := strings.TrimSpace(content)
	if s == "" {
		return DefaultInterval
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return DefaultInterval
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 || n > maxIntervalSeconds {
		return DefaultInterval
	}
	return time.Duration(n) * time.Second
}

// IntervalStore persists the poll interval as a one-line text file of seconds.
// It is read on every poll cycle so external edits apply live.
type IntervalStore struct {
	path string
	mu   sync.Mutex
}

func NewIntervalStore(path string) *IntervalStore {
	return &IntervalStore{path: path}
}

func (s *IntervalStore) Path() string { return s.path }

// Load never fails: a missing or corrupt file means DefaultInterval.
func (s *IntervalStore) Load() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultInterval
	}
	return ParseInterval(string(data))
}

// Save writes d as whole seconds.
func (s *IntervalStore) Save(d time.Duration) error {
	secs := int(d / time.Second)
	if secs <= 0 {
		return fmt.Errorf("invalid interval %v", d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, []byte(strconv.Itoa(secs)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
