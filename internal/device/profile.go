package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Profile remembers which interface and report ID answered last time so the
// next connect can try it before enumerating everything else.
type Profile struct {
	Path      string `yaml:"path"`
	ReportID  byte   `yaml:"report_id"`
	VendorID  uint16 `yaml:"vendor_id,omitempty"`
	ProductID uint16 `yaml:"product_id,omitempty"`
	Name      string `yaml:"name,omitempty"`
}

// ProfileStore persists a single Profile as YAML. The zero path disables it.
type ProfileStore struct {
	path string
	mu   sync.Mutex
}

func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Load returns the cached profile. A missing or unreadable file is not an
// error, it just means there is nothing to prefer.
func (s *ProfileStore) Load() (Profile, bool) {
	if s == nil || s.path == "" {
		return Profile{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if yaml.Unmarshal(data, &p) != nil || p.Path == "" {
		return Profile{}, false
	}
	return p, true
}

func (s *ProfileStore) Save(p Profile) error {
	if s == nil || s.path == "" {
		return nil
	}
	if p.Path == "" {
		return errors.New("profile has no path")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Forget removes the cached profile.
func (s *ProfileStore) Forget() error {
	if s == nil || s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PreferPath moves the candidate with the given path to the front, keeping
// the relative order of the rest. The input slice is not modified.
func PreferPath(candidates []Info, path string) []Info {
	out := make([]Info, 0, len(candidates))
	if path == "" {
		return append(out, candidates...)
	}
	for _, c := range candidates {
		if c.Path == path {
			out = append(out, c)
		}
	}
	for _, c := range candidates {
		if c.Path != path {
			out = append(out, c)
		}
	}
	return out
}

// ReportIDOrder is ProbeReportIDs with first moved to the front.
func ReportIDOrder(first byte) []byte {
	out := []byte{first}
	for _, rid := range ProbeReportIDs {
		if rid != first {
			out = append(out, rid)
		}
	}
	return out
}
