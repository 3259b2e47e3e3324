package device

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultVendorIDs are the USB vendors whose receivers speak the battery protocol.
var DefaultVendorIDs = []uint16{
	0x258a, // older Glorious
	0x342d, // newer Glorious
	0x093a, // PixArt wireless dongles
}

var modelNames = map[uint16]string{
	0x002f: "Model O Wireless Receiver",
	0x0036: "Model O Wireless",
	0x0037: "Model O- Wireless",
	0x2011: "Model O", 0x2013: "Model O",
	0x2012: "Model D", 0x2023: "Model D",
	0x2019: "Model O-", 0x2024: "Model O-",
	0x2015: "Model D-", 0x2025: "Model D-",
	0x2036: "Model I", 0x2046: "Model I",
	0x2017: "Model O Pro", 0x2018: "Model O Pro",
	0x2031: "Model D2", 0x2033: "Model D2",
	0x2009: "Model O2", 0x200b: "Model O2",
	0x824d: "Model D2 Wireless",
	0x2014: "Model I2", 0x2016: "Model I2",
}

// ModelName prefers the product string, then the product-ID table.
func ModelName(info Info) string {
	if s := strings.TrimSpace(info.ProductStr); s != "" {
		return s
	}
	if name, ok := modelNames[info.ProductID]; ok {
		return name
	}
	return "Unknown mouse"
}

// KnownProduct reports whether pid is in the model table.
func KnownProduct(pid uint16) bool {
	_, ok := modelNames[pid]
	return ok
}

// Matcher decides which HID interfaces are worth probing.
type Matcher struct {
	vendors []uint16
}

// NewMatcher accepts the default vendors plus any extra ones from settings.
func NewMatcher(extra []uint16) *Matcher {
	m := &Matcher{vendors: slices.Clone(DefaultVendorIDs)}
	for _, vid := range extra {
		if !slices.Contains(m.vendors, vid) {
			m.vendors = append(m.vendors, vid)
		}
	}
	return m
}

func (m *Matcher) VendorIDs() []uint16 { return slices.Clone(m.vendors) }

func (m *Matcher) IsVendor(vid uint16) bool {
	return slices.Contains(m.vendors, vid)
}

// IsKeyboard matches keyboard and keypad interfaces, which must never be
// probed with feature reports.
func IsKeyboard(info Info) bool {
	if info.UsagePage == 0x01 && (info.Usage == 0x06 || info.Usage == 0x07) {
		return true
	}
	if strings.Contains(strings.ToLower(info.Path), `\kbd`) {
		return true
	}
	return strings.Contains(strings.ToLower(info.ProductStr), "keyboard")
}

// ShouldSkip filters out plain pointer, keyboard and audio interfaces.
func ShouldSkip(info Info) bool {
	if info.UsagePage == 0x01 && info.Usage == 0x02 {
		return true
	}
	if IsKeyboard(info) {
		return true
	}
	lp := strings.ToLower(info.ProductStr)
	return strings.Contains(lp, "gmmk") ||
		strings.Contains(lp, "headset") ||
		strings.Contains(lp, "audio")
}

// looksSupported is the fallback test for interfaces from unknown vendors.
func (m *Matcher) looksSupported(info Info) bool {
	lp := strings.ToLower(info.ProductStr)
	if strings.Contains(lp, "glorious") ||
		strings.Contains(lp, "model o") ||
		strings.Contains(lp, "model d") ||
		strings.Contains(lp, "model i") {
		return true
	}
	return KnownProduct(info.ProductID) || (info.VendorPage() && m.IsVendor(info.VendorID))
}

// Candidates picks the interfaces to probe from a full enumeration, ordered
// best first. Interfaces from known vendors win; only when there are none are
// other interfaces considered by product name or ID.
func (m *Matcher) Candidates(all []Info) []Info {
	var out []Info
	seen := make(map[string]bool)
	for _, info := range all {
		if !m.IsVendor(info.VendorID) || ShouldSkip(info) || seen[info.Path] {
			continue
		}
		seen[info.Path] = true
		out = append(out, info)
	}
	if len(out) == 0 {
		for _, info := range all {
			if seen[info.Path] || ShouldSkip(info) || !m.looksSupported(info) {
				continue
			}
			seen[info.Path] = true
			out = append(out, info)
		}
	}
	SortCandidates(out)
	return out
}

// SortCandidates orders vendor pages first, then interfaces with a usage, then
// by interface number.
func SortCandidates(c []Info) {
	sort.SliceStable(c, func(i, j int) bool {
		a, b := c[i], c[j]
		if a.VendorPage() != b.VendorPage() {
			return a.VendorPage()
		}
		if (a.Usage != 0) != (b.Usage != 0) {
			return a.Usage != 0
		}
		return a.InterfaceNbr < b.InterfaceNbr
	})
}

// SkipList remembers paths that rejected feature reports so they are not
// reprobed on every reconnect.
type SkipList struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.Mutex
	until map[string]time.Time
}

func NewSkipList(ttl time.Duration) *SkipList {
	return &SkipList{TTL: ttl, Now: time.Now, until: make(map[string]time.Time)}
}

func (s *SkipList) Mark(path string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.Now().Add(s.TTL)
	s.until[path] = t
	return t
}

// Skipped reports whether path is still blacklisted, expiring stale entries.
func (s *SkipList) Skipped(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.until[path]
	if !ok {
		return false
	}
	if s.Now().Before(t) {
		return true
	}
	delete(s.until, path)
	return false
}
