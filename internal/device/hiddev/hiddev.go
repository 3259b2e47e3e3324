// Package hiddev reads mouse batteries over HID feature reports.
package hiddev

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sstallion/go-hid"

	"mousebattery/internal/device"
)

const (
	skipTTL      = 90 * time.Second
	commandDelay = 120 * time.Millisecond
)

// Finder enumerates HID interfaces and probes candidates until one answers
// with a battery report.
type Finder struct {
	matcher  *device.Matcher
	skips    *device.SkipList
	profiles *device.ProfileStore
	logger   *log.Logger

	initOnce sync.Once
	initErr  error
}

func NewFinder(m *device.Matcher, logger *log.Logger) *Finder {
	if m == nil {
		m = device.NewMatcher(nil)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Finder{matcher: m, skips: device.NewSkipList(skipTTL), logger: logger}
}

// UseProfiles makes FirstDevice try the last working interface first and
// remember the one it connects to.
func (f *Finder) UseProfiles(s *device.ProfileStore) {
	f.profiles = s
}

func (f *Finder) init() error {
	f.initOnce.Do(func() { f.initErr = hid.Init() })
	return f.initErr
}

// Close releases the HID library. Devices must be closed first.
func (f *Finder) Close() error {
	if f.init() != nil {
		return nil
	}
	return hid.Exit()
}

// Enumerate lists every HID interface on the system.
func (f *Finder) Enumerate() ([]device.Info, error) {
	if err := f.init(); err != nil {
		return nil, fmt.Errorf("hid init: %w", err)
	}
	var out []device.Info
	err := hid.Enumerate(0, 0, func(info *hid.DeviceInfo) error {
		out = append(out, device.Info{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Manufacturer: info.MfrStr,
			ProductStr:   info.ProductStr,
			SerialNumber: info.SerialNbr,
			UsagePage:    info.UsagePage,
			Usage:        info.Usage,
			InterfaceNbr: info.InterfaceNbr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid enumerate: %w", err)
	}
	return out, nil
}

// Candidates is Enumerate filtered and ordered by the matcher.
func (f *Finder) Candidates() ([]device.Info, error) {
	all, err := f.Enumerate()
	if err != nil {
		return nil, err
	}
	return f.matcher.Candidates(all), nil
}

// FirstDevice opens the first candidate that returns a battery report.
func (f *Finder) FirstDevice(ctx context.Context) (device.Device, error) {
	candidates, err := f.Candidates()
	if err != nil {
		return nil, err
	}
	cached, haveCached := f.profiles.Load()
	if haveCached {
		candidates = device.PreferPath(candidates, cached.Path)
	}

	for _, ci := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.skips.Skipped(ci.Path) {
			continue
		}
		h, err := hid.OpenPath(ci.Path)
		if err != nil {
			f.logger.Printf("[DEVICE] open %s: %v", ci.Path, err)
			continue
		}
		if noFeatureReports(h) {
			until := f.skips.Mark(ci.Path)
			f.logger.Printf("[DEVICE] %s rejects feature reports, skipping until %s", ci.Path, until.Format(time.TimeOnly))
			h.Close()
			continue
		}

		order := device.ProbeReportIDs
		if haveCached && cached.Path == ci.Path {
			order = device.ReportIDOrder(cached.ReportID)
		}
		d := &Device{h: h, info: ci, name: device.ModelName(ci), logger: f.logger}
		if rid, ok := d.probe(order); ok {
			d.reportID = rid
			f.logger.Printf("[DEVICE] connected %q on %s (rid=0x%02x usagePage=0x%04x iface=%d)",
				d.name, ci.Path, rid, ci.UsagePage, ci.InterfaceNbr)
			f.remember(d)
			return d, nil
		}
		h.Close()
	}
	return nil, device.ErrNotFound
}

func (f *Finder) remember(d *Device) {
	p := device.Profile{
		Path:      d.info.Path,
		ReportID:  d.reportID,
		VendorID:  d.info.VendorID,
		ProductID: d.info.ProductID,
		Name:      d.name,
	}
	if err := f.profiles.Save(p); err != nil {
		f.logger.Printf("[DEVICE] save connection profile: %v", err)
	}
}

// noFeatureReports is true when every probe report ID fails with the
// "incorrect function" driver error.
func noFeatureReports(h *hid.Device) bool {
	for _, rid := range device.ProbeReportIDs {
		buf := make([]byte, 9)
		buf[0] = rid
		if _, err := h.GetFeatureReport(buf); !device.IsIncorrectFunction(err) {
			return false
		}
	}
	return true
}

// Device is an open HID interface known to answer battery requests.
type Device struct {
	h        *hid.Device
	info     device.Info
	name     string
	reportID byte
	logger   *log.Logger

	mu      sync.Mutex
	lastRaw []byte
}

func (d *Device) Name() string { return d.name }

func (d *Device) Info() device.Info { return d.info }

func (d *Device) ReportID() byte { return d.reportID }

// LastReport returns a copy of the most recent frame Battery read, or nil.
func (d *Device) LastReport() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.lastRaw) == 0 {
		return nil
	}
	return append([]byte(nil), d.lastRaw...)
}

// Battery sends the battery command and reads the answer. A frame that
// carries no reading means the mouse is asleep or unreachable.
func (d *Device) Battery() (device.Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h == nil {
		return device.Reading{}, fmt.Errorf("device %s closed", d.info.Path)
	}

	if err := d.sendCommand(d.reportID); err != nil {
		d.logger.Printf("[DEVICE] send battery command (rid=0x%02x): %v", d.reportID, err)
	} else {
		time.Sleep(commandDelay)
	}

	var lastErr error
	for _, size := range device.ReadSizes {
		buf := make([]byte, size)
		buf[0] = d.reportID
		n, err := d.h.GetFeatureReport(buf)
		if err != nil {
			lastErr = err
			continue
		}
		if n <= 0 {
			continue
		}
		d.lastRaw = append(d.lastRaw[:0], buf[:n]...)
		if r, ok := device.ParseBattery(buf[:n]); ok {
			return r, nil
		}
		if device.LikelyNoMouse(buf[:n]) {
			return device.Reading{}, device.ErrNoBattery
		}
	}
	if lastErr != nil {
		return device.Reading{}, fmt.Errorf("read battery report from %s: %w", d.info.Path, lastErr)
	}
	return device.Reading{}, device.ErrNoBattery
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.h == nil {
		return nil
	}
	err := d.h.Close()
	d.h = nil
	return err
}

// probe finds the report ID this interface answers on, trying a plain read
// first and then command plus read.
func (d *Device) probe(order []byte) (byte, bool) {
	for _, rid := range order {
		if d.readReport(rid) {
			return rid, true
		}
		if err := d.sendCommand(rid); err == nil {
			time.Sleep(commandDelay)
			if d.readReport(rid) {
				return rid, true
			}
		}
	}
	return 0, false
}

func (d *Device) readReport(rid byte) bool {
	for _, size := range device.ReadSizes {
		buf := make([]byte, size)
		buf[0] = rid
		n, err := d.h.GetFeatureReport(buf)
		if err != nil {
			if device.IsIncorrectFunction(err) {
				return false
			}
			continue
		}
		if n > 0 {
			_, ok := device.ParseBattery(buf[:n])
			return ok
		}
	}
	return false
}

func (d *Device) sendCommand(rid byte) error {
	var lastErr error
	for _, body := range device.BatteryCommands {
		for _, size := range device.SendSizes {
			if _, err := d.h.SendFeatureReport(device.FeatureReport(rid, body, size)); err != nil {
				lastErr = err
				continue
			}
			return nil
		}
	}
	return fmt.Errorf("send feature report: %w", lastErr)
}
