// Package device defines the mouse collaborator the poller talks to and the
// hardware-independent parts of reading one: report parsing, interface
// filtering and candidate ordering.
package device

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no supported mouse is attached.
	ErrNotFound = errors.New("no supported mouse found")
	// ErrNoBattery means a mouse is attached but reported no battery data,
	// usually because it is asleep or out of range of its receiver.
	ErrNoBattery = errors.New("battery data unavailable")
)

// Reading is one battery sample. Level is meaningful only when HasLevel is set.
type Reading struct {
	Level    int
	HasLevel bool
	Charging bool
}

type Device interface {
	Name() string
	Battery() (Reading, error)
	Close() error
}

// Finder locates the first usable mouse. It returns ErrNotFound when there
// is none.
type Finder interface {
	FirstDevice(ctx context.Context) (Device, error)
}

// Info describes one HID interface as reported by enumeration.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	ProductStr   string
	SerialNumber string
	UsagePage    uint16
	Usage        uint16
	InterfaceNbr int
}

// VendorPage reports whether the interface sits on a vendor-defined usage
// page, where the battery reports live.
func (i Info) VendorPage() bool {
	return i.UsagePage >= 0xFF00
}
