// Package tray shows the battery icon and menu in the system tray.
package tray

import (
	"io"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"mousebattery/internal/config"
	"mousebattery/internal/icon"
	"mousebattery/internal/monitor"
)

// Dispatcher receives menu actions.
type Dispatcher interface {
	Dispatch(monitor.Action) error
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(monitor.Action) error

func (f DispatchFunc) Dispatch(a monitor.Action) error { return f(a) }

// Host implements monitor.Presenter on top of systray. Menu items are
// allocated once in onReady and then only retitled, checked or hidden.
type Host struct {
	dispatcher Dispatcher
	logger     *log.Logger
	goos       string

	mu      sync.Mutex
	ready   bool
	pending *monitor.View
	quitted bool

	looking   *systray.MenuItem
	name      *systray.MenuItem
	battery   *systray.MenuItem
	status    *systray.MenuItem
	updated   *systray.MenuItem
	intervals []*systray.MenuItem
	refresh   *systray.MenuItem
	quit      *systray.MenuItem
}

func New(d Dispatcher, logger *log.Logger) *Host {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Host{dispatcher: d, logger: logger, goos: runtime.GOOS}
}

// Run blocks on the tray event loop; it must be called from the main
// goroutine. onStart runs once the tray is ready and onExit after it closes.
func (h *Host) Run(onStart, onExit func()) {
	systray.Run(func() {
		h.build()
		if onStart != nil {
			onStart()
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
}

// Quit ends the tray loop. It is safe to call more than once.
func (h *Host) Quit() {
	h.mu.Lock()
	done := h.quitted
	h.quitted = true
	h.mu.Unlock()
	if !done {
		systray.Quit()
	}
}

func (h *Host) build() {
	h.mu.Lock()
	defer h.mu.Unlock()

	systray.SetTooltip("Battery: N/A")

	h.looking = systray.AddMenuItem(monitor.LookingText, "")
	h.looking.Disable()

	h.name = systray.AddMenuItem("", "")
	h.name.Disable()
	h.battery = systray.AddMenuItem("", "")
	h.battery.Disable()
	h.status = systray.AddMenuItem("", "")
	h.status.Disable()

	h.updated = systray.AddMenuItem("", "Poll interval")
	h.intervals = make([]*systray.MenuItem, len(config.IntervalChoices))
	for i, d := range config.IntervalChoices {
		item := h.updated.AddSubMenuItem(config.IntervalLabel(d), "")
		h.intervals[i] = item
		go h.onInterval(item, d)
	}

	systray.AddSeparator()
	h.refresh = systray.AddMenuItem("Refresh now", "Read the battery now")
	h.quit = systray.AddMenuItem("Quit", "Quit")
	go h.onRefresh()
	go h.onQuit()

	h.showInfo(false)
	h.ready = true
	if h.pending != nil {
		h.apply(*h.pending)
		h.pending = nil
	}
	h.logger.Printf("[TRAY] ready")
}

// Update shows v. Views arriving before the tray is ready are kept and the
// latest one is applied once it is.
func (h *Host) Update(v monitor.View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ready {
		h.pending = &v
		return
	}
	h.apply(v)
}

func (h *Host) apply(v monitor.View) {
	if v.Icon != nil {
		b, err := icon.EncodeForTray(v.Icon, h.goos)
		if err != nil {
			h.logger.Printf("[TRAY] icon: %v", err)
		} else {
			systray.SetIcon(b)
		}
	}
	systray.SetTooltip(v.Title)

	m := v.Menu
	h.showInfo(m.Ready)
	if !m.Ready {
		return
	}
	h.name.SetTitle(m.Name)
	h.battery.SetTitle(m.Battery)
	h.status.SetTitle(m.Status)
	h.updated.SetTitle(m.Updated)
	for i, c := range m.Intervals {
		if i >= len(h.intervals) {
			break
		}
		if c.Active {
			h.intervals[i].Check()
		} else {
			h.intervals[i].Uncheck()
		}
	}
}

func (h *Host) showInfo(ready bool) {
	for _, item := range []*systray.MenuItem{h.name, h.battery, h.status, h.updated, h.refresh} {
		if ready {
			item.Show()
		} else {
			item.Hide()
		}
	}
	if ready {
		h.looking.Hide()
	} else {
		h.looking.Show()
	}
}

func (h *Host) onInterval(item *systray.MenuItem, d time.Duration) {
	for range item.ClickedCh {
		h.logger.Printf("[TRAY] interval %s selected", config.IntervalLabel(d))
		h.send(monitor.SetInterval{Interval: d})
	}
}

func (h *Host) onRefresh() {
	for range h.refresh.ClickedCh {
		h.send(monitor.RefreshNow{})
	}
}

func (h *Host) onQuit() {
	<-h.quit.ClickedCh
	h.logger.Printf("[TRAY] quit clicked")
	h.send(monitor.Quit{})
	h.Quit()
}

func (h *Host) send(a monitor.Action) {
	if h.dispatcher == nil {
		return
	}
	if err := h.dispatcher.Dispatch(a); err != nil {
		h.logger.Printf("[TRAY] %v: %v", a, err)
	}
}
