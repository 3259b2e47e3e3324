package monitor

import (
	"fmt"
	"time"
)

// Action is a request from the tray host or the config watcher.
type Action interface {
	isAction()
}

// SetInterval persists a new poll interval chosen from the menu.
type SetInterval struct {
	Interval time.Duration
}

// RefreshNow polls immediately without changing the interval.
type RefreshNow struct{}

// ReloadInterval re-reads the interval file after an external edit.
type ReloadInterval struct{}

// Quit stops the worker.
type Quit struct{}

func (SetInterval) isAction()    {}
func (RefreshNow) isAction()     {}
func (ReloadInterval) isAction() {}
func (Quit) isAction()           {}

func (a SetInterval) String() string  { return fmt.Sprintf("SetInterval(%v)", a.Interval) }
func (RefreshNow) String() string     { return "RefreshNow" }
func (ReloadInterval) String() string { return "ReloadInterval" }
func (Quit) String() string           { return "Quit" }
