// Package monitor runs the background battery poll: it reads the mouse,
// updates the shared battery state, pushes a fresh icon and menu to the tray
// and sleeps until the next poll or an early wake.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync/atomic"
	"time"

	"mousebattery/internal/battery"
	"mousebattery/internal/config"
	"mousebattery/internal/device"
)

const (
	// ErrorRetryInterval is the sleep after "no mouse" or "no battery data".
	ErrorRetryInterval = 50 * time.Millisecond
	// FailureBackoff is the sleep after an unexpected error or panic.
	FailureBackoff = 12 * time.Second
)

// Phase is the worker's position in the poll loop.
type Phase int32

const (
	PhasePolling Phase = iota
	PhaseSleeping
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhasePolling:
		return "polling"
	case PhaseSleeping:
		return "sleeping"
	default:
		return "stopped"
	}
}

// Outcome classifies one poll.
type Outcome int

const (
	OutcomeUpdated   Outcome = iota // reading with a level stored
	OutcomeNoLevel                  // device answered without a level
	OutcomeNotFound                 // no device
	OutcomeNoBattery                // device asleep or out of range
	OutcomeFailed                   // unexpected error or panic
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeNoLevel:
		return "no-level"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeNoBattery:
		return "no-battery"
	default:
		return "failed"
	}
}

// SleepFor maps an outcome to the next wait: the configured interval after a
// stored reading, the long backoff after a failure, the short retry otherwise.
func SleepFor(o Outcome, interval time.Duration) time.Duration {
	switch o {
	case OutcomeUpdated:
		return interval
	case OutcomeFailed:
		return FailureBackoff
	default:
		return ErrorRetryInterval
	}
}

// Renderer draws the tray icon.
type Renderer interface {
	Render(percent int, charging bool) *image.RGBA
}

// Presenter is the tray host. Update may be called from any goroutine.
type Presenter interface {
	Update(View)
}

// IntervalSource is the persisted poll interval.
type IntervalSource interface {
	Load() time.Duration
	Save(time.Duration) error
}

type Options struct {
	Finder    device.Finder
	Store     *battery.Store
	Intervals IntervalSource
	Renderer  Renderer
	Presenter Presenter
	Logger    *log.Logger
	// Verbose logs every cycle, including the quiet "no mouse" retries.
	Verbose bool
	Now     func() time.Time
}

// Controller owns the poll loop. Run must be called at most once.
type Controller struct {
	finder    device.Finder
	store     *battery.Store
	intervals IntervalSource
	renderer  Renderer
	presenter Presenter
	logger    *log.Logger
	verbose   bool
	now       func() time.Time
	waiter    *Waiter

	dev device.Device // worker goroutine only

	stopped  atomic.Bool
	phase    atomic.Int32
	interval atomic.Int64
	sleep    atomic.Int64
	done     chan struct{}
}

func New(opts Options) *Controller {
	c := &Controller{
		finder:    opts.Finder,
		store:     opts.Store,
		intervals: opts.Intervals,
		renderer:  opts.Renderer,
		presenter: opts.Presenter,
		logger:    opts.Logger,
		verbose:   opts.Verbose,
		now:       opts.Now,
		waiter:    NewWaiter(),
		done:      make(chan struct{}),
	}
	if c.store == nil {
		c.store = battery.NewStore()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.interval.Store(int64(config.DefaultInterval))
	if c.intervals != nil {
		c.interval.Store(int64(c.intervals.Load()))
	}
	return c
}

func (c *Controller) Store() *battery.Store { return c.store }

// Phase reports where the worker is in the loop; shutdown logs it when the
// worker does not stop in time.
func (c *Controller) Phase() Phase { return Phase(c.phase.Load()) }

// Interval is the persisted interval as of the last reload.
func (c *Controller) Interval() time.Duration { return time.Duration(c.interval.Load()) }

// Done is closed when Run returns and the device has been released.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) setPhase(p Phase) { c.phase.Store(int32(p)) }

func (c *Controller) debugf(format string, args ...any) {
	if c.verbose {
		c.logger.Printf(format, args...)
	}
}

// Run polls until Quit is dispatched or ctx is done.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.release()

	c.logger.Printf("[POLL] worker started (interval=%v)", c.Interval())
	for !c.stopped.Load() && ctx.Err() == nil {
		sleep := c.cycle(ctx)
		if c.stopped.Load() {
			break
		}
		c.setPhase(PhaseSleeping)
		if c.waiter.Wait(ctx, sleep) {
			c.debugf("[POLL] woken early")
		}
	}
	c.setPhase(PhaseStopped)
	c.logger.Printf("[POLL] worker stopped")
}

// cycle polls once and returns how long to sleep before the next poll.
func (c *Controller) cycle(ctx context.Context) time.Duration {
	c.setPhase(PhasePolling)
	outcome := c.poll(ctx)
	interval := c.reloadInterval()
	sleep := SleepFor(outcome, interval)
	c.sleep.Store(int64(sleep))

	if outcome == OutcomeUpdated || outcome == OutcomeNoLevel {
		if err := c.safely("publish", c.publish); err != nil {
			sleep = FailureBackoff
			c.sleep.Store(int64(sleep))
		}
	}
	c.debugf("[POLL] cycle %s, next poll in %v", outcome, sleep)
	return sleep
}

// safely runs fn, turning a panic into an error.
func (c *Controller) safely(where string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("[RECOVER] %s: %v", where, r)
			err = fmt.Errorf("%s panicked: %v", where, r)
		}
	}()
	fn()
	return nil
}

func (c *Controller) poll(ctx context.Context) (out Outcome) {
	err := c.safely("poll", func() { out = c.read(ctx) })
	if err != nil {
		c.dropDevice()
		return OutcomeFailed
	}
	return out
}

func (c *Controller) read(ctx context.Context) Outcome {
	if c.dev == nil {
		if c.finder == nil {
			return OutcomeNotFound
		}
		d, err := c.finder.FirstDevice(ctx)
		switch {
		case err == nil && d != nil:
			c.dev = d
			c.store.SetDeviceName(d.Name())
			c.logger.Printf("[DEVICE] found %q", d.Name())
		case err == nil, errors.Is(err, device.ErrNotFound), errors.Is(err, context.Canceled):
			c.debugf("[DEVICE] no mouse found")
			return OutcomeNotFound
		default:
			c.logger.Printf("[POLL] device lookup failed: %v", err)
			return OutcomeFailed
		}
	}

	r, err := c.dev.Battery()
	switch {
	case errors.Is(err, device.ErrNoBattery):
		c.debugf("[DEVICE] %q reported no battery data", c.dev.Name())
		return OutcomeNoBattery
	case err != nil:
		c.logger.Printf("[POLL] read from %q failed: %v", c.dev.Name(), err)
		c.dropDevice()
		return OutcomeFailed
	case !r.HasLevel:
		c.store.SetDeviceName(c.dev.Name())
		return OutcomeNoLevel
	}

	st := c.store.Record(c.dev.Name(), r.Level, r.Charging, c.now())
	c.debugf("[POLL] %s %s charging=%v", st.DeviceName, st.LevelText(), st.Charging)
	return OutcomeUpdated
}

func (c *Controller) reloadInterval() time.Duration {
	if c.intervals == nil {
		return c.Interval()
	}
	d := c.intervals.Load()
	if old := time.Duration(c.interval.Swap(int64(d))); old != d {
		c.logger.Printf("[CONFIG] interval %v -> %v", old, d)
	}
	return d
}

func (c *Controller) publish() {
	if c.presenter == nil {
		return
	}
	st := c.store.Snapshot()
	v := View{
		Title: Title(st),
		Menu:  BuildMenu(st, time.Duration(c.sleep.Load()), c.Interval()),
	}
	if c.renderer != nil {
		v.Icon = c.renderer.Render(st.IconInputs())
	}
	c.presenter.Update(v)
}

func (c *Controller) dropDevice() {
	if c.dev == nil {
		return
	}
	if err := c.dev.Close(); err != nil {
		c.logger.Printf("[DEVICE] close %q: %v", c.dev.Name(), err)
	}
	c.dev = nil
}

func (c *Controller) release() {
	if c.dev != nil {
		c.logger.Printf("[DEVICE] releasing %q", c.dev.Name())
	}
	c.dropDevice()
}

// Dispatch applies an action. It is safe to call from the tray goroutine
// while the worker is polling or sleeping.
func (c *Controller) Dispatch(a Action) error {
	switch a := a.(type) {
	case SetInterval:
		if !config.IsIntervalChoice(a.Interval) {
			return fmt.Errorf("interval %v is not one of the menu choices", a.Interval)
		}
		if c.intervals != nil {
			if err := c.intervals.Save(a.Interval); err != nil {
				c.logger.Printf("[CONFIG] save interval: %v", err)
				return err
			}
		}
		c.interval.Store(int64(a.Interval))
		c.logger.Printf("[CONFIG] interval set to %v", a.Interval)
		c.waiter.Wake()
	case RefreshNow:
		c.logger.Printf("[POLL] refresh requested")
		c.waiter.Wake()
	case ReloadInterval:
		if c.intervals == nil {
			return nil
		}
		d := c.intervals.Load()
		if old := time.Duration(c.interval.Swap(int64(d))); old != d {
			c.logger.Printf("[CONFIG] interval file changed: %v -> %v", old, d)
			c.waiter.Wake()
		}
	case Quit:
		c.logger.Printf("[POLL] quit requested")
		c.stopped.Store(true)
		c.waiter.Wake()
	default:
		return fmt.Errorf("unknown action %T", a)
	}
	return nil
}
