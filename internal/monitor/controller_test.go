package monitor

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mousebattery/internal/battery"
	"mousebattery/internal/config"
	"mousebattery/internal/device"
	"mousebattery/internal/icon"
)

type step struct {
	reading device.Reading
	err     error
	panic   bool
}

type fakeDevice struct {
	name  string
	steps []step

	mu     sync.Mutex
	calls  int
	closed bool
}

func (d *fakeDevice) Name() string { return d.name }

func (d *fakeDevice) Battery() (device.Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.steps[min(d.calls, len(d.steps)-1)]
	d.calls++
	if s.panic {
		panic("driver exploded")
	}
	return s.reading, s.err
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDevice) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeFinder struct {
	dev device.Device
	err error

	mu    sync.Mutex
	calls int
}

func (f *fakeFinder) FirstDevice(context.Context) (device.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.dev, nil
}

func (f *fakeFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePresenter struct {
	mu    sync.Mutex
	views []View
}

func (p *fakePresenter) Update(v View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, v)
}

func (p *fakePresenter) last() (View, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.views) == 0 {
		return View{}, 0
	}
	return p.views[len(p.views)-1], len(p.views)
}

var fixedNow = time.Date(2024, 3, 9, 14, 30, 5, 0, time.Local)

type harness struct {
	ctrl      *Controller
	finder    *fakeFinder
	presenter *fakePresenter
	store     *config.IntervalStore
	renderer  *icon.Renderer
}

func newHarness(t *testing.T, finder *fakeFinder, intervalContent *string) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.IntervalFileName)
	if intervalContent != nil {
		if err := os.WriteFile(path, []byte(*intervalContent), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	r := icon.NewRenderer(icon.GoBold())
	r.ShowPercentage = false
	h := &harness{
		finder:    finder,
		presenter: &fakePresenter{},
		store:     config.NewIntervalStore(path),
		renderer:  r,
	}
	h.ctrl = New(Options{
		Finder:    finder,
		Store:     battery.NewStore(),
		Intervals: h.store,
		Renderer:  r,
		Presenter: h.presenter,
		Now:       func() time.Time { return fixedNow },
	})
	return h
}

func ptr(s string) *string { return &s }

func TestCycleSuccessfulReading(t *testing.T) {
	dev := &fakeDevice{name: "Model D", steps: []step{{reading: device.Reading{Level: 45, HasLevel: true}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("600"))

	sleep := h.ctrl.cycle(context.Background())
	if sleep != 600*time.Second {
		t.Errorf("sleep = %v, want 600s", sleep)
	}

	st := h.ctrl.Store().Snapshot()
	if st.Level != 45 || !st.HasLevel || st.Charging || !st.HasCharging || !st.LastUpdate.Equal(fixedNow) {
		t.Errorf("state = %+v", st)
	}

	v, n := h.presenter.last()
	if n != 1 {
		t.Fatalf("presenter updates = %d, want 1", n)
	}
	if v.Title != "Battery: 45%" {
		t.Errorf("title = %q", v.Title)
	}
	if !v.Menu.Ready || v.Menu.Name != "Name: Model D" || v.Menu.Battery != "Battery: 45%" || v.Menu.Status != "Status: Discharging" {
		t.Errorf("menu = %+v", v.Menu)
	}
	wantUpdated := "Last updated at: " + fixedNow.Format(time.TimeOnly) + " (Interval: 600s)"
	if v.Menu.Updated != wantUpdated {
		t.Errorf("updated line = %q, want %q", v.Menu.Updated, wantUpdated)
	}
	for _, c := range v.Menu.Intervals {
		if c.Active != (c.Interval == 10*time.Minute) {
			t.Errorf("choice %s active = %v", c.Label, c.Active)
		}
	}

	img, ok := v.Icon.(*image.RGBA)
	if !ok {
		t.Fatalf("icon type %T", v.Icon)
	}
	lay := h.renderer.Layout(45, false)
	if lay.Tier != icon.TierWarning || lay.Bolt {
		t.Errorf("lay = %+v", lay)
	}
	if got := img.RGBAAt(lay.Inner.Min.X, lay.Inner.Min.Y); got != icon.DefaultPalette.Warning {
		t.Errorf("icon fill = %v, want warning colour", got)
	}
}

func TestCycleFallsBackToDefaultInterval(t *testing.T) {
	for _, content := range []*string{ptr(""), ptr("abc"), ptr("0"), nil} {
		dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 80, HasLevel: true}}}}
		h := newHarness(t, &fakeFinder{dev: dev}, content)
		if sleep := h.ctrl.cycle(context.Background()); sleep != 300*time.Second {
			t.Errorf("content %v: sleep = %v, want 300s", content, sleep)
		}
	}
}

func TestCycleNonMenuIntervalHonoured(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 80, HasLevel: true}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("90"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != 90*time.Second {
		t.Errorf("sleep = %v, want 90s", sleep)
	}
	v, _ := h.presenter.last()
	for _, c := range v.Menu.Intervals {
		if c.Active {
			t.Errorf("choice %s marked active for a 90s interval", c.Label)
		}
	}
}

func TestCycleReloadsIntervalEveryCycle(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 80, HasLevel: true}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("60"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != time.Minute {
		t.Fatalf("sleep = %v", sleep)
	}
	if err := os.WriteFile(h.store.Path(), []byte("1800"), 0o644); err != nil {
		t.Fatal(err)
	}
	if sleep := h.ctrl.cycle(context.Background()); sleep != 30*time.Minute {
		t.Errorf("sleep after edit = %v, want 30m", sleep)
	}
}

func TestCycleNoDevice(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: device.ErrNotFound}, ptr("600"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != ErrorRetryInterval {
		t.Errorf("sleep = %v, want %v", sleep, ErrorRetryInterval)
	}
	if st := h.ctrl.Store().Snapshot(); st.Updated() || st.HasLevel {
		t.Errorf("state changed: %+v", st)
	}
	if _, n := h.presenter.last(); n != 0 {
		t.Errorf("presenter updated %d times", n)
	}
}

func TestCycleNoBattery(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{
		{reading: device.Reading{Level: 70, HasLevel: true, Charging: true}},
		{err: device.ErrNoBattery},
	}}
	finder := &fakeFinder{dev: dev}
	h := newHarness(t, finder, ptr("300"))

	h.ctrl.cycle(context.Background())
	before := h.ctrl.Store().Snapshot()

	if sleep := h.ctrl.cycle(context.Background()); sleep != ErrorRetryInterval {
		t.Errorf("sleep = %v, want %v", sleep, ErrorRetryInterval)
	}
	if after := h.ctrl.Store().Snapshot(); after != before {
		t.Errorf("state changed: %+v -> %+v", before, after)
	}
	if dev.isClosed() || finder.callCount() != 1 {
		t.Errorf("sleeping mouse should keep its handle (closed=%v finds=%d)", dev.isClosed(), finder.callCount())
	}
}

func TestCycleReadingWithoutLevel(t *testing.T) {
	dev := &fakeDevice{name: "Model O", steps: []step{{reading: device.Reading{}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("300"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != ErrorRetryInterval {
		t.Errorf("sleep = %v", sleep)
	}
	st := h.ctrl.Store().Snapshot()
	if st.Updated() || st.DeviceName != "Model O" {
		t.Errorf("state = %+v", st)
	}
	v, n := h.presenter.last()
	if n != 1 || v.Menu.Battery != "Battery: N/A" || v.Title != "Battery: N/A" {
		t.Errorf("view = %+v", v)
	}
	if !strings.HasSuffix(v.Menu.Updated, "(Interval: 0.05s)") || !strings.Contains(v.Menu.Updated, "never") {
		t.Errorf("updated line = %q", v.Menu.Updated)
	}
}

func TestCycleReadFailure(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{err: errors.New("hid: device disconnected")}}}
	finder := &fakeFinder{dev: dev}
	h := newHarness(t, finder, ptr("300"))

	if sleep := h.ctrl.cycle(context.Background()); sleep != FailureBackoff {
		t.Errorf("sleep = %v, want %v", sleep, FailureBackoff)
	}
	if !dev.isClosed() {
		t.Error("failed device should be closed")
	}
	h.ctrl.cycle(context.Background())
	if finder.callCount() != 2 {
		t.Errorf("finder calls = %d, want a fresh lookup after failure", finder.callCount())
	}
}

func TestCyclePanicRecovered(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{panic: true}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("300"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != FailureBackoff {
		t.Errorf("sleep = %v, want %v", sleep, FailureBackoff)
	}
	if !dev.isClosed() {
		t.Error("device should be released after a panic")
	}
}

func TestCycleFinderError(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: errors.New("hid enumerate: access denied")}, ptr("300"))
	if sleep := h.ctrl.cycle(context.Background()); sleep != FailureBackoff {
		t.Errorf("sleep = %v, want %v", sleep, FailureBackoff)
	}
}

func TestCycleClampsLevel(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 140, HasLevel: true, Charging: true}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("300"))
	h.ctrl.cycle(context.Background())
	st := h.ctrl.Store().Snapshot()
	if st.Level != 100 || !st.Charging {
		t.Errorf("state = %+v", st)
	}
	if v, _ := h.presenter.last(); v.Menu.Status != "Status: Charging" {
		t.Errorf("status = %q", v.Menu.Status)
	}
}

func TestDispatchSetInterval(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: device.ErrNotFound}, nil)
	if err := h.ctrl.Dispatch(SetInterval{Interval: 10 * time.Minute}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	data, err := os.ReadFile(h.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "600" {
		t.Errorf("interval file = %q, want 600", data)
	}
	if h.ctrl.Interval() != 10*time.Minute {
		t.Errorf("Interval() = %v", h.ctrl.Interval())
	}
	if !h.ctrl.waiter.Wait(context.Background(), time.Minute) {
		t.Error("SetInterval should wake the sleeping worker")
	}
}

func TestDispatchSetIntervalRejectsUnknown(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: device.ErrNotFound}, ptr("300"))
	if err := h.ctrl.Dispatch(SetInterval{Interval: 7 * time.Minute}); err == nil {
		t.Fatal("expected error for a non-menu interval")
	}
	if data, _ := os.ReadFile(h.store.Path()); string(data) != "300" {
		t.Errorf("interval file = %q, want unchanged", data)
	}
}

func TestDispatchReloadInterval(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: device.ErrNotFound}, ptr("300"))

	if err := h.ctrl.Dispatch(ReloadInterval{}); err != nil {
		t.Fatal(err)
	}
	if h.ctrl.waiter.Wait(context.Background(), 10*time.Millisecond) {
		t.Error("unchanged file should not wake the worker")
	}

	if err := os.WriteFile(h.store.Path(), []byte("60"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.ctrl.Dispatch(ReloadInterval{}); err != nil {
		t.Fatal(err)
	}
	if h.ctrl.Interval() != time.Minute {
		t.Errorf("Interval() = %v", h.ctrl.Interval())
	}
	if !h.ctrl.waiter.Wait(context.Background(), time.Minute) {
		t.Error("changed file should wake the worker")
	}
}

func TestDispatchRefreshNow(t *testing.T) {
	h := newHarness(t, &fakeFinder{err: device.ErrNotFound}, nil)
	if err := h.ctrl.Dispatch(RefreshNow{}); err != nil {
		t.Fatal(err)
	}
	if !h.ctrl.waiter.Wait(context.Background(), time.Minute) {
		t.Error("RefreshNow should wake the worker")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunActionCutsSleepShort(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   time.Duration
	}{
		{"set interval", SetInterval{Interval: 10 * time.Minute}, 10 * time.Minute},
		{"refresh now", RefreshNow{}, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 70, HasLevel: true}}}}
			h := newHarness(t, &fakeFinder{dev: dev}, ptr("3600"))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go h.ctrl.Run(ctx)

			waitFor(t, "first read", func() bool {
				return dev.callCount() == 1 && h.ctrl.Phase() == PhaseSleeping
			})
			if got := time.Duration(h.ctrl.sleep.Load()); got != time.Hour {
				t.Fatalf("first sleep = %v, want 1h", got)
			}

			if err := h.ctrl.Dispatch(tt.action); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			waitFor(t, "second read", func() bool {
				return dev.callCount() == 2 && h.ctrl.Phase() == PhaseSleeping
			})
			if got := time.Duration(h.ctrl.sleep.Load()); got != tt.want {
				t.Errorf("sleep after %s = %v, want %v", tt.name, got, tt.want)
			}

			if err := h.ctrl.Dispatch(Quit{}); err != nil {
				t.Fatal(err)
			}
			select {
			case <-h.ctrl.Done():
			case <-time.After(2 * time.Second):
				t.Fatal("worker did not stop after Quit")
			}
			if n := dev.callCount(); n != 2 {
				t.Errorf("Battery() called %d times, want 2", n)
			}
		})
	}
}

func TestRunQuitReleasesDevice(t *testing.T) {
	dev := &fakeDevice{name: "m", steps: []step{{reading: device.Reading{Level: 50, HasLevel: true}}}}
	h := newHarness(t, &fakeFinder{dev: dev}, ptr("3600"))

	go h.ctrl.Run(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for h.ctrl.Phase() != PhaseSleeping || !h.ctrl.Store().Snapshot().Updated() {
		if time.Now().After(deadline) {
			t.Fatal("worker never reached its sleep")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := h.ctrl.Dispatch(Quit{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-h.ctrl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after Quit")
	}
	if h.ctrl.Phase() != PhaseStopped {
		t.Errorf("phase = %v", h.ctrl.Phase())
	}
	if !dev.isClosed() {
		t.Error("device not released on exit")
	}
}

func TestRunRetriesWhileNoDevice(t *testing.T) {
	finder := &fakeFinder{err: device.ErrNotFound}
	h := newHarness(t, finder, ptr("3600"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.ctrl.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for finder.callCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("finder called %d times, want short retries", finder.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-h.ctrl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	h := newHarness(t, nil, nil)
	if err := h.ctrl.Dispatch(nil); err == nil {
		t.Error("expected error for nil action")
	}
}
