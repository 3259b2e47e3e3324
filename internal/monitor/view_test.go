package monitor

import (
	"context"
	"testing"
	"time"

	"mousebattery/internal/battery"
	"mousebattery/internal/icon"
)

func TestWaiterTimeout(t *testing.T) {
	w := NewWaiter()
	start := time.Now()
	if w.Wait(context.Background(), 20*time.Millisecond) {
		t.Error("Wait reported an early wake on timeout")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("Wait returned before its timeout")
	}
}

func TestWaiterWakeCoalesces(t *testing.T) {
	w := NewWaiter()
	w.Wake()
	w.Wake()
	w.Wake()
	if !w.Wait(context.Background(), time.Minute) {
		t.Fatal("pending wake not observed")
	}
	if w.Wait(context.Background(), 10*time.Millisecond) {
		t.Error("wakes should coalesce into one")
	}
}

func TestWaiterWakeDuringWait(t *testing.T) {
	w := NewWaiter()
	go func() {
		time.Sleep(10 * time.Millisecond)
		w.Wake()
	}()
	if !w.Wait(context.Background(), time.Minute) {
		t.Error("Wait did not return on Wake")
	}
}

func TestWaiterContextCancel(t *testing.T) {
	w := NewWaiter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if !w.Wait(ctx, time.Minute) {
		t.Error("Wait ignored a cancelled context")
	}
}

func TestSleepFor(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    time.Duration
	}{
		{OutcomeUpdated, 10 * time.Minute},
		{OutcomeNoLevel, ErrorRetryInterval},
		{OutcomeNotFound, ErrorRetryInterval},
		{OutcomeNoBattery, ErrorRetryInterval},
		{OutcomeFailed, FailureBackoff},
	}
	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			if got := SleepFor(tt.outcome, 10*time.Minute); got != tt.want {
				t.Errorf("SleepFor(%v) = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
	if ErrorRetryInterval >= FailureBackoff {
		t.Error("short retry must be shorter than the failure backoff")
	}
}

func TestBuildMenu(t *testing.T) {
	at := time.Date(2024, 1, 2, 8, 9, 10, 0, time.Local)
	st := battery.State{DeviceName: "Model O", Level: 7, HasLevel: true, Charging: true, HasCharging: true, LastUpdate: at}
	m := BuildMenu(st, 60*time.Second, time.Minute)

	if m.Name != "Name: Model O" || m.Battery != "Battery: 7%" || m.Status != "Status: Charging" {
		t.Errorf("menu = %+v", m)
	}
	if m.Updated != "Last updated at: 08:09:10 (Interval: 60s)" {
		t.Errorf("updated = %q", m.Updated)
	}
	if len(m.Intervals) != 5 {
		t.Fatalf("choices = %d", len(m.Intervals))
	}
	wantLabels := []string{"1 minute", "5 minutes", "10 minutes", "30 minutes", "60 minutes"}
	for i, c := range m.Intervals {
		if c.Label != wantLabels[i] {
			t.Errorf("choice %d label = %q, want %q", i, c.Label, wantLabels[i])
		}
		if c.Active != (i == 0) {
			t.Errorf("choice %q active = %v", c.Label, c.Active)
		}
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		st   battery.State
		want string
	}{
		{battery.State{}, "Unknown"},
		{battery.State{HasCharging: true}, "Discharging"},
		{battery.State{HasCharging: true, Charging: true}, "Charging"},
	}
	for _, tt := range tests {
		if got := StatusText(tt.st); got != tt.want {
			t.Errorf("StatusText(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}

func TestInitialView(t *testing.T) {
	v := InitialView(icon.NewRenderer(icon.GoBold()))
	if v.Menu.Ready {
		t.Error("initial menu should not be ready")
	}
	if v.Title != "Battery: N/A" {
		t.Errorf("title = %q", v.Title)
	}
	if v.Icon == nil || v.Icon.Bounds().Dx() != icon.DefaultSize {
		t.Errorf("icon = %v", v.Icon)
	}
	if v := InitialView(nil); v.Icon != nil {
		t.Error("nil renderer should leave the icon empty")
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhasePolling:  "polling",
		PhaseSleeping: "sleeping",
		PhaseStopped:  "stopped",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
