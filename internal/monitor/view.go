package monitor

import (
	"fmt"
	"image"
	"strconv"
	"time"

	"mousebattery/internal/battery"
	"mousebattery/internal/config"
)

// LookingText is the only info line shown before the first reading.
const LookingText = "Looking for mouse and mouse data..."

// View is everything the tray host displays.
type View struct {
	Icon  image.Image
	Title string
	Menu  Menu
}

// Menu is the tray menu model. When Ready is false only LookingText and the
// quit entry are shown.
type Menu struct {
	Ready     bool
	Name      string
	Battery   string
	Status    string
	Updated   string
	Intervals []IntervalChoice
}

// IntervalChoice is one entry of the interval submenu.
type IntervalChoice struct {
	Label    string
	Interval time.Duration
	Active   bool
}

// Title is the tray tooltip, e.g. "Battery: 45%".
func Title(st battery.State) string {
	return "Battery: " + st.LevelText()
}

// StatusText is "Charging", "Discharging" or "Unknown" before the flag is known.
func StatusText(st battery.State) string {
	switch {
	case !st.HasCharging:
		return "Unknown"
	case st.Charging:
		return "Charging"
	default:
		return "Discharging"
	}
}

// IntervalChoices marks the entry equal to current. A current value outside
// the fixed set marks nothing.
func IntervalChoices(current time.Duration) []IntervalChoice {
	out := make([]IntervalChoice, len(config.IntervalChoices))
	for i, d := range config.IntervalChoices {
		out[i] = IntervalChoice{Label: config.IntervalLabel(d), Interval: d, Active: d == current}
	}
	return out
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

// BuildMenu renders st as menu lines. sleep is the interval the worker is
// about to wait and configured is the persisted interval.
func BuildMenu(st battery.State, sleep, configured time.Duration) Menu {
	updated := "never"
	if st.Updated() {
		updated = st.LastUpdate.Format(time.TimeOnly)
	}
	name := st.DeviceName
	if name == "" {
		name = "Unknown"
	}
	return Menu{
		Ready:     true,
		Name:      "Name: " + name,
		Battery:   "Battery: " + st.LevelText(),
		Status:    "Status: " + StatusText(st),
		Updated:   fmt.Sprintf("Last updated at: %s (Interval: %s)", updated, formatSeconds(sleep)),
		Intervals: IntervalChoices(configured),
	}
}

// InitialView is shown until the first device is found.
func InitialView(r Renderer) View {
	v := View{
		Title: Title(battery.State{}),
		Menu:  Menu{Intervals: IntervalChoices(config.DefaultInterval)},
	}
	if r != nil {
		v.Icon = r.Render(0, false)
	}
	return v
}
