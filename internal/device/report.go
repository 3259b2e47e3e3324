package device

import "strings"

// ProbeReportIDs are tried in order when looking for the battery report.
var ProbeReportIDs = []byte{0x04, 0x03, 0x02, 0x01, 0x00}

// BatteryCommands are the feature-report bodies that ask the mouse for its
// battery state. The first is what current firmware answers; the rest cover
// older receivers.
var BatteryCommands = [][]byte{
	{0x00, 0x02, 0x02, 0x00, 0x83},
	{0x00, 0x02, 0x02, 0x00, 0x80},
	{0x00, 0x02, 0x02, 0x00, 0x81},
	{0x00, 0x02, 0x02, 0x00, 0x84},
}

// SendSizes and ReadSizes are the report lengths drivers accept, smallest
// first for writes and largest first for reads.
var (
	SendSizes = []int{9, 16, 33, 65}
	ReadSizes = []int{65, 33, 16, 9}
)

// FeatureReport builds a size-byte report starting with reportID followed by body.
func FeatureReport(reportID byte, body []byte, size int) []byte {
	if size < 1 {
		size = 1
	}
	buf := make([]byte, size)
	buf[0] = reportID
	copy(buf[1:], body)
	return buf
}

func isBatteryToken(b byte) bool {
	return b >= 0x80 && b <= 0x83
}

// ParseBattery extracts a reading from a raw report. It first looks for the
// token/charging/level triple at its usual offsets, then scans the first 20
// bytes for a token followed by either (charging, level) or (level, charging).
func ParseBattery(buf []byte) (Reading, bool) {
	if len(buf) < 9 {
		return Reading{}, false
	}

	for _, off := range []int{0, 1, 2} {
		tok, chg, lvl := 6+off, 7+off, 8+off
		if lvl >= len(buf) || !isBatteryToken(buf[tok]) {
			continue
		}
		if level := int(buf[lvl]); level <= 100 {
			return Reading{Level: level, HasLevel: true, Charging: buf[chg] == 1}, true
		}
	}

	limit := min(len(buf), 20)
	for i := 0; i < limit; i++ {
		if !isBatteryToken(buf[i]) || i+2 >= len(buf) {
			continue
		}
		a, b := buf[i+1], buf[i+2]
		if (a == 0 || a == 1) && b <= 100 {
			return Reading{Level: int(b), HasLevel: true, Charging: a == 1}, true
		}
		if (b == 0 || b == 1) && a <= 100 {
			return Reading{Level: int(a), HasLevel: true, Charging: b == 1}, true
		}
	}
	return Reading{}, false
}

// LikelyNoMouse reports whether a frame is the receiver answering for a mouse
// that is asleep, switched off or out of range.
func LikelyNoMouse(buf []byte) bool {
	if len(buf) <= 5 {
		return true
	}

	nonTrivial := 0
	for _, b := range buf[:min(len(buf), 16)] {
		if b != 0x00 && b != 0xFF {
			nonTrivial++
		}
	}
	if nonTrivial == 0 {
		return true
	}

	if len(buf) >= 9 {
		zeros := 0
		for _, b := range buf[1:9] {
			if b == 0x00 {
				zeros++
			}
		}
		if zeros >= 7 {
			return true
		}
	}
	return false
}

// IsIncorrectFunction matches the Windows error returned when an interface
// does not implement feature reports at all.
func IsIncorrectFunction(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "incorrect function")
}
