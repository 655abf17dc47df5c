package monitor

import "strings"

// TapType is a recognized button gesture.
type TapType int

const (
	SingleTap TapType = iota
	DoubleTap
	LongTap
)

func (t TapType) String() string {
	switch t {
	case SingleTap:
		return "single"
	case DoubleTap:
		return "double"
	case LongTap:
		return "long"
	default:
		return "unknown"
	}
}

const tapHistorySize = 10

// Gesture patterns over press ('1') / release ('0') samples, one
// sample per poll cycle. Long press is matched before the others so a
// held button is not misread as a series of taps. The double patterns
// allow short gaps between the two presses.
var (
	longPattern    = "111111110"
	doublePatterns = []string{"1010", "10010", "10110", "100110", "101110", "1001110"}
	singlePattern  = "1000"
)

// tapHistory is a bounded FIFO of button samples.
type tapHistory struct {
	samples string
}

// push appends one sample, evicting the oldest when full.
func (h *tapHistory) push(pressed bool) {
	if len(h.samples) == tapHistorySize {
		h.samples = h.samples[1:]
	}
	if pressed {
		h.samples += "1"
	} else {
		h.samples += "0"
	}
}

// detect scans the whole buffer for a gesture. On a match the buffer
// is cleared so overlapping history cannot produce the same gesture
// twice.
func (h *tapHistory) detect() (TapType, bool) {
	if strings.Contains(h.samples, longPattern) {
		h.samples = ""
		return LongTap, true
	}
	for _, p := range doublePatterns {
		if strings.Contains(h.samples, p) {
			h.samples = ""
			return DoubleTap, true
		}
	}
	if strings.Contains(h.samples, singlePattern) {
		h.samples = ""
		return SingleTap, true
	}
	return 0, false
}
