package monitor

const (
	levelHistorySize = 10

	// Minimum least-squares slope, in percent per sample, that counts
	// as a charging trend.
	chargingSlope = 0.01
)

// levelHistory is a fixed window of recent battery levels, one per
// voltage update, used to estimate the charge trend.
type levelHistory struct {
	levels []float64
}

// newLevelHistory pre-fills the window with the initial level so the
// slope starts at zero instead of a spurious ramp.
func newLevelHistory(initial float64) *levelHistory {
	h := &levelHistory{levels: make([]float64, levelHistorySize)}
	for i := range h.levels {
		h.levels[i] = initial
	}
	return h
}

func (h *levelHistory) push(level float64) {
	copy(h.levels, h.levels[1:])
	h.levels[len(h.levels)-1] = level
}

// slope is the ordinary least-squares slope of level over sample
// index: k = sum(yi*(xi-xbar)) / sum((xi-xbar)^2). It assumes a
// roughly uniform poll interval, so it is a trend heuristic rather
// than a true dV/dt.
func (h *levelHistory) slope() float64 {
	n := float64(len(h.levels))
	xBar := (n - 1) / 2
	var a, b float64
	for i, y := range h.levels {
		x := float64(i)
		a += y * (x - xBar)
		b += (x - xBar) * (x - xBar)
	}
	return a / b
}

// charging reports a charging trend: a rising slope over a window of
// fresh samples. alive guards against declaring a trend from stale
// data when readings have stopped.
func (h *levelHistory) charging(alive bool) bool {
	return alive && h.slope() >= chargingSlope
}
