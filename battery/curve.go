package battery

// Threshold maps one voltage range to one percentage range. A curve is
// a voltage-descending sequence of thresholds with no gaps: each
// entry's LowV equals the next entry's HighV.
type Threshold struct {
	LowV    float64
	HighV   float64
	LowPct  float64
	HighPct float64
}

// DefaultCurve is the discharge curve of the PiSugar battery pack.
var DefaultCurve = []Threshold{
	{4.16, 5.5, 100.0, 100.0},
	{4.05, 4.16, 87.5, 100.0},
	{4.00, 4.05, 75.0, 87.5},
	{3.92, 4.00, 62.5, 75.0},
	{3.86, 3.92, 50.0, 62.5},
	{3.79, 3.86, 37.5, 50.0},
	{3.66, 3.79, 25.0, 37.5},
	{3.52, 3.66, 12.5, 25.0},
	{3.49, 3.52, 6.2, 12.5},
	{3.1, 3.49, 0.0, 6.2},
	{0.0, 3.1, 0.0, 0.0},
}

// Level converts a battery voltage to a percentage by scanning the
// curve for the first entry whose lower bound the voltage reaches and
// interpolating linearly within it. A boundary voltage belongs to the
// higher of its two segments.
//
// A non-positive voltage means there is no reading yet (or no sensor
// at all), not an empty battery; it reports 100 so the shutdown
// supervisor never fires on a missing sensor.
func Level(curve []Threshold, voltage float64) float64 {
	if voltage <= 0 {
		return 100.0
	}
	if len(curve) > 0 && voltage > curve[0].HighV {
		return 100.0
	}
	for _, t := range curve {
		if voltage >= t.LowV {
			pct := (voltage - t.LowV) / (t.HighV - t.LowV)
			return t.LowPct + pct*(t.HighPct-t.LowPct)
		}
	}
	return 100.0
}
