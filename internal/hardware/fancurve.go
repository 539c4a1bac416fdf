package hardware

// FanPoint is a single fan curve point: temperature in °C, fan speed in %.
type FanPoint struct {
	Temp  uint8
	Speed uint8
}

// FanCurve holds the CPU and GPU fan curves plus the custom-curve toggle.
// The model enforces no monotonicity; curves are conventionally ascending
// and span the device's thermal range.
type FanCurve struct {
	CPU     []FanPoint
	GPU     []FanPoint
	Enabled bool
}

// DefaultFanCurve is the static fallback used when the daemon offers no
// fan-curve interface.
func DefaultFanCurve() FanCurve {
	points := []FanPoint{
		{Temp: 30, Speed: 0},
		{Temp: 40, Speed: 5},
		{Temp: 50, Speed: 10},
		{Temp: 60, Speed: 20},
		{Temp: 70, Speed: 35},
		{Temp: 80, Speed: 55},
		{Temp: 90, Speed: 65},
		{Temp: 100, Speed: 100},
	}

	cpu := make([]FanPoint, len(points))
	gpu := make([]FanPoint, len(points))
	copy(cpu, points)
	copy(gpu, points)

	return FanCurve{
		CPU:     cpu,
		GPU:     gpu,
		Enabled: false,
	}
}

// Clone returns a deep copy so snapshots never share point slices.
func (c FanCurve) Clone() FanCurve {
	clone := c
	clone.CPU = append([]FanPoint(nil), c.CPU...)
	clone.GPU = append([]FanPoint(nil), c.GPU...)

	return clone
}
