package adcscope

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Display autoscaling policy.
const (
	AutoscaleSamples  = 200 // the live vertical axis fits this many recent samples
	AutoscaleLookback = 2.0 // seconds of history on the live horizontal axis
	AxisMargin        = 0.1 // volts added above and below the data range
	AxisLead          = 0.1 // seconds shown past the newest sample
)

// AxisLimits holds the visible range of a plot's two axes.
type AxisLimits struct {
	XMin, XMax float64
	YMin, YMax float64
}

// LiveLimits computes the axis limits for the trace during acquisition: the
// last AutoscaleLookback seconds horizontally, and the range of the last
// AutoscaleSamples values vertically. ok is false if there is no data.
func LiveLimits(times, values []float64) (lim AxisLimits, ok bool) {
	if len(times) == 0 || len(values) == 0 {
		return lim, false
	}
	tlast := times[len(times)-1]
	ymin, ymax, _ := valueRange(values, AutoscaleSamples)
	return AxisLimits{
		XMin: math.Max(0, tlast-AutoscaleLookback),
		XMax: tlast + AxisLead,
		YMin: ymin - AxisMargin,
		YMax: ymax + AxisMargin,
	}, true
}

// FrozenLimits computes the axis limits for the final trace: the whole
// capture horizontally and the range of all values vertically.
func FrozenLimits(times, values []float64) (lim AxisLimits, ok bool) {
	if len(times) == 0 || len(values) == 0 {
		return lim, false
	}
	ymin, ymax, _ := valueRange(values, 0)
	return AxisLimits{
		XMin: 0,
		XMax: times[len(times)-1],
		YMin: ymin - AxisMargin,
		YMax: ymax + AxisMargin,
	}, true
}

// SpectrumLimits computes the axis limits for a spectrum plot: 0 to the
// Nyquist frequency horizontally, 0 to the largest amplitude vertically.
func SpectrumLimits(nyquist float64, amplitudes []float64) AxisLimits {
	lim := AxisLimits{XMax: nyquist}
	if len(amplitudes) > 0 {
		lim.YMax = floats.Max(amplitudes) + AxisMargin
	}
	return lim
}

// valueRange returns the min and max of the last k values (all of them if
// k <= 0).
func valueRange(values []float64, k int) (min, max float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	recent := values[recentStart(len(values), k):]
	return floats.Min(recent), floats.Max(recent), true
}
