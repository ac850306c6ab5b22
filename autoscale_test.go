package adcscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiveLimits(t *testing.T) {
	_, ok := LiveLimits(nil, nil)
	assert.False(t, ok)

	// 300 samples, 10 ms apart. An outlier early on is outside the last
	// AutoscaleSamples and must not affect the vertical range.
	n := 300
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range values {
		times[i] = 0.01 * float64(i)
		values[i] = 1.0 + 0.001*float64(i%7)
	}
	values[10] = 50
	lim, ok := LiveLimits(times, values)
	assert.True(t, ok)
	assert.InDelta(t, 2.99-AutoscaleLookback, lim.XMin, 1e-12)
	assert.InDelta(t, 2.99+AxisLead, lim.XMax, 1e-12)
	assert.InDelta(t, 1.0-AxisMargin, lim.YMin, 1e-12)
	assert.InDelta(t, 1.006+AxisMargin, lim.YMax, 1e-12)

	// Early in a capture the horizontal axis starts at 0.
	lim, _ = LiveLimits(times[:50], values[:50])
	assert.Equal(t, 0.0, lim.XMin)
	assert.InDelta(t, 50+AxisMargin, lim.YMax, 1e-12)
}

func TestFrozenLimits(t *testing.T) {
	_, ok := FrozenLimits([]float64{}, []float64{})
	assert.False(t, ok)

	times := []float64{0, 1, 2, 3}
	values := []float64{0.5, -0.2, 4.0, 1.0}
	lim, ok := FrozenLimits(times, values)
	assert.True(t, ok)
	assert.Equal(t, 0.0, lim.XMin)
	assert.Equal(t, 3.0, lim.XMax)
	assert.InDelta(t, -0.2-AxisMargin, lim.YMin, 1e-12)
	assert.InDelta(t, 4.0+AxisMargin, lim.YMax, 1e-12)
}

func TestSpectrumLimits(t *testing.T) {
	lim := SpectrumLimits(500, []float64{0.1, 0.5, 0.2})
	assert.Equal(t, 0.0, lim.XMin)
	assert.Equal(t, 500.0, lim.XMax)
	assert.InDelta(t, 0.5+AxisMargin, lim.YMax, 1e-12)
	assert.Equal(t, AxisLimits{XMax: 250}, SpectrumLimits(250, nil))
}
