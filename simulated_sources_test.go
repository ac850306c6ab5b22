package adcscope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSineSource(t *testing.T) {
	ss, err := NewSineSource(&SineSourceConfig{SampleRate: 1000, Amplitude: 2, Frequency: 250, Offset: 1})
	require.NoError(t, err)
	// At 4 samples per cycle: offset, peak, offset, trough.
	want := []float64{1, 3, 1, -1, 1}
	for i, w := range want {
		v, err := ss.Read()
		require.NoError(t, err)
		assert.InDelta(t, w, v, 1e-9, "sample %d", i)
	}
}

func TestSineSourceNoise(t *testing.T) {
	config := &SineSourceConfig{SampleRate: 1000, Frequency: 50, Noise: 0.1, Seed: 42}
	a, err := NewSineSource(config)
	require.NoError(t, err)
	b, err := NewSineSource(config)
	require.NoError(t, err)

	var sum2 float64
	const n = 5000
	for i := 0; i < n; i++ {
		va, _ := a.Read()
		vb, _ := b.Read()
		if va != vb {
			t.Fatalf("sources with the same seed differ at sample %d: %v != %v", i, va, vb)
		}
		sum2 += va * va
	}
	assert.InDelta(t, 0.1, math.Sqrt(sum2/n), 0.01, "rms of pure noise")
}

func TestSineSourceErrors(t *testing.T) {
	_, err := NewSineSource(&SineSourceConfig{SampleRate: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewSineSource(&SineSourceConfig{SampleRate: 100, Noise: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTriangleSource(t *testing.T) {
	ts, err := NewTriangleSource(&TriangleSourceConfig{SampleRate: 1000, Frequency: 125, Min: 0, Max: 4})
	require.NoError(t, err)
	// 4 samples rising, 4 falling, then repeat.
	want := []float64{0, 1, 2, 3, 4, 3, 2, 1, 0, 1}
	for i, w := range want {
		v, err := ts.Read()
		require.NoError(t, err)
		assert.InDelta(t, w, v, 1e-12, "sample %d", i)
	}

	_, err = NewTriangleSource(&TriangleSourceConfig{SampleRate: 1000, Frequency: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewTriangleSource(&TriangleSourceConfig{SampleRate: 1000, Frequency: 600})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSourceFunc(t *testing.T) {
	n := 0.0
	var src SampleSource = SourceFunc(func() (float64, error) {
		n++
		return n, nil
	})
	v, _ := src.Read()
	assert.Equal(t, 1.0, v)
	v, _ = src.Read()
	assert.Equal(t, 2.0, v)
}
