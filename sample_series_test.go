package adcscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSeriesAppend(t *testing.T) {
	ss := NewSampleSeries(3)
	assert.Equal(t, 0, ss.Len())
	assert.Equal(t, 3, ss.Cap())
	_, ok := ss.LastTime()
	assert.False(t, ok, "LastTime of empty series")

	require.NoError(t, ss.Append(Sample{Time: 0, Value: 1.5}))
	require.NoError(t, ss.Append(Sample{Time: 0.001, Value: 1.7}))
	require.NoError(t, ss.Append(Sample{Time: 0.001, Value: 1.6}), "equal timestamps are allowed")
	assert.Equal(t, 3, ss.Len())
	assert.Equal(t, Sample{Time: 0.001, Value: 1.7}, ss.At(1))

	err := ss.Append(Sample{Time: 0.002, Value: 1.8})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 3, ss.Len(), "a failed append must not change the series")

	tlast, ok := ss.LastTime()
	assert.True(t, ok)
	assert.Equal(t, 0.001, tlast)
}

func TestSampleSeriesOrdering(t *testing.T) {
	ss := NewSampleSeries(10)
	require.NoError(t, ss.Append(Sample{Time: 1.0, Value: 0}))
	assert.Error(t, ss.Append(Sample{Time: 0.5, Value: 0}), "timestamps must not decrease")
	assert.Equal(t, 1, ss.Len())
}

func TestSampleSeriesFreeze(t *testing.T) {
	ss := NewSampleSeries(10)
	require.NoError(t, ss.Append(Sample{Time: 0, Value: 1}))
	assert.False(t, ss.Frozen())
	ss.Freeze()
	assert.True(t, ss.Frozen())
	assert.ErrorIs(t, ss.Append(Sample{Time: 1, Value: 2}), ErrSeriesFrozen)
	assert.Equal(t, 1, ss.Len())
}

func TestSampleSeriesRecentWindow(t *testing.T) {
	ss := NewSampleSeries(10)
	for i := 0; i < 6; i++ {
		require.NoError(t, ss.Append(Sample{Time: float64(i), Value: float64(10 * i)}))
	}
	w := ss.RecentWindow(3)
	assert.Equal(t, []Sample{{3, 30}, {4, 40}, {5, 50}}, w)
	assert.Len(t, ss.RecentWindow(100), 6, "window larger than the series returns all of it")
	assert.Empty(t, ss.RecentWindow(0))
	assert.Empty(t, NewSampleSeries(5).RecentWindow(3))
}

func TestSampleSeriesSnapshot(t *testing.T) {
	ss := NewSampleSeries(10)
	require.NoError(t, ss.Append(Sample{Time: 0, Value: 1}))
	require.NoError(t, ss.Append(Sample{Time: 1, Value: 2}))
	snap := ss.Snapshot()
	assert.Equal(t, 2, snap.Len())

	// The snapshot must not see later appends, nor alias the series' storage.
	require.NoError(t, ss.Append(Sample{Time: 2, Value: 3}))
	snap.Values[0] = 99
	assert.Equal(t, []float64{0, 1}, snap.Times)
	assert.Equal(t, []float64{1, 2, 3}, ss.Values())
	assert.Equal(t, []float64{0, 1, 2}, ss.Times())

	// Snapshots only ever grow.
	snap2 := ss.Snapshot()
	assert.GreaterOrEqual(t, snap2.Len(), snap.Len())
}

func TestSampleSeriesValueRange(t *testing.T) {
	ss := NewSampleSeries(10)
	_, _, ok := ss.ValueRange(5)
	assert.False(t, ok)

	for i, v := range []float64{-4, 2, 7, 1, 3} {
		require.NoError(t, ss.Append(Sample{Time: float64(i), Value: v}))
	}
	min, max, ok := ss.ValueRange(3)
	assert.True(t, ok)
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 7.0, max)

	min, max, _ = ss.ValueRange(0)
	assert.Equal(t, -4.0, min, "k=0 means the whole series")
	assert.Equal(t, 7.0, max)
}
