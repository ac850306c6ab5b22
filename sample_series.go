package adcscope

import (
	"fmt"
	"sync"
)

// Sample is one voltage reading and the time it was taken, in seconds since
// the start of the capture.
type Sample struct {
	Time  float64
	Value float64
}

// SampleSeries is the bounded, append-only record of one capture.
// Samples are stored in the order they were appended, which is also
// chronological order. The series holds at most Cap() samples and accepts no
// appends once frozen.
//
// The Sampler is the only writer. Readers (renderers, the analyzer) should
// take a Snapshot or use the query methods, which copy under the lock.
type SampleSeries struct {
	times    []float64
	values   []float64
	capacity int
	frozen   bool
	sync.RWMutex
}

// SeriesSnapshot holds independent copies of a series' timestamps and values.
type SeriesSnapshot struct {
	Times  []float64
	Values []float64
}

// Len returns the number of samples in the snapshot.
func (s SeriesSnapshot) Len() int {
	return len(s.Values)
}

// NewSampleSeries creates an empty series that can hold up to capacity samples.
func NewSampleSeries(capacity int) *SampleSeries {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleSeries{
		times:    make([]float64, 0, capacity),
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Append adds s to the end of the series.
func (ss *SampleSeries) Append(s Sample) error {
	ss.Lock()
	defer ss.Unlock()
	if ss.frozen {
		return ErrSeriesFrozen
	}
	if len(ss.values) >= ss.capacity {
		return fmt.Errorf("append sample %d to series of capacity %d: %w",
			len(ss.values)+1, ss.capacity, ErrCapacityExceeded)
	}
	if n := len(ss.times); n > 0 && s.Time < ss.times[n-1] {
		return fmt.Errorf("sample time %v precedes previous sample time %v", s.Time, ss.times[n-1])
	}
	ss.times = append(ss.times, s.Time)
	ss.values = append(ss.values, s.Value)
	return nil
}

// Freeze marks the series as complete. Later appends fail with ErrSeriesFrozen.
func (ss *SampleSeries) Freeze() {
	ss.Lock()
	defer ss.Unlock()
	ss.frozen = true
}

// Frozen reports whether the series has been frozen.
func (ss *SampleSeries) Frozen() bool {
	ss.RLock()
	defer ss.RUnlock()
	return ss.frozen
}

// Len returns the number of samples appended so far.
func (ss *SampleSeries) Len() int {
	ss.RLock()
	defer ss.RUnlock()
	return len(ss.values)
}

// Cap returns the maximum number of samples the series can hold.
func (ss *SampleSeries) Cap() int {
	return ss.capacity
}

// At returns the i-th sample. It panics if i is out of range, like a slice.
func (ss *SampleSeries) At(i int) Sample {
	ss.RLock()
	defer ss.RUnlock()
	return Sample{Time: ss.times[i], Value: ss.values[i]}
}

// RecentWindow returns copies of the last min(k, Len()) samples.
func (ss *SampleSeries) RecentWindow(k int) []Sample {
	ss.RLock()
	defer ss.RUnlock()
	if k <= 0 {
		return []Sample{}
	}
	first := recentStart(len(ss.values), k)
	out := make([]Sample, 0, len(ss.values)-first)
	for i := first; i < len(ss.values); i++ {
		out = append(out, Sample{Time: ss.times[i], Value: ss.values[i]})
	}
	return out
}

// Snapshot returns copies of all timestamps and values collected so far.
// The copies are safe to keep and read while the Sampler keeps appending.
func (ss *SampleSeries) Snapshot() SeriesSnapshot {
	ss.RLock()
	defer ss.RUnlock()
	snap := SeriesSnapshot{
		Times:  make([]float64, len(ss.times)),
		Values: make([]float64, len(ss.values)),
	}
	copy(snap.Times, ss.times)
	copy(snap.Values, ss.values)
	return snap
}

// Times returns a copy of the timestamps.
func (ss *SampleSeries) Times() []float64 {
	return ss.Snapshot().Times
}

// Values returns a copy of the sample values.
func (ss *SampleSeries) Values() []float64 {
	return ss.Snapshot().Values
}

// LastTime returns the timestamp of the most recent sample, and false if the
// series is empty.
func (ss *SampleSeries) LastTime() (float64, bool) {
	ss.RLock()
	defer ss.RUnlock()
	if len(ss.times) == 0 {
		return 0, false
	}
	return ss.times[len(ss.times)-1], true
}

// ValueRange returns the minimum and maximum value over the last k samples
// (all samples if k <= 0). ok is false for an empty series.
func (ss *SampleSeries) ValueRange(k int) (min, max float64, ok bool) {
	ss.RLock()
	defer ss.RUnlock()
	return valueRange(ss.values, k)
}

// recentStart is the index of the first of the last k of n items.
// k <= 0 means all of them.
func recentStart(n, k int) int {
	if k <= 0 || k >= n {
		return 0
	}
	return n - k
}
