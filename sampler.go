package adcscope

import (
	"fmt"
	"time"
)

// ProgressCadence is how often, in samples, the Sampler reports progress.
// Progress is reported after samples 0, 10, 20, ...
const ProgressCadence = 10

// ProgressFunc receives the series as it grows. It is called synchronously
// from the acquisition loop, so time spent here delays the next read.
type ProgressFunc func(series *SampleSeries) error

// Sampler drives a fixed-count, fixed-interval acquisition loop.
//
// After each read it sleeps for exactly the configured interval, however long
// the read and the progress callback took. The true spacing of samples is
// therefore somewhat longer than nominal, and the error accumulates over a
// run. This is not corrected.
type Sampler struct {
	count    int
	interval time.Duration
	now      func() time.Time
}

// NewSampler creates a Sampler that takes count samples, interval apart.
func NewSampler(count int, interval time.Duration) (*Sampler, error) {
	if count <= 0 {
		return nil, fmt.Errorf("sample count %d must be positive: %w", count, ErrInvalidConfig)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sampling interval %v must be positive: %w", interval, ErrInvalidConfig)
	}
	return &Sampler{count: count, interval: interval, now: time.Now}, nil
}

// Count returns the number of samples a complete run collects.
func (s *Sampler) Count() int {
	return s.count
}

// Interval returns the nominal sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Run reads source up to Count() times and returns the resulting series,
// which is always frozen on return.
//
// Closing abort cancels the run at the next iteration boundary (it is also
// noticed during the sleep between reads, but never in the middle of a Read).
// A cancelled run returns the samples taken so far and a nil error; the series
// may be empty.
//
// If source.Read fails, Run stops and returns an error wrapping
// ErrAcquisitionFailure together with the partial series, which the caller
// may salvage or discard. An error from onProgress also ends the run.
func (s *Sampler) Run(source SampleSource, abort <-chan struct{}, onProgress ProgressFunc) (*SampleSeries, error) {
	series := NewSampleSeries(s.count)
	defer series.Freeze()

	start := s.now()
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for i := 0; i < s.count; i++ {
		if aborted(abort) {
			return series, nil
		}

		value, err := source.Read()
		if err != nil {
			return series, fmt.Errorf("read of sample %d: %w: %w", i, ErrAcquisitionFailure, err)
		}
		elapsed := s.now().Sub(start).Seconds()
		if err := series.Append(Sample{Time: elapsed, Value: value}); err != nil {
			return series, err
		}

		if i%ProgressCadence == 0 && onProgress != nil {
			if err := onProgress(series); err != nil {
				return series, err
			}
		}

		timer.Reset(s.interval)
		select {
		case <-abort:
			return series, nil
		case <-timer.C:
		}
	}
	return series, nil
}

// aborted reports whether abort has been closed, without blocking.
// A nil channel is never aborted.
func aborted(abort <-chan struct{}) bool {
	select {
	case <-abort:
		return true
	default:
		return false
	}
}
