package adcscope

import "errors"

// Error kinds surfaced by a capture run. None of them is retried internally.
var (
	// ErrAcquisitionFailure wraps any error returned by a SampleSource.
	ErrAcquisitionFailure = errors.New("acquisition failure")

	// ErrEmptyCapture means analysis was requested on a series with no samples.
	ErrEmptyCapture = errors.New("empty capture: no samples to analyze")

	// ErrCapacityExceeded means an append was attempted on a full series.
	// It indicates a bug in the caller, not a recoverable condition.
	ErrCapacityExceeded = errors.New("sample series capacity exceeded")

	// ErrSeriesFrozen means an append was attempted after the capture ended.
	ErrSeriesFrozen = errors.New("sample series is frozen")

	// ErrInvalidConfig is wrapped by configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
