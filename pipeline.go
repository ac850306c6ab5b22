package adcscope

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// CaptureResult is everything one capture run produced.
type CaptureResult struct {
	RunID     ulid.ULID
	Config    CaptureConfig
	Series    *SampleSeries
	Spectrum  Spectrum // nil if the run never reached analysis
	Cancelled bool     // true if the run ended before SampleCount samples
	Started   time.Time
	Ended     time.Time
}

// Pipeline runs one acquire-display-analyze-display cycle: the Sampler fills a
// series while the Renderer shows it every ProgressCadence samples; the
// finished (or cancelled) series is shown once more, then analyzed, and the
// spectrum is shown.
type Pipeline struct {
	Config   CaptureConfig
	Source   SampleSource
	Renderer Renderer
	analyzer SpectralAnalyzer
}

// NewPipeline checks config and returns a Pipeline reading from source and
// drawing on renderer. A nil renderer discards all updates.
func NewPipeline(config CaptureConfig, source SampleSource, renderer Renderer) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("pipeline needs a sample source: %w", ErrInvalidConfig)
	}
	if renderer == nil {
		renderer = MultiRenderer{}
	}
	return &Pipeline{Config: config, Source: source, Renderer: renderer}, nil
}

// Run performs one capture. Closing abort stops acquisition early; analysis
// then runs on the samples already taken and is not itself cancellable.
//
// The returned result is non-nil even on error, so callers can inspect a
// partial series. On an acquisition failure or an empty capture the
// frequency-domain stage is skipped and the error (wrapping
// ErrAcquisitionFailure or ErrEmptyCapture) is returned.
func (p *Pipeline) Run(abort <-chan struct{}) (*CaptureResult, error) {
	result := &CaptureResult{RunID: ulid.Make(), Config: p.Config, Started: time.Now()}
	defer func() { result.Ended = time.Now() }()

	sampler, err := NewSampler(p.Config.SampleCount, p.Config.Interval())
	if err != nil {
		return result, err
	}
	if rs, ok := p.Renderer.(RunStarter); ok {
		rs.StartRun(result.RunID, p.Config)
	}
	UpdateLogger.Printf("capture %s: %d samples at %v intervals\n", result.RunID, sampler.Count(), sampler.Interval())

	series, err := sampler.Run(p.Source, abort, func(ss *SampleSeries) error {
		snap := ss.Snapshot()
		return p.Renderer.UpdateTimeDomain(snap.Times, snap.Values)
	})
	result.Series = series
	result.Cancelled = series.Len() < sampler.Count()

	// Show the frozen trace whatever happened, so a failed run can be inspected.
	snap := series.Snapshot()
	if rerr := p.Renderer.UpdateTimeDomain(snap.Times, snap.Values); rerr != nil {
		ProblemLogger.Printf("capture %s: final time-domain update: %v\n", result.RunID, rerr)
		if err == nil {
			err = rerr
		}
	}
	if err != nil {
		if errors.Is(err, ErrAcquisitionFailure) {
			ProblemLogger.Printf("capture %s: stopped after %d samples: %v\n", result.RunID, series.Len(), err)
		}
		return result, err
	}
	if result.Cancelled {
		UpdateLogger.Printf("capture %s: interrupted after %d of %d samples\n", result.RunID, series.Len(), sampler.Count())
	}

	spectrum, err := p.analyzer.Analyze(series, p.Config.Interval())
	if err != nil {
		return result, fmt.Errorf("capture %s: %w", result.RunID, err)
	}
	result.Spectrum = spectrum
	if err := p.Renderer.ShowFrequencyDomain(spectrum.Frequencies(), spectrum.Amplitudes()); err != nil {
		return result, err
	}
	if peak, ok := spectrum.Peak(); ok {
		UpdateLogger.Printf("capture %s: peak %.4f V at %.2f Hz (resolution %.3f Hz)\n",
			result.RunID, peak.Amplitude, peak.Frequency, spectrum.Resolution())
	}
	return result, nil
}
