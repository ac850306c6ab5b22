package adcscope

import (
	"errors"
	"fmt"
	"log"
)

// Renderer displays a capture. It is a pure sink: it must not modify the
// slices it receives.
type Renderer interface {
	// UpdateTimeDomain is called every ProgressCadence samples during
	// acquisition, and once more with the full series when it ends.
	UpdateTimeDomain(timestamps, values []float64) error

	// ShowFrequencyDomain is called exactly once, after analysis.
	ShowFrequencyDomain(frequencies, amplitudes []float64) error
}

// MultiRenderer sends every update to each of its renderers in order.
// All renderers see every update; their errors are joined.
type MultiRenderer []Renderer

// UpdateTimeDomain forwards to every renderer.
func (mr MultiRenderer) UpdateTimeDomain(timestamps, values []float64) error {
	var errs []error
	for _, r := range mr {
		errs = append(errs, r.UpdateTimeDomain(timestamps, values))
	}
	return errors.Join(errs...)
}

// ShowFrequencyDomain forwards to every renderer.
func (mr MultiRenderer) ShowFrequencyDomain(frequencies, amplitudes []float64) error {
	var errs []error
	for _, r := range mr {
		errs = append(errs, r.ShowFrequencyDomain(frequencies, amplitudes))
	}
	return errors.Join(errs...)
}

// LogRenderer writes a one-line summary of each update to a logger.
type LogRenderer struct {
	Logger  *log.Logger
	Nyquist float64
}

// UpdateTimeDomain logs the sample count and the live axis limits.
func (lr *LogRenderer) UpdateTimeDomain(timestamps, values []float64) error {
	lim, ok := LiveLimits(timestamps, values)
	if !ok {
		lr.logger().Println("time domain: no samples")
		return nil
	}
	lr.logger().Printf("time domain: %d samples through t=%.4fs, V in [%.4f, %.4f]\n",
		len(values), timestamps[len(timestamps)-1], lim.YMin+AxisMargin, lim.YMax-AxisMargin)
	return nil
}

// ShowFrequencyDomain logs the strongest non-DC bin.
func (lr *LogRenderer) ShowFrequencyDomain(frequencies, amplitudes []float64) error {
	if len(frequencies) != len(amplitudes) {
		return fmt.Errorf("spectrum has %d frequencies but %d amplitudes", len(frequencies), len(amplitudes))
	}
	spectrum := make(Spectrum, len(frequencies))
	for i := range frequencies {
		spectrum[i] = SpectrumPoint{Frequency: frequencies[i], Amplitude: amplitudes[i]}
	}
	peak, ok := spectrum.Peak()
	if !ok {
		lr.logger().Printf("frequency domain: %d bins up to %.1f Hz, no peak\n", len(spectrum), lr.Nyquist)
		return nil
	}
	lr.logger().Printf("frequency domain: %d bins up to %.1f Hz, peak %.4f V at %.2f Hz\n",
		len(spectrum), lr.Nyquist, peak.Amplitude, peak.Frequency)
	return nil
}

func (lr *LogRenderer) logger() *log.Logger {
	if lr.Logger == nil {
		return UpdateLogger
	}
	return lr.Logger
}
