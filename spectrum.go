package adcscope

import (
	"fmt"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/stat"
)

// SpectrumPoint is the amplitude of one frequency bin.
type SpectrumPoint struct {
	Frequency float64 // Hz
	Amplitude float64 // volts
}

// Spectrum is a single-sided magnitude spectrum, ordered by increasing
// frequency from 0 up to at most the Nyquist frequency.
type Spectrum []SpectrumPoint

// Frequencies returns the bin frequencies in order.
func (s Spectrum) Frequencies() []float64 {
	f := make([]float64, len(s))
	for i, p := range s {
		f[i] = p.Frequency
	}
	return f
}

// Amplitudes returns the bin amplitudes in order.
func (s Spectrum) Amplitudes() []float64 {
	a := make([]float64, len(s))
	for i, p := range s {
		a[i] = p.Amplitude
	}
	return a
}

// Resolution returns the spacing between bins in Hz, or 0 if there is only
// one bin.
func (s Spectrum) Resolution() float64 {
	if len(s) < 2 {
		return 0
	}
	return s[1].Frequency - s[0].Frequency
}

// Peak returns the largest-amplitude bin above DC. ok is false when the
// spectrum has no such bin.
func (s Spectrum) Peak() (peak SpectrumPoint, ok bool) {
	for _, p := range s[min(1, len(s)):] {
		if !ok || p.Amplitude > peak.Amplitude {
			peak, ok = p, true
		}
	}
	return peak, ok
}

// SpectralAnalyzer computes the Hann-windowed single-sided magnitude spectrum
// of a capture. The zero value is ready to use. It keeps the FFT plan of the
// last length it saw, so reusing one analyzer on equal-length captures avoids
// recomputing twiddle factors.
type SpectralAnalyzer struct {
	fft *fourier.FFT
}

// Analyze computes the spectrum of the values in series, which were taken
// nominally interval apart. Analysis always runs to completion once started.
// It returns ErrEmptyCapture for a series with no samples.
func (sa *SpectralAnalyzer) Analyze(series *SampleSeries, interval time.Duration) (Spectrum, error) {
	return sa.AnalyzeValues(series.Values(), interval)
}

// AnalyzeValues computes the spectrum of values, which were taken nominally
// interval apart. values is not modified.
//
// The steps are: subtract the mean; multiply by a Hann window of the same
// length; transform; keep the floor(M/2)+1 bins of non-negative frequency;
// scale every kept magnitude by 2/M. Bin k is reported at k*Fs/M with
// Fs = 1/interval, i.e., the sampling is assumed to have been uniform at the
// nominal rate. The DC bin and (for even M) the Nyquist bin get the same
// factor of 2 as every other bin.
func (sa *SpectralAnalyzer) AnalyzeValues(values []float64, interval time.Duration) (Spectrum, error) {
	m := len(values)
	if m == 0 {
		return nil, ErrEmptyCapture
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sampling interval %v must be positive: %w", interval, ErrInvalidConfig)
	}

	windowed := removeMean(values)
	hann(windowed)
	coefs := sa.coefficients(windowed)

	fs := 1.0 / interval.Seconds()
	scale := 2.0 / float64(m)
	spectrum := make(Spectrum, len(coefs))
	for k, c := range coefs {
		spectrum[k] = SpectrumPoint{
			Frequency: float64(k) * fs / float64(m),
			Amplitude: scale * cmplx.Abs(c),
		}
	}
	return spectrum, nil
}

// coefficients returns the floor(M/2)+1 non-negative-frequency DFT
// coefficients of the real sequence seq.
func (sa *SpectralAnalyzer) coefficients(seq []float64) []complex128 {
	if len(seq) == 1 {
		return []complex128{complex(seq[0], 0)}
	}
	if sa.fft == nil || sa.fft.Len() != len(seq) {
		sa.fft = fourier.NewFFT(len(seq))
	}
	return sa.fft.Coefficients(nil, seq)
}

// removeMean returns a copy of values with their mean subtracted.
func removeMean(values []float64) []float64 {
	mean := stat.Mean(values, nil)
	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}
	return centered
}

// hann multiplies seq in place by the symmetric Hann window
// w[i] = 0.5 - 0.5*cos(2*pi*i/(M-1)). A window of length 1 is taken to be
// w[0] = 1.
func hann(seq []float64) {
	if len(seq) <= 1 {
		return
	}
	window.Hann(seq)
}
