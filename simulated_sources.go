package adcscope

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SineSource synthesizes a sinusoid plus a DC offset and optional Gaussian
// noise. Its clock is the sample counter, so successive reads are spaced by
// exactly 1/sampleRate in simulated time no matter how slowly they are taken.
type SineSource struct {
	sampleRate float64 // samples per second
	amplitude  float64
	frequency  float64 // Hz
	offset     float64
	noise      *distuv.Normal
	nread      int
}

// SineSourceConfig holds the arguments needed to configure a SineSource.
type SineSourceConfig struct {
	SampleRate float64
	Amplitude  float64
	Frequency  float64
	Offset     float64
	Noise      float64 // rms of added Gaussian noise; 0 for none
	Seed       uint64
}

// NewSineSource creates a SineSource from config.
func NewSineSource(config *SineSourceConfig) (*SineSource, error) {
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("SineSource sample rate %v must be positive: %w", config.SampleRate, ErrInvalidConfig)
	}
	if config.Noise < 0 {
		return nil, fmt.Errorf("SineSource noise %v must be non-negative: %w", config.Noise, ErrInvalidConfig)
	}
	ss := &SineSource{
		sampleRate: config.SampleRate,
		amplitude:  config.Amplitude,
		frequency:  config.Frequency,
		offset:     config.Offset,
	}
	if config.Noise > 0 {
		ss.noise = &distuv.Normal{
			Mu:    0,
			Sigma: config.Noise,
			Src:   rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15),
		}
	}
	return ss, nil
}

// Read returns the next value of the waveform.
func (ss *SineSource) Read() (float64, error) {
	t := float64(ss.nread) / ss.sampleRate
	ss.nread++
	v := ss.offset + ss.amplitude*math.Sin(2*math.Pi*ss.frequency*t)
	if ss.noise != nil {
		v += ss.noise.Rand()
	}
	return v, nil
}

// TriangleSource synthesizes a triangle wave that rises linearly from min to
// max over half a period and falls back over the other half.
type TriangleSource struct {
	onecycle []float64
	nread    int
}

// TriangleSourceConfig holds the arguments needed to configure a TriangleSource.
type TriangleSourceConfig struct {
	SampleRate float64
	Frequency  float64 // Hz
	Min, Max   float64
}

// NewTriangleSource creates a TriangleSource from config.
func NewTriangleSource(config *TriangleSourceConfig) (*TriangleSource, error) {
	if config.SampleRate <= 0 || config.Frequency <= 0 {
		return nil, fmt.Errorf("TriangleSource needs positive rate and frequency, have %v, %v: %w",
			config.SampleRate, config.Frequency, ErrInvalidConfig)
	}
	nrise := int(config.SampleRate / (2 * config.Frequency))
	if nrise < 1 {
		return nil, fmt.Errorf("TriangleSource frequency %v Hz exceeds Nyquist for rate %v: %w",
			config.Frequency, config.SampleRate, ErrInvalidConfig)
	}
	ts := &TriangleSource{onecycle: make([]float64, 2*nrise)}
	step := (config.Max - config.Min) / float64(nrise)
	for i := 0; i < nrise; i++ {
		ts.onecycle[i] = config.Min + float64(i)*step
		ts.onecycle[i+nrise] = config.Max - float64(i)*step
	}
	return ts, nil
}

// Read returns the next value of the waveform.
func (ts *TriangleSource) Read() (float64, error) {
	v := ts.onecycle[ts.nread%len(ts.onecycle)]
	ts.nread++
	return v, nil
}

// ConstantSource always reads the same value.
type ConstantSource float64

// Read returns the constant.
func (cs ConstantSource) Read() (float64, error) {
	return float64(cs), nil
}
