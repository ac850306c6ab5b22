package adcscope

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/usnistgov/adcscope/ads1115"
)

// CaptureConfig fixes the size and pace of one capture. It cannot change
// while a capture is running.
type CaptureConfig struct {
	SampleCount      int     // number of samples in a complete capture
	SamplingInterval float64 // nominal seconds between samples
}

// DefaultCaptureConfig is 2 seconds of data at 1 kHz.
var DefaultCaptureConfig = CaptureConfig{SampleCount: 2000, SamplingInterval: 0.001}

// Validate checks that the configuration describes a possible capture.
func (c CaptureConfig) Validate() error {
	if c.SampleCount <= 0 {
		return fmt.Errorf("SampleCount=%d, want > 0: %w", c.SampleCount, ErrInvalidConfig)
	}
	if !(c.SamplingInterval > 0) {
		return fmt.Errorf("SamplingInterval=%v, want > 0: %w", c.SamplingInterval, ErrInvalidConfig)
	}
	if c.Interval() <= 0 {
		return fmt.Errorf("SamplingInterval=%v is below 1 ns: %w", c.SamplingInterval, ErrInvalidConfig)
	}
	return nil
}

// Interval returns the sampling interval as a time.Duration.
func (c CaptureConfig) Interval() time.Duration {
	return time.Duration(c.SamplingInterval * float64(time.Second))
}

// SampleRate returns the nominal sampling frequency in Hz.
func (c CaptureConfig) SampleRate() float64 {
	return 1 / c.SamplingInterval
}

// Nyquist returns half the nominal sampling frequency, in Hz.
func (c CaptureConfig) Nyquist() float64 {
	return c.SampleRate() / 2
}

// Duration returns the nominal length of a complete capture.
func (c CaptureConfig) Duration() time.Duration {
	return time.Duration(c.SampleCount) * c.Interval()
}

// SourceConfig selects and configures the SampleSource for a capture.
// Only the fields relevant to Kind are used.
type SourceConfig struct {
	Kind string // "sine", "triangle", "constant", or "ads1115"

	// Simulated sources
	Amplitude float64
	Frequency float64
	Offset    float64
	Noise     float64
	Seed      uint64
	Min, Max  float64

	// ADS1115
	Bus        string  // I2C bus name; "" for the first available
	Address    uint16  // I2C address; 0 for the default 0x48
	Channel    int     // single-ended input 0-3
	MaxVoltage float64 // full-scale range in volts
}

// DefaultSourceConfig is a 50 Hz, 1 V sine riding on 2.5 V.
var DefaultSourceConfig = SourceConfig{
	Kind:       "sine",
	Amplitude:  1.0,
	Frequency:  50.0,
	Offset:     2.5,
	Max:        5.0,
	MaxVoltage: 4.096,
}

// NewSource builds the SampleSource described by sc, for captures at the
// nominal rate of capture. The returned close function releases any
// hardware and is never nil.
func NewSource(sc *SourceConfig, capture CaptureConfig) (SampleSource, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(sc.Kind) {
	case "sine", "":
		s, err := NewSineSource(&SineSourceConfig{
			SampleRate: capture.SampleRate(), Amplitude: sc.Amplitude,
			Frequency: sc.Frequency, Offset: sc.Offset, Noise: sc.Noise, Seed: sc.Seed,
		})
		return s, noop, err

	case "triangle":
		s, err := NewTriangleSource(&TriangleSourceConfig{
			SampleRate: capture.SampleRate(), Frequency: sc.Frequency, Min: sc.Min, Max: sc.Max,
		})
		return s, noop, err

	case "constant":
		return ConstantSource(sc.Offset), noop, nil

	case "ads1115":
		dev, err := ads1115.Open(&ads1115.Config{
			Bus: sc.Bus, Address: sc.Address, Channel: sc.Channel,
			MaxVoltage: sc.MaxVoltage, SampleRate: capture.SampleRate(),
		})
		if err != nil {
			return nil, noop, err
		}
		return dev, dev.Close, nil
	}
	return nil, noop, fmt.Errorf("data source %q is not recognized: %w", sc.Kind, ErrInvalidConfig)
}

// SetViperDefaults registers the default capture and source settings.
func SetViperDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("capture.samplecount", DefaultCaptureConfig.SampleCount)
	v.SetDefault("capture.samplinginterval", DefaultCaptureConfig.SamplingInterval)
	v.SetDefault("source.kind", DefaultSourceConfig.Kind)
	v.SetDefault("source.amplitude", DefaultSourceConfig.Amplitude)
	v.SetDefault("source.frequency", DefaultSourceConfig.Frequency)
	v.SetDefault("source.offset", DefaultSourceConfig.Offset)
	v.SetDefault("source.max", DefaultSourceConfig.Max)
	v.SetDefault("source.maxvoltage", DefaultSourceConfig.MaxVoltage)
	v.SetDefault("publish", false)
}

// LoadConfig decodes the "capture" and "source" sections of v and validates
// the capture settings. It decodes all settings at once, rather than key by
// key, so that values bound from command-line flags such as
// "capture.samplecount" override the file.
func LoadConfig(v *viper.Viper) (CaptureConfig, SourceConfig, error) {
	var all struct {
		Capture CaptureConfig
		Source  SourceConfig
	}
	if err := v.Unmarshal(&all); err != nil {
		return all.Capture, all.Source, fmt.Errorf("decoding config: %w", err)
	}
	if err := all.Capture.Validate(); err != nil {
		return all.Capture, all.Source, err
	}
	return all.Capture, all.Source, nil
}
