// Package ads1115 reads single-ended voltages from a TI ADS1115 16-bit ADC
// on an I2C bus, using the periph.io drivers.
package ads1115

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// MaxDataRate is the fastest conversion rate the ADS1115 supports, in Hz.
const MaxDataRate = 860.0

// Config says which ADC input to read and how.
type Config struct {
	Bus        string  // I2C bus name, "" for the first one registered
	Address    uint16  // I2C address, 0 for the ADS1115 default
	Channel    int     // single-ended input, 0-3
	MaxVoltage float64 // full-scale range in volts; selects the PGA gain
	SampleRate float64 // requested conversions per second
}

var channels = [4]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// pinReader is the part of ads1x15.PinADC that Device uses.
type pinReader interface {
	Read() (analog.Sample, error)
	Halt() error
}

// Device is one open ADS1115 input.
type Device struct {
	pin pinReader
	bus io.Closer
}

// Open initializes the host drivers, opens the I2C bus, and configures the
// requested input for single-shot reads.
func Open(config *Config) (*Device, error) {
	if config.Channel < 0 || config.Channel >= len(channels) {
		return nil, fmt.Errorf("ads1115 channel %d out of range [0,3]", config.Channel)
	}
	if config.MaxVoltage <= 0 {
		return nil, fmt.Errorf("ads1115 max voltage %v must be positive", config.MaxVoltage)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ads1115 host init: %w", err)
	}
	bus, err := i2creg.Open(config.Bus)
	if err != nil {
		return nil, fmt.Errorf("ads1115 open I2C bus %q: %w", config.Bus, err)
	}

	opts := ads1x15.DefaultOpts
	if config.Address != 0 {
		opts.I2cAddress = config.Address
	}
	adc, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ads1115 at address %#x: %w", opts.I2cAddress, err)
	}

	rate := min(config.SampleRate, MaxDataRate)
	pin, err := adc.PinForChannel(channels[config.Channel],
		physic.ElectricPotential(config.MaxVoltage*float64(physic.Volt)),
		physic.Frequency(rate*float64(physic.Hertz)), ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ads1115 configure channel %d: %w", config.Channel, err)
	}
	return &Device{pin: pin, bus: bus}, nil
}

// Read performs one conversion and returns the input voltage in volts.
func (d *Device) Read() (float64, error) {
	s, err := d.pin.Read()
	if err != nil {
		return 0, err
	}
	return Volts(s), nil
}

// Close halts the input and releases the bus.
func (d *Device) Close() error {
	herr := d.pin.Halt()
	if err := d.bus.Close(); err != nil {
		return err
	}
	return herr
}

// Volts converts an analog sample to volts.
func Volts(s analog.Sample) float64 {
	return float64(s.V) / float64(physic.Volt)
}
