package adcscope

// SampleSource is anything that can produce one instantaneous voltage reading
// on demand: an ADC channel, or a simulation of one.
// Read may block briefly (a bus transaction) and may fail; the Sampler does
// not retry failed reads.
type SampleSource interface {
	Read() (float64, error)
}

// SourceFunc adapts an ordinary function to the SampleSource interface.
type SourceFunc func() (float64, error)

// Read calls f.
func (f SourceFunc) Read() (float64, error) {
	return f()
}
