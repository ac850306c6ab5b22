package adcscope

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// RunStarter is implemented by renderers that want to know which run they
// are about to display. Pipeline.Run calls StartRun before the first sample.
type RunStarter interface {
	StartRun(runID ulid.ULID, config CaptureConfig)
}

// StartRun forwards to every renderer that implements RunStarter.
func (mr MultiRenderer) StartRun(runID ulid.ULID, config CaptureConfig) {
	for _, r := range mr {
		if rs, ok := r.(RunStarter); ok {
			rs.StartRun(runID, config)
		}
	}
}

// StartRun records the Nyquist frequency for the spectrum summary.
func (lr *LogRenderer) StartRun(runID ulid.ULID, config CaptureConfig) {
	lr.Nyquist = config.Nyquist()
}

// TimeDomainMessage is the state of a TIMEDOMAIN client update.
type TimeDomainMessage struct {
	RunID  string
	Times  []float64
	Values []float64
	Live   AxisLimits // autoscaled view of the most recent data
	Full   AxisLimits // view of the whole capture so far
}

// SpectrumMessage is the state of a SPECTRUM client update.
type SpectrumMessage struct {
	RunID       string
	Frequencies []float64
	Amplitudes  []float64
	Limits      AxisLimits
}

// PublishRenderer is a Renderer that sends each update to clients through a
// ClientUpdater. It only queues messages, so it never waits on the network.
type PublishRenderer struct {
	updater *ClientUpdater
	runID   ulid.ULID
	nyquist float64
}

// NewPublishRenderer creates a PublishRenderer that sends through updater.
func NewPublishRenderer(updater *ClientUpdater) *PublishRenderer {
	return &PublishRenderer{updater: updater}
}

// StartRun records the run ID and Nyquist frequency for later messages.
func (pr *PublishRenderer) StartRun(runID ulid.ULID, config CaptureConfig) {
	pr.runID = runID
	pr.nyquist = config.Nyquist()
}

// UpdateTimeDomain queues a TIMEDOMAIN message. The slices are not copied,
// so the caller must not modify them afterwards.
func (pr *PublishRenderer) UpdateTimeDomain(timestamps, values []float64) error {
	if len(timestamps) != len(values) {
		return fmt.Errorf("time domain has %d timestamps but %d values", len(timestamps), len(values))
	}
	msg := TimeDomainMessage{RunID: pr.runID.String(), Times: timestamps, Values: values}
	msg.Live, _ = LiveLimits(timestamps, values)
	msg.Full, _ = FrozenLimits(timestamps, values)
	pr.updater.Send("TIMEDOMAIN", msg)
	return nil
}

// ShowFrequencyDomain queues a SPECTRUM message.
func (pr *PublishRenderer) ShowFrequencyDomain(frequencies, amplitudes []float64) error {
	if len(frequencies) != len(amplitudes) {
		return fmt.Errorf("spectrum has %d frequencies but %d amplitudes", len(frequencies), len(amplitudes))
	}
	pr.updater.Send("SPECTRUM", SpectrumMessage{
		RunID:       pr.runID.String(),
		Frequencies: frequencies,
		Amplitudes:  amplitudes,
		Limits:      SpectrumLimits(pr.nyquist, amplitudes),
	})
	return nil
}
