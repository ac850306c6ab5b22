package adcscope

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestServer serves a fresh CaptureControl on a loopback port and
// returns it with a connected client.
func startTestServer(t *testing.T, capture CaptureConfig) (*CaptureControl, *rpc.Client) {
	t.Helper()
	cc := NewCaptureControl(capture, DefaultSourceConfig, NewClientUpdater())
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go serveRPC(listener, cc)

	client, err := jsonrpc.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Close()
		listener.Close()
		cc.wait()
	})
	return cc, client
}

func TestServerCompleteCapture(t *testing.T) {
	cc, client := startTestServer(t, DefaultCaptureConfig)
	dummy := ""
	var okay bool

	var status ServerStatus
	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.False(t, status.Running)
	assert.Equal(t, "sine", status.SourceKind)
	assert.Equal(t, DefaultCaptureConfig.SampleCount, status.SampleCount)

	var spectrum SpectrumMessage
	assert.Error(t, client.Call("CaptureControl.LastSpectrum", &dummy, &spectrum),
		"no spectrum exists before the first capture")

	bad := CaptureConfig{SampleCount: 0, SamplingInterval: 0.001}
	assert.Error(t, client.Call("CaptureControl.ConfigureCapture", &bad, &okay))
	assert.False(t, okay)

	capture := CaptureConfig{SampleCount: 50, SamplingInterval: 1e-5}
	require.NoError(t, client.Call("CaptureControl.ConfigureCapture", &capture, &okay))
	assert.True(t, okay)
	source := SourceConfig{Kind: "triangle", Frequency: 1000, Min: -1, Max: 1}
	require.NoError(t, client.Call("CaptureControl.ConfigureSource", &source, &okay))
	assert.True(t, okay)

	require.NoError(t, client.Call("CaptureControl.Start", &dummy, &okay))
	assert.True(t, okay)
	cc.wait()

	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.False(t, status.Running)
	assert.Equal(t, "triangle", status.SourceKind)
	assert.Equal(t, 50, status.SamplesTaken)
	assert.NotEmpty(t, status.LastRunID)
	assert.Empty(t, status.LastError)

	require.NoError(t, client.Call("CaptureControl.LastSpectrum", &dummy, &spectrum))
	assert.Equal(t, status.LastRunID, spectrum.RunID)
	assert.Len(t, spectrum.Frequencies, 26)
	assert.Len(t, spectrum.Amplitudes, 26)
	assert.InDelta(t, 50000.0, spectrum.Limits.XMax, 1e-6)

	require.NoError(t, client.Call("CaptureControl.SendAllStatus", &dummy, &okay))
	assert.True(t, okay)
}

func TestServerStop(t *testing.T) {
	long := CaptureConfig{SampleCount: 100000, SamplingInterval: 0.001}
	_, client := startTestServer(t, long)
	dummy := ""
	var okay bool

	assert.Error(t, client.Call("CaptureControl.Stop", &dummy, &okay), "nothing to stop yet")

	require.NoError(t, client.Call("CaptureControl.Start", &dummy, &okay))
	assert.Error(t, client.Call("CaptureControl.Start", &dummy, &okay), "only one capture at a time")
	assert.Error(t, client.Call("CaptureControl.ConfigureCapture", &long, &okay))
	source := SourceConfig{Kind: "constant"}
	assert.Error(t, client.Call("CaptureControl.ConfigureSource", &source, &okay))

	var status ServerStatus
	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.True(t, status.Running)

	// The count advances during the capture, not only at its end.
	assert.Eventually(t, func() bool {
		var s ServerStatus
		return client.Call("CaptureControl.Status", &dummy, &s) == nil && s.Running && s.SamplesTaken > 10
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, client.Call("CaptureControl.Stop", &dummy, &okay))
	assert.True(t, okay)

	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.False(t, status.Running)
	assert.Greater(t, status.SamplesTaken, 0)
	assert.Less(t, status.SamplesTaken, long.SampleCount)
	assert.Empty(t, status.LastError, "a cancelled capture is still analyzed")

	var spectrum SpectrumMessage
	require.NoError(t, client.Call("CaptureControl.LastSpectrum", &dummy, &spectrum))
	assert.Len(t, spectrum.Amplitudes, status.SamplesTaken/2+1)
}

func TestServerBadSource(t *testing.T) {
	cc, client := startTestServer(t, DefaultCaptureConfig)
	dummy := ""
	var okay bool

	source := SourceConfig{Kind: "oscilloscope"}
	require.NoError(t, client.Call("CaptureControl.ConfigureSource", &source, &okay))
	assert.Error(t, client.Call("CaptureControl.Start", &dummy, &okay))
	assert.False(t, okay)

	var status ServerStatus
	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.False(t, status.Running)

	// A source that fails partway leaves its error in the status.
	cc.mu.Lock()
	cc.newSource = func(*SourceConfig, CaptureConfig) (SampleSource, func() error, error) {
		return &countingSource{failAt: 3, failError: assert.AnError}, func() error { return nil }, nil
	}
	cc.mu.Unlock()
	fast := CaptureConfig{SampleCount: 10, SamplingInterval: 1e-5}
	require.NoError(t, client.Call("CaptureControl.ConfigureCapture", &fast, &okay))
	require.NoError(t, client.Call("CaptureControl.Start", &dummy, &okay))
	cc.wait()
	require.NoError(t, client.Call("CaptureControl.Status", &dummy, &status))
	assert.Equal(t, 2, status.SamplesTaken)
	assert.Contains(t, status.LastError, assert.AnError.Error())
}
