package adcscope

import (
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// CaptureControl is the RPC service that configures, starts, and stops
// captures. At most one capture runs at a time.
type CaptureControl struct {
	capture CaptureConfig
	source  SourceConfig

	active bool
	abort  chan struct{}
	done   chan struct{}
	last   *CaptureResult

	status        ServerStatus
	clientUpdates *ClientUpdater
	newSource     func(*SourceConfig, CaptureConfig) (SampleSource, func() error, error)
	mu            sync.Mutex // guards all of the above
}

// ServerStatus the status that CaptureControl reports to clients.
type ServerStatus struct {
	Running          bool
	SourceKind       string
	SampleCount      int
	SamplingInterval float64
	SamplesTaken     int // so far in the current capture, or in the most recent one
	LastRunID        string
	LastError        string
}

// NewCaptureControl creates a CaptureControl with the given initial
// settings, publishing through updater.
func NewCaptureControl(capture CaptureConfig, source SourceConfig, updater *ClientUpdater) *CaptureControl {
	cc := &CaptureControl{
		capture:       capture,
		source:        source,
		clientUpdates: updater,
		newSource:     NewSource,
	}
	cc.status.SourceKind = source.Kind
	cc.status.SampleCount = capture.SampleCount
	cc.status.SamplingInterval = capture.SamplingInterval
	return cc
}

// ConfigureCapture changes the sample count and interval for later captures.
func (cc *CaptureControl) ConfigureCapture(args *CaptureConfig, reply *bool) error {
	UpdateLogger.Printf("ConfigureCapture: %d samples, interval=%vs\n", args.SampleCount, args.SamplingInterval)
	cc.mu.Lock()
	defer cc.mu.Unlock()
	*reply = false
	if cc.active {
		return fmt.Errorf("cannot reconfigure while a capture is running")
	}
	if err := args.Validate(); err != nil {
		return err
	}
	cc.capture = *args
	cc.status.SampleCount = args.SampleCount
	cc.status.SamplingInterval = args.SamplingInterval
	cc.clientUpdates.Send("CAPTURE", *args)
	*reply = true
	return nil
}

// ConfigureSource changes the sample source for later captures.
func (cc *CaptureControl) ConfigureSource(args *SourceConfig, reply *bool) error {
	UpdateLogger.Printf("ConfigureSource: kind=%q\n", args.Kind)
	cc.mu.Lock()
	defer cc.mu.Unlock()
	*reply = false
	if cc.active {
		return fmt.Errorf("cannot change source while a capture is running")
	}
	cc.source = *args
	cc.status.SourceKind = args.Kind
	cc.clientUpdates.Send("SOURCE", *args)
	*reply = true
	return nil
}

// Start opens the configured source and begins a capture in the background.
func (cc *CaptureControl) Start(dummy *string, reply *bool) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	*reply = false
	if cc.active {
		return fmt.Errorf("a capture is already running (you should call Stop)")
	}
	source, closeSource, err := cc.newSource(&cc.source, cc.capture)
	if err != nil {
		return err
	}
	renderer := MultiRenderer{NewPublishRenderer(cc.clientUpdates), &LogRenderer{}, (*statusCounter)(cc)}
	pipeline, err := NewPipeline(cc.capture, source, renderer)
	if err != nil {
		closeSource()
		return err
	}

	cc.active = true
	cc.abort = make(chan struct{})
	cc.done = make(chan struct{})
	cc.status.Running = true
	cc.status.SamplesTaken = 0
	cc.status.LastError = ""
	cc.broadcastUpdate()
	go cc.runCapture(pipeline, closeSource, cc.abort, cc.done)
	*reply = true
	return nil
}

func (cc *CaptureControl) runCapture(p *Pipeline, closeSource func() error, abort, done chan struct{}) {
	defer close(done)
	result, err := p.Run(abort)
	if cerr := closeSource(); cerr != nil {
		ProblemLogger.Printf("closing sample source: %v\n", cerr)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.active = false
	cc.last = result
	cc.status.Running = false
	cc.status.SamplesTaken = result.Series.Len()
	cc.status.LastRunID = result.RunID.String()
	if err != nil {
		cc.status.LastError = err.Error()
		if errors.Is(err, ErrAcquisitionFailure) || errors.Is(err, ErrEmptyCapture) {
			ProblemLogger.Printf("capture %s failed: %v\n", result.RunID, err)
		} else {
			ProblemLogger.Printf("capture %s: unexpected error: %v\n", result.RunID, err)
		}
	}
	cc.broadcastUpdate()
}

// statusCounter is a Renderer that keeps ServerStatus.SamplesTaken current
// while a capture runs.
type statusCounter CaptureControl

func (sc *statusCounter) UpdateTimeDomain(timestamps, values []float64) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.status.SamplesTaken = len(values)
	return nil
}

func (sc *statusCounter) ShowFrequencyDomain(frequencies, amplitudes []float64) error {
	return nil
}

// Stop cancels the running capture and waits for its analysis to finish.
func (cc *CaptureControl) Stop(dummy *string, reply *bool) error {
	cc.mu.Lock()
	*reply = false
	if !cc.active {
		cc.mu.Unlock()
		return fmt.Errorf("no capture is running")
	}
	UpdateLogger.Printf("Stopping capture\n")
	closeIfOpen(cc.abort)
	done := cc.done
	cc.mu.Unlock()

	<-done
	*reply = true
	return nil
}

// wait blocks until the current capture, if any, has finished.
func (cc *CaptureControl) wait() {
	cc.mu.Lock()
	done := cc.done
	cc.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status reports the current server status.
func (cc *CaptureControl) Status(dummy *string, reply *ServerStatus) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	*reply = cc.status
	return nil
}

// LastSpectrum returns the spectrum of the most recent completed analysis.
func (cc *CaptureControl) LastSpectrum(dummy *string, reply *SpectrumMessage) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.last == nil || cc.last.Spectrum == nil {
		return fmt.Errorf("no spectrum has been computed")
	}
	*reply = SpectrumMessage{
		RunID:       cc.last.RunID.String(),
		Frequencies: cc.last.Spectrum.Frequencies(),
		Amplitudes:  cc.last.Spectrum.Amplitudes(),
		Limits:      SpectrumLimits(cc.last.Config.Nyquist(), cc.last.Spectrum.Amplitudes()),
	}
	return nil
}

// SendAllStatus causes a broadcast to clients containing all broadcastable status info
func (cc *CaptureControl) SendAllStatus(dummy *string, reply *bool) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.broadcastUpdate()
	cc.clientUpdates.Send("CAPTURE", cc.capture)
	cc.clientUpdates.Send("SOURCE", cc.source)
	*reply = true
	return nil
}

// broadcastUpdate must be called with cc locked.
func (cc *CaptureControl) broadcastUpdate() {
	cc.clientUpdates.Send("STATUS", cc.status)
}

func closeIfOpen(c chan struct{}) {
	select {
	case <-c:
		ProblemLogger.Println("warning: tried to close an abort channel twice")
	default:
		close(c)
	}
}

// RunRPCServer sets up and runs a permanent JSON-RPC server on portrpc,
// with initial settings from v. It returns only if the listener fails.
func RunRPCServer(portrpc int, updater *ClientUpdater, v *viper.Viper) error {
	capture, source, err := LoadConfig(v)
	if err != nil {
		return err
	}
	UpdateLogger.Printf("adcscope is using config file %s\n", v.ConfigFileUsed())
	captureControl := NewCaptureControl(capture, source, updater)

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			captureControl.mu.Lock()
			captureControl.broadcastUpdate()
			captureControl.mu.Unlock()
		}
	}()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", portrpc))
	if err != nil {
		return fmt.Errorf("listen error: %w", err)
	}
	return serveRPC(listener, captureControl)
}

// serveRPC accepts connections on listener and serves captureControl on
// each, until the listener fails or is closed.
func serveRPC(listener net.Listener, captureControl *CaptureControl) error {
	server := rpc.NewServer()
	if err := server.Register(captureControl); err != nil {
		return err
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("accept error: %w", err)
		}
		UpdateLogger.Printf("new connection established\n")
		go server.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}
