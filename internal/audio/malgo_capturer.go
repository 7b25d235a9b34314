package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/emmett/livecap/internal/logging"
)

// MalgoCapturer implements the Capturer interface using malgo
type MalgoCapturer struct {
	config       CaptureConfig
	buf          *SampleBuffer
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	sampleRate   atomic.Uint32
	running      bool
	mu           sync.RWMutex
	stopChan     chan struct{}
	wg           sync.WaitGroup

	// Touched only from the audio callback
	format   SampleFormat
	channels int
	scratch  []float32
}

// NewMalgoCapturer creates a new malgo-based audio capturer
func NewMalgoCapturer(config CaptureConfig, buf *SampleBuffer) (*MalgoCapturer, error) {
	if buf == nil {
		return nil, fmt.Errorf("sample buffer is required")
	}
	return &MalgoCapturer{
		config:   config,
		buf:      buf,
		stopChan: make(chan struct{}),
	}, nil
}

// Start opens the selected device and begins capture. Errors here are
// fatal for capture only; callers log them and keep the pipeline running.
func (m *MalgoCapturer) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("capturer is already running")
	}
	m.running = true
	m.mu.Unlock()

	if err := m.open(); err != nil {
		m.release()
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return err
	}

	// Stop on context cancellation
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-ctx.Done():
			go m.Stop()
		case <-m.stopChan:
		}
	}()

	return nil
}

func (m *MalgoCapturer) open() error {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoContext = malgoCtx

	devices, err := enumerateDevices(malgoCtx)
	if err != nil {
		return err
	}
	selected, fellBack, err := SelectDevice(devices, m.config.DeviceName)
	if err != nil {
		return err
	}
	if fellBack {
		logging.Warnw("input device not found, using default", "requested", m.config.DeviceName, "device", selected.Name)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.DeviceID = selected.id.Pointer()
	deviceConfig.Capture.Format = toMalgoFormat(m.config.Format)
	deviceConfig.Capture.Channels = m.config.Channels
	deviceConfig.SampleRate = m.config.SampleRate
	if m.config.BufferFrames > 0 {
		deviceConfig.PeriodSizeInFrames = m.config.BufferFrames
	}

	callbacks := malgo.DeviceCallbacks{
		Data: m.onData,
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize device %q: %w", selected.Name, err)
	}
	m.device = device

	// Negotiated stream parameters; the callback only runs after Start
	format, err := fromMalgoFormat(device.CaptureFormat())
	if err != nil {
		return err
	}
	m.format = format
	m.channels = int(device.CaptureChannels())
	if m.channels < 1 {
		m.channels = 1
	}

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.sampleRate.Store(device.SampleRate())

	logging.Infow("audio capture started",
		"device", selected.Name,
		"sample_rate", device.SampleRate(),
		"channels", m.channels,
		"format", m.format.String())

	return nil
}

// onData runs on the audio thread
func (m *MalgoCapturer) onData(_, input []byte, _ uint32) {
	samples, err := DecodeFrames(m.scratch[:0], input, m.format, m.channels)
	if err != nil {
		return
	}
	m.scratch = samples
	m.buf.Append(samples)
}

// Stop stops audio capture
func (m *MalgoCapturer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)

	var stopErr error
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			stopErr = fmt.Errorf("failed to stop device: %w", err)
		}
	}
	m.release()

	m.wg.Wait()
	return stopErr
}

func (m *MalgoCapturer) release() {
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoContext != nil {
		_ = m.malgoContext.Uninit()
		m.malgoContext.Free()
		m.malgoContext = nil
	}
}

// SampleRate returns the negotiated stream rate, or 0 before start
func (m *MalgoCapturer) SampleRate() uint32 {
	return m.sampleRate.Load()
}

// IsRunning returns true if capture is currently active
func (m *MalgoCapturer) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func toMalgoFormat(f SampleFormat) malgo.FormatType {
	switch f {
	case FormatF32:
		return malgo.FormatF32
	case FormatS16:
		return malgo.FormatS16
	default:
		return malgo.FormatUnknown
	}
}

func fromMalgoFormat(f malgo.FormatType) (SampleFormat, error) {
	switch f {
	case malgo.FormatF32:
		return FormatF32, nil
	case malgo.FormatS16:
		return FormatS16, nil
	default:
		return FormatNative, fmt.Errorf("%w: malgo format %d", ErrUnsupportedFormat, f)
	}
}
