package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrNoDevice is returned when no capture device is available
	ErrNoDevice = errors.New("no audio input device found")

	// ErrUnsupportedFormat is returned when the device delivers a sample
	// format the converter cannot handle
	ErrUnsupportedFormat = errors.New("unsupported sample format")
)

// SampleFormat is the encoding of the raw frames delivered by the device
type SampleFormat int

const (
	FormatNative SampleFormat = iota
	FormatF32
	FormatS16
)

// String returns the config name of the format
func (f SampleFormat) String() string {
	switch f {
	case FormatF32:
		return "f32"
	case FormatS16:
		return "s16"
	default:
		return "native"
	}
}

// BytesPerSample returns the size of one sample of one channel
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatF32:
		return 4
	case FormatS16:
		return 2
	default:
		return 0
	}
}

// ParseSampleFormat parses a config value ("", "native", "f32", "s16")
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native":
		return FormatNative, nil
	case "f32", "float32":
		return FormatF32, nil
	case "s16", "int16":
		return FormatS16, nil
	default:
		return FormatNative, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// DeviceName selects a device by exact name or ID.
	// Empty string = use default device. An unknown name falls back to
	// the default device with a warning.
	DeviceName string

	// SampleRate in Hz. 0 = device native rate
	SampleRate uint32

	// Channels requested from the device. 0 = device native channel count
	Channels uint32

	// Format requested from the device
	Format SampleFormat

	// BufferFrames is the period size in frames. 0 = backend default
	BufferFrames uint32
}

// Capturer is the interface for audio capture implementations
type Capturer interface {
	// Start opens the device and begins appending samples to the buffer
	Start(ctx context.Context) error

	// Stop stops audio capture
	Stop() error

	// SampleRate returns the stream rate, or 0 before the stream is running
	SampleRate() uint32

	// IsRunning returns true if capture is currently active
	IsRunning() bool
}

// NewCapturer creates a new audio capturer that feeds buf
func NewCapturer(config CaptureConfig, buf *SampleBuffer) (Capturer, error) {
	c, err := NewMalgoCapturer(config, buf)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeFrames converts interleaved raw frames into mono float32 samples,
// appending to dst. Integer samples are normalized by 32768 and
// multi-channel frames are averaged.
func DecodeFrames(dst []float32, raw []byte, format SampleFormat, channels int) ([]float32, error) {
	if channels < 1 {
		channels = 1
	}

	size := format.BytesPerSample()
	if size == 0 {
		return dst, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	frameBytes := size * channels
	frames := len(raw) / frameBytes

	for i := 0; i < frames; i++ {
		frame := raw[i*frameBytes : (i+1)*frameBytes]

		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += decodeSample(frame[ch*size:], format)
		}

		if channels == 1 {
			dst = append(dst, sum)
		} else {
			dst = append(dst, sum/float32(channels))
		}
	}

	return dst, nil
}

func decodeSample(b []byte, format SampleFormat) float32 {
	if format == FormatF32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return float32(int16(binary.LittleEndian.Uint16(b))) / 32768.0
}
