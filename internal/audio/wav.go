package audio

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVHeaderSize is the size of the canonical PCM header written by EncodeWAV
const WAVHeaderSize = 44

// EncodeWAV encodes mono float32 samples as 16-bit PCM WAV at sampleRate.
// Samples are scaled by 32767, clamped to the int16 range and truncated.
func EncodeWAV(samples []float32, sampleRate uint32) ([]byte, error) {
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(FloatToPCM16(s))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: int(sampleRate)},
		Data:           data,
		SourceBitDepth: 16,
	}

	ws := newMemWriteSeeker(WAVHeaderSize + 2*len(samples))
	enc := wav.NewEncoder(ws, int(sampleRate), 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish WAV: %w", err)
	}

	return ws.Bytes(), nil
}

// FloatToPCM16 maps a float sample to a signed 16-bit value
func FloatToPCM16(s float32) int16 {
	v := s * 32767.0
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// PCMData returns the 16-bit mono sample payload of a WAV produced by EncodeWAV
func PCMData(data []byte) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("invalid WAV: %w", err)
	}
	if dec.BitDepth != 16 || dec.NumChans != 1 {
		return nil, fmt.Errorf("unsupported WAV layout: %d-bit, %d channel(s)", dec.BitDepth, dec.NumChans)
	}

	pcm := make([]byte, dec.PCMSize)
	if _, err := io.ReadFull(dec.PCMChunk.R, pcm); err != nil {
		return nil, fmt.Errorf("WAV data chunk truncated: %w", err)
	}
	return pcm, nil
}

// memWriteSeeker is an in-memory io.WriteSeeker; the WAV encoder seeks
// back to patch chunk sizes on Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func newMemWriteSeeker(capacity int) *memWriteSeeker {
	return &memWriteSeeker{buf: make([]byte, 0, capacity)}
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, len(m.buf), max(end, 2*cap(m.buf)))
			copy(grown, m.buf)
			m.buf = grown
		}
		m.buf = m.buf[:end]
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	m.pos = int(abs)
	return abs, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
