package audio

import (
	"sync"
)

// SampleBuffer is an append-only buffer of mono float32 samples.
// The capture callback appends to it and the segmentation loop drains it.
// Both operations hold the lock only for a slice copy, so the audio thread
// never waits on the consumer.
type SampleBuffer struct {
	mu       sync.Mutex
	samples  []float32
	capacity int
	total    uint64
}

// NewSampleBuffer creates a buffer with the given capacity in samples.
// Every drain starts the next batch at this capacity again, so a backlog
// from a stalled consumer is not carried forward.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleBuffer{
		samples:  make([]float32, 0, capacity),
		capacity: capacity,
	}
}

// Append adds samples to the end of the buffer
func (b *SampleBuffer) Append(samples []float32) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.total += uint64(len(samples))
	b.mu.Unlock()
}

// Drain returns every buffered sample and empties the buffer.
// Returns nil when nothing is buffered.
func (b *SampleBuffer) Drain() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.samples) == 0 {
		return nil
	}

	out := b.samples
	b.samples = make([]float32, 0, b.capacity)
	return out
}

// Len returns the number of samples waiting to be drained
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Total returns the number of samples ever appended
func (b *SampleBuffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
