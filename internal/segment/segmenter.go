// Package segment turns a stream of sample batches into finalized phrases
// using an RMS voice activity detector.
package segment

import (
	"github.com/google/uuid"

	"github.com/emmett/livecap/internal/audio"
)

// Config holds segmentation limits
type Config struct {
	// SilenceChunksToEnd is the number of consecutive silent batches that end a phrase.
	// At a 50ms poll interval: 10 batches = 500ms of silence
	SilenceChunksToEnd int

	// MaxPhraseSecs forces a phrase to end once it holds more than this much audio
	MaxPhraseSecs int
}

// DefaultConfig returns the default segmentation limits
func DefaultConfig() Config {
	return Config{
		SilenceChunksToEnd: 10,
		MaxPhraseSecs:      30,
	}
}

// State is the VAD state of the segmenter
type State int

const (
	StateIdle State = iota
	StateSpeaking
)

func (s State) String() string {
	if s == StateSpeaking {
		return "speaking"
	}
	return "idle"
}

// Outcome is the result of processing one batch
type Outcome int

const (
	// OutcomeNone means the phrase is still open or nothing is being accumulated
	OutcomeNone Outcome = iota
	// OutcomeEmitted means a phrase was finalized and returned
	OutcomeEmitted
	// OutcomeDiscarded means a phrase ended but was too short to keep
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmitted:
		return "emitted"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "none"
	}
}

// Reason records why a phrase ended
type Reason string

const (
	ReasonSilence     Reason = "silence"
	ReasonMaxDuration Reason = "max_duration"
)

// Phrase is a finalized span of speech, trailing silence removed
type Phrase struct {
	ID         string
	Samples    []float32
	SampleRate uint32
	Reason     Reason
}

// Duration returns the phrase length in seconds
func (p Phrase) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// Segmenter accumulates voiced audio into phrases. It is owned by a single
// goroutine and is not safe for concurrent use.
type Segmenter struct {
	config Config

	state        State
	phrase       []float32
	silenceCount int
	// samples in the current run of trailing silent batches
	trailingSilent int
}

// NewSegmenter creates a segmenter; non-positive limits fall back to defaults
func NewSegmenter(config Config) *Segmenter {
	def := DefaultConfig()
	if config.SilenceChunksToEnd <= 0 {
		config.SilenceChunksToEnd = def.SilenceChunksToEnd
	}
	if config.MaxPhraseSecs <= 0 {
		config.MaxPhraseSecs = def.MaxPhraseSecs
	}
	return &Segmenter{config: config}
}

// SetConfig changes the limits for subsequent batches
func (s *Segmenter) SetConfig(config Config) {
	if config.SilenceChunksToEnd > 0 {
		s.config.SilenceChunksToEnd = config.SilenceChunksToEnd
	}
	if config.MaxPhraseSecs > 0 {
		s.config.MaxPhraseSecs = config.MaxPhraseSecs
	}
}

// Process classifies one batch and advances the state machine. When the
// outcome is OutcomeEmitted the returned phrase owns its samples.
func (s *Segmenter) Process(batch []float32, sampleRate uint32, threshold float64) (Phrase, Outcome) {
	if len(batch) == 0 || sampleRate == 0 {
		return Phrase{}, OutcomeNone
	}

	voiced := audio.IsVoiced(batch, threshold)

	if s.state == StateIdle {
		if voiced {
			s.state = StateSpeaking
			s.silenceCount = 0
			s.trailingSilent = 0
			s.phrase = append(s.phrase[:0], batch...)
		}
		return Phrase{}, OutcomeNone
	}

	s.phrase = append(s.phrase, batch...)
	if voiced {
		s.silenceCount = 0
		s.trailingSilent = 0
	} else {
		s.silenceCount++
		s.trailingSilent += len(batch)
	}

	var reason Reason
	switch {
	case s.silenceCount >= s.config.SilenceChunksToEnd:
		reason = ReasonSilence
	case uint64(len(s.phrase)) > uint64(sampleRate)*uint64(s.config.MaxPhraseSecs):
		reason = ReasonMaxDuration
	default:
		return Phrase{}, OutcomeNone
	}

	return s.finalize(sampleRate, reason)
}

func (s *Segmenter) finalize(sampleRate uint32, reason Reason) (Phrase, Outcome) {
	keep := len(s.phrase) - s.trailingSilent
	if keep < 0 {
		keep = 0
	}

	var phrase Phrase
	outcome := OutcomeDiscarded
	if keep > int(sampleRate/2) {
		samples := make([]float32, keep)
		copy(samples, s.phrase[:keep])
		phrase = Phrase{
			ID:         uuid.NewString(),
			Samples:    samples,
			SampleRate: sampleRate,
			Reason:     reason,
		}
		outcome = OutcomeEmitted
	}

	s.Reset()
	return phrase, outcome
}

// Reset drops any partial phrase and returns to Idle
func (s *Segmenter) Reset() {
	s.state = StateIdle
	s.phrase = s.phrase[:0]
	s.silenceCount = 0
	s.trailingSilent = 0
}

// State returns the current VAD state
func (s *Segmenter) State() State {
	return s.state
}

// SilenceCount returns the number of consecutive silent batches in the open phrase
func (s *Segmenter) SilenceCount() int {
	return s.silenceCount
}

// Len returns the number of samples accumulated in the open phrase
func (s *Segmenter) Len() int {
	return len(s.phrase)
}
