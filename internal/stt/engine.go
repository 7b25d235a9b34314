package stt

import (
	"context"
	"errors"
	"fmt"
)

// ErrVoskUnavailable is returned by NewVoskTranscriber in builds without
// the vosk tag
var ErrVoskUnavailable = errors.New("vosk backend not compiled in (rebuild with -tags vosk)")

// Request is a single phrase to transcribe
type Request struct {
	// URL is the transcription endpoint (HTTP backend only)
	URL string

	// APIKey is sent as a bearer token when non-empty
	APIKey string

	// Model is the server-side model name, e.g. "large-v3"
	Model string

	// Language is the spoken language code, e.g. "ko"
	Language string

	// Audio is a complete mono 16-bit PCM WAV file
	Audio []byte

	// SampleRate is the rate the WAV was encoded at
	SampleRate uint32
}

// Transcriber converts one phrase of speech to text
type Transcriber interface {
	// Transcribe returns the recognized text, untrimmed. Callers treat
	// empty or whitespace-only text as no result.
	Transcribe(ctx context.Context, req Request) (string, error)

	// Name identifies the backend in logs and metrics
	Name() string

	// Close releases resources
	Close() error
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transcription request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("transcription request failed with status %d: %s", e.StatusCode, e.Body)
}
