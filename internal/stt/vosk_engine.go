//go:build vosk

package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/emmett/livecap/internal/audio"
)

// VoskTranscriber transcribes phrases offline with a local Vosk model.
// Endpoint, key and model name in the request are ignored.
type VoskTranscriber struct {
	mu          sync.Mutex
	model       *vosk.VoskModel
	recognizers map[uint32]*vosk.VoskRecognizer
}

// voskResult is the JSON returned by the recognizer
type voskResult struct {
	Text string `json:"text"`
}

// NewVoskTranscriber loads the model at modelPath
func NewVoskTranscriber(modelPath string) (*VoskTranscriber, error) {
	// Suppress Kaldi logging
	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", modelPath, err)
	}
	if model == nil {
		return nil, fmt.Errorf("failed to load model from %s: model returned nil", modelPath)
	}

	return &VoskTranscriber{
		model:       model,
		recognizers: make(map[uint32]*vosk.VoskRecognizer),
	}, nil
}

// recognizer returns the recognizer for rate, creating it on first use.
// Caller holds v.mu.
func (v *VoskTranscriber) recognizer(rate uint32) (*vosk.VoskRecognizer, error) {
	if rec, ok := v.recognizers[rate]; ok {
		return rec, nil
	}
	rec, err := vosk.NewRecognizer(v.model, float64(rate))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer at %d Hz: %w", rate, err)
	}
	v.recognizers[rate] = rec
	return rec, nil
}

// Transcribe feeds the whole phrase to the recognizer and returns its final text
func (v *VoskTranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pcm, err := audio.PCMData(req.Audio)
	if err != nil {
		return "", fmt.Errorf("invalid phrase audio: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.model == nil {
		return "", fmt.Errorf("vosk transcriber closed")
	}

	rec, err := v.recognizer(req.SampleRate)
	if err != nil {
		return "", err
	}

	rec.AcceptWaveform(pcm)

	// FinalResult also resets the recognizer for the next phrase
	var result voskResult
	if err := json.Unmarshal([]byte(rec.FinalResult()), &result); err != nil {
		return "", fmt.Errorf("failed to parse final result: %w", err)
	}

	return result.Text, nil
}

// Name returns the backend name
func (v *VoskTranscriber) Name() string {
	return "vosk"
}

// Close releases the recognizers and the model
func (v *VoskTranscriber) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for rate, rec := range v.recognizers {
		rec.Free()
		delete(v.recognizers, rate)
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}
