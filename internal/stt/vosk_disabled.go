//go:build !vosk

package stt

import "context"

// VoskTranscriber is unavailable in this build; NewVoskTranscriber always
// fails with ErrVoskUnavailable.
type VoskTranscriber struct{}

// NewVoskTranscriber reports that the offline backend is not compiled in
func NewVoskTranscriber(modelPath string) (*VoskTranscriber, error) {
	return nil, ErrVoskUnavailable
}

func (v *VoskTranscriber) Transcribe(ctx context.Context, req Request) (string, error) {
	return "", ErrVoskUnavailable
}

func (v *VoskTranscriber) Name() string {
	return "vosk"
}

func (v *VoskTranscriber) Close() error {
	return nil
}
