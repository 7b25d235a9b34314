//go:build !vosk

package stt

import (
	"errors"
	"testing"
)

func TestNewVoskTranscriberWithoutTag(t *testing.T) {
	v, err := NewVoskTranscriber("/models/vosk-model-small-ko-0.22")
	if !errors.Is(err, ErrVoskUnavailable) {
		t.Fatalf("Expected ErrVoskUnavailable, got %v", err)
	}
	if v != nil {
		t.Errorf("Expected nil transcriber, got %+v", v)
	}
}
