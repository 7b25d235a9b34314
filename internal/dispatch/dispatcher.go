// Package dispatch turns a finalized phrase into a published caption:
// encode, transcribe, optionally translate, compose, publish and log.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/display"
	"github.com/emmett/livecap/internal/logging"
	"github.com/emmett/livecap/internal/metrics"
	"github.com/emmett/livecap/internal/segment"
	"github.com/emmett/livecap/internal/stt"
	"github.com/emmett/livecap/internal/translate"
)

// Sink receives one record per published phrase
type Sink interface {
	Record(at time.Time, original, translated string) error
}

// Result is a published phrase
type Result struct {
	PhraseID   string
	Original   string
	Translated string
	Display    string
	At         time.Time
	Duration   float64
}

// Compose builds the display string for a phrase
func Compose(mode config.DisplayMode, original, translated string) string {
	if translated == "" {
		return original
	}
	if mode == config.DisplayBoth {
		return original + "\n" + translated
	}
	return translated
}

// Dispatcher runs the per-phrase network work. It is driven by a single
// goroutine; each call blocks until the phrase is fully handled.
type Dispatcher struct {
	transcriber stt.Transcriber
	translator  translate.Translator
	history     *History
	cell        *display.Cell
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewDispatcher wires a dispatcher. translator may be nil to disable translation.
func NewDispatcher(transcriber stt.Transcriber, translator translate.Translator, cell *display.Cell, m *metrics.Metrics) *Dispatcher {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Dispatcher{
		transcriber: transcriber,
		translator:  translator,
		history:     NewHistory(MaxHistory),
		cell:        cell,
		metrics:     m,
		now:         time.Now,
	}
}

// History returns the translation context kept between phrases
func (d *Dispatcher) History() *History {
	return d.history
}

// Dispatch handles one phrase with the given settings snapshot. It reports
// false when nothing was published; failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, phrase segment.Phrase, cfg config.Config, sink Sink) (Result, bool) {
	fields := logging.PhraseFields(phrase.ID, len(phrase.Samples), phrase.SampleRate)

	wav, err := audio.EncodeWAV(phrase.Samples, phrase.SampleRate)
	if err != nil {
		logging.Warnw("failed to encode phrase", append(fields, "error", err)...)
		return Result{}, false
	}

	start := time.Now()
	raw, err := d.transcriber.Transcribe(ctx, stt.Request{
		URL:        cfg.Transcription.URL,
		APIKey:     cfg.Transcription.APIKey,
		Model:      cfg.Transcription.Model,
		Language:   cfg.Transcription.Language,
		Audio:      wav,
		SampleRate: phrase.SampleRate,
	})
	d.metrics.RecordTranscription(time.Since(start), err)
	if err != nil {
		logging.Warnw("transcription failed", append(fields, "backend", d.transcriber.Name(), "error", err)...)
		return Result{}, false
	}

	original := strings.TrimSpace(raw)
	if original == "" {
		d.metrics.TranscriptionEmpty.Inc()
		logging.Debugw("empty transcription", fields...)
		return Result{}, false
	}

	translated := d.translate(ctx, original, cfg, fields)

	result := Result{
		PhraseID:   phrase.ID,
		Original:   original,
		Translated: translated,
		Display:    Compose(cfg.Display.Mode, original, translated),
		At:         d.now(),
		Duration:   phrase.Duration(),
	}

	d.cell.Set(display.Result{
		Text:       result.Display,
		Original:   original,
		Translated: translated,
		PhraseID:   phrase.ID,
		UpdatedAt:  result.At,
	})

	if sink != nil {
		if err := sink.Record(result.At, original, translated); err != nil {
			d.metrics.LogWriteErrors.Inc()
			logging.Warnw("failed to write session log", append(fields, "error", err)...)
		}
	}

	logging.Infow("phrase published", append(fields, "translated", translated != "")...)
	return result, true
}

func (d *Dispatcher) translate(ctx context.Context, original string, cfg config.Config, fields []interface{}) string {
	target := cfg.Translation.TargetLanguage
	if target == "" || d.translator == nil {
		return ""
	}

	start := time.Now()
	translated, err := d.translator.Translate(ctx, translate.Request{
		URL:            cfg.Translation.URL,
		APIKey:         cfg.Translation.APIKey,
		Model:          cfg.Translation.Model,
		TargetLanguage: target,
		Text:           original,
		History:        d.history.Snapshot(),
	})
	d.metrics.RecordTranslation(time.Since(start), err)
	if err != nil {
		logging.Warnw("translation failed", append(fields, "target", target, "error", err)...)
		return ""
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return ""
	}
	d.history.Push(original, translated)
	return translated
}
