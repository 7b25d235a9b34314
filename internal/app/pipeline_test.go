package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/dispatch"
	"github.com/emmett/livecap/internal/display"
	"github.com/emmett/livecap/internal/metrics"
	"github.com/emmett/livecap/internal/output"
	"github.com/emmett/livecap/internal/session"
	"github.com/emmett/livecap/internal/stt"
)

type fixedRate struct {
	rate atomic.Uint32
}

func (f *fixedRate) SampleRate() uint32 { return f.rate.Load() }

type countingTranscriber struct {
	calls int
	text  string
}

func (c *countingTranscriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	c.calls++
	return c.text, nil
}

func (c *countingTranscriber) Name() string { return "counting" }
func (c *countingTranscriber) Close() error { return nil }

type memorySink struct {
	records []string
	closes  int
}

func (m *memorySink) Record(at time.Time, original, translated string) error {
	m.records = append(m.records, original)
	return nil
}

func (m *memorySink) Path() string { return "memory" }

func (m *memorySink) Close() error {
	m.closes++
	return nil
}

type harness struct {
	pipeline    *Pipeline
	buffer      *audio.SampleBuffer
	rate        *fixedRate
	flag        *session.Flag
	cell        *display.Cell
	transcriber *countingTranscriber
	metrics     *metrics.Metrics
	sinks       []*memorySink
	events      *bytes.Buffer
}

const (
	hRate  = 16000
	hBatch = 800
)

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Translation.TargetLanguage = ""

	h := &harness{
		buffer:      audio.NewSampleBuffer(0),
		rate:        &fixedRate{},
		flag:        session.NewFlag(false),
		cell:        display.NewCell(),
		transcriber: &countingTranscriber{text: "hello"},
		metrics:     metrics.NewNop(),
		events:      &bytes.Buffer{},
	}
	h.rate.rate.Store(hRate)

	h.pipeline = NewPipeline(PipelineDeps{
		Store:      config.NewStore(cfg),
		Buffer:     h.buffer,
		Rate:       h.rate,
		Session:    h.flag,
		Dispatcher: dispatch.NewDispatcher(h.transcriber, nil, h.cell, h.metrics),
		Cell:       h.cell,
		Metrics:    h.metrics,
		Events:     output.NewPlainTextFormatter(h.events),
		OpenSink: func(dir string, start time.Time) (SessionSink, error) {
			s := &memorySink{}
			h.sinks = append(h.sinks, s)
			return s, nil
		},
	})
	return h
}

func (h *harness) step(batch []float32) {
	h.buffer.Append(batch)
	h.pipeline.Step(context.Background())
}

func loud(n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		b[i] = 0.2
	}
	return b
}

func quiet(n int) []float32 {
	return make([]float32, n)
}

// speakPhrase feeds one second of speech followed by enough silence to end it
func (h *harness) speakPhrase() {
	for i := 0; i < 20; i++ {
		h.step(loud(hBatch))
	}
	for i := 0; i < 10; i++ {
		h.step(quiet(hBatch))
	}
}

func TestPipelinePublishesPhrase(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)

	h.speakPhrase()

	if h.transcriber.calls != 1 {
		t.Fatalf("Expected 1 transcription, got %d", h.transcriber.calls)
	}
	if h.cell.Text() != "hello" {
		t.Errorf("Expected published caption, got %q", h.cell.Text())
	}
	if len(h.sinks) != 1 || len(h.sinks[0].records) != 1 {
		t.Fatalf("Expected one session with one record, got %+v", h.sinks)
	}

	status := h.pipeline.Status()
	if !status.SessionActive || status.Phrases != 1 || status.Caption != "hello" || status.LogPath != "memory" {
		t.Errorf("unexpected status %+v", status)
	}
	if !strings.Contains(h.events.String(), "hello") {
		t.Errorf("Expected phrase event, got %q", h.events.String())
	}
}

func TestPipelineSkipsWithoutSampleRate(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)
	h.rate.rate.Store(0)

	h.step(loud(hBatch))

	if h.buffer.Len() != hBatch {
		t.Errorf("buffer must not be drained before the rate is known, got %d", h.buffer.Len())
	}
}

func TestPipelineDiscardsAudioWhileInactive(t *testing.T) {
	h := newHarness(t)

	h.speakPhrase()

	if h.transcriber.calls != 0 {
		t.Errorf("no dispatch expected while inactive, got %d", h.transcriber.calls)
	}
	if h.buffer.Len() != 0 {
		t.Error("inactive batches must still be drained")
	}
	if got := testutil.ToFloat64(h.metrics.BatchesDropped); got != 30 {
		t.Errorf("Expected 30 dropped batches, got %v", got)
	}
}

func TestPipelineShortPhraseNotDispatched(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)

	h.step(loud(hBatch))
	for i := 0; i < 10; i++ {
		h.step(quiet(hBatch))
	}

	if h.transcriber.calls != 0 {
		t.Errorf("short phrase must not reach the transcriber, got %d calls", h.transcriber.calls)
	}
	if got := testutil.ToFloat64(h.metrics.PhrasesDiscarded); got != 1 {
		t.Errorf("Expected 1 discarded phrase, got %v", got)
	}
}

func TestPipelineDoubleSessionEndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)
	h.speakPhrase()

	h.flag.Set(false)
	h.pipeline.Step(context.Background())

	if h.cell.Text() != "" {
		t.Fatalf("session end must clear the caption, got %q", h.cell.Text())
	}
	if h.sinks[0].closes != 1 {
		t.Fatalf("Expected sink closed once, got %d", h.sinks[0].closes)
	}

	h.cell.Set(display.Result{Text: "external"})
	h.flag.Set(false)
	h.pipeline.Step(context.Background())
	h.pipeline.Step(context.Background())

	if h.sinks[0].closes != 1 {
		t.Errorf("second end must not close again, got %d", h.sinks[0].closes)
	}
	if h.cell.Text() != "external" {
		t.Errorf("second end must not clear again, got %q", h.cell.Text())
	}
	if h.pipeline.Status().SessionActive {
		t.Error("Expected inactive status")
	}
}

func TestPipelineSessionEndObservedWithoutAudio(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)
	h.speakPhrase()

	h.rate.rate.Store(0)
	h.flag.Set(false)
	h.pipeline.Step(context.Background())

	if h.cell.Text() != "" {
		t.Errorf("caption must clear even when no audio flows, got %q", h.cell.Text())
	}
}

func TestPipelineSessionRestartDropsPartialPhrase(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)

	for i := 0; i < 20; i++ {
		h.step(loud(hBatch))
	}
	h.flag.Set(false)
	h.step(quiet(hBatch))
	h.flag.Set(true)
	for i := 0; i < 10; i++ {
		h.step(quiet(hBatch))
	}

	if h.transcriber.calls != 0 {
		t.Errorf("partial phrase must not survive a session restart, got %d calls", h.transcriber.calls)
	}
	if len(h.sinks) != 2 {
		t.Errorf("Expected a new sink per session, got %d", len(h.sinks))
	}
}

func TestPipelineSessionStartResetsHistory(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)
	h.pipeline.Step(context.Background())

	history := h.pipeline.dispatcher.History()
	history.Push("old", "OLD")

	h.flag.Set(false)
	h.pipeline.Step(context.Background())
	h.flag.Set(true)
	h.pipeline.Step(context.Background())

	if history.Len() != 0 {
		t.Errorf("history must be empty after a new session starts, got %d", history.Len())
	}
}

func TestPipelineSinkOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.pipeline.openSink = func(string, time.Time) (SessionSink, error) {
		return nil, errors.New("read-only filesystem")
	}
	h.flag.Set(true)

	h.speakPhrase()

	if h.cell.Text() != "hello" {
		t.Errorf("captioning must continue without a log, got %q", h.cell.Text())
	}
}

func TestPipelineRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.flag.Set(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- h.pipeline.Run(ctx)
	}()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
