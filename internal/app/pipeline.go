package app

import (
	"context"
	"sync"
	"time"

	"github.com/emmett/livecap/internal/audio"
	"github.com/emmett/livecap/internal/config"
	"github.com/emmett/livecap/internal/dispatch"
	"github.com/emmett/livecap/internal/display"
	"github.com/emmett/livecap/internal/logging"
	"github.com/emmett/livecap/internal/metrics"
	"github.com/emmett/livecap/internal/output"
	"github.com/emmett/livecap/internal/segment"
	"github.com/emmett/livecap/internal/session"
)

// RateSource reports the capture sample rate, 0 until the device is running
type RateSource interface {
	SampleRate() uint32
}

// SessionSink is the per-session record writer
type SessionSink interface {
	dispatch.Sink
	Path() string
	Close() error
}

// SinkOpener opens the sink for a session starting at start
type SinkOpener func(dir string, start time.Time) (SessionSink, error)

// OpenSessionLog is the default SinkOpener
func OpenSessionLog(dir string, start time.Time) (SessionSink, error) {
	log, err := output.OpenSessionLog(dir, start)
	if err != nil {
		return nil, err
	}
	return log, nil
}

// Status is a point-in-time view of the pipeline
type Status struct {
	SessionActive bool   `json:"session_active"`
	VADState      string `json:"vad_state"`
	SampleRate    uint32 `json:"sample_rate"`
	Phrases       int    `json:"phrases"`
	LogPath       string `json:"log_path,omitempty"`
	Caption       string `json:"caption,omitempty"`
}

// PipelineDeps collects the collaborators of a Pipeline
type PipelineDeps struct {
	Store      *config.Store
	Buffer     *audio.SampleBuffer
	Rate       RateSource
	Session    *session.Flag
	Dispatcher *dispatch.Dispatcher
	Cell       *display.Cell
	Metrics    *metrics.Metrics
	// Events receives phrase and session events; nil disables them
	Events     output.Formatter
	OpenSink   SinkOpener
}

// Pipeline drains captured audio, segments it into phrases and dispatches
// them. Step and Run must be called from a single goroutine.
type Pipeline struct {
	store      *config.Store
	buffer     *audio.SampleBuffer
	rate       RateSource
	flag       *session.Flag
	dispatcher *dispatch.Dispatcher
	cell       *display.Cell
	metrics    *metrics.Metrics
	events     output.Formatter
	openSink   SinkOpener
	now        func() time.Time

	edges     session.EdgeDetector
	segmenter *segment.Segmenter
	sink      SessionSink

	mu     sync.Mutex
	status Status
}

// NewPipeline creates a pipeline from its collaborators
func NewPipeline(deps PipelineDeps) *Pipeline {
	cfg := deps.Store.Snapshot()

	m := deps.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	openSink := deps.OpenSink
	if openSink == nil {
		openSink = OpenSessionLog
	}

	return &Pipeline{
		store:      deps.Store,
		buffer:     deps.Buffer,
		rate:       deps.Rate,
		flag:       deps.Session,
		dispatcher: deps.Dispatcher,
		cell:       deps.Cell,
		metrics:    m,
		events:     deps.Events,
		openSink:   openSink,
		now:        time.Now,
		segmenter:  segment.NewSegmenter(segmentConfig(cfg)),
	}
}

func segmentConfig(cfg config.Config) segment.Config {
	return segment.Config{
		SilenceChunksToEnd: cfg.VAD.SilenceChunks,
		MaxPhraseSecs:      cfg.VAD.MaxPhraseSecs,
	}
}

func pollInterval(cfg config.Config) time.Duration {
	if cfg.VAD.PollIntervalMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(cfg.VAD.PollIntervalMs) * time.Millisecond
}

// Run steps the pipeline at the configured poll interval until ctx is
// cancelled, then closes any open session sink.
func (p *Pipeline) Run(ctx context.Context) error {
	interval := pollInterval(p.store.Snapshot())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer p.closeSink()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Step(ctx)

			// Pick up a reloaded poll interval
			if next := pollInterval(p.store.Snapshot()); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Step runs one cycle: observe session edges, drain the buffer, advance the
// segmenter and dispatch a finished phrase.
func (p *Pipeline) Step(ctx context.Context) {
	cfg := p.store.Snapshot()

	switch p.edges.Observe(p.flag.Active()) {
	case session.EdgeRising:
		p.startSession(cfg)
	case session.EdgeFalling:
		p.stopSession()
	}

	rate := p.rate.SampleRate()
	p.updateStatus(func(s *Status) { s.SampleRate = rate })
	if rate == 0 {
		return
	}

	batch := p.buffer.Drain()
	if len(batch) == 0 {
		return
	}

	if !p.edges.Last() {
		p.metrics.BatchesDropped.Inc()
		return
	}

	p.metrics.BatchesProcessed.Inc()
	p.metrics.SamplesProcessed.Add(float64(len(batch)))
	p.metrics.BatchRMS.Observe(audio.RMS(batch))

	p.segmenter.SetConfig(segmentConfig(cfg))
	phrase, outcome := p.segmenter.Process(batch, rate, cfg.VAD.SilenceThreshold)
	p.updateStatus(func(s *Status) { s.VADState = p.segmenter.State().String() })

	switch outcome {
	case segment.OutcomeDiscarded:
		p.metrics.PhrasesDiscarded.Inc()
		logging.Debugw("phrase discarded as too short")
	case segment.OutcomeEmitted:
		p.metrics.RecordPhrase(string(phrase.Reason), phrase.Duration())
		logging.Debugw("phrase finalized", append(logging.PhraseFields(phrase.ID, len(phrase.Samples), phrase.SampleRate), "reason", phrase.Reason)...)
		p.dispatch(ctx, phrase, cfg)
	}
}

func (p *Pipeline) dispatch(ctx context.Context, phrase segment.Phrase, cfg config.Config) {
	var sink dispatch.Sink
	if p.sink != nil {
		sink = p.sink
	}

	result, ok := p.dispatcher.Dispatch(ctx, phrase, cfg, sink)
	if !ok {
		return
	}

	var index int
	p.updateStatus(func(s *Status) {
		s.Phrases++
		index = s.Phrases
		s.Caption = result.Display
	})

	if p.events != nil {
		err := p.events.WriteResult(output.PhraseResult{
			Index:      index,
			PhraseID:   result.PhraseID,
			Original:   result.Original,
			Translated: result.Translated,
			Display:    result.Display,
			Duration:   result.Duration,
			Timestamp:  result.At,
		})
		if err != nil {
			logging.Warnw("failed to write phrase event", "error", err)
		}
	}
}

func (p *Pipeline) startSession(cfg config.Config) {
	p.segmenter.Reset()
	p.dispatcher.History().Reset()
	p.metrics.SetSessionActive(true)

	sink, err := p.openSink(cfg.Session.Dir, p.now())
	if err != nil {
		// Captioning still runs without a log file.
		logging.Warnw("failed to open session log", "dir", cfg.Session.Dir, "error", err)
		sink = nil
	}
	p.sink = sink

	logPath := ""
	if sink != nil {
		logPath = sink.Path()
	}
	p.updateStatus(func(s *Status) {
		s.SessionActive = true
		s.LogPath = logPath
		s.VADState = segment.StateIdle.String()
	})

	logging.Infow("session started", "log", logPath)
	p.writeEvent("session_start", logPath)
}

func (p *Pipeline) stopSession() {
	p.closeSink()
	p.segmenter.Reset()
	p.cell.Clear()
	p.metrics.SetSessionActive(false)

	p.updateStatus(func(s *Status) {
		s.SessionActive = false
		s.Caption = ""
		s.VADState = segment.StateIdle.String()
	})

	logging.Infow("session stopped")
	p.writeEvent("session_stop", "")
}

func (p *Pipeline) closeSink() {
	if p.sink == nil {
		return
	}
	if err := p.sink.Close(); err != nil {
		logging.Warnw("failed to close session log", "path", p.sink.Path(), "error", err)
	}
	p.sink = nil
}

func (p *Pipeline) writeEvent(eventType, message string) {
	if p.events == nil {
		return
	}
	if err := p.events.WriteEvent(eventType, message); err != nil {
		logging.Warnw("failed to write event", "type", eventType, "error", err)
	}
}

func (p *Pipeline) updateStatus(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// Status returns a snapshot of the pipeline state; safe from any goroutine
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
