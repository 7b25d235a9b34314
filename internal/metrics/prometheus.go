package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the captioning pipeline
type Metrics struct {
	// Capture metrics
	BatchesProcessed prometheus.Counter
	SamplesProcessed prometheus.Counter
	BatchesDropped   prometheus.Counter
	BatchRMS         prometheus.Histogram

	// Segmentation metrics
	PhrasesEmitted   *prometheus.CounterVec
	PhrasesDiscarded prometheus.Counter
	PhraseDuration   prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests prometheus.Counter
	TranscriptionFailures prometheus.Counter
	TranscriptionEmpty    prometheus.Counter
	TranscriptionDuration prometheus.Histogram

	// Translation metrics
	TranslationRequests prometheus.Counter
	TranslationFailures prometheus.Counter
	TranslationDuration prometheus.Histogram

	// Session metrics
	SessionActive  prometheus.Gauge
	SessionsOpened prometheus.Counter
	LogWriteErrors prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_batches_processed_total",
			Help: "Total number of sample batches fed to the segmenter",
		}),
		SamplesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_samples_processed_total",
			Help: "Total number of mono samples fed to the segmenter",
		}),
		BatchesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_batches_dropped_total",
			Help: "Total number of batches drained while no session was active",
		}),
		BatchRMS: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecap_batch_rms",
			Help:    "RMS level of processed batches",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.0005 to ~0.25
		}),

		PhrasesEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "livecap_phrases_emitted_total",
			Help: "Total number of phrases sent for transcription",
		}, []string{"reason"}),
		PhrasesDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_phrases_discarded_total",
			Help: "Total number of phrases dropped as too short",
		}),
		PhraseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecap_phrase_duration_seconds",
			Help:    "Duration of emitted phrases",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 7), // 0.5s to 32s
		}),

		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionEmpty: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_transcription_empty_total",
			Help: "Total number of transcriptions that returned no text",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecap_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}),

		TranslationRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_translation_requests_total",
			Help: "Total number of translation requests sent",
		}),
		TranslationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_translation_failures_total",
			Help: "Total number of failed translation requests",
		}),
		TranslationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "livecap_translation_duration_seconds",
			Help:    "Duration of translation requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),

		SessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "livecap_session_active",
			Help: "1 while a captioning session is running",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_sessions_opened_total",
			Help: "Total number of sessions started",
		}),
		LogWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "livecap_session_log_errors_total",
			Help: "Total number of failed session log writes",
		}),
	}
}

// NewNop returns metrics registered with a private registry, for tests and
// runs without a metrics endpoint
func NewNop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// RecordPhrase records an emitted phrase
func (m *Metrics) RecordPhrase(reason string, seconds float64) {
	m.PhrasesEmitted.WithLabelValues(reason).Inc()
	m.PhraseDuration.Observe(seconds)
}

// RecordTranscription records one transcription call
func (m *Metrics) RecordTranscription(d time.Duration, err error) {
	m.TranscriptionRequests.Inc()
	m.TranscriptionDuration.Observe(d.Seconds())
	if err != nil {
		m.TranscriptionFailures.Inc()
	}
}

// RecordTranslation records one translation call
func (m *Metrics) RecordTranslation(d time.Duration, err error) {
	m.TranslationRequests.Inc()
	m.TranslationDuration.Observe(d.Seconds())
	if err != nil {
		m.TranslationFailures.Inc()
	}
}

// SetSessionActive updates the session gauge
func (m *Metrics) SetSessionActive(active bool) {
	if active {
		m.SessionActive.Set(1)
		m.SessionsOpened.Inc()
		return
	}
	m.SessionActive.Set(0)
}

// Serve exposes /metrics from gatherer on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
