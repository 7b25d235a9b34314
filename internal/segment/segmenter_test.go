package segment

import (
	"testing"
)

const (
	testRate      = 16000
	testBatch     = 800 // 50ms at 16kHz
	testThreshold = 0.003
)

func voiced(n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		if i%2 == 0 {
			b[i] = 0.1
		} else {
			b[i] = -0.1
		}
	}
	return b
}

func silent(n int) []float32 {
	return make([]float32, n)
}

func feed(t *testing.T, s *Segmenter, batch []float32) (Phrase, Outcome) {
	t.Helper()
	return s.Process(batch, testRate, testThreshold)
}

func TestIdleStaysIdleOnSilence(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	for i := 0; i < 50; i++ {
		if _, out := feed(t, s, silent(testBatch)); out != OutcomeNone {
			t.Fatalf("batch %d: expected no outcome, got %v", i, out)
		}
	}
	if s.State() != StateIdle {
		t.Errorf("Expected idle, got %v", s.State())
	}
	if s.Len() != 0 {
		t.Errorf("Expected empty accumulator, got %d samples", s.Len())
	}
}

func TestVoicedBatchStartsPhrase(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	if _, out := feed(t, s, voiced(testBatch)); out != OutcomeNone {
		t.Fatalf("Expected no outcome, got %v", out)
	}
	if s.State() != StateSpeaking {
		t.Errorf("Expected speaking, got %v", s.State())
	}
	if s.Len() != testBatch {
		t.Errorf("Expected accumulator to hold the batch, got %d", s.Len())
	}
	if s.SilenceCount() != 0 {
		t.Errorf("Expected silence count 0, got %d", s.SilenceCount())
	}
}

func TestFinalizeOnTenthSilentBatch(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	for i := 0; i < 20; i++ {
		feed(t, s, voiced(testBatch))
	}
	for i := 1; i <= 9; i++ {
		if _, out := feed(t, s, silent(testBatch)); out != OutcomeNone {
			t.Fatalf("silent batch %d finalized early: %v", i, out)
		}
	}
	if s.SilenceCount() != 9 {
		t.Fatalf("Expected silence count 9, got %d", s.SilenceCount())
	}

	phrase, out := feed(t, s, silent(testBatch))
	if out != OutcomeEmitted {
		t.Fatalf("Expected emitted on 10th silent batch, got %v", out)
	}
	if len(phrase.Samples) != 20*testBatch {
		t.Errorf("Expected trailing silence trimmed to %d samples, got %d", 20*testBatch, len(phrase.Samples))
	}
	if phrase.Reason != ReasonSilence {
		t.Errorf("Expected reason silence, got %q", phrase.Reason)
	}
	if phrase.SampleRate != testRate {
		t.Errorf("Expected rate %d, got %d", testRate, phrase.SampleRate)
	}
	if phrase.ID == "" {
		t.Error("Expected phrase ID")
	}
	if phrase.Duration() != 1.0 {
		t.Errorf("Expected 1s phrase, got %v", phrase.Duration())
	}
	if s.State() != StateIdle || s.Len() != 0 || s.SilenceCount() != 0 {
		t.Errorf("segmenter not reset: state=%v len=%d silence=%d", s.State(), s.Len(), s.SilenceCount())
	}
}

func TestMaxDurationForcesFinalize(t *testing.T) {
	s := NewSegmenter(Config{SilenceChunksToEnd: 10, MaxPhraseSecs: 1})
	const rate = 100

	for i := 0; i < 3; i++ {
		if _, out := s.Process(voiced(30), rate, testThreshold); out != OutcomeNone {
			t.Fatalf("batch %d: unexpected %v at %d samples", i, out, s.Len())
		}
	}

	phrase, out := s.Process(voiced(30), rate, testThreshold)
	if out != OutcomeEmitted {
		t.Fatalf("Expected forced finalize above cap, got %v", out)
	}
	if phrase.Reason != ReasonMaxDuration {
		t.Errorf("Expected max_duration, got %q", phrase.Reason)
	}
	if len(phrase.Samples) != 120 {
		t.Errorf("Expected 120 samples, got %d", len(phrase.Samples))
	}
}

func TestShortPhraseDiscarded(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	feed(t, s, voiced(testBatch))
	var out Outcome
	var phrase Phrase
	for i := 0; i < 10; i++ {
		phrase, out = feed(t, s, silent(testBatch))
	}

	if out != OutcomeDiscarded {
		t.Fatalf("Expected discarded, got %v", out)
	}
	if phrase.Samples != nil {
		t.Errorf("discarded phrase must carry no samples, got %d", len(phrase.Samples))
	}
	if s.State() != StateIdle {
		t.Errorf("Expected idle after discard, got %v", s.State())
	}
}

func TestHalfSecondBoundary(t *testing.T) {
	// Exactly rate/2 samples is not longer than rate/2.
	s := NewSegmenter(DefaultConfig())
	feed(t, s, voiced(testRate/2))
	var out Outcome
	for i := 0; i < 10; i++ {
		_, out = feed(t, s, silent(testBatch))
	}
	if out != OutcomeDiscarded {
		t.Fatalf("Expected discard at exactly rate/2, got %v", out)
	}

	feed(t, s, voiced(testRate/2+1))
	for i := 0; i < 10; i++ {
		_, out = feed(t, s, silent(testBatch))
	}
	if out != OutcomeEmitted {
		t.Fatalf("Expected emit above rate/2, got %v", out)
	}
}

func TestTrimUsesExactSilentBatchSizes(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	feed(t, s, voiced(9000))
	var phrase Phrase
	var out Outcome
	for i := 1; i <= 10; i++ {
		phrase, out = feed(t, s, silent(i*100))
	}

	if out != OutcomeEmitted {
		t.Fatalf("Expected emitted, got %v", out)
	}
	if len(phrase.Samples) != 9000 {
		t.Errorf("Expected 9000 samples after trim, got %d", len(phrase.Samples))
	}
}

func TestVoicedBatchResetsSilenceRun(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	feed(t, s, voiced(8000))
	for i := 0; i < 5; i++ {
		feed(t, s, silent(testBatch))
	}
	feed(t, s, voiced(testBatch))
	if s.SilenceCount() != 0 {
		t.Fatalf("voiced batch must reset silence count, got %d", s.SilenceCount())
	}

	for i := 0; i < 9; i++ {
		if _, out := feed(t, s, silent(testBatch)); out != OutcomeNone {
			t.Fatalf("finalized early after %d silent batches", i+1)
		}
	}
	phrase, out := feed(t, s, silent(testBatch))
	if out != OutcomeEmitted {
		t.Fatalf("Expected emitted, got %v", out)
	}

	// The inner pause stays; only the final silent run is trimmed.
	want := 8000 + 5*testBatch + testBatch
	if len(phrase.Samples) != want {
		t.Errorf("Expected %d samples, got %d", want, len(phrase.Samples))
	}
}

func TestEmittedPhraseOwnsSamples(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	feed(t, s, voiced(9000))
	var phrase Phrase
	for i := 0; i < 10; i++ {
		phrase, _ = feed(t, s, silent(testBatch))
	}
	before := phrase.Samples[0]

	loud := make([]float32, 9000)
	for i := range loud {
		loud[i] = 0.9
	}
	feed(t, s, loud)

	if phrase.Samples[0] != before {
		t.Fatal("emitted phrase shares memory with the accumulator")
	}
}

func TestResetDropsPartialPhrase(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	feed(t, s, voiced(testBatch))
	feed(t, s, silent(testBatch))
	s.Reset()

	if s.State() != StateIdle || s.Len() != 0 || s.SilenceCount() != 0 {
		t.Fatalf("Reset left state=%v len=%d silence=%d", s.State(), s.Len(), s.SilenceCount())
	}

	// Silence after a reset must not finalize anything.
	for i := 0; i < 10; i++ {
		if _, out := feed(t, s, silent(testBatch)); out != OutcomeNone {
			t.Fatalf("unexpected outcome %v after reset", out)
		}
	}
}

func TestEmptyBatchAndUnknownRateSkipped(t *testing.T) {
	s := NewSegmenter(DefaultConfig())

	if _, out := s.Process(nil, testRate, testThreshold); out != OutcomeNone {
		t.Errorf("empty batch: got %v", out)
	}
	if _, out := s.Process(voiced(testBatch), 0, testThreshold); out != OutcomeNone {
		t.Errorf("zero rate: got %v", out)
	}
	if s.State() != StateIdle {
		t.Errorf("skipped batches must not change state, got %v", s.State())
	}
}
