package dispatch

import (
	"sync"

	"github.com/emmett/livecap/internal/translate"
)

// MaxHistory is the number of earlier phrase/translation pairs sent as context
const MaxHistory = 3

// History is a bounded FIFO of recent translations, oldest first
type History struct {
	mu      sync.Mutex
	max     int
	entries []translate.Exchange
}

// NewHistory creates a history holding at most max pairs
func NewHistory(max int) *History {
	if max <= 0 {
		max = MaxHistory
	}
	return &History{max: max, entries: make([]translate.Exchange, 0, max)}
}

// Push appends a pair, evicting the oldest when full
func (h *History) Push(original, translated string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.max {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.max-1]
	}
	h.entries = append(h.entries, translate.Exchange{Original: original, Translated: translated})
}

// Snapshot returns a copy of the pairs in chronological order
func (h *History) Snapshot() []translate.Exchange {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]translate.Exchange, len(h.entries))
	copy(out, h.entries)
	return out
}

// Reset forgets all pairs
func (h *History) Reset() {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()
}

// Len returns the number of stored pairs
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
