// Package display holds the most recent caption shown to the user.
package display

import (
	"sync"
	"time"
)

// Result is the published caption
type Result struct {
	Text       string
	Original   string
	Translated string
	PhraseID   string
	UpdatedAt  time.Time
}

// Cell is a single-value store for the latest result. Each Set replaces the
// previous value; readers always get a copy.
type Cell struct {
	mu      sync.RWMutex
	current Result
	updates chan struct{}
}

// NewCell creates an empty cell
func NewCell() *Cell {
	return &Cell{updates: make(chan struct{}, 1)}
}

// Set replaces the published result and signals readers
func (c *Cell) Set(r Result) {
	c.mu.Lock()
	c.current = r
	c.mu.Unlock()
	c.notify()
}

// Clear empties the published result
func (c *Cell) Clear() {
	c.Set(Result{})
}

// Get returns a copy of the published result
func (c *Cell) Get() Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Text returns the published display string
func (c *Cell) Text() string {
	return c.Get().Text
}

// Updates signals after each Set. Bursts collapse into one pending signal,
// so a slow reader only ever sees the latest value.
func (c *Cell) Updates() <-chan struct{} {
	return c.updates
}

func (c *Cell) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}
