// Package session tracks whether a captioning session is running.
package session

import "sync/atomic"

// Flag is the externally controlled session-active switch. Writers are the
// hotkey, the MCP tools and the CLI; the pipeline reads it once per cycle.
type Flag struct {
	active atomic.Bool
}

// NewFlag creates a flag in the given state
func NewFlag(active bool) *Flag {
	f := &Flag{}
	f.active.Store(active)
	return f
}

// Set stores the session state
func (f *Flag) Set(active bool) {
	f.active.Store(active)
}

// Toggle flips the state and returns the new value
func (f *Flag) Toggle() bool {
	for {
		old := f.active.Load()
		if f.active.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Active reports whether a session is running
func (f *Flag) Active() bool {
	return f.active.Load()
}

// Edge is a change in the observed session state
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	default:
		return "none"
	}
}

// EdgeDetector remembers the last observed state. Not safe for concurrent
// use; it belongs to the pipeline goroutine.
type EdgeDetector struct {
	last bool
}

// Observe records the current state and reports the transition since the previous call
func (d *EdgeDetector) Observe(active bool) Edge {
	prev := d.last
	d.last = active
	switch {
	case active && !prev:
		return EdgeRising
	case !active && prev:
		return EdgeFalling
	default:
		return EdgeNone
	}
}

// Last returns the most recently observed state
func (d *EdgeDetector) Last() bool {
	return d.last
}
