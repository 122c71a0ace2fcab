// Package progress carries human-readable status lines out of the pipeline.
// Progress is observational: nothing a sink does may change a run's result.
package progress

import (
	"sync"
)

// Sink receives status lines. Emit must return without waiting on the consumer.
type Sink interface {
	Emit(text string)
}

// Nop discards everything.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(string) {}

// Multi fans every line out to each sink in order.
type Multi []Sink

// Emit forwards text to every sink.
func (m Multi) Emit(text string) {
	for _, s := range m {
		if s != nil {
			s.Emit(text)
		}
	}
}

// RunIDSetter is implemented by sinks that tag lines with the current run.
type RunIDSetter interface {
	SetRunID(runID string)
}

// SetRunID forwards runID to every member that tags lines.
func (m Multi) SetRunID(runID string) {
	for _, s := range m {
		if setter, ok := s.(RunIDSetter); ok {
			setter.SetRunID(runID)
		}
	}
}

// Heading formats a banner line the way every stage announces itself.
func Heading(text string) string {
	return "--- **" + text + "** ---"
}

// Recorder keeps every line in memory. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Emit appends text.
func (r *Recorder) Emit(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

// Lines returns a copy of everything emitted so far.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}
