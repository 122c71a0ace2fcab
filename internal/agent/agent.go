// Package agent implements the CEO and the step-focused worker agents.
//
// Every agent call is a fresh two-message conversation: no history is
// carried between calls, and agents never call each other.
package agent

import (
	"log"
	"time"

	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/progress"
)

// Deps are the collaborators an agent call needs. The zero values of the
// optional fields are usable.
type Deps struct {
	// LLM produces every response. Required.
	LLM api.Completer
	// Model is the model identifier passed to LLM. Required.
	Model string
	// Artifacts persists responses. Nil skips persistence.
	Artifacts artifact.Sink
	// Progress receives status lines. Nil discards them.
	Progress progress.Sink

	// SummaryNaming selects how final summaries are named. Defaults to words.
	SummaryNaming artifact.Naming
	// SummaryWords is how many input words a summary name keeps. Defaults to 5.
	SummaryWords int
	// Now stamps artifact names. Defaults to time.Now.
	Now func() time.Time
	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...interface{})
}

func (d Deps) emit(text string) {
	if d.Progress != nil {
		d.Progress.Emit(text)
	}
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logf(format string, args ...interface{}) {
	if d.Logf != nil {
		d.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// persist saves content and returns its location. A failed save is
// reported and logged; the caller keeps the generated text either way.
func (d Deps) persist(name, content string) string {
	if d.Artifacts == nil {
		return ""
	}
	loc, err := d.Artifacts.Save(name, content)
	if err != nil {
		d.emit(progress.Heading("Failed to save " + name + ": " + err.Error()))
		d.logf("[agent] persist %s: %v", name, err)
		return ""
	}
	d.emit(progress.Heading("Saved to " + loc))
	return loc
}
