package orchestrator

import (
	"time"

	"github.com/ShayCichocki/o1/internal/api"
	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/progress"
)

// DefaultWorkers is how many step workers a pass runs.
const DefaultWorkers = 4

// RequiredConfig contains the minimal required configuration for a Pipeline.
type RequiredConfig struct {
	// LLM answers every agent call.
	LLM api.Completer
	// Models names the model variants; every stage uses the capable one.
	Models api.Models
}

// Option configures a Pipeline. Use With* functions to create Options.
type Option func(*pipelineOptions)

type pipelineOptions struct {
	workers      int
	parallel     bool
	refine       bool
	runDir       string
	artifacts    artifact.Sink
	progress     progress.Sink
	recorder     Recorder
	logger       *DebugLogger
	naming       artifact.Naming
	summaryWords int
	now          func() time.Time
}

func defaultOptions() pipelineOptions {
	return pipelineOptions{
		workers:      DefaultWorkers,
		refine:       true,
		naming:       artifact.NamingWords,
		summaryWords: artifact.DefaultSummaryWords,
		now:          time.Now,
	}
}

// WithWorkers sets the number of step workers. Must be at least 1.
func WithWorkers(n int) Option {
	return func(o *pipelineOptions) { o.workers = n }
}

// WithParallel runs the workers of a pass concurrently. Results keep step order.
func WithParallel(b bool) Option {
	return func(o *pipelineOptions) { o.parallel = b }
}

// WithRefine enables or disables the refinement pass of RunWithRefinement.
func WithRefine(b bool) Option {
	return func(o *pipelineOptions) { o.refine = b }
}

// WithRunDir writes artifacts, the manifest and the debug log into dir.
func WithRunDir(dir string) Option {
	return func(o *pipelineOptions) { o.runDir = dir }
}

// WithArtifacts overrides the artifact sink built from the run directory.
func WithArtifacts(s artifact.Sink) Option {
	return func(o *pipelineOptions) { o.artifacts = s }
}

// WithProgress sets the progress sink.
func WithProgress(s progress.Sink) Option {
	return func(o *pipelineOptions) { o.progress = s }
}

// WithRecorder sets the run ledger hook.
func WithRecorder(r Recorder) Option {
	return func(o *pipelineOptions) { o.recorder = r }
}

// WithLogger overrides the debug logger built from the run directory.
func WithLogger(l *DebugLogger) Option {
	return func(o *pipelineOptions) { o.logger = l }
}

// WithSummaryNaming selects how final summaries are named.
func WithSummaryNaming(n artifact.Naming, words int) Option {
	return func(o *pipelineOptions) {
		o.naming = n
		o.summaryWords = words
	}
}

// WithClock overrides time.Now for artifact names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *pipelineOptions) { o.now = now }
}
