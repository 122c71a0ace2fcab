package models

import "time"

// Stage is one step of a pipeline pass.
type Stage string

const (
	// StagePlan asks the CEO for a step-by-step plan.
	StagePlan Stage = "plan"
	// StageImplement fans the plan out to the worker agents.
	StageImplement Stage = "implement"
	// StageSynthesize condenses plan and implementations into the final strategy.
	StageSynthesize Stage = "synthesize"
)

// Valid returns true if the stage is a known value.
func (s Stage) Valid() bool {
	switch s {
	case StagePlan, StageImplement, StageSynthesize:
		return true
	default:
		return false
	}
}

// ArtifactKind classifies a persisted agent response.
type ArtifactKind string

const (
	ArtifactPlan           ArtifactKind = "plan"
	ArtifactImplementation ArtifactKind = "implementation"
	ArtifactFinalSummary   ArtifactKind = "final_summary"
)

// Artifact is a CEO response together with where it was persisted.
type Artifact struct {
	Kind ArtifactKind `json:"kind"`
	// Name is the identifier handed to the artifact sink.
	Name    string `json:"name"`
	Content string `json:"content"`
	// Location is empty if persistence failed.
	Location string `json:"location,omitempty"`
}

// Implementation is one worker agent's output for its step.
type Implementation struct {
	// Step is the 1-based step identity the worker was responsible for.
	Step int `json:"step"`
	// Content is the verbatim model output.
	Content string `json:"content"`
	// Location is where the artifact was persisted, empty if persistence failed.
	Location string `json:"location,omitempty"`
}

// PassResult is the outcome of one plan → implement → synthesize pass.
type PassResult struct {
	// Number is the 1-based pass index (2 for the refinement pass).
	Number int `json:"number"`
	// RunID identifies the pass in the run ledger.
	RunID string `json:"run_id"`
	// Task is the input text of the pass.
	Task string `json:"task"`
	// Plan is the CEO's plan.
	Plan string `json:"plan"`
	// PlanLocation is where the plan was persisted.
	PlanLocation string `json:"plan_location,omitempty"`
	// Implementations are ordered by step identity.
	Implementations []Implementation `json:"implementations"`
	// Final is the synthesized strategy.
	Final string `json:"final"`
	// FinalLocation is where the final summary was persisted.
	FinalLocation string `json:"final_location,omitempty"`
	// StartedAt is when the pass began.
	StartedAt time.Time `json:"started_at"`
	// Duration is how long the pass took.
	Duration time.Duration `json:"duration"`
}

// Result collects every pass of a top-level run.
type Result struct {
	Passes []PassResult `json:"passes"`
}

// Final returns the last pass's final text, the run's reported output.
func (r Result) Final() string {
	if len(r.Passes) == 0 {
		return ""
	}
	return r.Passes[len(r.Passes)-1].Final
}
