package agent

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/progress"
	"github.com/ShayCichocki/o1/pkg/models"
)

// Worker implements exactly one step of a plan.
type Worker struct {
	// Step is the 1-based step identity.
	Step int
}

// NewWorker creates the worker for step.
func NewWorker(step int) Worker {
	return Worker{Step: step}
}

// Implement asks the model for this worker's step of plan. Backend
// failures are returned unchanged.
func (w Worker) Implement(ctx context.Context, deps Deps, plan string) (models.Implementation, error) {
	if w.Step < 1 {
		return models.Implementation{}, fmt.Errorf("invalid step identity %d", w.Step)
	}

	deps.emit(progress.Heading(fmt.Sprintf("Agent %d Activated", w.Step)))
	deps.emit("Received Task: " + plan)
	deps.emit(fmt.Sprintf("Generating Implementation for Step %d...", w.Step))

	text, err := deps.LLM.Complete(ctx, deps.Model, WorkerSystemPrompt(w.Step), WorkerUserPrompt(w.Step, plan))
	if err != nil {
		return models.Implementation{}, err
	}

	deps.emit(progress.Heading(fmt.Sprintf("Received Response from Agent %d", w.Step)))

	return models.Implementation{
		Step:     w.Step,
		Content:  text,
		Location: deps.persist(artifact.WorkerName(w.Step), text),
	}, nil
}
