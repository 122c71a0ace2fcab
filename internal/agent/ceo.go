package agent

import (
	"context"
	"strings"

	"github.com/ShayCichocki/o1/internal/artifact"
	"github.com/ShayCichocki/o1/internal/progress"
	"github.com/ShayCichocki/o1/pkg/models"
)

// summaryPreview is how much of the synthesis input progress shows.
const summaryPreview = 100

// CEO plans a task and later condenses the plan and its implementations.
type CEO struct{}

// Plan decomposes task into actionable steps.
func (c CEO) Plan(ctx context.Context, deps Deps, task string) (models.Artifact, error) {
	return c.PlanOrSummarize(ctx, deps, task, false)
}

// Summarize condenses a RenderBundle output into one strategy.
func (c CEO) Summarize(ctx context.Context, deps Deps, bundle string) (models.Artifact, error) {
	return c.PlanOrSummarize(ctx, deps, bundle, true)
}

// PlanOrSummarize runs the CEO in plan mode, or in summary mode when isFinal is set.
func (CEO) PlanOrSummarize(ctx context.Context, deps Deps, input string, isFinal bool) (models.Artifact, error) {
	system := PlanSystemPrompt
	if isFinal {
		system = SummarySystemPrompt
		deps.emit(progress.Heading("CEO Agent: Summarizing Final Strategy"))
		deps.emit("Received Input for Summary:\n" + preview(input, summaryPreview) + "...")
	} else {
		deps.emit(progress.Heading("CEO Agent: Generating Initial Plan"))
		deps.emit("Received Task: " + input)
	}

	text, err := deps.LLM.Complete(ctx, deps.Model, system, input)
	if err != nil {
		return models.Artifact{}, err
	}

	out := models.Artifact{Content: text}
	if isFinal {
		deps.emit(progress.Heading("Received Final Summary from CEO Agent"))
		out.Kind = models.ArtifactFinalSummary
		out.Name = artifact.SummaryName(input, deps.summaryNaming(), deps.SummaryWords, deps.now())
	} else {
		deps.emit(progress.Heading("Received Initial Plan from CEO Agent"))
		out.Kind = models.ArtifactPlan
		out.Name = artifact.PlanName(deps.now())
	}
	out.Location = deps.persist(out.Name, text)
	return out, nil
}

// RenderBundle builds the synthesis input: the plan, then every
// implementation in the given order.
func RenderBundle(plan string, impls []models.Implementation) string {
	contents := make([]string, len(impls))
	for i, impl := range impls {
		contents[i] = impl.Content
	}
	return "Initial Plan:\n" + plan + "\n\nImplementations:\n" + strings.Join(contents, "\n")
}

func (d Deps) summaryNaming() artifact.Naming {
	if d.SummaryNaming.Valid() {
		return d.SummaryNaming
	}
	return artifact.NamingWords
}

// preview returns at most n runes of s.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
