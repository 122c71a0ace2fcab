// Package orchestrator runs the o1 pipeline.
//
// A pass has three stages:
//   - PLAN: the CEO breaks the task into steps
//   - IMPLEMENT: one worker per step, steps 1..N, each seeing the whole plan
//   - SYNTHESIZE: the CEO condenses the plan and every implementation
//
// RunWithRefinement repeats the pass once on the first pass's output.
// Any stage failure aborts the pass; later stages never run on missing input.
//
// Example usage:
//
//	p, err := orchestrator.New(orchestrator.RequiredConfig{LLM: client, Models: models},
//		orchestrator.WithRunDir(dir))
//	res, err := p.RunWithRefinement(ctx, "Design a URL shortener")
package orchestrator
