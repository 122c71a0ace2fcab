package agent

import "fmt"

// PlanSystemPrompt frames the CEO's planning call.
const PlanSystemPrompt = "You are o1, an AI assistant focused on clear step-by-step reasoning. Break every task into actionable steps."

// SummarySystemPrompt frames the CEO's synthesis call.
const SummarySystemPrompt = "Summarize the following plan and its implementations into a cohesive final strategy."

// WorkerSystemPrompt restricts a worker to its own step.
func WorkerSystemPrompt(step int) string {
	return fmt.Sprintf(
		"You are Agent %d, focused ONLY on implementing step %d. "+
			"Provide a detailed but concise implementation of this specific step. "+
			"Ignore all other steps.",
		step, step)
}

// WorkerUserPrompt embeds the plan and restates the step.
func WorkerUserPrompt(step int, plan string) string {
	return fmt.Sprintf("Given this task: %s. Provide the implementation for step %d only.", plan, step)
}
