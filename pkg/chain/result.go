package chain

import (
	"time"

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

// StepResult records the outcome of one step.
type StepResult struct {
	// Name is the step's name.
	Name string `json:"name"`

	// Output is the raw provider output, before the transform.
	Output string `json:"output"`

	// Transformed is the output after the step's transform. Equal to
	// Output when the transform is none.
	Transformed string `json:"transformed"`

	// Provider and Model record what actually served the step.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Usage holds the step's token counts.
	Usage llm.TokenUsage `json:"usage"`

	// LatencyMS is the provider call duration in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Error is the failure message when the step did not complete.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of one chain execution. The executor always
// returns a complete Result, even when a step fails, so callers can
// inspect partial progress without error handling.
type Result struct {
	// Success is true only if every executed step completed without
	// error. A condition-triggered early stop is still a success.
	Success bool `json:"success"`

	// StepsCompleted counts the steps that ran to completion.
	StepsCompleted int `json:"steps_completed"`

	// TotalSteps is the number of steps the chain declares.
	TotalSteps int `json:"total_steps"`

	// FinalOutput is the transformed output of the last completed step,
	// or empty when no step completed.
	FinalOutput string `json:"final_output"`

	// Outputs maps step name to transformed output for completed steps.
	Outputs map[string]string `json:"outputs"`

	// StepResults holds per-step records in execution order, including
	// the failed step when one exists.
	StepResults []StepResult `json:"step_results"`

	// TotalTokens sums token usage across every provider call that
	// returned, including a step that then failed its transform. Tokens
	// were spent either way.
	TotalTokens int `json:"total_tokens"`

	// TotalLatencyMS sums provider latency across all attempted steps.
	TotalLatencyMS int64 `json:"total_latency_ms"`

	// Timestamp records when the execution finished.
	Timestamp time.Time `json:"timestamp"`
}
