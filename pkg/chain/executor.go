package chain

import (
	"context"
	"log/slog"
	"time"

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
	"github.com/mikodusami/terminal-promptbuilder/pkg/template"
)

// Completer is the provider-facing surface the executor needs. llm.Client
// satisfies it; tests substitute scripted implementations.
type Completer interface {
	Complete(ctx context.Context, opts llm.CompleteOptions) (*llm.Response, error)
}

// StepUsage is handed to a Recorder after each provider call.
type StepUsage struct {
	Chain     string
	Step      string
	Provider  string
	Model     string
	Usage     llm.TokenUsage
	LatencyMS int64
	Success   bool
}

// Recorder receives per-step usage, typically for analytics persistence.
// Recording failures never affect chain execution.
type Recorder interface {
	RecordStepUsage(ctx context.Context, usage StepUsage)
}

// Executor runs chains sequentially against a provider client. Steps within
// one execution have a strict total order; separate executions may run
// concurrently since each owns its context.
type Executor struct {
	client   Completer
	logger   *slog.Logger
	recorder Recorder
}

// NewExecutor creates an executor. The recorder may be nil.
func NewExecutor(client Completer, logger *slog.Logger, recorder Recorder) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{client: client, logger: logger, recorder: recorder}
}

// Execute runs the chain's steps in declaration order against the initial
// variable mapping. Step failures do not surface as Go errors: the returned
// Result is always complete, carrying per-step records and partial
// progress. A Go error is returned only for an invalid chain.
func (e *Executor) Execute(ctx context.Context, c *Chain, inputs map[string]string) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(inputs)+len(c.Steps))
	for k, v := range inputs {
		vars[k] = v
	}

	result := &Result{
		Success:    true,
		TotalSteps: len(c.Steps),
		Outputs:    make(map[string]string, len(c.Steps)),
	}

	e.logger.Info("chain execution started",
		slog.String("chain", c.Name),
		slog.Int("total_steps", len(c.Steps)))

	for i, step := range c.Steps {
		stopped, failed := e.runStep(ctx, c, i, step, vars, result)
		if failed {
			result.Success = false
			break
		}
		if stopped {
			e.logger.Info("chain stopped by condition",
				slog.String("chain", c.Name),
				slog.String("step", step.Name))
			break
		}
	}

	result.Timestamp = time.Now()

	e.logger.Info("chain execution finished",
		slog.String("chain", c.Name),
		slog.Bool("success", result.Success),
		slog.Int("steps_completed", result.StepsCompleted),
		slog.Int("total_tokens", result.TotalTokens),
		slog.Int64("duration_ms", result.TotalLatencyMS))

	return result, nil
}

// runStep executes one step, mutating the context and result. It returns
// stopped=true on a condition-triggered early stop and failed=true on a
// step error; the two are mutually exclusive.
func (e *Executor) runStep(ctx context.Context, c *Chain, i int, step Step, vars map[string]string, result *Result) (stopped, failed bool) {
	// resp is set once the provider call succeeds so a later transform or
	// condition failure still records the raw output and token counts.
	var resp *llm.Response
	fail := func(msg string) (bool, bool) {
		sr := StepResult{Name: step.Name, Error: msg}
		if resp != nil {
			sr.Output = resp.Content
			sr.Provider = resp.Provider
			sr.Model = resp.Model
			sr.Usage = resp.Usage
			sr.LatencyMS = resp.LatencyMS
		}
		result.StepResults = append(result.StepResults, sr)
		e.logger.Warn("chain step failed",
			slog.String("chain", c.Name),
			slog.String("step", step.Name),
			slog.String("error", msg))
		return false, true
	}

	prompt, err := template.Render(step.PromptTemplate, vars)
	if err != nil {
		return fail(err.Error())
	}

	systemPrompt := ""
	if step.SystemPrompt != "" {
		systemPrompt, err = template.Render(step.SystemPrompt, vars)
		if err != nil {
			return fail(err.Error())
		}
	}

	resp, err = e.client.Complete(ctx, llm.CompleteOptions{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Provider:     step.Provider,
		Model:        step.Model,
		MaxTokens:    c.maxTokensAt(i),
		Temperature:  c.temperatureAt(i),
	})
	if err != nil {
		e.record(ctx, StepUsage{Chain: c.Name, Step: step.Name, Provider: step.Provider, Model: step.Model})
		if ctx.Err() != nil {
			return fail("cancelled: " + ctx.Err().Error())
		}
		return fail(err.Error())
	}

	result.TotalLatencyMS += resp.LatencyMS
	result.TotalTokens += resp.Usage.TotalTokens
	e.record(ctx, StepUsage{
		Chain:     c.Name,
		Step:      step.Name,
		Provider:  resp.Provider,
		Model:     resp.Model,
		Usage:     resp.Usage,
		LatencyMS: resp.LatencyMS,
		Success:   true,
	})

	transformed, err := step.Transform.Apply(step.Name, resp.Content)
	if err != nil {
		return fail(err.Error())
	}

	vars[c.outputKeyAt(i)] = transformed
	result.Outputs[step.Name] = transformed
	result.FinalOutput = transformed
	result.StepsCompleted++
	result.StepResults = append(result.StepResults, StepResult{
		Name:        step.Name,
		Output:      resp.Content,
		Transformed: transformed,
		Provider:    resp.Provider,
		Model:       resp.Model,
		Usage:       resp.Usage,
		LatencyMS:   resp.LatencyMS,
	})

	e.logger.Debug("chain step completed",
		slog.String("chain", c.Name),
		slog.String("step", step.Name),
		slog.String("provider", resp.Provider),
		slog.Int("tokens", resp.Usage.TotalTokens),
		slog.Int64("duration_ms", resp.LatencyMS))

	if step.Condition != "" {
		// Validate already rejected malformed conditions.
		cond, err := ParseCondition(step.Condition)
		if err != nil {
			return fail((&ConditionError{Step: step.Name, Condition: step.Condition, Cause: err}).Error())
		}
		if !cond.Evaluate(transformed) {
			return true, false
		}
	}
	return false, false
}

func (e *Executor) record(ctx context.Context, usage StepUsage) {
	if e.recorder != nil {
		e.recorder.RecordStepUsage(ctx, usage)
	}
}
