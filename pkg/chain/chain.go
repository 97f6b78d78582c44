// Package chain implements multi-step prompt chains: ordered sequences of
// templated completion steps that feed each step's output into the variable
// context of the steps that follow.
package chain

import (
	"fmt"

	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
	"github.com/mikodusami/terminal-promptbuilder/pkg/template"
)

const (
	// DefaultMaxTokens is used when a step does not set MaxTokens.
	DefaultMaxTokens = 4096

	// DefaultTemperature is used when a step does not set Temperature.
	DefaultTemperature = 0.7
)

// Step is one unit of a chain: a prompt template rendered against the
// accumulated context and sent to a provider. Steps are immutable once
// their chain is validated.
type Step struct {
	// Name identifies the step, unique within its chain.
	Name string `json:"name"`

	// PromptTemplate may contain {variable} placeholders resolved from
	// the execution context.
	PromptTemplate string `json:"prompt_template"`

	// OutputKey is the context key the step's output is stored under.
	// Defaults to step_<index>_output when empty.
	OutputKey string `json:"output_key,omitempty"`

	// SystemPrompt is an optional system prompt, also templated.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Provider selects a backend. Empty means auto-select.
	Provider string `json:"provider,omitempty"`

	// Model overrides the provider's default model.
	Model string `json:"model,omitempty"`

	// MaxTokens caps the completion length. Defaults to 4096.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature is the sampling temperature in [0,2]. Nil means unset
	// and gets the default; an explicit zero is honored.
	Temperature *float64 `json:"temperature,omitempty"`

	// Transform is applied to the raw output before it is stored.
	Transform Transform `json:"transform,omitempty"`

	// Condition is an optional predicate over the step's transformed
	// output. When it evaluates false the chain stops early.
	Condition string `json:"condition,omitempty"`
}

// Chain is an ordered sequence of steps with a name and description.
type Chain struct {
	Name        string `json:"-"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
}

// outputKeyAt returns the effective output key for the step at index i.
func (c *Chain) outputKeyAt(i int) string {
	if c.Steps[i].OutputKey != "" {
		return c.Steps[i].OutputKey
	}
	return fmt.Sprintf("step_%d_output", i)
}

// maxTokensAt returns the effective max_tokens for the step at index i.
func (c *Chain) maxTokensAt(i int) int {
	if c.Steps[i].MaxTokens > 0 {
		return c.Steps[i].MaxTokens
	}
	return DefaultMaxTokens
}

// temperatureAt returns the effective temperature for the step at index i.
func (c *Chain) temperatureAt(i int) float64 {
	if t := c.Steps[i].Temperature; t != nil {
		return *t
	}
	return DefaultTemperature
}

// Validate checks the chain's structural invariants: a non-empty name, at
// least one step, unique step names, unique output keys, parameter ranges,
// and well-formed transforms and conditions. Duplicate output keys are
// rejected rather than silently overwriting accumulated context.
func (c *Chain) Validate() error {
	if c == nil {
		return &errors.ValidationError{
			Field:   "chain",
			Message: "chain must not be nil",
		}
	}
	if c.Name == "" {
		return &errors.ValidationError{
			Field:      "name",
			Message:    "chain name must not be empty",
			Suggestion: "Give the chain a unique name",
		}
	}
	if len(c.Steps) == 0 {
		return &errors.ValidationError{
			Field:      "steps",
			Message:    "chain must have at least one step",
			Suggestion: "Add at least one step to the chain",
		}
	}

	names := make(map[string]bool, len(c.Steps))
	keys := make(map[string]int, len(c.Steps))
	for i, step := range c.Steps {
		if step.Name == "" {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].name", i),
				Message: "step name must not be empty",
			}
		}
		if names[step.Name] {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("steps[%d].name", i),
				Message:    fmt.Sprintf("duplicate step name %q", step.Name),
				Suggestion: "Step names must be unique within a chain",
			}
		}
		names[step.Name] = true

		key := c.outputKeyAt(i)
		if prev, ok := keys[key]; ok {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("steps[%d].output_key", i),
				Message:    fmt.Sprintf("output key %q already used by step %d", key, prev),
				Suggestion: "Output keys must be unique; a collision would overwrite an earlier step's output",
			}
		}
		keys[key] = i

		if step.PromptTemplate == "" {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].prompt_template", i),
				Message: "prompt template must not be empty",
			}
		}
		if step.MaxTokens < 0 {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].max_tokens", i),
				Message: "max_tokens must be positive",
			}
		}
		if t := step.Temperature; t != nil && (*t < 0 || *t > 2) {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("steps[%d].temperature", i),
				Message: fmt.Sprintf("temperature %.2f out of range [0, 2]", *t),
			}
		}
		if !step.Transform.Valid() {
			return &errors.ValidationError{
				Field:      fmt.Sprintf("steps[%d].transform", i),
				Message:    fmt.Sprintf("unknown transform %q", step.Transform),
				Suggestion: "Valid transforms: none, parse_json, split_lines, first_line",
			}
		}
		if step.Condition != "" {
			if _, err := ParseCondition(step.Condition); err != nil {
				return &ConditionError{Step: step.Name, Condition: step.Condition, Cause: err}
			}
		}
	}
	return nil
}

// Variables returns the placeholder names referenced by the chain's first
// step that are not produced as output keys of any step. These are the
// inputs a caller must supply.
func (c *Chain) Variables() []string {
	produced := make(map[string]bool, len(c.Steps))
	for i := range c.Steps {
		produced[c.outputKeyAt(i)] = true
	}

	var inputs []string
	seen := make(map[string]bool)
	for _, step := range c.Steps {
		for _, v := range template.Variables(step.PromptTemplate) {
			if !produced[v] && !seen[v] {
				seen[v] = true
				inputs = append(inputs, v)
			}
		}
		for _, v := range template.Variables(step.SystemPrompt) {
			if !produced[v] && !seen[v] {
				seen[v] = true
				inputs = append(inputs, v)
			}
		}
	}
	return inputs
}
