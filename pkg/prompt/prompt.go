// Package prompt builds prompts using established prompt engineering
// techniques: chain-of-thought, few-shot, role-based, structured output,
// ReAct, tree-of-thoughts, and self-consistency.
package prompt

import (
	"fmt"
	"strings"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

// Technique identifies a prompt engineering technique.
type Technique string

const (
	ChainOfThought  Technique = "cot"
	FewShot         Technique = "few_shot"
	RoleBased       Technique = "role"
	Structured      Technique = "structured"
	ReAct           Technique = "react"
	TreeOfThoughts  Technique = "tot"
	SelfConsistency Technique = "self_consistency"
)

// Techniques returns all techniques in display order.
func Techniques() []Technique {
	return []Technique{
		ChainOfThought,
		FewShot,
		RoleBased,
		Structured,
		ReAct,
		TreeOfThoughts,
		SelfConsistency,
	}
}

// ParseTechnique converts a string to a Technique.
func ParseTechnique(s string) (Technique, error) {
	t := Technique(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case ChainOfThought, FewShot, RoleBased, Structured, ReAct, TreeOfThoughts, SelfConsistency:
		return t, nil
	}
	return "", &pberrors.ValidationError{
		Field:      "technique",
		Message:    fmt.Sprintf("unknown technique %q", s),
		Suggestion: "run 'promptbuilder techniques' to list available techniques",
	}
}

// Info describes a technique for display purposes.
type Info struct {
	Technique   Technique
	Name        string
	Description string
}

var techniqueInfo = map[Technique]Info{
	ChainOfThought:  {ChainOfThought, "Chain of Thought", "encourages step-by-step reasoning"},
	FewShot:         {FewShot, "Few-Shot Learning", "provides examples to guide the model"},
	RoleBased:       {RoleBased, "Role-Based", "assigns a specific persona to the model"},
	Structured:      {Structured, "Structured Output", "requests a specific response format"},
	ReAct:           {ReAct, "ReAct", "interleaves reasoning and acting"},
	TreeOfThoughts:  {TreeOfThoughts, "Tree of Thoughts", "explores multiple reasoning paths"},
	SelfConsistency: {SelfConsistency, "Self-Consistency", "solves multiple ways and finds consensus"},
}

// Describe returns display information for a technique.
func Describe(t Technique) Info {
	return techniqueInfo[t]
}

// Example is an input/output pair for few-shot prompts.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Config carries the inputs a technique builder draws from. Task is required;
// everything else is optional and ignored by techniques that don't use it.
type Config struct {
	Task         string
	Context      string
	Examples     []Example
	Role         string
	OutputFormat string
	Constraints  []string
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Task) == "" {
		return &pberrors.ValidationError{
			Field:   "task",
			Message: "task must not be empty",
		}
	}
	return nil
}

// Build constructs a prompt for the given technique.
func Build(t Technique, cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	switch t {
	case ChainOfThought:
		return buildChainOfThought(cfg), nil
	case FewShot:
		return buildFewShot(cfg), nil
	case RoleBased:
		return buildRoleBased(cfg), nil
	case Structured:
		return buildStructured(cfg), nil
	case ReAct:
		return buildReAct(cfg), nil
	case TreeOfThoughts:
		return buildTreeOfThoughts(cfg), nil
	case SelfConsistency:
		return buildSelfConsistency(cfg), nil
	}

	return "", &pberrors.ValidationError{
		Field:   "technique",
		Message: fmt.Sprintf("unknown technique %q", t),
	}
}
