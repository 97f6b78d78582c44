// Package llm provides a provider-agnostic interface for sending prompts to
// hosted language models. Providers register factories at import time and are
// activated at startup with credentials for the services the user has keys
// for.
package llm

import (
	"context"
	"time"
)

// Provider is implemented by each model backend (anthropic, openai, google).
type Provider interface {
	// Name returns the unique identifier for this provider.
	Name() string

	// Models lists the models this provider exposes, most capable default
	// first.
	Models() []ModelInfo

	// DefaultModel returns the model used when a request does not name one.
	DefaultModel() string

	// Complete sends a completion request and blocks until the full
	// response is available or ctx is cancelled.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request contains the parameters for a completion request.
type Request struct {
	// Prompt is the user prompt text.
	Prompt string

	// SystemPrompt is an optional system instruction. Providers that have
	// no native system slot prepend it to the prompt.
	SystemPrompt string

	// Model is the provider-specific model ID. Empty means the provider
	// default.
	Model string

	// MaxTokens limits the response length. Must be positive.
	MaxTokens int

	// Temperature controls sampling randomness, in [0, 2].
	Temperature float64
}

// Response is the outcome of a successful completion.
type Response struct {
	// Content is the generated text.
	Content string

	// Provider is the name of the provider that produced this response.
	Provider string

	// Model is the model ID that handled the request.
	Model string

	// Usage holds token consumption for the request.
	Usage TokenUsage

	// LatencyMS is the wall-clock duration of the provider call.
	LatencyMS int64

	// RequestID is the provider-assigned request identifier, if any.
	RequestID string

	// Created is when the response was received.
	Created time.Time
}

// TokenUsage tracks token consumption for cost calculation.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates usage from another request.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// ModelInfo describes a model offered by a provider.
type ModelInfo struct {
	// ID is the provider-specific model identifier.
	ID string

	// Name is the human-readable model name.
	Name string

	// Description summarizes the model's strengths.
	Description string
}
