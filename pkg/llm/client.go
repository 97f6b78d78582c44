package llm

import (
	"context"
	"log/slog"
)

// Client routes completion requests to an activated provider, auto-selecting
// one when the caller does not name it, with an optional single fallback on
// failure. A failed request is never retried against the same provider.
type Client struct {
	registry *Registry
	order    []string
	logger   *slog.Logger
}

// CompleteOptions carries a completion request plus routing hints.
type CompleteOptions struct {
	// Prompt is the user prompt text. Required.
	Prompt string

	// SystemPrompt is an optional system instruction.
	SystemPrompt string

	// Provider names the backend to use. Empty auto-selects the default
	// provider, or the first active provider in preference order.
	Provider string

	// Model is the provider-specific model ID. Empty means provider default.
	Model string

	// MaxTokens limits the response length. Non-positive means 4096.
	MaxTokens int

	// Temperature controls sampling randomness.
	Temperature float64
}

// NewClient creates a Client over the given registry. order is the preference
// order used when auto-selecting a provider.
func NewClient(registry *Registry, order []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		registry: registry,
		order:    order,
		logger:   logger,
	}
}

// Registry returns the client's provider registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Complete resolves a provider and sends the completion request. When the
// primary provider fails and a fallback is configured, the request is tried
// once more against the fallback; there is no further retry. A provider
// named explicitly in opts is pinned: its failure is returned as is.
func (c *Client) Complete(ctx context.Context, opts CompleteOptions) (*Response, error) {
	provider, err := c.resolve(opts.Provider)
	if err != nil {
		return nil, err
	}

	req := Request{
		Prompt:       opts.Prompt,
		SystemPrompt: opts.SystemPrompt,
		Model:        opts.Model,
		MaxTokens:    opts.MaxTokens,
		Temperature:  opts.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 4096
	}

	resp, err := provider.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	// Cancellation is terminal; a fallback call would be pointless.
	if ctx.Err() != nil {
		return nil, err
	}

	// An explicitly requested provider is never substituted.
	if opts.Provider != "" {
		return nil, err
	}

	fallback := c.registry.Fallback()
	if fallback == "" || fallback == provider.Name() {
		return nil, err
	}

	fb, fbErr := c.registry.Get(fallback)
	if fbErr != nil {
		return nil, err
	}

	c.logger.Warn("provider failed, trying fallback",
		slog.String("provider", provider.Name()),
		slog.String("fallback", fallback),
		slog.Any("error", err),
	)
	return fb.Complete(ctx, req)
}

// resolve picks the provider for a request. A named provider must be active.
// Otherwise the default provider wins, then the first active provider in
// preference order.
func (c *Client) resolve(name string) (Provider, error) {
	if name != "" {
		return c.registry.Get(name)
	}

	if p, err := c.registry.GetDefault(); err == nil {
		return p, nil
	}

	for _, candidate := range c.order {
		if p, err := c.registry.Get(candidate); err == nil {
			return p, nil
		}
	}

	return nil, ErrNoProvidersActive
}
