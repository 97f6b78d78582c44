// Package providers registers all built-in LLM provider factories.
//
// Import this package to register all provider factories with the global registry:
//
//	import _ "github.com/mikodusami/terminal-promptbuilder/pkg/llm/providers"
//
// This registers factories but does not instantiate providers.
// Call llm.Activate() to instantiate providers based on configuration.
package providers

import (
	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

func init() {
	// Factories are registered at import time but not instantiated.
	// Call llm.Activate() to instantiate based on available credentials.
	llm.RegisterFactory("anthropic", NewAnthropicWithCredentials)
	llm.RegisterFactory("openai", NewOpenAIWithCredentials)
	llm.RegisterFactory("google", NewGeminiWithCredentials)
}
