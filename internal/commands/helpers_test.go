// Copyright 2025 mikodusami
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

// fakeCompleter returns canned content keyed by provider, or a flat script.
type fakeCompleter struct {
	mu         sync.Mutex
	content    string
	byProvider map[string]string
	err        error
	opts       []llm.CompleteOptions
}

func (f *fakeCompleter) Complete(ctx context.Context, opts llm.CompleteOptions) (*llm.Response, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	content := f.content
	if f.byProvider != nil {
		if c, ok := f.byProvider[opts.Provider]; ok {
			content = c
		}
	}
	return &llm.Response{
		Content:   content,
		Provider:  opts.Provider,
		Model:     opts.Model,
		Usage:     llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		LatencyMS: 42,
	}, nil
}

func TestOptimizer_ParsesVerdict(t *testing.T) {
	fake := &fakeCompleter{content: "```json\n" + `{
  "optimized_prompt": "Better prompt",
  "suggestions": ["be specific", "add examples"],
  "clarity_score": 7,
  "specificity_score": 8,
  "effectiveness_score": 6,
  "explanation": "Tightened wording"
}` + "\n```"}

	result, err := NewOptimizer(fake).Optimize(context.Background(), "original", "for a CLI", "", "")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.OriginalPrompt != "original" || result.OptimizedPrompt != "Better prompt" {
		t.Errorf("result = %+v", result)
	}
	if result.ClarityScore != 7 || result.SpecificityScore != 8 || result.EffectivenessScore != 6 {
		t.Errorf("scores = %d/%d/%d", result.ClarityScore, result.SpecificityScore, result.EffectivenessScore)
	}
	if len(result.Suggestions) != 2 {
		t.Errorf("suggestions = %v", result.Suggestions)
	}

	sent := fake.opts[0]
	if !strings.Contains(sent.Prompt, "original") || !strings.Contains(sent.Prompt, "Context: for a CLI") {
		t.Errorf("prompt sent = %q", sent.Prompt)
	}
	if sent.SystemPrompt == "" || sent.Temperature != 0.3 {
		t.Errorf("opts = %+v", sent)
	}
}

func TestOptimizer_ParseFailureCarriesRaw(t *testing.T) {
	fake := &fakeCompleter{content: "I think this prompt is fine as is."}
	_, err := NewOptimizer(fake).Optimize(context.Background(), "p", "", "", "")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *verdictParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T", err)
	}
	if perr.Raw() != "I think this prompt is fine as is." {
		t.Errorf("Raw() = %q", perr.Raw())
	}
}

func TestOptimizer_ProviderErrorPropagates(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("boom")}
	_, err := NewOptimizer(fake).Optimize(context.Background(), "p", "", "", "")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerator_ParsesResponse(t *testing.T) {
	fake := &fakeCompleter{content: `{
  "technique": "cot",
  "prompt": "Think step by step about X.",
  "explanation": "Reasoning task",
  "confidence": 0.9,
  "alternatives": ["alt one"]
}`}

	result, err := NewGenerator(fake).Generate(context.Background(), "help me reason about X", "", "cot", "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Technique != "cot" || result.Prompt != "Think step by step about X." {
		t.Errorf("result = %+v", result)
	}
	if result.Confidence != 0.9 || result.Description != "help me reason about X" {
		t.Errorf("result = %+v", result)
	}

	sent := fake.opts[0]
	if !strings.Contains(sent.Prompt, "Preferred technique: cot") {
		t.Errorf("prompt sent = %q", sent.Prompt)
	}
	if sent.Temperature != 0.5 {
		t.Errorf("temperature = %v", sent.Temperature)
	}
}

func TestGenerator_FallsBackToRawContent(t *testing.T) {
	fake := &fakeCompleter{content: "Here is a prompt: do the thing."}
	result, err := NewGenerator(fake).Generate(context.Background(), "desc", "", "", "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Technique != "unknown" {
		t.Errorf("technique = %q", result.Technique)
	}
	if result.Prompt != "Here is a prompt: do the thing." {
		t.Errorf("prompt = %q", result.Prompt)
	}
	if result.Confidence != 0.3 {
		t.Errorf("confidence = %v", result.Confidence)
	}
}

func TestTester_ChecksAndScore(t *testing.T) {
	fake := &fakeCompleter{content: `{"status": "ok", "items": []}`}
	tc := TestCase{
		Name:             "json output",
		ExpectedContains: []string{"status"},
		ExpectedOmits:    []string{"error"},
		ExpectedFormat:   "json",
	}

	outcome := NewTester(fake).RunTest(context.Background(), "Emit status JSON", tc, ModelTarget{Provider: "openai", Model: "gpt-4.1"})
	if !outcome.Passed {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Score != 100 {
		t.Errorf("score = %v, want 100", outcome.Score)
	}
	if len(outcome.Checks) != 3 {
		t.Errorf("checks = %v", outcome.Checks)
	}
	if outcome.Tokens != 15 || outcome.LatencyMS != 42 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestTester_PartialScore(t *testing.T) {
	fake := &fakeCompleter{content: "plain text with status word"}
	tc := TestCase{
		Name:             "half pass",
		ExpectedContains: []string{"status"},
		ExpectedFormat:   "json",
	}

	outcome := NewTester(fake).RunTest(context.Background(), "p", tc, ModelTarget{Provider: "openai"})
	if outcome.Passed {
		t.Error("should not pass with a failing check")
	}
	if outcome.Score != 50 {
		t.Errorf("score = %v, want 50", outcome.Score)
	}
}

func TestTester_VariableSubstitution(t *testing.T) {
	fake := &fakeCompleter{content: "fine"}
	tc := TestCase{Name: "vars", InputVars: map[string]string{"lang": "Go"}}

	NewTester(fake).RunTest(context.Background(), "Review this {lang} code", tc, ModelTarget{Provider: "openai"})
	if got := fake.opts[0].Prompt; got != "Review this Go code" {
		t.Errorf("prompt sent = %q", got)
	}
}

func TestTester_MissingVariableFails(t *testing.T) {
	fake := &fakeCompleter{content: "fine"}
	tc := TestCase{Name: "vars", InputVars: map[string]string{"lang": "Go"}}

	outcome := NewTester(fake).RunTest(context.Background(), "Review {lang} and {style}", tc, ModelTarget{})
	if outcome.Error == "" {
		t.Error("expected template error")
	}
	if len(fake.opts) != 0 {
		t.Errorf("no completion should be sent, got %d", len(fake.opts))
	}
}

func TestTester_NoChecksPassesOnContent(t *testing.T) {
	fake := &fakeCompleter{content: "anything"}
	outcome := NewTester(fake).RunTest(context.Background(), "p", TestCase{Name: "smoke"}, ModelTarget{})
	if !outcome.Passed || outcome.Score != 100 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestTester_RunAcrossModels(t *testing.T) {
	fake := &fakeCompleter{byProvider: map[string]string{
		"anthropic": "alpha",
		"openai":    "beta",
		"google":    "gamma",
	}}
	targets := []ModelTarget{
		{Provider: "anthropic", Model: "claude-sonnet-4-5-20250929"},
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "google", Model: "gemini-2.5-pro"},
	}

	outcomes := NewTester(fake).RunAcrossModels(context.Background(), "p", TestCase{Name: "fanout"}, targets)
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d", len(outcomes))
	}
	if outcomes[0].Response != "alpha" || outcomes[1].Response != "beta" || outcomes[2].Response != "gamma" {
		t.Errorf("outcomes out of order: %+v", outcomes)
	}
	if len(fake.opts) != 3 {
		t.Errorf("calls = %d, want 3", len(fake.opts))
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "Here:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
