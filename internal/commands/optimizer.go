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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

const optimizerSystemPrompt = `You are an expert prompt engineer. Analyze and optimize prompts for LLM interactions.

Respond in this exact JSON format:
{
    "optimized_prompt": "The improved version of the prompt",
    "suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"],
    "clarity_score": 7,
    "specificity_score": 8,
    "effectiveness_score": 7,
    "explanation": "Brief explanation of changes made"
}

Scores are 1-10 where 10 is best.`

// Completer is the slice of llm.Client the helper services need.
type Completer interface {
	Complete(ctx context.Context, opts llm.CompleteOptions) (*llm.Response, error)
}

// OptimizationResult is the model's verdict on a prompt.
type OptimizationResult struct {
	OriginalPrompt     string   `json:"original_prompt"`
	OptimizedPrompt    string   `json:"optimized_prompt"`
	Suggestions        []string `json:"suggestions"`
	ClarityScore       int      `json:"clarity_score"`
	SpecificityScore   int      `json:"specificity_score"`
	EffectivenessScore int      `json:"effectiveness_score"`
	Explanation        string   `json:"explanation"`
}

// Optimizer asks a model to critique and rewrite a prompt.
type Optimizer struct {
	client Completer
}

func NewOptimizer(client Completer) *Optimizer {
	return &Optimizer{client: client}
}

// Optimize sends the prompt for analysis. A parse failure returns an error
// that carries the raw model output so the user can still read the advice.
func (o *Optimizer) Optimize(ctx context.Context, prompt, promptContext, provider, model string) (*OptimizationResult, error) {
	userPrompt := "Analyze and optimize this prompt:\n\n" + prompt
	if promptContext != "" {
		userPrompt += "\n\nContext: " + promptContext
	}

	resp, err := o.client.Complete(ctx, llm.CompleteOptions{
		Prompt:       userPrompt,
		SystemPrompt: optimizerSystemPrompt,
		Provider:     provider,
		Model:        model,
		Temperature:  0.3,
	})
	if err != nil {
		return nil, err
	}

	var result OptimizationResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		return nil, &verdictParseError{raw: resp.Content, cause: err}
	}
	result.OriginalPrompt = prompt
	if result.OptimizedPrompt == "" {
		result.OptimizedPrompt = prompt
	}
	return &result, nil
}

// verdictParseError reports model output that was not the expected JSON.
type verdictParseError struct {
	raw   string
	cause error
}

func (e *verdictParseError) Error() string {
	return fmt.Sprintf("model response was not valid JSON: %v", e.cause)
}

func (e *verdictParseError) Unwrap() error { return e.cause }

// Raw returns the unparsed model output.
func (e *verdictParseError) Raw() string { return e.raw }

// extractJSON pulls a JSON document out of model output that may wrap it in
// a ```json fence or a bare ``` fence.
func extractJSON(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		rest := content[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		rest := content[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}
