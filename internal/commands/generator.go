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

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

const generatorSystemPrompt = `You are an expert prompt engineer. Given a plain English description of what the user wants to accomplish, generate an optimal prompt using the best prompt engineering technique.

Available techniques:
1. Chain of Thought (cot) - For complex reasoning, math, logic problems
2. Few-Shot Learning (few_shot) - When examples would help clarify the pattern
3. Role-Based (role) - When domain expertise is needed
4. Structured Output (structured) - When specific format is required
5. ReAct (react) - For multi-step tasks requiring reasoning and actions
6. Tree of Thoughts (tot) - For problems with multiple solution paths
7. Self-Consistency (self_consistency) - When verification is important

Respond in this exact JSON format:
{
    "technique": "the_technique_key",
    "prompt": "The complete, ready-to-use prompt",
    "explanation": "Brief explanation of why this technique was chosen",
    "confidence": 0.85,
    "alternatives": ["Alternative prompt 1", "Alternative prompt 2"]
}

Generate prompts that are:
- Clear and specific
- Well-structured
- Appropriate for the task complexity
- Ready to use immediately`

// GeneratedPrompt is a prompt synthesized from a plain-English description.
type GeneratedPrompt struct {
	Description  string   `json:"description"`
	Technique    string   `json:"technique"`
	Prompt       string   `json:"prompt"`
	Explanation  string   `json:"explanation"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
}

// Generator turns task descriptions into ready-to-use prompts.
type Generator struct {
	client Completer
}

func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

// Generate asks a model to pick a technique and write the prompt. When the
// model ignores the JSON contract, the raw output is returned as the prompt
// with a low confidence rather than discarded.
func (g *Generator) Generate(ctx context.Context, description, promptContext, preferredTechnique, provider, model string) (*GeneratedPrompt, error) {
	userPrompt := "Generate an optimal prompt for this task:\n\n" + description
	if promptContext != "" {
		userPrompt += "\n\nAdditional context: " + promptContext
	}
	if preferredTechnique != "" {
		userPrompt += "\n\nPreferred technique: " + preferredTechnique
	}

	resp, err := g.client.Complete(ctx, llm.CompleteOptions{
		Prompt:       userPrompt,
		SystemPrompt: generatorSystemPrompt,
		Provider:     provider,
		Model:        model,
		Temperature:  0.5,
	})
	if err != nil {
		return nil, err
	}

	var result GeneratedPrompt
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		return &GeneratedPrompt{
			Description: description,
			Technique:   "unknown",
			Prompt:      resp.Content,
			Explanation: "Could not parse structured response",
			Confidence:  0.3,
		}, nil
	}
	result.Description = description
	if result.Confidence == 0 {
		result.Confidence = 0.5
	}
	return &result, nil
}
