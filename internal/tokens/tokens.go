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

// Package tokens estimates token counts and completion costs. Counts use
// the common four-characters-per-token heuristic; exact tokenization is
// not worth a tokenizer dependency for a pre-send estimate.
package tokens

import (
	"fmt"
	"sort"
)

// Pricing holds a model's USD cost per 1K tokens.
type Pricing struct {
	Provider    string
	InputPer1K  float64
	OutputPer1K float64
}

// Estimate is a per-model cost projection for a prompt.
type Estimate struct {
	TokenCount  int
	Model       string
	Provider    string
	InputCost   float64
	OutputPer1K float64
}

// FormattedCost renders the input cost with enough precision for small
// amounts.
func (e Estimate) FormattedCost() string {
	if e.InputCost < 0.01 {
		return fmt.Sprintf("$%.4f", e.InputCost)
	}
	return fmt.Sprintf("$%.3f", e.InputCost)
}

// modelPricing is USD per 1K tokens, derived from published per-1M rates.
var modelPricing = map[string]Pricing{
	"gpt-4.1":                    {Provider: "openai", InputPer1K: 0.002, OutputPer1K: 0.008},
	"gpt-4.1-mini":               {Provider: "openai", InputPer1K: 0.0004, OutputPer1K: 0.0016},
	"gpt-4.1-nano":               {Provider: "openai", InputPer1K: 0.0001, OutputPer1K: 0.0004},
	"o4-mini":                    {Provider: "openai", InputPer1K: 0.0011, OutputPer1K: 0.0044},
	"gpt-4o":                     {Provider: "openai", InputPer1K: 0.0025, OutputPer1K: 0.01},
	"claude-sonnet-4-5-20250929": {Provider: "anthropic", InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-opus-4-5-20251124":   {Provider: "anthropic", InputPer1K: 0.005, OutputPer1K: 0.025},
	"claude-haiku-4-5-20251015":  {Provider: "anthropic", InputPer1K: 0.001, OutputPer1K: 0.005},
	"gemini-2.5-pro":             {Provider: "google", InputPer1K: 0.00125, OutputPer1K: 0.01},
	"gemini-2.5-flash":           {Provider: "google", InputPer1K: 0.0003, OutputPer1K: 0.0025},
	"gemini-2.5-flash-lite":      {Provider: "google", InputPer1K: 0.0001, OutputPer1K: 0.0004},
}

// modelsByProvider lists the representative models shown per provider.
var modelsByProvider = map[string][]string{
	"openai":    {"gpt-4.1", "gpt-4.1-mini", "gpt-4.1-nano"},
	"anthropic": {"claude-sonnet-4-5-20250929", "claude-haiku-4-5-20251015"},
	"google":    {"gemini-2.5-flash", "gemini-2.5-flash-lite"},
}

// defaultModel anchors estimates when a model is unknown.
const defaultModel = "gpt-4.1"

// Count estimates the token count of text.
func Count(text string) int {
	return len(text) / 4
}

// PricingFor returns the pricing entry for a model, falling back to the
// default model's pricing for unknown models.
func PricingFor(model string) Pricing {
	if p, ok := modelPricing[model]; ok {
		return p
	}
	return modelPricing[defaultModel]
}

// Cost computes the USD cost of a token count at a per-1K rate.
func Cost(tokenCount int, per1K float64) float64 {
	return float64(tokenCount) / 1000 * per1K
}

// EstimateCost projects the input cost of sending text to a model.
func EstimateCost(text, model string) Estimate {
	count := Count(text)
	pricing := PricingFor(model)
	return Estimate{
		TokenCount:  count,
		Model:       model,
		Provider:    pricing.Provider,
		InputCost:   Cost(count, pricing.InputPer1K),
		OutputPer1K: pricing.OutputPer1K,
	}
}

// EstimateForProviders projects costs across the representative models of
// the given providers, in the order supplied.
func EstimateForProviders(text string, providers []string) []Estimate {
	var estimates []Estimate
	for _, provider := range providers {
		for _, model := range modelsByProvider[provider] {
			estimates = append(estimates, EstimateCost(text, model))
		}
	}
	return estimates
}

// EstimateAll projects costs across a representative model per provider.
func EstimateAll(text string) []Estimate {
	models := []string{"gpt-4.1-mini", "claude-sonnet-4-5-20250929", "gemini-2.5-flash"}
	estimates := make([]Estimate, 0, len(models))
	for _, model := range models {
		estimates = append(estimates, EstimateCost(text, model))
	}
	return estimates
}

// Models returns all models with known pricing, sorted.
func Models() []string {
	models := make([]string, 0, len(modelPricing))
	for model := range modelPricing {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
