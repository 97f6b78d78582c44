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
	"strings"
	"sync"

	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
	"github.com/mikodusami/terminal-promptbuilder/pkg/template"
)

// TestCase describes expectations for one prompt test.
type TestCase struct {
	Name             string            `json:"name"`
	InputVars        map[string]string `json:"input_vars,omitempty"`
	ExpectedContains []string          `json:"expected_contains,omitempty"`
	ExpectedOmits    []string          `json:"expected_not_contains,omitempty"`
	ExpectedFormat   string            `json:"expected_format,omitempty"`
}

// TestOutcome is the result of running one test case against one model.
type TestOutcome struct {
	TestCase  string          `json:"test_case"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Response  string          `json:"response,omitempty"`
	Passed    bool            `json:"passed"`
	Score     float64         `json:"score"`
	Checks    map[string]bool `json:"checks,omitempty"`
	LatencyMS int64           `json:"latency_ms"`
	Tokens    int             `json:"tokens"`
	Error     string          `json:"error,omitempty"`
}

// ModelTarget names one provider/model pair to test against.
type ModelTarget struct {
	Provider string
	Model    string
}

// Tester runs a prompt against multiple models and grades the responses.
type Tester struct {
	client Completer
}

func NewTester(client Completer) *Tester {
	return &Tester{client: client}
}

// checkLabel truncates long expectations so check names stay readable.
func checkLabel(prefix, value string) string {
	if len(value) > 20 {
		value = value[:20]
	}
	return prefix + ":" + value
}

// RunTest executes one test case against one model. Variables in the prompt
// template are filled from the test case inputs before sending.
func (t *Tester) RunTest(ctx context.Context, promptTemplate string, tc TestCase, target ModelTarget) TestOutcome {
	outcome := TestOutcome{
		TestCase: tc.Name,
		Provider: target.Provider,
		Model:    target.Model,
	}

	prompt := promptTemplate
	if len(tc.InputVars) > 0 {
		rendered, err := template.Render(promptTemplate, tc.InputVars)
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		prompt = rendered
	}

	resp, err := t.client.Complete(ctx, llm.CompleteOptions{
		Prompt:      prompt,
		Provider:    target.Provider,
		Model:       target.Model,
		Temperature: 0.3,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Response = resp.Content
	outcome.LatencyMS = resp.LatencyMS
	outcome.Tokens = resp.Usage.TotalTokens

	checks := map[string]bool{}
	lower := strings.ToLower(resp.Content)
	for _, want := range tc.ExpectedContains {
		checks[checkLabel("contains", want)] = strings.Contains(lower, strings.ToLower(want))
	}
	for _, unwanted := range tc.ExpectedOmits {
		checks[checkLabel("not_contains", unwanted)] = !strings.Contains(lower, strings.ToLower(unwanted))
	}
	if tc.ExpectedFormat == "json" {
		checks["format:json"] = json.Valid([]byte(resp.Content))
	}

	if len(checks) == 0 {
		outcome.Passed = resp.Content != ""
		if outcome.Passed {
			outcome.Score = 100
		}
		return outcome
	}

	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	outcome.Checks = checks
	outcome.Score = float64(passed) / float64(len(checks)) * 100
	outcome.Passed = passed == len(checks)
	return outcome
}

// RunAcrossModels fans the same test case out to each target concurrently.
// Results come back in target order.
func (t *Tester) RunAcrossModels(ctx context.Context, prompt string, tc TestCase, targets []ModelTarget) []TestOutcome {
	outcomes := make([]TestOutcome, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target ModelTarget) {
			defer wg.Done()
			outcomes[i] = t.RunTest(ctx, prompt, tc, target)
		}(i, target)
	}
	wg.Wait()
	return outcomes
}
