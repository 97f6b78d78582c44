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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
)

func newTestCommand(app *App) *cobra.Command {
	var (
		file        string
		contains    []string
		notContains []string
		jsonFormat  bool
		targets     []string
		limit       int
		vars        []string
	)

	cmd := &cobra.Command{
		Use:   "test [prompt]",
		Short: "Run a prompt against multiple models and grade the responses",
		Long: `Test sends the same prompt to several configured provider/model pairs
concurrently and checks each response against the given expectations.
Each response gets a 0-100 score from the fraction of checks it passes.`,
		Example: `  promptbuilder test "List three uses of channels in Go as JSON" \
    --contains channel --json-format \
    --target anthropic --target openai:gpt-4.1-mini`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args, file)
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			resolved, err := resolveTargets(app, targets, limit)
			if err != nil {
				return err
			}

			tc := TestCase{
				Name:             "cli",
				ExpectedContains: contains,
				ExpectedOmits:    notContains,
			}
			if jsonFormat {
				tc.ExpectedFormat = "json"
			}
			if len(vars) > 0 {
				tc.InputVars = make(map[string]string, len(vars))
				for _, v := range vars {
					key, value, ok := strings.Cut(v, "=")
					if !ok {
						return fmt.Errorf("invalid --var %q: expected name=value", v)
					}
					tc.InputVars[key] = value
				}
			}

			outcomes := NewTester(client).RunAcrossModels(cmd.Context(), text, tc, resolved)

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), outcomes)
			}

			for _, outcome := range outcomes {
				label := fmt.Sprintf("%s/%s", outcome.Provider, outcome.Model)
				if outcome.Error != "" {
					cmd.Printf("%s %s: %s\n", cli.RenderStatus(false, "ERR"), label, outcome.Error)
					continue
				}
				cmd.Printf("%s %s: score %.0f, %d tokens, %dms\n",
					cli.RenderStatus(outcome.Passed, passLabel(outcome.Passed)),
					label, outcome.Score, outcome.Tokens, outcome.LatencyMS)
				for check, ok := range outcome.Checks {
					if !ok {
						cmd.Println(cli.Muted.Render("    failed " + check))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the prompt from a file, or - for stdin")
	cmd.Flags().StringArrayVar(&contains, "contains", nil, "response must contain this text (repeatable)")
	cmd.Flags().StringArrayVar(&notContains, "not-contains", nil, "response must not contain this text (repeatable)")
	cmd.Flags().BoolVar(&jsonFormat, "json-format", false, "response must be valid JSON")
	cmd.Flags().StringArrayVar(&targets, "target", nil, "provider or provider:model to test (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 3, "maximum targets when none are named")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "prompt variable as name=value (repeatable)")
	return cmd
}

func passLabel(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

// resolveTargets expands --target flags into provider/model pairs. With no
// flags, each active provider's default model is used, up to limit.
func resolveTargets(app *App, targets []string, limit int) ([]ModelTarget, error) {
	registry := app.Registry()

	if len(targets) > 0 {
		resolved := make([]ModelTarget, 0, len(targets))
		for _, t := range targets {
			providerName, model, _ := strings.Cut(t, ":")
			if !registry.IsActive(providerName) {
				return nil, fmt.Errorf("provider %q is not configured", providerName)
			}
			resolved = append(resolved, ModelTarget{Provider: providerName, Model: model})
		}
		return resolved, nil
	}

	active := registry.ListActive()
	if len(active) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	resolved := make([]ModelTarget, 0, len(active))
	for _, name := range active {
		resolved = append(resolved, ModelTarget{Provider: name})
	}
	return resolved, nil
}
