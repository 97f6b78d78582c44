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

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/history"
	"github.com/mikodusami/terminal-promptbuilder/internal/tokens"
	"github.com/mikodusami/terminal-promptbuilder/pkg/prompt"
)

func newBuildCommand(app *App) *cobra.Command {
	var (
		technique   string
		task        string
		taskContext string
		role        string
		format      string
		constraints []string
		examples    []string
		tags        []string
		noSave      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a prompt using a prompt engineering technique",
		Long: `Build constructs a prompt from a task description using one of the
supported techniques (cot, few_shot, role, structured, react, tot,
self_consistency). With no flags and a terminal attached, an interactive
form collects the inputs.

Examples:
  promptbuilder build -t cot --task "Explain how DNS resolution works"
  promptbuilder build -t few_shot --task "Classify sentiment" \
    --example "great product::positive" --example "broken on arrival::negative"
  promptbuilder build -t role --task "Review this API design" --role "staff engineer"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if task == "" {
				if cli.IsNonInteractive() {
					return fmt.Errorf("--task is required in non-interactive mode")
				}
				var err error
				technique, task, taskContext, role, err = buildForm(technique, task, taskContext, role)
				if err != nil {
					return err
				}
			}

			t, err := prompt.ParseTechnique(technique)
			if err != nil {
				return err
			}

			cfg := prompt.Config{
				Task:         task,
				Context:      taskContext,
				Role:         role,
				OutputFormat: format,
				Constraints:  constraints,
			}
			for _, ex := range examples {
				input, output, ok := strings.Cut(ex, "::")
				if !ok {
					return fmt.Errorf("invalid --example %q: expected input::output", ex)
				}
				cfg.Examples = append(cfg.Examples, prompt.Example{
					Input:  strings.TrimSpace(input),
					Output: strings.TrimSpace(output),
				})
			}

			built, err := prompt.Build(t, cfg)
			if err != nil {
				return err
			}

			if app.cfg.HistoryEnabled() && !noSave {
				store, err := app.History()
				if err == nil {
					_, err = store.Save(cmd.Context(), history.Entry{
						Technique: string(t),
						Task:      task,
						Prompt:    built,
						Tags:      tags,
					})
				}
				if err != nil {
					app.Logger().Warn("history save failed", "error", err)
				}
			}

			estimate := buildEstimate(app, built)

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), map[string]any{
					"technique": t,
					"task":      task,
					"prompt":    built,
					"tokens":    estimate.TokenCount,
					"model":     estimate.Model,
					"cost":      estimate.FormattedCost(),
				})
			}

			info := prompt.Describe(t)
			cmd.Println(cli.Header.Render(info.Name))
			cmd.Println()
			cmd.Println(built)
			cmd.Println()
			cmd.Println(cli.Muted.Render(fmt.Sprintf("~%d tokens, est. %s (%s)",
				estimate.TokenCount, estimate.FormattedCost(), estimate.Model)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&technique, "technique", "t", "cot", "prompt technique")
	cmd.Flags().StringVar(&task, "task", "", "what the prompt should accomplish")
	cmd.Flags().StringVar(&taskContext, "context", "", "additional background for the task")
	cmd.Flags().StringVar(&role, "role", "", "persona for role-based prompts")
	cmd.Flags().StringVar(&format, "format", "", "output format for structured prompts")
	cmd.Flags().StringArrayVar(&constraints, "constraint", nil, "constraint to include (repeatable)")
	cmd.Flags().StringArrayVar(&examples, "example", nil, "few-shot example as input::output (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags to store with the history entry")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the prompt in history")
	return cmd
}

// buildEstimate projects input cost against the configured provider's
// representative model, or the overall default when the provider is unknown.
func buildEstimate(app *App, text string) tokens.Estimate {
	if model := app.cfg.Providers[app.cfg.LLM.DefaultProvider].Model; model != "" {
		return tokens.EstimateCost(text, model)
	}
	if ests := tokens.EstimateForProviders(text, []string{app.cfg.LLM.DefaultProvider}); len(ests) > 0 {
		return ests[0]
	}
	return tokens.EstimateCost(text, "")
}

// buildForm collects build inputs interactively.
func buildForm(technique, task, taskContext, role string) (string, string, string, string, error) {
	if technique == "" {
		technique = string(prompt.ChainOfThought)
	}

	options := make([]huh.Option[string], 0, len(prompt.Techniques()))
	for _, t := range prompt.Techniques() {
		info := prompt.Describe(t)
		options = append(options, huh.NewOption(
			fmt.Sprintf("%s (%s)", info.Name, info.Description), string(t)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Technique").
				Options(options...).
				Value(&technique),
			huh.NewInput().
				Title("Task").
				Description("What should the prompt accomplish?").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("task must not be empty")
					}
					return nil
				}).
				Value(&task),
			huh.NewText().
				Title("Context").
				Description("Optional background for the task").
				Value(&taskContext),
			huh.NewInput().
				Title("Role").
				Description("Optional persona, used by role-based prompts").
				Value(&role),
		),
	)

	if err := form.Run(); err != nil {
		return "", "", "", "", fmt.Errorf("form cancelled: %w", err)
	}
	return technique, task, taskContext, role, nil
}
