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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
)

func newOptimizeCommand(app *App) *cobra.Command {
	var (
		file          string
		promptContext string
		provider      string
		model         string
	)

	cmd := &cobra.Command{
		Use:   "optimize [prompt]",
		Short: "Ask a model to critique and improve a prompt",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args, file)
			if err != nil {
				return err
			}

			client, err := app.Client()
			if err != nil {
				return err
			}

			result, err := NewOptimizer(client).Optimize(cmd.Context(), text, promptContext, provider, model)
			if err != nil {
				var perr *verdictParseError
				if errors.As(err, &perr) {
					cmd.Println(cli.RenderWarn("model did not return structured advice; raw response follows"))
					cmd.Println()
					cmd.Println(perr.Raw())
				}
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), result)
			}

			cmd.Println(cli.Header.Render("Optimized prompt"))
			cmd.Println()
			cmd.Println(result.OptimizedPrompt)
			cmd.Println()
			cmd.Printf("clarity %d/10, specificity %d/10, effectiveness %d/10\n",
				result.ClarityScore, result.SpecificityScore, result.EffectivenessScore)
			if result.Explanation != "" {
				cmd.Println(cli.Muted.Render(result.Explanation))
			}
			for _, s := range result.Suggestions {
				cmd.Println("  - " + s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the prompt from a file, or - for stdin")
	cmd.Flags().StringVar(&promptContext, "context", "", "what the prompt will be used for")
	cmd.Flags().StringVar(&provider, "provider", "", "provider to use")
	cmd.Flags().StringVar(&model, "model", "", "model to use")
	return cmd
}

func newGenerateCommand(app *App) *cobra.Command {
	var (
		promptContext string
		technique     string
		provider      string
		model         string
	)

	cmd := &cobra.Command{
		Use:     "generate <description>",
		Short:   "Generate a ready-to-use prompt from a plain-English description",
		Example: `  promptbuilder generate "compare two database schemas and list breaking changes"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			result, err := NewGenerator(client).Generate(cmd.Context(), args[0], promptContext, technique, provider, model)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), result)
			}

			cmd.Println(cli.Header.Render(fmt.Sprintf("Generated prompt (%s, confidence %.0f%%)",
				result.Technique, result.Confidence*100)))
			cmd.Println()
			cmd.Println(result.Prompt)
			if result.Explanation != "" {
				cmd.Println()
				cmd.Println(cli.Muted.Render(result.Explanation))
			}
			for i, alt := range result.Alternatives {
				cmd.Println()
				cmd.Println(cli.Bold.Render(fmt.Sprintf("alternative %d", i+1)))
				cmd.Println(alt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&promptContext, "context", "", "additional background for the task")
	cmd.Flags().StringVar(&technique, "technique", "", "preferred technique")
	cmd.Flags().StringVar(&provider, "provider", "", "provider to use")
	cmd.Flags().StringVar(&model, "model", "", "model to use")
	return cmd
}
