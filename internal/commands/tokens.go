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
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/tokens"
)

func newTokensCommand(app *App) *cobra.Command {
	var (
		file  string
		model string
	)

	cmd := &cobra.Command{
		Use:   "tokens [text]",
		Short: "Estimate token count and cost for a prompt",
		Long: `Tokens counts the approximate tokens in the given text (or stdin
with --file -) and projects the input cost per model. With --model the
estimate covers just that model; otherwise a representative model per
provider is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args, file)
			if err != nil {
				return err
			}

			if model != "" {
				est := tokens.EstimateCost(text, model)
				if app.JSON {
					return cli.EmitJSON(cmd.OutOrStdout(), est)
				}
				cmd.Printf("~%d tokens\n", est.TokenCount)
				cmd.Printf("%s (%s): %s input, $%.4f/1K output\n",
					est.Model, est.Provider, est.FormattedCost(), est.OutputPer1K)
				return nil
			}

			estimates := tokens.EstimateAll(text)
			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), estimates)
			}

			if len(estimates) > 0 {
				cmd.Printf("~%d tokens\n\n", estimates[0].TokenCount)
			}
			rows := make([][]string, 0, len(estimates))
			for _, est := range estimates {
				rows = append(rows, []string{
					est.Provider,
					est.Model,
					est.FormattedCost(),
				})
			}
			cmd.Print(cli.Table([]string{"PROVIDER", "MODEL", "INPUT COST"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the text from a file, or - for stdin")
	cmd.Flags().StringVar(&model, "model", "", "estimate for a single model")

	cmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List models with known pricing",
		RunE: func(cmd *cobra.Command, args []string) error {
			models := tokens.Models()
			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), models)
			}
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				p := tokens.PricingFor(m)
				rows = append(rows, []string{
					m,
					p.Provider,
					formatPer1K(p.InputPer1K),
					formatPer1K(p.OutputPer1K),
				})
			}
			cmd.Print(cli.Table([]string{"MODEL", "PROVIDER", "IN/1K", "OUT/1K"}, rows))
			return nil
		},
	})
	return cmd
}

func formatPer1K(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}

// readText resolves prompt text from an argument, a file, or stdin.
func readText(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	}
	return "", fmt.Errorf("provide text as an argument or via --file")
}
