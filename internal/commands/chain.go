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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/pkg/chain"
)

func newChainCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Run and manage multi-step prompt chains",
		Long: `Chains feed each step's output into later steps as {variables}.
Two builtin chains ship with promptbuilder; custom chains live in
chains.json under the config directory.`,
	}
	cmd.AddCommand(
		newChainListCommand(app),
		newChainShowCommand(app),
		newChainRunCommand(app),
		newChainCreateCommand(app),
		newChainDeleteCommand(app),
	)
	return cmd
}

func newChainListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Chains()
			if err != nil {
				return err
			}
			chains := store.List()

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), chains)
			}

			rows := make([][]string, 0, len(chains))
			for _, c := range chains {
				kind := "user"
				if store.IsBuiltin(c.Name) {
					kind = "builtin"
				}
				rows = append(rows, []string{
					c.Name,
					strconv.Itoa(len(c.Steps)),
					kind,
					cli.Truncate(c.Description, 60),
				})
			}
			cmd.Print(cli.Table([]string{"NAME", "STEPS", "TYPE", "DESCRIPTION"}, rows))
			return nil
		},
	}
}

func newChainShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a chain's steps and required inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Chains()
			if err != nil {
				return err
			}
			c, err := store.Get(args[0])
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), c)
			}

			cmd.Println(cli.Header.Render(c.Name))
			if c.Description != "" {
				cmd.Println(cli.Muted.Render(c.Description))
			}
			cmd.Println()
			for i, step := range c.Steps {
				cmd.Printf("%d. %s\n", i+1, cli.Bold.Render(step.Name))
				cmd.Println(indent(step.PromptTemplate, "   "))
				var notes []string
				if step.OutputKey != "" {
					notes = append(notes, "output: "+step.OutputKey)
				}
				if step.Provider != "" {
					notes = append(notes, "provider: "+step.Provider)
				}
				if step.Transform != "" {
					notes = append(notes, "transform: "+string(step.Transform))
				}
				if step.Condition != "" {
					notes = append(notes, "condition: "+step.Condition)
				}
				if len(notes) > 0 {
					cmd.Println(cli.Muted.Render("   " + strings.Join(notes, ", ")))
				}
			}
			if vars := c.Variables(); len(vars) > 0 {
				cmd.Println()
				cmd.Println(cli.Muted.Render("inputs: " + strings.Join(vars, ", ")))
			}
			return nil
		},
	}
}

func newChainRunCommand(app *App) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:     "run <name>",
		Short:   "Execute a chain",
		Example: `  promptbuilder chain run research_and_summarize --input topic="strangler fig pattern"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Chains()
			if err != nil {
				return err
			}
			c, err := store.Get(args[0])
			if err != nil {
				return err
			}

			values := make(map[string]string, len(inputs))
			for _, in := range inputs {
				key, value, ok := strings.Cut(in, "=")
				if !ok {
					return fmt.Errorf("invalid --input %q: expected name=value", in)
				}
				values[key] = value
			}
			for _, missing := range c.Variables() {
				if _, ok := values[missing]; !ok {
					return fmt.Errorf("missing required input %q: pass it with --input %s=...", missing, missing)
				}
			}

			client, err := app.Client()
			if err != nil {
				return err
			}
			executor := chain.NewExecutor(client, app.Logger(), app.Recorder())
			result, err := executor.Execute(cmd.Context(), c, values)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), result)
			}
			printChainResult(cmd, result)
			if !result.Success {
				return fmt.Errorf("chain %s failed at step %d of %d", c.Name, result.StepsCompleted+1, result.TotalSteps)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "chain input as name=value (repeatable)")
	return cmd
}

func printChainResult(cmd *cobra.Command, result *chain.Result) {
	for _, step := range result.StepResults {
		if step.Error != "" {
			cmd.Println(cli.RenderError(fmt.Sprintf("%s: %s", step.Name, step.Error)))
			continue
		}
		cmd.Println(cli.RenderOK(fmt.Sprintf("%s (%s/%s, %d tokens, %dms)",
			step.Name, step.Provider, step.Model, step.Usage.TotalTokens, step.LatencyMS)))
	}
	cmd.Println()
	if result.FinalOutput != "" {
		cmd.Println(result.FinalOutput)
		cmd.Println()
	}
	cmd.Println(cli.Muted.Render(fmt.Sprintf("%d/%d steps, %d tokens, %dms total",
		result.StepsCompleted, result.TotalSteps, result.TotalTokens, result.TotalLatencyMS)))
}

func newChainCreateCommand(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a chain from a JSON step definition",
		Long: `Create reads a JSON array of steps from --file (or stdin with -)
and saves it as a named chain. Each step needs at least a name and a
prompt_template; output_key, provider, model, max_tokens, temperature,
transform, and condition are optional.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if file == "-" {
				data, err = readAll(cmd)
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read steps: %w", err)
			}

			var steps []chain.Step
			if err := json.Unmarshal(data, &steps); err != nil {
				return fmt.Errorf("parse steps: %w", err)
			}

			store, err := app.Chains()
			if err != nil {
				return err
			}
			c := &chain.Chain{Name: args[0], Steps: steps}
			if err := store.Save(c); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("chain %q saved with %d steps", c.Name, len(c.Steps))))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "JSON file with the step array, or - for stdin")
	return cmd
}

func newChainDeleteCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a user-defined chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := cli.Confirm(fmt.Sprintf("Delete chain %q?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			store, err := app.Chains()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("chain %q deleted", args[0])))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
