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
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/export"
)

func newExportCommand(app *App) *cobra.Command {
	var (
		format  string
		id      int64
		file    string
		output  string
		listAll bool
	)

	cmd := &cobra.Command{
		Use:   "export [text]",
		Short: "Export a prompt in another tool's format",
		Long: `Export renders a prompt as JSON API payloads, markdown, LangChain or
LlamaIndex template files, a .prompt file, or plain text. The prompt
comes from an argument, --file, or a history entry via --id.`,
		Example: `  promptbuilder export --id 12 --format openai
  promptbuilder export "Summarize {text}" --format langchain -o prompt.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				listings := export.Formats()
				if app.JSON {
					return cli.EmitJSON(cmd.OutOrStdout(), listings)
				}
				rows := make([][]string, 0, len(listings))
				for _, l := range listings {
					rows = append(rows, []string{string(l.Key), l.Name})
				}
				cmd.Print(cli.Table([]string{"KEY", "NAME"}, rows))
				return nil
			}

			var promptText string
			var meta *export.Metadata
			switch {
			case id > 0:
				store, err := app.History()
				if err != nil {
					return err
				}
				entry, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				promptText = entry.Prompt
				meta = &export.Metadata{
					Technique: entry.Technique,
					Task:      entry.Task,
					CreatedAt: entry.CreatedAt.Format(time.RFC3339),
					Tags:      entry.Tags,
				}
			default:
				var err error
				promptText, err = readText(cmd, args, file)
				if err != nil {
					return err
				}
			}

			content, ext, err := export.Export(promptText, export.Format(format), meta)
			if err != nil {
				return err
			}

			if output != "" {
				if !strings.Contains(output, ".") {
					output += ext
				}
				if err := os.WriteFile(output, []byte(content), 0644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				cmd.Println(cli.RenderOK("written to " + output))
				return nil
			}
			cmd.Println(content)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format (see --list)")
	cmd.Flags().Int64Var(&id, "id", 0, "export a history entry by id")
	cmd.Flags().StringVar(&file, "file", "", "read the prompt from a file, or - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&listAll, "list", false, "list available formats")
	return cmd
}
