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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/share"
)

func newShareCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Export, import, and share prompt libraries",
		Long: `Libraries bundle prompts into a single JSON file under the config
directory. Share codes pack a library into a pb:// string small enough
to paste into chat.`,
	}
	cmd.AddCommand(
		newShareListCommand(app),
		newShareCreateCommand(app),
		newShareImportCommand(app),
		newShareCodeCommand(app),
	)
	return cmd
}

func newShareListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Sharing()
			if err != nil {
				return err
			}
			names, err := svc.List()
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), names)
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				lib, err := svc.Load(name)
				if err != nil {
					rows = append(rows, []string{name, "?", "unreadable"})
					continue
				}
				rows = append(rows, []string{name, strconv.Itoa(len(lib.Prompts)), lib.Author})
			}
			cmd.Print(cli.Table([]string{"LIBRARY", "PROMPTS", "AUTHOR"}, rows))
			return nil
		},
	}
}

func newShareCreateCommand(app *App) *cobra.Command {
	var (
		description string
		author      string
		ids         []int64
	)

	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Create a library from history entries",
		Example: `  promptbuilder share create "Code Helpers" --from-history 3 --from-history 7`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("pick prompts with --from-history <id>")
			}
			store, err := app.History()
			if err != nil {
				return err
			}

			prompts := make([]share.SharedPrompt, 0, len(ids))
			for _, id := range ids {
				entry, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				prompts = append(prompts, share.SharedPrompt{
					Name:      entry.Task,
					Technique: entry.Technique,
					Prompt:    entry.Prompt,
					Tags:      entry.Tags,
					Author:    author,
				})
			}

			svc, err := app.Sharing()
			if err != nil {
				return err
			}
			lib := share.NewLibrary(args[0], description, author, "", prompts)
			path, err := svc.Export(lib, "")
			if err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("library %q with %d prompts written to %s",
				lib.Name, len(lib.Prompts), path)))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what the library contains")
	cmd.Flags().StringVar(&author, "author", "", "library author")
	cmd.Flags().Int64SliceVar(&ids, "from-history", nil, "history entry to include (repeatable)")
	return cmd
}

func newShareImportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path-or-code>",
		Short: "Import a library from a JSON file or a pb:// share code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Sharing()
			if err != nil {
				return err
			}

			var lib *share.Library
			if len(args[0]) > 5 && args[0][:5] == "pb://" {
				lib, err = share.ParseShareCode(args[0])
			} else {
				lib, err = svc.Import(args[0])
			}
			if err != nil {
				return err
			}

			path, err := svc.Export(lib, "")
			if err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("imported %q (%d prompts) to %s",
				lib.Name, len(lib.Prompts), path)))
			return nil
		},
	}
}

func newShareCodeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "code <library>",
		Short: "Print a share code for a local library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.Sharing()
			if err != nil {
				return err
			}
			lib, err := svc.Load(args[0])
			if err != nil {
				return err
			}
			code, err := share.GenerateShareCode(lib)
			if err != nil {
				return err
			}
			cmd.Println(code)
			return nil
		},
	}
}
