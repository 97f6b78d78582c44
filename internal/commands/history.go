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
	"time"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/history"
)

func newHistoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse previously built prompts",
	}
	cmd.AddCommand(
		newHistoryListCommand(app),
		newHistorySearchCommand(app),
		newHistoryShowCommand(app),
		newHistoryFavoriteCommand(app),
		newHistoryTagCommand(app),
		newHistoryDeleteCommand(app),
		newHistoryClearCommand(app),
	)
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		fav := ""
		if e.IsFavorite {
			fav = "★"
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Technique,
			cli.Truncate(e.Task, 50),
			cli.FormatTags(e.Tags),
			e.CreatedAt.Format(time.DateOnly),
			fav,
		})
	}
	return rows
}

var historyHeaders = []string{"ID", "TECHNIQUE", "TASK", "TAGS", "CREATED", ""}

func newHistoryListCommand(app *App) *cobra.Command {
	var (
		limit     int
		favorites bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.History()
			if err != nil {
				return err
			}

			var entries []history.Entry
			if favorites {
				entries, err = store.ListFavorites(cmd.Context())
			} else {
				entries, err = store.ListRecent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), entries)
			}
			cmd.Print(cli.Table(historyHeaders, historyRows(entries)))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "show only favorites")
	return cmd
}

func newHistorySearchCommand(app *App) *cobra.Command {
	var technique string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search prompts by task text or tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.History()
			if err != nil {
				return err
			}

			var entries []history.Entry
			switch {
			case technique != "":
				entries, err = store.SearchByTechnique(cmd.Context(), technique)
			case len(args) == 1:
				entries, err = store.Search(cmd.Context(), args[0])
			default:
				return fmt.Errorf("provide a query or --technique")
			}
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), entries)
			}
			cmd.Print(cli.Table(historyHeaders, historyRows(entries)))
			return nil
		},
	}
	cmd.Flags().StringVar(&technique, "technique", "", "filter by technique instead of text")
	return cmd
}

func parseEntryID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

func newHistoryShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored prompt in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			store, err := app.History()
			if err != nil {
				return err
			}
			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), entry)
			}
			cmd.Println(cli.Header.Render(entry.Task))
			cmd.Println(cli.Muted.Render(fmt.Sprintf("technique: %s, created: %s, tags: %s",
				entry.Technique, entry.CreatedAt.Format(time.RFC3339), cli.FormatTags(entry.Tags))))
			cmd.Println()
			cmd.Println(entry.Prompt)
			return nil
		},
	}
}

func newHistoryFavoriteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle an entry's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			store, err := app.History()
			if err != nil {
				return err
			}
			fav, err := store.ToggleFavorite(cmd.Context(), id)
			if err != nil {
				return err
			}
			if fav {
				cmd.Println(cli.RenderOK(fmt.Sprintf("entry %d marked favorite", id)))
			} else {
				cmd.Println(cli.RenderOK(fmt.Sprintf("entry %d unmarked", id)))
			}
			return nil
		},
	}
}

func newHistoryTagCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <id> <tag>...",
		Short: "Add tags to an entry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			store, err := app.History()
			if err != nil {
				return err
			}
			if err := store.AddTags(cmd.Context(), id, args[1:]); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("tags added to entry %d", id)))
			return nil
		},
	}
}

func newHistoryDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			store, err := app.History()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("entry %d deleted", id)))
			return nil
		},
	}
}

func newHistoryClearCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.History()
			if err != nil {
				return err
			}
			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if count == 0 {
				cmd.Println("history is already empty")
				return nil
			}
			if !yes {
				ok, err := cli.Confirm(fmt.Sprintf("Delete all %d history entries?", count))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			deleted, err := store.ClearAll(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("%d entries deleted", deleted)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
