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
)

func newAnalyticsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Inspect provider usage and spend",
	}
	cmd.AddCommand(
		newAnalyticsSummaryCommand(app),
		newAnalyticsCostsCommand(app),
		newAnalyticsTechniquesCommand(app),
		newAnalyticsExportCommand(app),
		newAnalyticsPruneCommand(app),
	)
	return cmd
}

func newAnalyticsTechniquesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "techniques",
		Short: "Show all-time request counts per technique",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Analytics()
			if err != nil {
				return err
			}
			stats, err := store.TechniqueStats(cmd.Context())
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), stats)
			}

			rows := make([][]string, 0, len(stats))
			for _, tc := range stats {
				rows = append(rows, []string{tc.Name, strconv.FormatInt(tc.Count, 10)})
			}
			cmd.Print(cli.Table([]string{"TECHNIQUE", "REQUESTS"}, rows))
			return nil
		},
	}
}

func newAnalyticsSummaryCommand(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show aggregate usage for the last N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Analytics()
			if err != nil {
				return err
			}
			summary, err := store.Summary(cmd.Context(), days)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), summary)
			}

			cmd.Println(cli.Header.Render(fmt.Sprintf("Usage, last %d days", summary.Days)))
			cmd.Printf("requests:     %d\n", summary.TotalRequests)
			cmd.Printf("tokens:       %d\n", summary.TotalTokens)
			cmd.Printf("cost:         $%.4f\n", summary.TotalCost)
			cmd.Printf("success rate: %.0f%%\n", summary.SuccessRate*100)
			cmd.Printf("avg latency:  %.0fms\n", summary.AvgLatencyMS)
			if len(summary.TopTechniques) > 0 {
				cmd.Println()
				cmd.Println(cli.Bold.Render("top techniques"))
				for _, tc := range summary.TopTechniques {
					cmd.Printf("  %-30s %d\n", tc.Name, tc.Count)
				}
			}
			if len(summary.TopModels) > 0 {
				cmd.Println()
				cmd.Println(cli.Bold.Render("top models"))
				for _, mc := range summary.TopModels {
					cmd.Printf("  %-30s %d\n", mc.Name, mc.Count)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "window size in days")
	return cmd
}

func newAnalyticsCostsCommand(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Break down spend by provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Analytics()
			if err != nil {
				return err
			}
			entries, err := store.CostBreakdown(cmd.Context(), days)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Provider,
					strconv.FormatInt(e.Tokens, 10),
					fmt.Sprintf("$%.4f", e.Cost),
				})
			}
			cmd.Print(cli.Table([]string{"PROVIDER", "TOKENS", "COST"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "window size in days")
	return cmd
}

func newAnalyticsExportCommand(app *App) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Dump usage records as JSON, optionally filtered with jq",
		Example: `  promptbuilder analytics export --filter '.[] | select(.provider == "anthropic")'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Analytics()
			if err != nil {
				return err
			}
			data, err := store.ExportJSON(cmd.Context(), filter)
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "jq expression applied to the record array")
	return cmd
}

func newAnalyticsPruneCommand(app *App) *cobra.Command {
	var (
		days int
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete usage records older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := cli.Confirm(fmt.Sprintf("Delete usage records older than %d days?", days))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			store, err := app.Analytics()
			if err != nil {
				return err
			}
			deleted, err := store.PruneOlderThan(cmd.Context(), days)
			if err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("%d records deleted", deleted)))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "keep records newer than this many days")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
