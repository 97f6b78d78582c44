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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewRootCommand builds the promptbuilder command tree.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "promptbuilder",
		Short: "Build, test, and run LLM prompts from the terminal",
		Long: `promptbuilder creates prompts using proven prompt engineering
techniques, runs multi-step prompt chains against hosted LLM providers,
and tracks history, token usage, and cost along the way.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	// Accept underscore flag spellings so --log_level works like --log-level.
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	pf := root.PersistentFlags()
	pf.BoolVar(&app.JSON, "json", false, "emit machine-readable JSON output")
	pf.StringVar(&app.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&app.ConfigDir, "config-dir", "", "override the configuration directory")

	root.AddCommand(
		newBuildCommand(app),
		newTemplateCommand(app),
		newChainCommand(app),
		newHistoryCommand(app),
		newAnalyticsCommand(app),
		newTokensCommand(app),
		newExportCommand(app),
		newShareCommand(app),
		newProviderCommand(app),
		newOptimizeCommand(app),
		newGenerateCommand(app),
		newTestCommand(app),
		newVersionCommand(),
	)

	return root
}
