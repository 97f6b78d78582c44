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
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/internal/log"
	"github.com/mikodusami/terminal-promptbuilder/internal/secrets"
	"github.com/mikodusami/terminal-promptbuilder/pkg/llm"
)

func newProviderCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Configure LLM providers and API keys",
	}
	cmd.AddCommand(
		newProviderListCommand(app),
		newProviderSetKeyCommand(app),
		newProviderDeleteKeyCommand(app),
		newProviderSetDefaultCommand(app),
		newProviderModelsCommand(app),
		newProviderTestCommand(app),
	)
	return cmd
}

func newProviderModelsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "models <provider>",
		Short: "List the models a configured provider offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Client(); err != nil {
				return err
			}
			p, err := app.Registry().Get(args[0])
			if err != nil {
				return err
			}

			models := p.Models()
			if app.JSON {
				out := make([]map[string]string, 0, len(models))
				for _, m := range models {
					out = append(out, map[string]string{
						"id":          m.ID,
						"name":        m.Name,
						"description": m.Description,
					})
				}
				return cli.EmitJSON(cmd.OutOrStdout(), out)
			}

			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{m.ID, m.Name, m.Description})
			}
			cmd.Print(cli.Table([]string{"MODEL", "NAME", "DESCRIPTION"}, rows))
			return nil
		},
	}
}

type providerStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Default    bool   `json:"default"`
	Fallback   bool   `json:"fallback"`
}

func newProviderListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers and their key status",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured := app.Resolver().Configured()

			statuses := make([]providerStatus, 0, len(secrets.Providers()))
			for _, name := range secrets.Providers() {
				statuses = append(statuses, providerStatus{
					Name:       name,
					Configured: slices.Contains(configured, name),
					Default:    name == app.cfg.LLM.DefaultProvider,
					Fallback:   name == app.cfg.LLM.FallbackProvider,
				})
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), statuses)
			}

			if !app.Resolver().KeychainAvailable() {
				cmd.Println(cli.RenderWarn("keychain unavailable, keys resolve from environment variables only"))
				cmd.Println()
			}
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				label := "NO KEY"
				if s.Configured {
					label = "OK"
				}
				status := cli.RenderStatus(s.Configured, label)
				var notes []string
				if s.Default {
					notes = append(notes, "default")
				}
				if s.Fallback {
					notes = append(notes, "fallback")
				}
				rows = append(rows, []string{s.Name, status, strings.Join(notes, ", ")})
			}
			cmd.Print(cli.Table([]string{"PROVIDER", "KEY", ""}, rows))
			return nil
		},
	}
}

func newProviderSetKeyCommand(app *App) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "set-key <provider>",
		Short: "Store an API key in the system keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !slices.Contains(secrets.Providers(), name) {
				return fmt.Errorf("unknown provider %q: valid providers are %s",
					name, strings.Join(secrets.Providers(), ", "))
			}

			if key == "" {
				var err error
				key, err = cli.ReadSecret(fmt.Sprintf("API key for %s", name))
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("API key must not be empty")
			}

			trimmed := strings.TrimSpace(key)
			if err := app.Resolver().SetAPIKey(name, trimmed); err != nil {
				return err
			}
			app.Logger().Debug("api key stored",
				log.String("provider", name),
				log.String("key", log.SanitizeAPIKey(trimmed)))
			cmd.Println(cli.RenderOK(fmt.Sprintf("API key for %s stored", name)))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "the key value (omit to enter it without echo)")
	return cmd
}

func newProviderDeleteKeyCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Resolver().DeleteAPIKey(args[0]); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("API key for %s removed", args[0])))
			return nil
		},
	}
}

func newProviderSetDefaultCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <provider>",
		Short: "Set the default provider in config.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !slices.Contains(secrets.Providers(), name) {
				return fmt.Errorf("unknown provider %q: valid providers are %s",
					name, strings.Join(secrets.Providers(), ", "))
			}

			dir, err := app.configDir()
			if err != nil {
				return err
			}
			app.cfg.LLM.DefaultProvider = name
			path := filepath.Join(dir, "config.yaml")
			if err := app.cfg.Save(path); err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("default provider set to %s in %s", name, path)))
			return nil
		},
	}
}

func newProviderTestCommand(app *App) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:   "test <provider>",
		Short: "Send a small test completion to verify a provider works",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}

			start := time.Now()
			resp, err := client.Complete(cmd.Context(), llm.CompleteOptions{
				Prompt:    "Reply with the single word: ok",
				Provider:  args[0],
				Model:     model,
				MaxTokens: 16,
			})
			if err != nil {
				cmd.Println(cli.RenderError(fmt.Sprintf("%s: %v", args[0], err)))
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), map[string]any{
					"provider":   resp.Provider,
					"model":      resp.Model,
					"latency_ms": resp.LatencyMS,
					"tokens":     resp.Usage.TotalTokens,
				})
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("%s responded via %s in %s (%d tokens)",
				resp.Provider, resp.Model, time.Since(start).Round(time.Millisecond), resp.Usage.TotalTokens)))
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model to test (defaults to the provider default)")
	return cmd
}
