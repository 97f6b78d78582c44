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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikodusami/terminal-promptbuilder/internal/cli"
	"github.com/mikodusami/terminal-promptbuilder/pkg/template"
)

func newTemplateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage custom prompt templates",
		Long: `Templates are reusable prompts with {variable} placeholders, stored
in templates.yaml under the config directory. Edits to the file are
picked up without restarting when a watch is active.`,
	}
	cmd.AddCommand(
		newTemplateListCommand(app),
		newTemplateShowCommand(app),
		newTemplateBuildCommand(app),
		newTemplateAddCommand(app),
		newTemplateWatchCommand(app),
	)
	return cmd
}

func newTemplateWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload templates.yaml on change until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.Templates()
			if err != nil {
				return err
			}
			cmd.Println(cli.Muted.Render("watching " + mgr.Path() + " (ctrl-c to stop)"))
			err = mgr.Watch(cmd.Context(), app.Logger())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// placeholderLabels lists a template's placeholders for display, with
// defaulted ones shown as name=default.
func placeholderLabels(text string) []string {
	placeholders := template.Placeholders(text)
	labels := make([]string, 0, len(placeholders))
	for _, p := range placeholders {
		if p.HasDefault {
			labels = append(labels, p.Name+"="+p.Default)
			continue
		}
		labels = append(labels, p.Name)
	}
	return labels
}

func newTemplateListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.Templates()
			if err != nil {
				return err
			}
			templates := mgr.List()

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), templates)
			}

			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				rows = append(rows, []string{
					t.Key,
					t.Name,
					strings.Join(placeholderLabels(t.Text), ", "),
				})
			}
			cmd.Print(cli.Table([]string{"KEY", "NAME", "VARIABLES"}, rows))
			return nil
		},
	}
}

func newTemplateShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show a template and its variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.Templates()
			if err != nil {
				return err
			}
			t, err := mgr.Get(args[0])
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), t)
			}

			cmd.Println(cli.Header.Render(t.Name))
			if t.Description != "" {
				cmd.Println(cli.Muted.Render(t.Description))
			}
			cmd.Println()
			cmd.Println(t.Text)
			if vars := placeholderLabels(t.Text); len(vars) > 0 {
				cmd.Println()
				cmd.Println(cli.Muted.Render("variables: " + strings.Join(vars, ", ")))
			}
			return nil
		},
	}
}

func newTemplateBuildCommand(app *App) *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:     "build <key>",
		Short:   "Render a template with variable values",
		Example: `  promptbuilder template build code_review --var language=Go --var code="$(cat main.go)"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := app.Templates()
			if err != nil {
				return err
			}

			values := make(map[string]string, len(vars))
			for _, v := range vars {
				key, value, ok := strings.Cut(v, "=")
				if !ok {
					return fmt.Errorf("invalid --var %q: expected name=value", v)
				}
				values[key] = value
			}

			rendered, err := mgr.Build(args[0], values)
			if err != nil {
				return err
			}

			if app.JSON {
				return cli.EmitJSON(cmd.OutOrStdout(), map[string]string{
					"template": args[0],
					"prompt":   rendered,
				})
			}
			cmd.Println(rendered)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable value as name=value (repeatable)")
	return cmd
}

func newTemplateAddCommand(app *App) *cobra.Command {
	var (
		name        string
		description string
		body        string
	)

	cmd := &cobra.Command{
		Use:   "add <key>",
		Short: "Add a template to templates.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if body == "" {
				return fmt.Errorf("--template is required")
			}
			mgr, err := app.Templates()
			if err != nil {
				return err
			}
			if name == "" {
				name = args[0]
			}
			err = mgr.Add(args[0], template.Template{
				Name:        name,
				Description: description,
				Text:        body,
			})
			if err != nil {
				return err
			}
			cmd.Println(cli.RenderOK(fmt.Sprintf("template %q saved to %s", args[0], mgr.Path())))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the key)")
	cmd.Flags().StringVar(&description, "description", "", "what the template is for")
	cmd.Flags().StringVar(&body, "template", "", "template text with {variable} placeholders")
	return cmd
}
