// Package template implements prompt template rendering and a manager for
// user-defined templates stored as YAML.
//
// Templates use {variable} placeholders. Rendering is strict: a placeholder
// with no matching variable is an error, never a silent empty substitution,
// so chain authors discover missing inputs immediately.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches {identifier} placeholders. Braces that do not wrap a
// valid identifier (literal "{}", "{1st}", unbalanced braces) are not treated
// as placeholders and pass through unchanged.
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// MissingVariableError reports a placeholder with no value in the mapping.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q in template", e.Name)
}

// Render substitutes every {identifier} placeholder in tmpl with the
// corresponding value from vars. It returns a MissingVariableError naming the
// first placeholder that has no mapping entry.
func Render(tmpl string, vars map[string]string) (string, error) {
	for _, name := range Variables(tmpl) {
		if _, ok := vars[name]; !ok {
			return "", &MissingVariableError{Name: name}
		}
	}

	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		return vars[match[1:len(match)-1]]
	}), nil
}

// defaultedRe additionally matches {identifier:default} placeholders, where
// the default is any text up to the closing brace, possibly empty.
var defaultedRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^{}]*))?\}`)

// Placeholder describes one placeholder referenced by a template.
type Placeholder struct {
	Name       string
	Default    string
	HasDefault bool
}

// RenderWithDefaults substitutes {identifier} and {identifier:default}
// placeholders. A supplied variable always wins over the default; a
// placeholder with neither is a MissingVariableError. Custom templates use
// this form; chain prompt templates stay on the strict Render.
func RenderWithDefaults(tmpl string, vars map[string]string) (string, error) {
	for _, p := range Placeholders(tmpl) {
		if _, ok := vars[p.Name]; !ok && !p.HasDefault {
			return "", &MissingVariableError{Name: p.Name}
		}
	}

	return defaultedRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name, def, _ := strings.Cut(match[1:len(match)-1], ":")
		if v, ok := vars[name]; ok {
			return v
		}
		return def
	}), nil
}

// Placeholders returns the placeholders referenced by tmpl, in order of
// first appearance, without duplicates. The first occurrence of a name
// decides its default.
func Placeholders(tmpl string) []Placeholder {
	seen := make(map[string]bool)
	var out []Placeholder
	for _, m := range defaultedRe.FindAllStringSubmatch(tmpl, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		_, _, hasDefault := strings.Cut(m[0], ":")
		out = append(out, Placeholder{Name: m[1], Default: m[2], HasDefault: hasDefault})
	}
	return out
}

// Variables returns the placeholder identifiers referenced by tmpl, in order
// of first appearance, without duplicates.
func Variables(tmpl string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
