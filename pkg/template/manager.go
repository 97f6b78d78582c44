package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Template is a user-defined prompt template loaded from the templates file.
type Template struct {
	// Key is the identifier the template is stored under. Not serialized;
	// populated from the map key at load time.
	Key string `yaml:"-"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Description summarizes what the template is for.
	Description string `yaml:"description,omitempty"`

	// Text is the template body with {variable} placeholders.
	Text string `yaml:"template"`

	// Variables lists the placeholders the template expects. Informational;
	// rendering derives the actual set from the body.
	Variables []string `yaml:"variables,omitempty"`
}

// templatesFile is the on-disk YAML document shape.
type templatesFile struct {
	Templates map[string]Template `yaml:"templates"`
}

// Manager loads user-defined templates from a YAML file and keeps them
// available for prompt building. Safe for concurrent use; Watch reloads the
// set when the file changes.
type Manager struct {
	path string

	mu        sync.RWMutex
	templates map[string]Template
}

// NewManager creates a Manager backed by the templates file at path.
// If the file does not exist it is seeded with the starter templates.
func NewManager(path string) (*Manager, error) {
	if err := ensureExists(path); err != nil {
		return nil, err
	}

	m := &Manager{path: path}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// ensureExists writes the starter templates file if path is missing.
func ensureExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterTemplatesYAML), 0600); err != nil {
		return fmt.Errorf("failed to write starter templates: %w", err)
	}
	return nil
}

// Reload re-reads the templates file, replacing the in-memory set.
func (m *Manager) Reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return &pberrors.ConfigError{
			Key:    "templates",
			Reason: fmt.Sprintf("failed to read %s", m.path),
			Cause:  err,
		}
	}

	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return &pberrors.ConfigError{
			Key:    "templates",
			Reason: fmt.Sprintf("failed to parse %s", m.path),
			Cause:  err,
		}
	}

	templates := make(map[string]Template, len(file.Templates))
	for key, tmpl := range file.Templates {
		tmpl.Key = key
		if tmpl.Name == "" {
			tmpl.Name = key
		}
		if len(tmpl.Variables) == 0 {
			tmpl.Variables = Variables(tmpl.Text)
		}
		templates[key] = tmpl
	}

	m.mu.Lock()
	m.templates = templates
	m.mu.Unlock()
	return nil
}

// List returns all templates sorted by key.
func (m *Manager) List() []Template {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Template, 0, len(m.templates))
	for _, tmpl := range m.templates {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Get returns the template stored under key.
func (m *Manager) Get(key string) (Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tmpl, ok := m.templates[key]
	if !ok {
		return Template{}, &pberrors.NotFoundError{Resource: "template", ID: key}
	}
	return tmpl, nil
}

// Build renders the template stored under key with the given variables.
// Placeholders may carry defaults ({name:default}); a supplied variable
// overrides the default.
func (m *Manager) Build(key string, vars map[string]string) (string, error) {
	tmpl, err := m.Get(key)
	if err != nil {
		return "", err
	}
	return RenderWithDefaults(tmpl.Text, vars)
}

// Add writes a new template to the templates file and the in-memory set.
// Adding a key that already exists replaces it.
func (m *Manager) Add(key string, tmpl Template) error {
	if key == "" {
		return &pberrors.ValidationError{
			Field:   "key",
			Message: "template key must not be empty",
		}
	}
	if tmpl.Text == "" {
		return &pberrors.ValidationError{
			Field:      "template",
			Message:    "template body must not be empty",
			Suggestion: "provide a body with {variable} placeholders",
		}
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse templates file: %w", err)
	}
	if file.Templates == nil {
		file.Templates = make(map[string]Template)
	}

	tmpl.Key = key
	if tmpl.Name == "" {
		tmpl.Name = key
	}
	if len(tmpl.Variables) == 0 {
		tmpl.Variables = Variables(tmpl.Text)
	}
	file.Templates[key] = tmpl

	out, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	if err := os.WriteFile(m.path, out, 0600); err != nil {
		return fmt.Errorf("failed to write templates file: %w", err)
	}

	m.mu.Lock()
	m.templates[key] = tmpl
	m.mu.Unlock()
	return nil
}

// Path returns the templates file path.
func (m *Manager) Path() string {
	return m.path
}
