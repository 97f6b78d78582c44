package template

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return m
}

func TestNewManager_SeedsStarterTemplates(t *testing.T) {
	m := newTestManager(t)

	if _, err := os.Stat(m.Path()); err != nil {
		t.Fatalf("templates file not created: %v", err)
	}

	for _, key := range []string{"code_review", "explain_like_5", "debug_helper", "refactor", "api_design"} {
		if _, err := m.Get(key); err != nil {
			t.Errorf("starter template %q missing: %v", key, err)
		}
	}
}

func TestNewManager_PreservesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	custom := `templates:
  mine:
    name: "Mine"
    template: "do {task}"
`
	if err := os.WriteFile(path, []byte(custom), 0600); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Get("mine"); err != nil {
		t.Errorf("existing template not loaded: %v", err)
	}
	if _, err := m.Get("code_review"); err == nil {
		t.Error("starter templates should not be merged into an existing file")
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t)

	list := m.List()
	if len(list) != 5 {
		t.Fatalf("expected 5 starter templates, got %d", len(list))
	}

	for i := 1; i < len(list); i++ {
		if list[i-1].Key >= list[i].Key {
			t.Errorf("list not sorted: %q before %q", list[i-1].Key, list[i].Key)
		}
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Get("nope")
	if err == nil {
		t.Fatal("expected error for unknown template")
	}

	var nf *pberrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %T", err)
	}
}

func TestManager_Build(t *testing.T) {
	m := newTestManager(t)

	prompt, err := m.Build("explain_like_5", map[string]string{"task": "recursion"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !strings.Contains(prompt, "Topic: recursion") {
		t.Errorf("prompt missing substituted topic: %q", prompt)
	}
	if strings.Contains(prompt, "{task}") {
		t.Errorf("prompt still contains placeholder: %q", prompt)
	}
}

func TestManager_Build_MissingVariable(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Build("code_review", map[string]string{"task": "x"})
	if err == nil {
		t.Fatal("expected error when context variable is missing")
	}

	var missing *MissingVariableError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingVariableError, got %T", err)
	}
	if missing.Name != "context" {
		t.Errorf("error names %q, want 'context'", missing.Name)
	}
}

func TestManager_Build_DefaultValue(t *testing.T) {
	m := newTestManager(t)

	err := m.Add("translate", Template{
		Name: "Translate",
		Text: "Translate {text} into {target:French}",
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	prompt, err := m.Build("translate", map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if prompt != "Translate hello into French" {
		t.Errorf("prompt = %q, want default target", prompt)
	}

	prompt, err = m.Build("translate", map[string]string{"text": "hello", "target": "German"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if prompt != "Translate hello into German" {
		t.Errorf("prompt = %q, want supplied target", prompt)
	}
}

func TestManager_Add(t *testing.T) {
	m := newTestManager(t)

	err := m.Add("commit_message", Template{
		Name:        "Commit Message",
		Description: "Write a conventional commit message",
		Text:        "Write a commit message for: {task}",
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	tmpl, err := m.Get("commit_message")
	if err != nil {
		t.Fatal(err)
	}
	if len(tmpl.Variables) != 1 || tmpl.Variables[0] != "task" {
		t.Errorf("expected derived variables [task], got %v", tmpl.Variables)
	}

	// Survives a reload from disk.
	m2, err := NewManager(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m2.Get("commit_message"); err != nil {
		t.Errorf("added template not persisted: %v", err)
	}
}

func TestManager_Add_Validation(t *testing.T) {
	m := newTestManager(t)

	if err := m.Add("", Template{Text: "x"}); err == nil {
		t.Error("expected error for empty key")
	}
	if err := m.Add("empty_body", Template{}); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestManager_Reload(t *testing.T) {
	m := newTestManager(t)

	updated := `templates:
  only_one:
    name: "Only One"
    template: "just {task}"
`
	if err := os.WriteFile(m.Path(), []byte(updated), 0600); err != nil {
		t.Fatal(err)
	}

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}

	if _, err := m.Get("only_one"); err != nil {
		t.Errorf("reloaded template missing: %v", err)
	}
	if _, err := m.Get("code_review"); err == nil {
		t.Error("stale template still present after reload")
	}
}

func TestManager_Reload_BadYAMLKeepsSet(t *testing.T) {
	m := newTestManager(t)

	if err := os.WriteFile(m.Path(), []byte("templates: ["), 0600); err != nil {
		t.Fatal(err)
	}

	if err := m.Reload(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}

	// The previous set stays usable after a failed reload.
	if _, err := m.Get("code_review"); err != nil {
		t.Errorf("template set lost after failed reload: %v", err)
	}
}
