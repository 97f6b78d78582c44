package chain

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chains.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s, path
}

func TestStore_Builtins(t *testing.T) {
	s, _ := newTestStore(t)

	for _, name := range []string{"research_and_summarize", "code_review_chain"} {
		c, err := s.Get(name)
		if err != nil {
			t.Errorf("built-in %q missing: %v", name, err)
			continue
		}
		if err := c.Validate(); err != nil {
			t.Errorf("built-in %q invalid: %v", name, err)
		}
		if !s.IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false", name)
		}
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get("nope")
	var nf *pberrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	s, path := newTestStore(t)

	c := &Chain{
		Name:        "custom",
		Description: "mine",
		Steps: []Step{
			{Name: "only", PromptTemplate: "Do {thing}", OutputKey: "done", Transform: TransformFirstLine},
		},
	}
	if err := s.Save(c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The persisted document is keyed by chain name.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("persisted file is not valid JSON: %v", err)
	}
	if _, ok := doc["custom"]; !ok {
		t.Errorf("document keys = %v, want 'custom'", doc)
	}
	if _, ok := doc["research_and_summarize"]; ok {
		t.Error("built-in chain was persisted")
	}

	// A fresh store sees the saved chain.
	s2, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s2.Get("custom")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "mine" || len(got.Steps) != 1 {
		t.Errorf("reloaded chain = %+v", got)
	}
	if got.Steps[0].Transform != TransformFirstLine {
		t.Errorf("Transform = %q", got.Steps[0].Transform)
	}
	if s2.IsBuiltin("custom") {
		t.Error("user chain reported as built-in")
	}
}

func TestStore_SaveInvalidChain(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Save(&Chain{Name: "bad"})
	if err == nil {
		t.Error("expected validation error for chain with no steps")
	}
}

func TestStore_LoadRejectsInvalidChains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.json")
	bad := `{"dup": {"description": "", "steps": [
		{"name": "a", "prompt_template": "x", "output_key": "k"},
		{"name": "b", "prompt_template": "y", "output_key": "k"}
	]}}`
	if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewStore(path)
	var confErr *pberrors.ConfigError
	if !errors.As(err, &confErr) {
		t.Errorf("expected ConfigError for duplicate output keys, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	s, _ := newTestStore(t)

	chains := s.List()
	if len(chains) != 2 {
		t.Fatalf("List() returned %d chains, want 2 built-ins", len(chains))
	}
	// Sorted by name.
	if chains[0].Name != "code_review_chain" || chains[1].Name != "research_and_summarize" {
		t.Errorf("List order = %q, %q", chains[0].Name, chains[1].Name)
	}
}

func TestStore_Delete(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Delete("research_and_summarize"); err == nil {
		t.Error("deleting a built-in should fail")
	}
	if err := s.Delete("ghost"); err == nil {
		t.Error("deleting an unknown chain should fail")
	}

	c := &Chain{
		Name:  "mine",
		Steps: []Step{{Name: "only", PromptTemplate: "x"}},
	}
	if err := s.Save(c); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("mine"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("mine"); err == nil {
		t.Error("deleted chain still present")
	}
}

func TestStore_UserChainShadowsBuiltin(t *testing.T) {
	s, _ := newTestStore(t)

	c := &Chain{
		Name:        "research_and_summarize",
		Description: "my version",
		Steps:       []Step{{Name: "only", PromptTemplate: "about {topic}"}},
	}
	if err := s.Save(c); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("research_and_summarize")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "my version" {
		t.Error("user chain did not shadow the built-in")
	}
	if s.IsBuiltin("research_and_summarize") {
		t.Error("shadowed built-in still reported as built-in")
	}

	// Deleting the shadow restores the built-in.
	if err := s.Delete("research_and_summarize"); err != nil {
		t.Fatal(err)
	}
	restored, err := s.Get("research_and_summarize")
	if err != nil {
		t.Fatal(err)
	}
	if restored.Description == "my version" {
		t.Error("built-in not restored after deleting shadow")
	}
}
