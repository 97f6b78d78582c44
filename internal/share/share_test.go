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

package share

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func testLibrary() *Library {
	return NewLibrary("Code Helpers", "Prompts for everyday coding", "jdoe", "", []SharedPrompt{
		{Name: "explain", Technique: "chain_of_thought", Prompt: "Explain this code step by step."},
		{Name: "review", Technique: "role_playing", Prompt: "Review this code as a senior engineer.", Tags: []string{"review"}},
	})
}

func TestNewLibrary_Defaults(t *testing.T) {
	lib := testLibrary()
	if lib.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", lib.Version)
	}
	if lib.CreatedAt == "" {
		t.Error("CreatedAt not set")
	}
	for _, p := range lib.Prompts {
		if p.ID == "" {
			t.Errorf("prompt %q has no ID", p.Name)
		}
		if p.CreatedAt == "" {
			t.Errorf("prompt %q has no created_at", p.Name)
		}
		if p.Tags == nil {
			t.Errorf("prompt %q has nil tags", p.Name)
		}
	}
	if lib.Prompts[0].ID == lib.Prompts[1].ID {
		t.Error("prompt IDs should be unique")
	}
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	lib := testLibrary()
	path, err := svc.Export(lib, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "code_helpers.json" {
		t.Errorf("path = %q, want code_helpers.json file name", path)
	}

	got, err := svc.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Name != "Code Helpers" || got.Author != "jdoe" {
		t.Errorf("library = %+v", got)
	}
	if len(got.Prompts) != 2 {
		t.Fatalf("len(Prompts) = %d, want 2", len(got.Prompts))
	}
	if got.Prompts[0].ID != lib.Prompts[0].ID {
		t.Errorf("prompt ID changed across round trip")
	}
}

func TestService_ExportEmptyName(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Export(&Library{}, "")
	var verr *pberrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want *errors.ValidationError", err)
	}
}

func TestService_ImportMissing(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Import(filepath.Join(t.TempDir(), "nope.json"))
	var nf *pberrors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want *errors.NotFoundError", err)
	}
}

func TestService_ImportInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Import(path)
	var verr *pberrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want *errors.ValidationError", err)
	}
}

func TestService_ListAndLoad(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Export(testLibrary(), ""); err != nil {
		t.Fatalf("export: %v", err)
	}
	other := NewLibrary("API Prompts", "", "", "", nil)
	if _, err := svc.Export(other, ""); err != nil {
		t.Fatalf("export: %v", err)
	}

	names, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"api_prompts", "code_helpers"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("List() = %v, want %v", names, want)
	}

	lib, err := svc.Load("code_helpers")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.Name != "Code Helpers" {
		t.Errorf("Name = %q", lib.Name)
	}

	if _, err := svc.Load("missing"); err == nil {
		t.Error("expected error for missing library")
	}
}

func TestShareCode_RoundTrip(t *testing.T) {
	lib := testLibrary()
	code, err := GenerateShareCode(lib)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(code, "pb://") {
		t.Fatalf("code = %q, want pb:// prefix", code)
	}

	got, err := ParseShareCode(code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Name != "Code Helpers" {
		t.Errorf("Name = %q", got.Name)
	}
	if len(got.Prompts) != 2 {
		t.Fatalf("len(Prompts) = %d, want 2", len(got.Prompts))
	}
	if got.Prompts[1].Prompt != "Review this code as a senior engineer." {
		t.Errorf("prompt text = %q", got.Prompts[1].Prompt)
	}
}

func TestParseShareCode_Errors(t *testing.T) {
	// gzip of non-JSON bytes, valid through the gzip stage.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("not json at all"))
	gz.Close()
	gzNotJSON := "pb://" + base64.URLEncoding.EncodeToString(buf.Bytes())

	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{"missing prefix", "https://example.com/abc", "must start with pb://"},
		{"bad base64", "pb://!!!not-base64!!!", "not valid base64"},
		{"not gzip", "pb://" + base64.URLEncoding.EncodeToString([]byte("plain")), "not gzip"},
		{"not json", gzNotJSON, "not a prompt library"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseShareCode(tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseShareCode_EmptyNameDefaults(t *testing.T) {
	code, err := GenerateShareCode(&Library{Prompts: []SharedPrompt{{Name: "p", Prompt: "x"}}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	lib, err := ParseShareCode(code)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lib.Name != "Shared" {
		t.Errorf("Name = %q, want Shared", lib.Name)
	}
	if lib.Prompts[0].ID == "" {
		t.Error("imported prompt should get a UUID")
	}
}
