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

package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

func testMeta() *Metadata {
	return &Metadata{
		Technique: "chain_of_thought",
		Task:      "Explain recursion",
		CreatedAt: "2025-06-01T12:00:00Z",
		Tags:      []string{"teaching", "cs"},
	}
}

func TestExport_JSON(t *testing.T) {
	content, ext, err := Export("Think step by step.", FormatJSON, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ext != ".json" {
		t.Errorf("extension = %q, want .json", ext)
	}

	var doc struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Messages) != 1 || doc.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want single user message", doc.Messages)
	}
	if doc.Messages[0].Content != "Think step by step." {
		t.Errorf("content = %q", doc.Messages[0].Content)
	}
	if doc.Metadata["technique"] != "chain_of_thought" {
		t.Errorf("metadata technique = %v", doc.Metadata["technique"])
	}
	if doc.Metadata["created_at"] != "2025-06-01T12:00:00Z" {
		t.Errorf("metadata created_at = %v", doc.Metadata["created_at"])
	}
}

func TestExport_JSONWithoutMetadata(t *testing.T) {
	content, _, err := Export("hello", FormatJSON, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(content, "metadata") {
		t.Errorf("content should omit metadata when none given:\n%s", content)
	}
}

func TestExport_OpenAI(t *testing.T) {
	content, ext, err := Export("hello", FormatOpenAI, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ext != ".json" {
		t.Errorf("extension = %q", ext)
	}

	var doc struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Messages) != 1 || doc.Messages[0].Role != "user" || doc.Messages[0].Content != "hello" {
		t.Errorf("messages = %+v", doc.Messages)
	}
}

func TestExport_Anthropic(t *testing.T) {
	content, _, err := Export("hello", FormatAnthropic, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := doc["system"]; ok {
		t.Error("system field should be absent without a system prompt")
	}
	if _, ok := doc["messages"]; !ok {
		t.Error("messages field missing")
	}
}

func TestExport_Markdown(t *testing.T) {
	content, ext, err := Export("Do the thing.", FormatMarkdown, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ext != ".md" {
		t.Errorf("extension = %q, want .md", ext)
	}
	for _, want := range []string{
		"# Explain recursion",
		"**Technique:** chain_of_thought",
		"**Created:** 2025-06-01T12:00:00Z",
		"**Tags:** teaching, cs",
		"---",
		"## Prompt",
		"```\nDo the thing.\n```",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown missing %q:\n%s", want, content)
		}
	}
}

func TestExport_MarkdownWithoutMetadata(t *testing.T) {
	content, _, err := Export("plain", FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(content, "**Technique:**") {
		t.Errorf("markdown should omit metadata header:\n%s", content)
	}
	if !strings.Contains(content, "## Prompt") {
		t.Errorf("markdown missing prompt section:\n%s", content)
	}
}

func TestExport_LangChainEscapesBraces(t *testing.T) {
	content, _, err := Export("Summarize {text} briefly.", FormatLangChain, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc struct {
		Type           string   `json:"_type"`
		InputVariables []string `json:"input_variables"`
		Template       string   `json:"template"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Type != "prompt" {
		t.Errorf("_type = %q, want prompt", doc.Type)
	}
	if doc.Template != "Summarize {{text}} briefly." {
		t.Errorf("template = %q, braces not escaped", doc.Template)
	}
	if doc.InputVariables == nil || len(doc.InputVariables) != 0 {
		t.Errorf("input_variables = %v, want empty list", doc.InputVariables)
	}
}

func TestExport_LlamaIndex(t *testing.T) {
	content, _, err := Export("prompt body", FormatLlamaIndex, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["prompt_type"] != "custom" {
		t.Errorf("prompt_type = %v", doc["prompt_type"])
	}
	if doc["prompt_template"] != "prompt body" {
		t.Errorf("prompt_template = %v", doc["prompt_template"])
	}
}

func TestExport_PromptFile(t *testing.T) {
	content, ext, err := Export("the prompt", FormatPromptFile, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ext != ".prompt" {
		t.Errorf("extension = %q, want .prompt", ext)
	}
	want := "---\n" +
		"technique: chain_of_thought\n" +
		"task: Explain recursion\n" +
		"created: 2025-06-01T12:00:00Z\n" +
		"tags: teaching, cs\n" +
		"---\n\n" +
		"the prompt"
	if content != want {
		t.Errorf("prompt file:\ngot:\n%s\nwant:\n%s", content, want)
	}
}

func TestExport_Text(t *testing.T) {
	content, ext, err := Export("raw text", FormatText, testMeta())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ext != ".txt" {
		t.Errorf("extension = %q, want .txt", ext)
	}
	if content != "raw text" {
		t.Errorf("content = %q", content)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	_, _, err := Export("x", Format("yaml"), nil)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	var verr *pberrors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error type = %T, want *errors.ValidationError", err)
	}
}

func TestFormats(t *testing.T) {
	listings := Formats()
	if len(listings) != 8 {
		t.Fatalf("len(Formats()) = %d, want 8", len(listings))
	}
	if listings[0].Key != FormatJSON || listings[0].Name != "JSON (API)" {
		t.Errorf("first listing = %+v", listings[0])
	}
	if listings[7].Key != FormatText {
		t.Errorf("last listing = %+v", listings[7])
	}
}
