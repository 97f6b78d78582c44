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

// Package export renders prompts in formats consumable by other tools:
// raw API payloads, markdown, framework template files, and plain text.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

// Metadata describes the prompt being exported. All fields are optional.
type Metadata struct {
	Technique string
	Task      string
	CreatedAt string
	Tags      []string
}

// Format identifies an export format.
type Format string

const (
	FormatJSON       Format = "json"
	FormatOpenAI     Format = "openai"
	FormatAnthropic  Format = "anthropic"
	FormatMarkdown   Format = "markdown"
	FormatLangChain  Format = "langchain"
	FormatLlamaIndex Format = "llamaindex"
	FormatPromptFile Format = "prompt"
	FormatText       Format = "txt"
)

// formatInfo pairs a display name with a file extension.
type formatInfo struct {
	name      string
	extension string
}

var formats = map[Format]formatInfo{
	FormatJSON:       {"JSON (API)", ".json"},
	FormatOpenAI:     {"OpenAI Format", ".json"},
	FormatAnthropic:  {"Anthropic Format", ".json"},
	FormatMarkdown:   {"Markdown", ".md"},
	FormatLangChain:  {"LangChain", ".json"},
	FormatLlamaIndex: {"LlamaIndex", ".json"},
	FormatPromptFile: {"Prompt File", ".prompt"},
	FormatText:       {"Plain Text", ".txt"},
}

// formatOrder fixes the listing order.
var formatOrder = []Format{
	FormatJSON, FormatOpenAI, FormatAnthropic, FormatMarkdown,
	FormatLangChain, FormatLlamaIndex, FormatPromptFile, FormatText,
}

// FormatListing is one entry of Formats().
type FormatListing struct {
	Key  Format
	Name string
}

// Formats lists the available export formats.
func Formats() []FormatListing {
	listings := make([]FormatListing, 0, len(formatOrder))
	for _, key := range formatOrder {
		listings = append(listings, FormatListing{Key: key, Name: formats[key].name})
	}
	return listings
}

// Export renders a prompt in the given format and returns the content plus
// the conventional file extension.
func Export(prompt string, format Format, meta *Metadata) (string, string, error) {
	info, ok := formats[format]
	if !ok {
		return "", "", &errors.ValidationError{
			Field:      "format",
			Message:    fmt.Sprintf("unknown export format %q", format),
			Suggestion: "Run 'promptbuilder export --list' to see available formats",
		}
	}

	var content string
	var err error
	switch format {
	case FormatJSON:
		content, err = toJSON(prompt, meta)
	case FormatOpenAI:
		content, err = toOpenAI(prompt, "")
	case FormatAnthropic:
		content, err = toAnthropic(prompt, "")
	case FormatMarkdown:
		content = toMarkdown(prompt, meta)
	case FormatLangChain:
		content, err = toLangChain(prompt, meta)
	case FormatLlamaIndex:
		content, err = toLlamaIndex(prompt, meta)
	case FormatPromptFile:
		content = toPromptFile(prompt, meta)
	case FormatText:
		content = prompt
	}
	if err != nil {
		return "", "", err
	}
	return content, info.extension, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	return string(data), nil
}

func metaMap(meta *Metadata, includeTimes bool) map[string]any {
	m := map[string]any{
		"technique": meta.Technique,
		"task":      meta.Task,
	}
	if includeTimes {
		m["created_at"] = meta.CreatedAt
		tags := meta.Tags
		if tags == nil {
			tags = []string{}
		}
		m["tags"] = tags
	}
	return m
}

func toJSON(prompt string, meta *Metadata) (string, error) {
	data := map[string]any{
		"messages": []message{{Role: "user", Content: prompt}},
	}
	if meta != nil {
		data["metadata"] = metaMap(meta, true)
	}
	return marshal(data)
}

func toOpenAI(prompt, systemPrompt string) (string, error) {
	var messages []message
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: prompt})
	return marshal(map[string]any{"messages": messages})
}

func toAnthropic(prompt, systemPrompt string) (string, error) {
	data := map[string]any{
		"messages": []message{{Role: "user", Content: prompt}},
	}
	if systemPrompt != "" {
		data["system"] = systemPrompt
	}
	return marshal(data)
}

func toMarkdown(prompt string, meta *Metadata) string {
	var lines []string
	if meta != nil {
		lines = append(lines,
			"# "+meta.Task,
			"",
			"**Technique:** "+meta.Technique,
			"**Created:** "+meta.CreatedAt)
		if len(meta.Tags) > 0 {
			lines = append(lines, "**Tags:** "+strings.Join(meta.Tags, ", "))
		}
		lines = append(lines, "", "---", "")
	}
	lines = append(lines, "## Prompt", "", "```", prompt, "```")
	return strings.Join(lines, "\n")
}

func toLangChain(prompt string, meta *Metadata) (string, error) {
	// LangChain templates treat braces as placeholders.
	escaped := strings.ReplaceAll(prompt, "{", "{{")
	escaped = strings.ReplaceAll(escaped, "}", "}}")

	data := map[string]any{
		"_type":           "prompt",
		"input_variables": []string{},
		"template":        escaped,
	}
	if meta != nil {
		data["metadata"] = metaMap(meta, false)
	}
	return marshal(data)
}

func toLlamaIndex(prompt string, meta *Metadata) (string, error) {
	data := map[string]any{
		"prompt_type":     "custom",
		"prompt_template": prompt,
	}
	if meta != nil {
		data["metadata"] = metaMap(meta, false)
	}
	return marshal(data)
}

func toPromptFile(prompt string, meta *Metadata) string {
	lines := []string{"---"}
	if meta != nil {
		lines = append(lines,
			"technique: "+meta.Technique,
			"task: "+meta.Task,
			"created: "+meta.CreatedAt)
		if len(meta.Tags) > 0 {
			lines = append(lines, "tags: "+strings.Join(meta.Tags, ", "))
		}
	}
	lines = append(lines, "---", "", prompt)
	return strings.Join(lines, "\n")
}
