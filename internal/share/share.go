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

// Package share stores prompt libraries as JSON files and turns them into
// portable share codes that fit in a chat message or a gist.
package share

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

// shareCodePrefix marks a string as a promptbuilder share code.
const shareCodePrefix = "pb://"

// SharedPrompt is one prompt inside a library.
type SharedPrompt struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Technique   string   `json:"technique"`
	Prompt      string   `json:"prompt"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// Library is a named collection of shared prompts.
type Library struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Author      string         `json:"author"`
	CreatedAt   string         `json:"created_at"`
	Prompts     []SharedPrompt `json:"prompts"`
}

// Service reads and writes prompt libraries under a config directory.
type Service struct {
	dir string
}

// NewService creates the libraries directory under configDir if needed.
func NewService(configDir string) (*Service, error) {
	dir := filepath.Join(configDir, "libraries")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create libraries directory: %w", err)
	}
	return &Service{dir: dir}, nil
}

// NewLibrary assembles a library, filling defaults for version, timestamps,
// and prompt IDs.
func NewLibrary(name, description, author, version string, prompts []SharedPrompt) *Library {
	if version == "" {
		version = "1.0.0"
	}
	lib := &Library{
		Name:        name,
		Description: description,
		Version:     version,
		Author:      author,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Prompts:     prompts,
	}
	normalizePrompts(lib)
	return lib
}

func normalizePrompts(lib *Library) {
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range lib.Prompts {
		p := &lib.Prompts[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt == "" {
			p.CreatedAt = now
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
}

// libraryFileName derives a file name from a library name.
func libraryFileName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_") + ".json"
}

// Export writes the library as JSON. An empty path writes into the
// libraries directory using a name derived from the library name.
// Returns the path written.
func (s *Service) Export(lib *Library, path string) (string, error) {
	if lib.Name == "" {
		return "", &errors.ValidationError{
			Field:   "name",
			Message: "library name cannot be empty",
		}
	}
	if path == "" {
		path = filepath.Join(s.dir, libraryFileName(lib.Name))
	}
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode library: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write library: %w", err)
	}
	return path, nil
}

// Import reads a library from a JSON file.
func (s *Service) Import(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "library", ID: path}
		}
		return nil, fmt.Errorf("read library: %w", err)
	}
	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, &errors.ValidationError{
			Field:      "library",
			Message:    fmt.Sprintf("invalid library file %s: %v", path, err),
			Suggestion: "The file must be a JSON prompt library",
		}
	}
	if lib.Name == "" {
		lib.Name = "Imported"
	}
	if lib.Version == "" {
		lib.Version = "1.0.0"
	}
	normalizePrompts(&lib)
	return &lib, nil
}

// List returns the names of libraries stored locally, sorted.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list libraries: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads a locally stored library by name.
func (s *Service) Load(name string) (*Library, error) {
	path := filepath.Join(s.dir, name+".json")
	if _, err := os.Stat(path); err != nil {
		return nil, &errors.NotFoundError{Resource: "library", ID: name}
	}
	return s.Import(path)
}

// GenerateShareCode packs the library name and prompts into a compact
// pb:// code. Description, version, and author are deliberately dropped
// to keep codes short.
func GenerateShareCode(lib *Library) (string, error) {
	payload := struct {
		Name    string         `json:"name"`
		Prompts []SharedPrompt `json:"prompts"`
	}{Name: lib.Name, Prompts: lib.Prompts}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return "", fmt.Errorf("compress share payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("compress share payload: %w", err)
	}

	return shareCodePrefix + base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// ParseShareCode unpacks a pb:// share code into a library.
func ParseShareCode(code string) (*Library, error) {
	if !strings.HasPrefix(code, shareCodePrefix) {
		return nil, &errors.ValidationError{
			Field:      "code",
			Message:    "share code must start with pb://",
			Suggestion: "Paste the full code, including the pb:// prefix",
		}
	}

	compressed, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(code, shareCodePrefix))
	if err != nil {
		return nil, &errors.ValidationError{
			Field:      "code",
			Message:    fmt.Sprintf("share code is not valid base64: %v", err),
			Suggestion: "The code may have been truncated or mangled in transit",
		}
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "code",
			Message: fmt.Sprintf("share code payload is not gzip data: %v", err),
		}
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "code",
			Message: fmt.Sprintf("share code payload is corrupt: %v", err),
		}
	}

	var payload struct {
		Name    string         `json:"name"`
		Prompts []SharedPrompt `json:"prompts"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &errors.ValidationError{
			Field:   "code",
			Message: fmt.Sprintf("share code payload is not a prompt library: %v", err),
		}
	}

	name := payload.Name
	if name == "" {
		name = "Shared"
	}
	lib := &Library{
		Name:      name,
		Version:   "1.0.0",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Prompts:   payload.Prompts,
	}
	normalizePrompts(lib)
	return lib, nil
}
