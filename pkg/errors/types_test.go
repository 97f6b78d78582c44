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

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "with field",
			err:  &ValidationError{Field: "temperature", Message: "must be in [0,2]"},
			want: "validation failed on temperature: must be in [0,2]",
		},
		{
			name: "without field",
			err:  &ValidationError{Message: "chain must have at least one step"},
			want: "validation failed: chain must have at least one step",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "chain", ID: "research_and_summarize"}
	want := "chain not found: research_and_summarize"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{
		Provider:   "anthropic",
		StatusCode: 429,
		Message:    "rate limited",
		RequestID:  "req-123",
	}

	got := err.Error()
	for _, part := range []string{"anthropic", "HTTP 429", "rate limited", "req-123"} {
		if !strings.Contains(got, part) {
			t.Errorf("Error() = %q, missing %q", got, part)
		}
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := &ProviderError{Provider: "openai", Message: "request failed", Cause: cause}

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := stderrors.New("no such file")
	err := &ConfigError{Key: "templates", Reason: "cannot read config", Cause: cause}

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "templates") {
		t.Errorf("Error() = %q, missing key", err.Error())
	}
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Operation: "completion request", Duration: 30 * time.Second}
	want := "completion request operation timed out after 30s"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := stderrors.New("boom")
	wrapped := Wrap(base, "running chain")
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
	if wrapped.Error() != "running chain: boom" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "loading %s", "x") != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := stderrors.New("parse error")
	wrapped := Wrapf(base, "loading template %q", "code_review")
	want := fmt.Sprintf("loading template %q: parse error", "code_review")
	if wrapped.Error() != want {
		t.Errorf("Wrapf() = %q, want %q", wrapped.Error(), want)
	}
}

func TestSuggestion(t *testing.T) {
	verr := &ValidationError{Field: "f", Message: "m", Suggestion: "fix the field"}
	if got := Suggestion(verr); got != "fix the field" {
		t.Errorf("Suggestion() = %q", got)
	}

	perr := &ProviderError{Provider: "openai", Message: "m", Suggestion: "check your API key"}
	if got := Suggestion(perr); got != "check your API key" {
		t.Errorf("Suggestion() = %q", got)
	}

	if got := Suggestion(stderrors.New("plain")); got != "" {
		t.Errorf("Suggestion(plain) = %q, want empty", got)
	}
}
