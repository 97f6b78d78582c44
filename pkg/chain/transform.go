package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Transform names a post-processing step applied to a completion's raw
// output before it is stored in the execution context. The set is closed.
type Transform string

const (
	// TransformNone stores the output unchanged.
	TransformNone Transform = ""

	// TransformParseJSON validates the output as JSON and stores it
	// compacted. A parse failure fails the step.
	TransformParseJSON Transform = "parse_json"

	// TransformSplitLines drops empty lines and stores the rest joined
	// by newlines.
	TransformSplitLines Transform = "split_lines"

	// TransformFirstLine stores only the first line of the output.
	TransformFirstLine Transform = "first_line"
)

// Valid reports whether t names a known transform.
func (t Transform) Valid() bool {
	switch t {
	case TransformNone, TransformParseJSON, TransformSplitLines, TransformFirstLine:
		return true
	}
	return false
}

// TransformError reports a transform failure on a step's output. Raw
// carries the untransformed output for diagnostics.
type TransformError struct {
	Step      string
	Transform Transform
	Raw       string
	Cause     error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed on step %q: %v", e.Transform, e.Step, e.Cause)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// Apply runs the transform against raw output from the named step.
func (t Transform) Apply(step, raw string) (string, error) {
	switch t {
	case TransformNone:
		return raw, nil

	case TransformParseJSON:
		trimmed := strings.TrimSpace(stripJSONFence(raw))
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err != nil {
			return "", &TransformError{Step: step, Transform: t, Raw: raw, Cause: err}
		}
		return buf.String(), nil

	case TransformSplitLines:
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n"), nil

	case TransformFirstLine:
		if i := strings.IndexByte(raw, '\n'); i >= 0 {
			return raw[:i], nil
		}
		return raw, nil

	default:
		return "", &TransformError{
			Step:      step,
			Transform: t,
			Raw:       raw,
			Cause:     fmt.Errorf("unknown transform %q", t),
		}
	}
}

// stripJSONFence removes a surrounding markdown code fence, which models
// frequently wrap JSON output in.
func stripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
