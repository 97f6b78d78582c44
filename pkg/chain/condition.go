package chain

import (
	"fmt"
	"regexp"
	"strings"
)

// Condition is a closed predicate over a step's transformed output,
// written as a tag plus optional argument:
//
//	contains:<substring>
//	not_contains:<substring>
//	equals:<value>
//	matches:<regexp>
//	non_empty
//
// A false condition stops the chain early without failing it. The closed
// set avoids embedding a general expression evaluator.
type Condition struct {
	tag string
	arg string
	re  *regexp.Regexp
}

// ConditionError reports a malformed condition expression.
type ConditionError struct {
	Step      string
	Condition string
	Cause     error
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("invalid condition %q on step %q: %v", e.Condition, e.Step, e.Cause)
}

func (e *ConditionError) Unwrap() error {
	return e.Cause
}

// ParseCondition parses a condition expression. An empty expression is not
// valid here; callers treat absent conditions as always-true.
func ParseCondition(expr string) (*Condition, error) {
	tag, arg, hasArg := strings.Cut(expr, ":")
	switch tag {
	case "non_empty":
		if hasArg {
			return nil, fmt.Errorf("non_empty takes no argument")
		}
		return &Condition{tag: tag}, nil

	case "contains", "not_contains", "equals":
		if !hasArg {
			return nil, fmt.Errorf("%s requires an argument", tag)
		}
		return &Condition{tag: tag, arg: arg}, nil

	case "matches":
		if !hasArg {
			return nil, fmt.Errorf("matches requires a regular expression argument")
		}
		re, err := regexp.Compile(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern: %w", err)
		}
		return &Condition{tag: tag, arg: arg, re: re}, nil

	default:
		return nil, fmt.Errorf("unknown predicate %q (valid: contains, not_contains, equals, matches, non_empty)", tag)
	}
}

// Evaluate applies the condition to a step's output.
func (c *Condition) Evaluate(output string) bool {
	switch c.tag {
	case "non_empty":
		return strings.TrimSpace(output) != ""
	case "contains":
		return strings.Contains(output, c.arg)
	case "not_contains":
		return !strings.Contains(output, c.arg)
	case "equals":
		return output == c.arg
	case "matches":
		return c.re.MatchString(output)
	}
	return false
}

// String returns the condition in its tag:argument form.
func (c *Condition) String() string {
	if c.arg == "" {
		return c.tag
	}
	return c.tag + ":" + c.arg
}
