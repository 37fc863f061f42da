package problem

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when a file extension maps to no codec.
var ErrUnsupportedFormat = errors.New("unsupported problem file format")

// NotFoundError reports a path that does not resolve to an existing file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("problem file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// MalformedProblemError reports a file that cannot be turned into a Problem:
// unparseable content, missing objective data, or inconsistent dimensions.
type MalformedProblemError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *MalformedProblemError) Error() string {
	var b strings.Builder
	b.WriteString("malformed problem")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *MalformedProblemError) Unwrap() error { return e.Err }

// Violation is one broken structural or numerical invariant.
type Violation struct {
	Block   string
	Message string
}

func (v Violation) String() string {
	return v.Block + ": " + v.Message
}

// InvalidProblemError lists every invariant a parsed problem violates.
type InvalidProblemError struct {
	Name       string
	Violations []Violation
}

func (e *InvalidProblemError) Error() string {
	var b strings.Builder
	if e.Name != "" {
		fmt.Fprintf(&b, "invalid problem %s", e.Name)
	} else {
		b.WriteString("invalid problem")
	}
	fmt.Fprintf(&b, " (%d violation(s))", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// Has reports whether a violation was recorded against block.
func (e *InvalidProblemError) Has(block string) bool {
	for _, v := range e.Violations {
		if v.Block == block {
			return true
		}
	}
	return false
}
