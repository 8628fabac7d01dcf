// Package diag defines the diagnostics shared by every compiler stage:
// issues with a machine-readable kind, the accumulated report, and the error
// types for the three blocking classes (parse, structural, semantic).
package diag

import (
	"fmt"
	"strings"
)

// Kind is a machine-readable issue identifier such as "DanglingMeshReference".
type Kind string

// Severity separates blocking errors from advisory warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Issue is a single finding. Path locates the field in the topology form
// (e.g. "coupling.time_window_size"); Refs carries the offending identifiers
// in a fixed, kind-specific order.
type Issue struct {
	Kind     Kind     `yaml:"kind" json:"kind"`
	Severity Severity `yaml:"-" json:"-"`
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`
	Message  string   `yaml:"message" json:"message"`
	Refs     []string `yaml:"refs,omitempty" json:"refs,omitempty"`
	Hint     string   `yaml:"hint,omitempty" json:"hint,omitempty"`
}

// Error renders the issue as "[Kind] path: message".
func (i Issue) Error() string {
	if i.Path == "" {
		return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Path, i.Message)
}

// Errorf builds an error-severity issue.
func Errorf(kind Kind, path string, refs []string, format string, args ...any) Issue {
	return Issue{Kind: kind, Severity: SeverityError, Path: path, Refs: refs, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity issue.
func Warnf(kind Kind, path string, refs []string, format string, args ...any) Issue {
	return Issue{Kind: kind, Severity: SeverityWarning, Path: path, Refs: refs, Message: fmt.Sprintf(format, args...)}
}

// WithHint returns a copy of i carrying a remediation hint.
func (i Issue) WithHint(hint string) Issue {
	i.Hint = hint
	return i
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

// Report accumulates errors and warnings across stages. Callers decide
// whether "valid with warnings" is acceptable.
type Report struct {
	Errors   []Issue `yaml:"errors,omitempty" json:"errors,omitempty"`
	Warnings []Issue `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Add routes each issue by severity, preserving order.
func (r *Report) Add(issues ...Issue) {
	for _, i := range issues {
		if i.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, i)
		} else {
			r.Errors = append(r.Errors, i)
		}
	}
}

// Merge appends other's issues to r.
func (r *Report) Merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// OK reports whether r holds no errors. Warnings do not count.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Kinds returns the kinds of r's errors in order.
func (r Report) Kinds() []Kind {
	out := make([]Kind, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Kind
	}
	return out
}

// WarningKinds returns the kinds of r's warnings in order.
func (r Report) WarningKinds() []Kind {
	out := make([]Kind, len(r.Warnings))
	for i, w := range r.Warnings {
		out[i] = w.Kind
	}
	return out
}

// ---------------------------------------------------------------------------
// Blocking error types
// ---------------------------------------------------------------------------

// ParseError reports malformed input syntax. It halts the pipeline.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StructuralErrors is the set of schema shape violations found in one pass.
type StructuralErrors []Issue

func (e StructuralErrors) Error() string { return joinIssues("structural", e) }

// SemanticErrors is the set of referential, uniqueness, cardinality and
// positivity violations found in one pass.
type SemanticErrors []Issue

func (e SemanticErrors) Error() string { return joinIssues("semantic", e) }

func joinIssues(class string, issues []Issue) string {
	if len(issues) == 1 {
		return fmt.Sprintf("%s error: %s", class, issues[0].Error())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s errors:", len(issues), class)
	for _, i := range issues {
		b.WriteString("\n  ")
		b.WriteString(i.Error())
	}
	return b.String()
}
