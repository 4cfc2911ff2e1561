package outline

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a structural parse failure.
type ErrorKind string

// Structural error kinds.
const (
	KindTabIndentation     ErrorKind = "TabIndentation"
	KindOddIndentation     ErrorKind = "OddIndentation"
	KindIndentJumpTooLarge ErrorKind = "IndentJumpTooLarge"
	KindUnclosedBlock      ErrorKind = "UnclosedRegistryBlock"
	KindMultipleSeparators ErrorKind = "MultipleSeparators"
)

// ParseError is a single structural violation. Line is 0-based.
type ParseError struct {
	Kind    ErrorKind
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("outline: %s at line %d: %s", e.Kind, e.Line+1, e.Message)
}

// StructuralError aggregates every structural violation found in a document.
// Structural errors block downstream use of the tree.
type StructuralError struct {
	Errors []*ParseError
}

func (e *StructuralError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		msgs[i] = pe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual parse errors to errors.Is / errors.As.
func (e *StructuralError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		out[i] = pe
	}
	return out
}

// Has reports whether any contained error has the given kind.
func (e *StructuralError) Has(kind ErrorKind) bool {
	for _, pe := range e.Errors {
		if pe.Kind == kind {
			return true
		}
	}
	return false
}

// Severity of a reported issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a non-fatal finding attached to a parse or validation pass.
// Line is 1-based; zero means the issue is not tied to a line.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// Issue codes raised by the tree builder.
const (
	CodeAmbiguousHub = "AMBIGUOUS_HUB"
)
