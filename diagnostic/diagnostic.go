// Copyright © 2024 The ELPS authors

// Package diagnostic renders compiler and lint findings as annotated source
// snippets in the style of rustc.  It depends on no other package of the
// module so every command can use it.
package diagnostic

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight.  Coordinates are
// one-based and EndCol is the column of the last highlighted character.
type Span struct {
	File    string // path for reading source; display name if unreadable
	Line    int
	Col     int
	EndLine int // 0 means Line
	EndCol  int // 0 means the end of the token at Col
	Label   string
}

// Diagnostic is a single error, warning or note with optional source
// annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	// Code names the check that produced the diagnostic, e.g.
	// "unused-variable".  It is shown next to the severity.
	Code    string
	Message string
	Spans   []Span
	Notes   []string
}

// Count tallies diagnostics by severity.
func Count(diags []Diagnostic) map[Severity]int {
	n := make(map[Severity]int)
	for _, d := range diags {
		n[d.Severity]++
	}
	return n
}
