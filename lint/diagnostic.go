// Copyright © 2024 The ELPS authors

package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Severity indicates the severity level of a lint diagnostic.  The zero
// value means the reporting analyzer's default and is treated as a warning
// outside of a Pass.
type Severity int

const (
	severityUnset Severity = iota
	SeverityError
	SeverityWarning
	SeverityInfo
)

var severityNames = map[Severity]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Severity) orDefault() Severity {
	if s == severityUnset {
		return SeverityWarning
	}
	return s
}

// ParseSeverity returns the severity named name.
func ParseSeverity(name string) (Severity, error) {
	for s, n := range severityNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return severityUnset, fmt.Errorf("unknown severity: %q", name)
}

// MarshalText encodes the severity by name, so JSON and msgpack encoders
// write it as a string.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.orDefault().String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the problem.
	Pos Position `json:"pos"`

	// End is the location of the last character of the problem, when
	// known.
	End Position `json:"end"`

	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`
}

// NodeDiagnostic returns a diagnostic covering the source range of n.
func NodeDiagnostic(filename string, n ast.Node, msg string) Diagnostic {
	r := n.Range()
	return Diagnostic{
		Pos:     Position{File: filename, Line: r.StartLine, Col: r.StartCol},
		End:     Position{File: filename, Line: r.EndLine, Col: r.EndCol},
		Message: msg,
	}
}

// Range returns the raw source range of d.  A diagnostic without an end
// covers a single character.
func (d Diagnostic) Range() token.Range {
	r := token.Range{StartLine: d.Pos.Line, StartCol: d.Pos.Col, EndLine: d.End.Line, EndCol: d.End.Col}
	if r.EndLine == 0 {
		r.EndLine, r.EndCol = r.StartLine, r.StartCol
	}
	return r
}

// String formats d the way compilers do, as
//
//	file:line:col: severity: message [analyzer]
//
// followed by one indented line per note.
func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Pos, d.Severity.orDefault(), d.Message)
	if d.Analyzer != "" {
		fmt.Fprintf(&b, " [%s]", d.Analyzer)
	}
	for _, n := range d.Notes {
		b.WriteString("\n  = note: ")
		b.WriteString(n)
	}
	return b.String()
}

// Position identifies a location in source code.  Columns count bytes and
// are zero when unknown.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

func (p Position) String() string {
	switch {
	case p.Line == 0:
		return p.File
	case p.Col > 0:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	default:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	}
}

// Less orders diagnostics by file and then position.
func Less(a, b Diagnostic) bool {
	if a.Pos.File != b.Pos.File {
		return a.Pos.File < b.Pos.File
	}
	if a.Pos.Line != b.Pos.Line {
		return a.Pos.Line < b.Pos.Line
	}
	return a.Pos.Col < b.Pos.Col
}

// FormatText writes one diagnostic per line, see Diagnostic.String.
func FormatText(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// FormatJSON writes diagnostics as an indented JSON array.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
