// Copyright © 2024 The ELPS authors

package cmd

import (
	"errors"
	"io"

	"github.com/luthersystems/balsp/diagnostic"
	lintpkg "github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/parser/token"
)

// syntaxAnalyzer names findings of the parser among lint findings.
const syntaxAnalyzer = "syntax"

func colorMode() diagnostic.ColorMode {
	return diagnostic.ParseColorMode(colorFlag)
}

func newRenderer() *diagnostic.Renderer {
	return &diagnostic.Renderer{Color: colorMode()}
}

// syntaxFinding converts a recorded syntax error of file.
func syntaxFinding(file string, err *rdparser.SyntaxError) lintpkg.Diagnostic {
	d := lintpkg.Diagnostic{
		Message:  err.Msg,
		Analyzer: syntaxAnalyzer,
		Severity: lintpkg.SeverityError,
	}
	r := err.Range
	if r.StartLine == 0 && err.Source != nil {
		r = token.Span(err.Source, err.Source)
	}
	if r.StartLine > 0 {
		d.Pos = lintpkg.Position{File: file, Line: r.StartLine, Col: r.StartCol}
		d.End = lintpkg.Position{File: file, Line: r.EndLine, Col: r.EndCol}
	}
	return d
}

// compileFinding converts an error that stopped the compilation of file.
// Errors located in another file are attributed to that file.
func compileFinding(file string, err error) lintpkg.Diagnostic {
	var serr *rdparser.SyntaxError
	if errors.As(err, &serr) {
		if serr.Source != nil && serr.Source.File != "" {
			file = serr.Source.File
		}
		return syntaxFinding(file, serr)
	}
	d := lintpkg.Diagnostic{
		Message:  err.Error(),
		Analyzer: syntaxAnalyzer,
		Severity: lintpkg.SeverityError,
		Pos:      lintpkg.Position{File: file},
	}
	var lerr *token.LocationError
	if errors.As(err, &lerr) && lerr.Source != nil {
		d.Message = lerr.Err.Error()
		if lerr.Source.File != "" {
			d.Pos.File = lerr.Source.File
		}
		d.Pos.Line, d.Pos.Col = lerr.Source.Line, lerr.Source.Col
	}
	return d
}

// lintDiagToDiagnostic converts a lint.Diagnostic to a diagnostic.Diagnostic.
func lintDiagToDiagnostic(ld lintpkg.Diagnostic) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnosticSeverity(ld.Severity),
		Code:     ld.Analyzer,
		Message:  ld.Message,
	}
	if ld.Pos.Line > 0 {
		span := diagnostic.Span{File: ld.Pos.File, Line: ld.Pos.Line, Col: ld.Pos.Col}
		if ld.End.Line > 0 {
			span.EndLine, span.EndCol = ld.End.Line, ld.End.Col
		}
		d.Spans = append(d.Spans, span)
	} else if ld.Pos.File != "" {
		d.Spans = append(d.Spans, diagnostic.Span{File: ld.Pos.File})
	}
	d.Notes = append(d.Notes, ld.Notes...)
	if ld.Analyzer != syntaxAnalyzer {
		d.Notes = append(d.Notes, "to suppress: add \"// nolint:"+ld.Analyzer+"\" as a comment on this line")
	}
	return d
}

func diagnosticSeverity(sev lintpkg.Severity) diagnostic.Severity {
	switch sev {
	case lintpkg.SeverityError:
		return diagnostic.SeverityError
	case lintpkg.SeverityInfo:
		return diagnostic.SeverityNote
	default:
		return diagnostic.SeverityWarning
	}
}

// renderFindings renders findings with diagnostic formatting followed by a
// summary line.
func renderFindings(w io.Writer, r *diagnostic.Renderer, findings []lintpkg.Diagnostic) error {
	ds := make([]diagnostic.Diagnostic, 0, len(findings))
	for _, ld := range findings {
		ds = append(ds, lintDiagToDiagnostic(ld))
	}
	if err := r.RenderAll(w, ds); err != nil {
		return err
	}
	if len(ds) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return r.RenderSummary(w, ds)
}
