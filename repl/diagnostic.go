// Copyright © 2024 The ELPS authors

package repl

import (
	"errors"
	"io"

	"github.com/luthersystems/balsp/diagnostic"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/parser/token"
	"github.com/luthersystems/balsp/workspace"
)

// renderError renders a failed completion of the session document.  Errors
// carrying a source location are annotated with the offending line.
func renderError(w io.Writer, sess *Session, err error) {
	r := &diagnostic.Renderer{Color: diagnostic.ColorAuto, SourceReader: sess.ReadFile}
	_ = r.Render(w, errorToDiag(sess, err))
}

// errorToDiag converts a completion error to a Diagnostic for display.
func errorToDiag(sess *Session, err error) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Message:  err.Error(),
		Notes:    []string{"use :show to review the document and :reset to start over"},
	}
	path, perr := workspace.URIToPath(sess.URI())
	if perr != nil {
		return d
	}
	var synErr *rdparser.SyntaxError
	var locErr *token.LocationError
	switch {
	case errors.As(err, &synErr) && !synErr.Range.IsZero():
		d.Message = synErr.Msg
		d.Spans = []diagnostic.Span{{
			File:    path,
			Line:    synErr.Range.StartLine,
			Col:     synErr.Range.StartCol,
			EndLine: synErr.Range.EndLine,
			EndCol:  synErr.Range.EndCol,
		}}
	case errors.As(err, &locErr) && locErr.Source != nil && locErr.Source.Line > 0:
		d.Message = locErr.Err.Error()
		d.Spans = []diagnostic.Span{{File: path, Line: locErr.Source.Line, Col: locErr.Source.Col}}
	}
	return d
}
