// Copyright © 2024 The ELPS authors

package lsp

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/parser/token"
	"github.com/luthersystems/balsp/workspace"
)

const (
	sourceSyntax = "balsp"
	sourceLint   = "balsp-lint"
)

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) (err error) {
	defer s.recoverPanic(string(protocol.MethodTextDocumentDidOpen), &err)
	s.captureNotify(ctx)
	doc, err := s.overlay.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	if err != nil {
		log.Warningf("didOpen: %v", err)
		return nil
	}
	s.analyzeAndPublish(doc.URI)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) (err error) {
	defer s.recoverPanic(string(protocol.MethodTextDocumentDidChange), &err)
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc, err := s.overlay.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)
	if err != nil {
		log.Warningf("didChange: %v", err)
		return nil
	}

	uri := doc.URI
	s.debounce.schedule(uri, func() {
		defer s.recoverPanic("diagnostics", nil)
		s.analyzeAndPublish(uri)
	})
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) (err error) {
	defer s.recoverPanic(string(protocol.MethodTextDocumentDidSave), &err)
	s.captureNotify(ctx)
	s.debounce.cancel(params.TextDocument.URI)
	s.analyzeAndPublish(params.TextDocument.URI)
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) (err error) {
	defer s.recoverPanic(string(protocol.MethodTextDocumentDidClose), &err)
	s.debounce.cancel(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.overlay.Close(params.TextDocument.URI)
	return nil
}

// analyzeAndPublish compiles the package of the open document uri and
// publishes its syntax errors and lint findings to the client.  Nothing is
// published for a document that was closed, or edited again while it was
// analyzed; a later notification covers it.
func (s *Server) analyzeAndPublish(uri string) {
	doc, ok := s.overlay.Get(uri)
	if !ok {
		return
	}
	diags := s.diagnose(context.Background(), doc)
	if cur, ok := s.overlay.Get(uri); !ok || cur.Version != doc.Version {
		log.Debugf("%s: version %d superseded", uri, doc.Version)
		return
	}
	version := protocol.UInteger(doc.Version)
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: diags,
	})
}

// diagnose returns the diagnostics of an open document.
func (s *Server) diagnose(ctx context.Context, doc *workspace.Document) []protocol.Diagnostic {
	src := []byte(doc.Text)
	entry, root, err := workspace.Entry(doc.Path, src, s.sourceRoot)
	if err != nil {
		log.Warningf("%s: %v", doc.Path, err)
	}
	pkg, err := compiler.Compile(ctx, entry, compiler.Config{
		SourceRoot: root,
		Phase:      compiler.PhaseAnalyze,
		Files:      s.overlay,
		Strategy:   completion.NewTolerantStrategy,
	})
	if err != nil {
		// Only failures the parser cannot recover from end up here, such
		// as bad characters rejected by the lexer.
		log.Infof("%s: %v", doc.Path, err)
		return []protocol.Diagnostic{{
			Range:    compileErrorRange(err),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(sourceSyntax),
			Message:  err.Error(),
		}}
	}
	file := pkg.File(doc.Path)
	if file == nil {
		return []protocol.Diagnostic{}
	}

	diags := []protocol.Diagnostic{}
	for _, e := range file.Errors {
		diags = append(diags, protocol.Diagnostic{
			Range:    lspRange(e.Range),
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(sourceSyntax),
			Message:  e.Msg,
		})
	}

	lintDiags, err := s.linter.LintFileWithContext(src, file.AST, pkg.Analysis)
	if err != nil {
		log.Errorf("%s: %v", doc.Path, err)
		return diags
	}
	for _, d := range lintDiags {
		diags = append(diags, convertLintDiagnostic(d))
	}
	return diags
}

// convertLintDiagnostic converts a lint.Diagnostic to an LSP Diagnostic.
func convertLintDiagnostic(d lint.Diagnostic) protocol.Diagnostic {
	sev := mapLintSeverity(d.Severity)
	return protocol.Diagnostic{
		Range:    lspRange(d.Range()),
		Severity: &sev,
		Source:   strPtr(sourceLint),
		Code:     &protocol.IntegerOrString{Value: d.Analyzer},
		Message:  d.Message,
	}
}

// mapLintSeverity converts a lint.Severity to a protocol.DiagnosticSeverity.
func mapLintSeverity(sev lint.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case lint.SeverityError:
		return protocol.DiagnosticSeverityError
	case lint.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case lint.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// compileErrorRange extracts the source position of a compile error. It
// tries *rdparser.SyntaxError and *token.LocationError (scanner errors) in
// that order.
func compileErrorRange(err error) protocol.Range {
	var synErr *rdparser.SyntaxError
	if errors.As(err, &synErr) && !synErr.Range.IsZero() {
		return lspRange(synErr.Range)
	}
	var locErr *token.LocationError
	if errors.As(err, &locErr) && locErr.Source != nil && locErr.Source.Line > 0 {
		return lspRange(token.Span(locErr.Source, locErr.Source))
	}
	return protocol.Range{}
}

func strPtr(s string) *string {
	return &s
}
