// Copyright © 2024 The ELPS authors

package lsp

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/lint"
	"github.com/luthersystems/balsp/parser/token"
	"github.com/luthersystems/balsp/workspace"
)

// testServer creates a server whose documents live in a fresh temporary
// directory.
func testServer(t *testing.T, opts ...Option) (*Server, string) {
	t.Helper()
	s := New(opts...)
	s.exitFn = func(int) { t.Fatal("unexpected exit") }
	return s, t.TempDir()
}

// docURI returns the URI of the file name in dir.
func docURI(dir, name string) string {
	return workspace.PathToURI(filepath.Join(dir, name))
}

// openDoc opens a document and returns the cursor position marked by '|'.
func openDoc(t *testing.T, s *Server, uri, marked string) protocol.Position {
	t.Helper()
	var pos protocol.Position
	lines := strings.Split(marked, "\n")
	for i, line := range lines {
		if col := strings.IndexByte(line, '|'); col >= 0 {
			pos = protocol.Position{Line: safeUint(i), Character: safeUint(col)}
		}
	}
	err := s.textDocumentDidOpen(mockContext(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    strings.Replace(marked, "|", "", 1),
		},
	})
	require.NoError(t, err)
	return pos
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// publications collects published diagnostics.  Debounced publications
// arrive from timer goroutines.
type publications struct {
	mu   sync.Mutex
	list []*protocol.PublishDiagnosticsParams
}

func (p *publications) all() []*protocol.PublishDiagnosticsParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*protocol.PublishDiagnosticsParams(nil), p.list...)
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *publications) {
	pubs := &publications{}
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				pubs.mu.Lock()
				pubs.list = append(pubs.list, params.(*protocol.PublishDiagnosticsParams))
				pubs.mu.Unlock()
			}
		},
	}
	return ctx, pubs
}

func complete(t *testing.T, s *Server, uri string, pos protocol.Position) (any, error) {
	t.Helper()
	return s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
}

// completionLabels extracts labels from a completion result.
func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	require.NotNil(t, result, "completion result should not be nil")
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func findItem(t *testing.T, result any, label string) protocol.CompletionItem {
	t.Helper()
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	for _, item := range items {
		if item.Label == label {
			return item
		}
	}
	require.Failf(t, "missing completion item", "no item labelled %q", label)
	return protocol.CompletionItem{}
}

// --- Position conversion tests ---

func TestLSPRange(t *testing.T) {
	tests := []struct {
		name string
		in   token.Range
		want protocol.Range
	}{
		{
			"single character",
			token.Range{StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 9},
			protocol.Range{Start: protocol.Position{Line: 1, Character: 8}, End: protocol.Position{Line: 1, Character: 9}},
		},
		{
			"multi-line",
			token.Range{StartLine: 1, StartCol: 14, EndLine: 3, EndCol: 1},
			protocol.Range{Start: protocol.Position{Line: 0, Character: 13}, End: protocol.Position{Line: 2, Character: 1}},
		},
		{
			"zero width at end of input",
			token.Range{StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 3},
			protocol.Range{Start: protocol.Position{Line: 2, Character: 4}, End: protocol.Position{Line: 2, Character: 4}},
		},
		{
			"zero values clamp",
			token.Range{},
			protocol.Range{},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, lspRange(test.in))
		})
	}
}

func TestEnginePosition(t *testing.T) {
	got := enginePosition(protocol.Position{Line: 4, Character: 7})
	assert.Equal(t, completion.Position{Line: 4, Column: 7}, got)
}

// --- Lifecycle ---

func TestInitializeLifecycle(t *testing.T) {
	s, dir := testServer(t)

	rootURI := workspace.PathToURI(dir)
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{
		RootURI: &rootURI,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.Equal(t, dir, s.rootPath)

	syncOpts, ok := initResult.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	require.NotNil(t, syncOpts.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOpts.Change)

	require.NotNil(t, initResult.Capabilities.CompletionProvider)
	assert.Equal(t, []string{".", ":"}, initResult.Capabilities.CompletionProvider.TriggerCharacters)
}

func TestExitHandler(t *testing.T) {
	s, _ := testServer(t)
	var exitCode int
	var exitCalled bool
	s.exitFn = func(code int) {
		exitCode = code
		exitCalled = true
	}

	err := s.exit(mockContext())
	require.NoError(t, err)
	assert.True(t, exitCalled, "exit handler should call exitFn")
	assert.Equal(t, 0, exitCode, "exit should call with code 0")
}

func TestShutdownStopsDebounce(t *testing.T) {
	s, dir := testServer(t, WithDebounce(time.Hour))
	uri := docURI(dir, "main.bal")
	openDoc(t, s, uri, "function f() {\n}\n")
	err := s.textDocumentDidChange(mockContext(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "function g() {\n}\n"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, s.debounce.pending())

	require.NoError(t, s.shutdown(mockContext()))
	assert.Zero(t, s.debounce.pending())
	require.NoError(t, s.setTrace(mockContext(), &protocol.SetTraceParams{}))
}

// --- Diagnostics ---

func TestDiagnosticsOnOpen_ValidCode(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI(dir, "main.bal"),
			Version: 1,
			Text:    "function f() (int) {\n  int x = 1;\n  return x;\n}\n",
		},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 1)
	assert.Equal(t, docURI(dir, "main.bal"), got[0].URI)
	assert.Empty(t, got[0].Diagnostics)
	assert.NotNil(t, got[0].Diagnostics, "diagnostics must encode as an empty array")
}

func TestAnalyzeAndPublish_ClosedDocument(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()
	s.captureNotify(ctx)
	s.analyzeAndPublish(docURI(dir, "main.bal"))
	assert.Empty(t, pubs.all())
}

func TestDiagnosticsOnSyntaxError(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI(dir, "main.bal"),
			Version: 1,
			Text:    "function f() {\n  int x = ;\n}\n",
		},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 1)

	var syntax []protocol.Diagnostic
	for _, d := range got[0].Diagnostics {
		if d.Source != nil && *d.Source == sourceSyntax {
			syntax = append(syntax, d)
		}
	}
	require.NotEmpty(t, syntax)
	require.NotNil(t, syntax[0].Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *syntax[0].Severity)
	assert.Equal(t, protocol.UInteger(1), syntax[0].Range.Start.Line)
}

func TestDiagnosticsOnLexerFailure(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI(dir, "bad.bal"),
			Version: 1,
			Text:    "int x\xff = 1;",
		},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 1)
	require.Len(t, got[0].Diagnostics, 1)
	assert.Equal(t, sourceSyntax, *got[0].Diagnostics[0].Source)
}

func TestDiagnosticsIncludeLintWarnings(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI(dir, "main.bal"),
			Version: 1,
			Text:    "function f() {\n    int x = 1;\n}\n",
		},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 1)
	require.Len(t, got[0].Diagnostics, 1)
	d := got[0].Diagnostics[0]
	assert.Equal(t, sourceLint, *d.Source)
	assert.Equal(t, "x declared and not used", d.Message)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 1, Character: 8},
		End:   protocol.Position{Line: 1, Character: 9},
	}, d.Range)
	require.NotNil(t, d.Code)
	assert.Equal(t, "unused-variable", d.Code.Value)
}

func TestDiagnosticsCustomLinter(t *testing.T) {
	s, dir := testServer(t, WithLinter(&lint.Linter{}))
	ctx, pubs := capturingContext()

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     docURI(dir, "main.bal"),
			Version: 1,
			Text:    "function f() {\n    int x = 1;\n}\n",
		},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Diagnostics)
}

func TestDiagnosticsOnChange_Debounced(t *testing.T) {
	s, dir := testServer(t, WithDebounce(50*time.Millisecond))
	ctx, pubs := capturingContext()
	uri := docURI(dir, "main.bal")

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "function f() {\n}\n"},
	})
	require.NoError(t, err)
	for v, text := range []string{"function f() {\n  int", "function f() {\n  int x = ;\n}\n"} {
		err = s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
				Version:                protocol.Integer(v + 2),
			},
			ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: text}},
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(pubs.all()) == 2 }, 5*time.Second, 5*time.Millisecond)
	last := pubs.all()[1]
	assert.Equal(t, uri, last.URI)
	assert.NotEmpty(t, last.Diagnostics)
	require.NotNil(t, last.Version)
	assert.Equal(t, protocol.UInteger(3), *last.Version)

	doc, ok := s.overlay.Get(uri)
	require.True(t, ok)
	assert.Equal(t, int32(3), doc.Version)
}

func TestDiagnosticsOnSave_Immediate(t *testing.T) {
	s, dir := testServer(t, WithDebounce(time.Hour))
	ctx, pubs := capturingContext()
	uri := docURI(dir, "main.bal")

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "function f() {\n}\n"},
	})
	require.NoError(t, err)
	err = s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "function f() {\n  int x = ;\n}\n"}},
	})
	require.NoError(t, err)
	assert.Len(t, pubs.all(), 1, "change is debounced")

	err = s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	got := pubs.all()
	require.Len(t, got, 2)
	assert.NotEmpty(t, got[1].Diagnostics)
	assert.Zero(t, s.debounce.pending())
}

func TestDiagnosticsOnClose_Cleared(t *testing.T) {
	s, dir := testServer(t)
	ctx, pubs := capturingContext()
	uri := docURI(dir, "main.bal")

	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "function f() {\n  int x = ;\n}\n"},
	})
	require.NoError(t, err)
	err = s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)

	got := pubs.all()
	require.Len(t, got, 2)
	assert.Empty(t, got[1].Diagnostics)
	_, ok := s.overlay.Get(uri)
	assert.False(t, ok)
}

func TestDidOpenUnsupportedURI(t *testing.T) {
	s, _ := testServer(t)
	ctx, pubs := capturingContext()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "https://example.com/main.bal", Version: 1, Text: "function f() {}"},
	})
	require.NoError(t, err)
	assert.Empty(t, pubs.all())
}

// --- Completion ---

func TestCompletion(t *testing.T) {
	s, dir := testServer(t)
	uri := docURI(dir, "main.bal")
	pos := openDoc(t, s, uri, "function f(string name) {\n  int count = 1;\n  |\n}\n")

	result, err := complete(t, s, uri, pos)
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Contains(t, labels, "count")
	assert.Contains(t, labels, "name")
	assert.Contains(t, labels, "if")
	assert.NotContains(t, labels, "break", "break is only offered inside loops")

	count := findItem(t, result, "count")
	require.NotNil(t, count.Kind)
	assert.Equal(t, protocol.CompletionItemKindVariable, *count.Kind)
	require.NotNil(t, count.Detail)
	assert.Equal(t, "int count", *count.Detail)
}

func TestCompletionSnippet(t *testing.T) {
	s, dir := testServer(t)
	uri := docURI(dir, "main.bal")
	pos := openDoc(t, s, uri, "function f() {\n  |\n}\n")

	result, err := complete(t, s, uri, pos)
	require.NoError(t, err)
	var snippet *protocol.CompletionItem
	items := result.([]protocol.CompletionItem)
	for i := range items {
		if items[i].InsertTextFormat != nil {
			snippet = &items[i]
			break
		}
	}
	require.NotNil(t, snippet, "statement snippets should be offered")
	assert.Equal(t, protocol.InsertTextFormatSnippet, *snippet.InsertTextFormat)
	require.NotNil(t, snippet.InsertText)
	assert.Contains(t, *snippet.InsertText, "${")
}

func TestCompletionUnsavedChanges(t *testing.T) {
	s, dir := testServer(t)
	uri := docURI(dir, "main.bal")
	openDoc(t, s, uri, "function f() {\n}\n")
	err := s.textDocumentDidChange(mockContext(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "function f() {\n  int fresh = 1;\n  \n}\n"}},
	})
	require.NoError(t, err)

	result, err := complete(t, s, uri, protocol.Position{Line: 2, Character: 2})
	require.NoError(t, err)
	assert.Contains(t, completionLabels(t, result), "fresh")
}

func TestCompletionPackageQualified(t *testing.T) {
	s, dir := testServer(t)
	uri := docURI(dir, "main.bal")
	pos := openDoc(t, s, uri, "import ballerina.io;\nfunction f() {\n  io:pr|\n}\n")

	result, err := complete(t, s, uri, pos)
	require.NoError(t, err)
	assert.Equal(t, []string{"print", "println", "sprintf"}, completionLabels(t, result))
}

func TestCompletionMalformedRequest(t *testing.T) {
	s, dir := testServer(t)
	uri := docURI(dir, "main.bal")
	openDoc(t, s, uri, "function f() {\n}\n")

	tests := []struct {
		name string
		uri  string
		pos  protocol.Position
	}{
		{"line past end", uri, protocol.Position{Line: 10, Character: 0}},
		{"column past end", uri, protocol.Position{Line: 0, Character: 40}},
		{"unknown document", docURI(dir, "missing.bal"), protocol.Position{}},
		{"unsupported scheme", "https://example.com/main.bal", protocol.Position{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := complete(t, s, test.uri, test.pos)
			require.NoError(t, err)
			assert.Empty(t, completionLabels(t, result))
		})
	}
}

func TestCompletionDispatcherMismatch(t *testing.T) {
	d := &completion.Dispatcher{TopLevel: completion.TopLevelGenerator}
	s, dir := testServer(t, WithEngineOptions(completion.WithDispatcher(d)))
	uri := docURI(dir, "main.bal")
	pos := openDoc(t, s, uri, "function f() {\n  |\n}\n")

	_, err := complete(t, s, uri, pos)
	require.Error(t, err)
	assert.ErrorIs(t, err, completion.ErrNoGenerator)

	result, err := complete(t, s, uri, protocol.Position{Line: 3, Character: 0})
	require.NoError(t, err, "the top level still has a generator")
	assert.Contains(t, completionLabels(t, result), "function")
}

func TestCompletionPanicRecovered(t *testing.T) {
	d := &completion.Dispatcher{TopLevel: func(*completion.Resolution) []completion.Candidate {
		panic("generator failure")
	}}
	s, dir := testServer(t, WithEngineOptions(completion.WithDispatcher(d)))
	uri := docURI(dir, "main.bal")
	openDoc(t, s, uri, "function f() {\n}\n")

	var result any
	var err error
	require.NotPanics(t, func() {
		result, err = complete(t, s, uri, protocol.Position{Line: 2, Character: 0})
	})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator failure")
}

func TestCompletionItemResolve(t *testing.T) {
	s, _ := testServer(t)
	item, err := s.completionItemResolve(mockContext(), &protocol.CompletionItem{Label: "x"})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestMapCompletionItemKind(t *testing.T) {
	assert.Equal(t, protocol.CompletionItemKindKeyword, mapCompletionItemKind(completion.CandidateKeyword))
	assert.Equal(t, protocol.CompletionItemKindClass, mapCompletionItemKind(completion.CandidateType))
	assert.Equal(t, protocol.CompletionItemKindFunction, mapCompletionItemKind(completion.CandidateFunction))
	assert.Equal(t, protocol.CompletionItemKindModule, mapCompletionItemKind(completion.CandidatePackage))
	assert.Equal(t, protocol.CompletionItemKindText, mapCompletionItemKind(completion.CandidateKind(99)))
}

func TestMapLintSeverity(t *testing.T) {
	assert.Equal(t, protocol.DiagnosticSeverityError, mapLintSeverity(lint.SeverityError))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapLintSeverity(lint.SeverityWarning))
	assert.Equal(t, protocol.DiagnosticSeverityInformation, mapLintSeverity(lint.SeverityInfo))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, mapLintSeverity(lint.Severity(0)))
}

func TestCompletionItemDocumentation(t *testing.T) {
	item := completionItem(completion.Candidate{Label: "area", Kind: completion.CandidateFunction, Documentation: "Area computes an area."})
	assert.Equal(t, protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: "Area computes an area."}, item.Documentation)

	item = completionItem(completion.Candidate{Label: "x"})
	assert.Nil(t, item.Documentation)
}
