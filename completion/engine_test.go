// Copyright © 2024 The ELPS authors

package completion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// writeMarked writes marked to path without its cursor marker.
func writeMarked(t *testing.T, path, marked string) Position {
	t.Helper()
	src, pos := cursorSource(t, marked)
	writeFile(t, path, src)
	return pos
}

func newTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	return tp, exporter
}

func TestEngine_Complete(t *testing.T) {
	tp, exporter := newTestTracer(t)
	path := filepath.Join(t.TempDir(), "main.bal")
	pos := writeMarked(t, path, `function f() { int x = 1; |}`)

	e := NewEngine(WithTracerProvider(tp))
	cands, err := e.Complete(context.Background(), workspace.PathToURI(path), pos)
	require.NoError(t, err)
	assert.Contains(t, cands, Candidate{Label: "x", Kind: CandidateVariable, Detail: "int x"})
	assert.Equal(t, "if", cands[0].Label)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"complete", "compile", "resolve", "dispatch"}, names)
}

func TestEngine_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.bal")
	pos := writeMarked(t, path, "function f() {\n  while (true) {\n    int y = 1;\n    |\n  }\n}")
	e := NewEngine()
	first, err := e.Complete(context.Background(), path, pos)
	require.NoError(t, err)
	second, err := e.Complete(context.Background(), path, pos)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_UnterminatedTry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.bal")
	pos := writeMarked(t, path, "function f() {\n  int a = 1;\n  try { |")
	cands, err := NewEngine().Complete(context.Background(), path, pos)
	require.NoError(t, err)
	assert.Contains(t, cands, Candidate{Label: "a", Kind: CandidateVariable, Detail: "int a"})
}

func TestEngine_PackageMembers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.bal")
	pos := writeMarked(t, path, "import ballerina.io;\nfunction f() {\n  io:|\n}")
	cands, err := NewEngine().Complete(context.Background(), path, pos)
	require.NoError(t, err)
	assertGolden(t, "function print\nfunction println\nfunction sprintf\n", cands)
}

func TestEngine_Package(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, workspace.ManifestName), "[build]\nsource-root = \"src\"\n")
	writeFile(t, filepath.Join(root, "src", "app", "util.bal"), "package app;\nfunction helper() {\n}\n")
	writeFile(t, filepath.Join(root, "src", "lib", "lib.bal"), "package lib;\nfunction shared() {\n}\n")
	path := filepath.Join(root, "src", "app", "main.bal")
	pos := writeMarked(t, path, "package app;\nimport lib;\nfunction f() {\n  |\n}\n")

	cands, err := NewEngine(WithPhase(compiler.PhaseAnalyze)).Complete(context.Background(), path, pos)
	require.NoError(t, err)
	var labels []string
	for _, c := range cands {
		labels = append(labels, c.Label)
	}
	assert.Contains(t, labels, "helper")
	assert.Contains(t, labels, "lib")

	cands, err = NewEngine().Complete(context.Background(), path, Position{Line: 3, Column: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, cands)
}

func TestEngine_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unsaved.bal")
	src, pos := cursorSource(t, "function g(string s) {\n  |\n}")
	overlay := workspace.NewOverlay()
	_, err := overlay.Open(workspace.PathToURI(path), 1, src)
	require.NoError(t, err)

	cands, err := NewEngine(WithFileSource(overlay)).Complete(context.Background(), workspace.PathToURI(path), pos)
	require.NoError(t, err)
	assert.Contains(t, cands, Candidate{Label: "s", Kind: CandidateVariable, Detail: "string s"})
}

func TestEngine_MalformedRequest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.bal")
	writeFile(t, path, "function f() {\n}\n")

	tests := []struct {
		name string
		uri  string
		pos  Position
	}{
		{"unsupported scheme", "http://example.com/main.bal", Position{}},
		{"empty uri", "", Position{}},
		{"missing file", workspace.PathToURI(filepath.Join(dir, "nope.bal")), Position{}},
		{"line out of range", workspace.PathToURI(path), Position{Line: 10}},
		{"column out of range", workspace.PathToURI(path), Position{Line: 0, Column: 40}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cands, err := NewEngine().Complete(context.Background(), test.uri, test.pos)
			assert.Nil(t, cands)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRequest), "%v", err)
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, test.uri, reqErr.URI)
		})
	}

	// The position just past the last character of a line is valid.
	_, err := NewEngine().Complete(context.Background(), path, Position{Line: 0, Column: 14})
	assert.NoError(t, err)
}

func TestEngine_LexerFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bal")
	writeFile(t, path, "int x\xff = 1;")
	_, err := NewEngine().Complete(context.Background(), path, Position{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedRequest))
}

func TestQualifierAt(t *testing.T) {
	tests := []struct {
		marked string
		want   string
	}{
		{"io:|", "io"},
		{"  x = io:pri|", "io"},
		{"  io:pri|nt", "io"},
		{"  http:Request|", "http"},
		{"  x = |", ""},
		{"  {a: |", ""},
		{"  :|", ""},
		{"  9a:|", ""},
		{"|", ""},
	}
	for _, test := range tests {
		src, pos := cursorSource(t, test.marked)
		assert.Equal(t, test.want, qualifierAt([]byte(src), pos), test.marked)
	}
}

func TestEngine_Documentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.bal")
	pos := writeMarked(t, path, "// helper doubles n.\nfunction helper(int n) (int) {\n  return n * 2;\n}\n\nfunction f() {\n  |\n}\n")

	cands, err := NewEngine().Complete(context.Background(), workspace.PathToURI(path), pos)
	require.NoError(t, err)
	var helper *Candidate
	for i := range cands {
		if cands[i].Label == "helper" {
			helper = &cands[i]
		}
	}
	require.NotNil(t, helper)
	assert.Equal(t, CandidateFunction, helper.Kind)
	assert.Equal(t, "helper doubles n.", helper.Documentation)
}
