// Copyright © 2024 The ELPS authors

package completion

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/balsp/compiler"
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/workspace"
)

// TracerName names the tracer used for completion spans.
const TracerName = "github.com/luthersystems/balsp/completion"

var log = commonlog.GetLogger("balsp.completion")

// Engine answers completion requests.  Every request compiles the
// document's package afresh so an Engine holds no per-document state and
// is safe for concurrent use.
type Engine struct {
	files      compiler.FileSource
	dispatcher *Dispatcher
	phase      compiler.Phase
	sourceRoot string
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithFileSource reads documents from files, typically a
// *workspace.Overlay.
func WithFileSource(files compiler.FileSource) Option {
	return func(e *Engine) { e.files = files }
}

// WithPhase limits analysis of the document's package.
func WithPhase(p compiler.Phase) Option {
	return func(e *Engine) { e.phase = p }
}

// WithSourceRoot fixes the source root instead of locating one per
// document.
func WithSourceRoot(root string) Option {
	return func(e *Engine) { e.sourceRoot = root }
}

// WithDispatcher replaces the standard generator registry.
func WithDispatcher(d *Dispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithTracerProvider records spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(TracerName) }
}

// NewEngine returns an engine reading from disk with the standard
// generators and the define phase.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		files:      compiler.DiskSource{},
		dispatcher: NewDispatcher(),
		phase:      compiler.PhaseDefine,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.GetTracerProvider().Tracer(TracerName)
	}
	return e
}

// Complete returns the candidates for the cursor at pos in the document
// identified by uri.  Malformed requests fail with a *RequestError.  Other
// errors indicate a document that could not be read as source at all or
// an internal fault such as ErrNoGenerator.
func (e *Engine) Complete(ctx context.Context, uri string, pos Position) ([]Candidate, error) {
	ctx, span := e.tracer.Start(ctx, "complete", trace.WithAttributes(
		attribute.String("document.uri", uri),
		semconv.CodeLineNumber(int(pos.Line)),
		semconv.CodeColumn(int(pos.Column)),
	))
	defer span.End()
	cands, err := e.complete(ctx, uri, pos)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("completion.candidates", len(cands)))
	return cands, nil
}

func (e *Engine) complete(ctx context.Context, uri string, pos Position) ([]Candidate, error) {
	path, src, err := e.validate(uri, pos)
	if err != nil {
		log.Infof("%v", err)
		return nil, err
	}
	pkg, err := e.compile(ctx, path, src)
	if err != nil {
		return nil, err
	}
	file := pkg.File(path)
	if file == nil {
		return nil, fmt.Errorf("%s: not compiled with package %q", path, pkg.Name)
	}
	res := e.resolve(ctx, file.AST, pkg, pos, src)
	return e.dispatch(ctx, res)
}

// validate checks that uri names a readable document containing pos.
func (e *Engine) validate(uri string, pos Position) (string, []byte, error) {
	reqErr := func(reason string, err error) error {
		return &RequestError{URI: uri, Position: pos, Reason: reason, Err: err}
	}
	path, err := workspace.URIToPath(uri)
	if err != nil {
		return "", nil, reqErr("invalid document uri", err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	src, err := e.files.ReadFile(path)
	if err != nil {
		return "", nil, reqErr("unreadable document", err)
	}
	lines := bytes.Split(src, []byte("\n"))
	if int(pos.Line) >= len(lines) {
		return "", nil, reqErr(fmt.Sprintf("line beyond end of document (%d lines)", len(lines)), nil)
	}
	line := bytes.TrimSuffix(lines[pos.Line], []byte("\r"))
	if int(pos.Column) > len(line) {
		return "", nil, reqErr(fmt.Sprintf("column beyond end of line (%d bytes)", len(line)), nil)
	}
	return path, src, nil
}

// compile builds the package of the document at path.  Documents without a
// package declaration, or outside their package directory, compile alone.
func (e *Engine) compile(ctx context.Context, path string, src []byte) (*compiler.Package, error) {
	ctx, span := e.tracer.Start(ctx, "compile", trace.WithAttributes(semconv.CodeFilepath(path)))
	defer span.End()

	entry, root, err := workspace.Entry(path, src, e.sourceRoot)
	if err != nil {
		log.Warningf("%s: %v", path, err)
	}
	span.SetAttributes(
		attribute.String("compiler.entry", entry),
		attribute.String("compiler.source_root", root),
		attribute.String("compiler.phase", e.phase.String()),
	)
	pkg, err := compiler.Compile(ctx, entry, compiler.Config{
		SourceRoot: root,
		Phase:      e.phase,
		Files:      e.files,
		Strategy:   NewTolerantStrategy,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("compiler.syntax_errors", len(pkg.SyntaxErrors())))
	return pkg, nil
}

func (e *Engine) resolve(ctx context.Context, file *ast.File, pkg *compiler.Package, pos Position, src []byte) *Resolution {
	_, span := e.tracer.Start(ctx, "resolve")
	defer span.End()
	res := Resolve(file, pkg.Analysis, pos)
	if q := qualifierAt(src, pos); q != "" && pkg.Analysis != nil && res.Scope() != nil {
		if members := pkg.Analysis.PackageMembers(res.Scope(), q); members != nil {
			res.Qualifier = q
			res.Symbols = symbolInfos(members)
		}
	}
	kind := "top-level"
	if res.Node != nil {
		kind = res.Node.Kind().String()
	}
	span.SetAttributes(
		attribute.String("completion.scope", kind),
		attribute.Int("completion.symbols", len(res.Symbols)),
	)
	return res
}

func (e *Engine) dispatch(ctx context.Context, res *Resolution) ([]Candidate, error) {
	_, span := e.tracer.Start(ctx, "dispatch")
	defer span.End()
	cands, err := e.dispatcher.Dispatch(res)
	if err != nil {
		log.Errorf("%v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return cands, nil
}

// qualifierAt returns the package name of a qualified identifier being
// typed at pos: "io" for "io:" or "io:pri".
func qualifierAt(src []byte, pos Position) string {
	lines := bytes.Split(src, []byte("\n"))
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	i := min(int(pos.Column), len(line))
	for i > 0 && isIdentByte(line[i-1]) {
		i--
	}
	if i == 0 || line[i-1] != ':' {
		return ""
	}
	end := i - 1
	start := end
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	if start == end || line[start] >= '0' && line[start] <= '9' {
		return ""
	}
	return string(line[start:end])
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
