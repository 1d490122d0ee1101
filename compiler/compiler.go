// Copyright © 2024 The ELPS authors

// Package compiler parses and analyzes the source files of one package.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/parser"
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/rdparser"
)

var log = commonlog.GetLogger("balsp.compiler")

// ErrNoSources is returned when a package directory holds no source files.
var ErrNoSources = errors.New("no source files")

// Phase limits how far compilation proceeds.
type Phase int

const (
	// PhaseParse stops after parsing.
	PhaseParse Phase = iota
	// PhaseDefine builds scopes and symbols without resolving references.
	PhaseDefine
	// PhaseAnalyze resolves references and records unresolved names.
	PhaseAnalyze
)

var phaseNames = [...]string{
	PhaseParse:   "parse",
	PhaseDefine:  "define",
	PhaseAnalyze: "analyze",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase returns the phase with the given name.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown analysis phase %q", name)
}

// FileSource provides source text.  Paths are file system paths.
type FileSource interface {
	ReadFile(path string) ([]byte, error)
	// ReadDir returns the names of the source files directly inside dir,
	// sorted.
	ReadDir(dir string) ([]string, error)
}

// DiskSource reads files from the local file system.
type DiskSource struct{}

var _ FileSource = DiskSource{}

func (DiskSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) //nolint:gosec // paths come from the client workspace
}

func (DiskSource) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == analysis.SourceExt {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Config controls a compilation.
type Config struct {
	// SourceRoot is the directory package paths are relative to.  It is
	// also scanned for the exports of other workspace packages.
	SourceRoot string
	Phase      Phase
	// Files defaults to DiskSource.
	Files FileSource
	// Strategy returns a fresh error strategy for each file.  The default
	// stops at the first syntax error.
	Strategy func() rdparser.ErrorStrategy
	// Exports overrides the package exports available to imports.  The
	// default is the standard library plus the packages under SourceRoot.
	Exports map[string][]analysis.ExternalSymbol
}

// File is one parsed source file.
type File struct {
	Path   string
	AST    *ast.File
	Errors []*rdparser.SyntaxError
}

// Package is the result of a compilation.
type Package struct {
	Name     string
	Files    []*File
	Analysis *analysis.Result // nil for PhaseParse
}

// File returns the compiled file with the given path.
func (pkg *Package) File(path string) *File {
	for _, f := range pkg.Files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// SyntaxErrors returns the recorded syntax errors of every file.
func (pkg *Package) SyntaxErrors() []*rdparser.SyntaxError {
	var errs []*rdparser.SyntaxError
	for _, f := range pkg.Files {
		errs = append(errs, f.Errors...)
	}
	return errs
}

// IsSourceFile reports whether entry names a single source file rather
// than a package.
func IsSourceFile(entry string) bool {
	return strings.HasSuffix(entry, analysis.SourceExt)
}

// PackageDir returns the directory holding package pkg below root.
func PackageDir(root, pkg string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(pkg, ".", "/")))
}

// Compile parses and analyzes entry, which is either a dotted package name
// resolved below cfg.SourceRoot or the path of a single source file.
func Compile(ctx context.Context, entry string, cfg Config) (*Package, error) {
	files := cfg.Files
	if files == nil {
		files = DiskSource{}
	}
	var paths []string
	pkg := &Package{}
	if IsSourceFile(entry) {
		path := entry
		if !filepath.IsAbs(path) && cfg.SourceRoot != "" {
			path = filepath.Join(cfg.SourceRoot, path)
		}
		paths = []string{path}
	} else {
		pkg.Name = entry
		dir := PackageDir(cfg.SourceRoot, entry)
		names, err := files.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", entry, err)
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("package %s: %w in %s", entry, ErrNoSources, dir)
		}
		for _, name := range names {
			paths = append(paths, filepath.Join(dir, name))
		}
	}

	pkg.Files = make([]*File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := parseFile(files, path, cfg.Strategy)
			if err != nil {
				return err
			}
			pkg.Files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if pkg.Name == "" && len(pkg.Files) == 1 {
		pkg.Name = analysis.PackageOf(pkg.Files[0].AST)
	}

	if cfg.Phase == PhaseParse {
		return pkg, nil
	}
	asts := make([]*ast.File, len(pkg.Files))
	for i, f := range pkg.Files {
		asts[i] = f.AST
	}
	pkg.Analysis = analysis.Analyze(asts, &analysis.Config{
		PackageExports: exports(cfg),
		DefineOnly:     cfg.Phase == PhaseDefine,
	})
	return pkg, nil
}

// recorder keeps the errors reported to the strategy it wraps.
type recorder struct {
	rdparser.ErrorStrategy
	errs []*rdparser.SyntaxError
}

func (r *recorder) ReportError(err *rdparser.SyntaxError) {
	r.errs = append(r.errs, err)
	r.ErrorStrategy.ReportError(err)
}

func parseFile(files FileSource, path string, strategy func() rdparser.ErrorStrategy) (*File, error) {
	src, err := files.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var es rdparser.ErrorStrategy = &rdparser.BailStrategy{}
	if strategy != nil {
		es = strategy()
	}
	rec := &recorder{ErrorStrategy: es}
	tree, err := parser.ParseFile(path, src, rdparser.WithErrorStrategy(rec))
	if err != nil {
		return nil, err
	}
	return &File{Path: path, AST: tree, Errors: rec.errs}, nil
}

func exports(cfg Config) map[string][]analysis.ExternalSymbol {
	if cfg.Exports != nil {
		return cfg.Exports
	}
	exp := analysis.StdlibExports()
	if cfg.SourceRoot == "" {
		return exp
	}
	ws, err := analysis.ScanWorkspacePackages(cfg.SourceRoot)
	if err != nil {
		log.Warningf("scanning %s: %v", cfg.SourceRoot, err)
		return exp
	}
	for path, syms := range ws {
		if _, ok := exp[path]; !ok && path != "" {
			exp[path] = syms
		}
	}
	return exp
}
