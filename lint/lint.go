// Copyright © 2024 The ELPS authors

// Package lint provides static analysis for source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a parsed AST and reports diagnostics. The framework handles
// parsing, running analyzers, collecting results, and formatting output.
//
// Analyzers are composable and extensible; embedders can define custom
// checks alongside the built-in set.
package lint

import (
	"fmt"
	"sort"

	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/parser"
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-variable").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Run executes the check. It should call pass.Report() for each finding.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// File is the parsed source file.
	File *ast.File

	// Semantics holds the result of semantic analysis, if available.
	// Semantic analyzers should check for nil and return early.
	Semantics *analysis.Result

	// diagnostics collects reported findings.
	diagnostics []Diagnostic
}

// Report records a diagnostic finding.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	if d.Severity == severityUnset {
		d.Severity = p.Analyzer.Severity
	}
	p.diagnostics = append(p.diagnostics, d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a position.
func (p *Pass) Reportf(source *token.Location, format string, args ...interface{}) {
	d := Diagnostic{
		Message: fmt.Sprintf(format, args...),
	}
	if source != nil {
		d.Pos = Position{File: source.File, Line: source.Line, Col: source.Col}
	}
	p.Report(d)
}

// ReportNode reports a diagnostic covering the source range of n.
func (p *Pass) ReportNode(n ast.Node, format string, args ...interface{}) {
	p.Report(NodeDiagnostic(p.Filename, n, fmt.Sprintf(format, args...)))
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer
}

// LintFile analyzes a single source file and returns all diagnostics.
// Semantic analyzers are no-ops because no analysis.Result is provided.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	file, err := parseFile(source, filename)
	if err != nil {
		return nil, err
	}
	return l.LintFileWithContext(source, file, nil)
}

// LintFileWithContext analyzes a parsed source file with optional semantic
// analysis results.  source is the text file was parsed from; it is scanned
// for nolint comments.  When semantics is nil, semantic analyzers
// (undefined-symbol, unused-variable, etc.) are no-ops.
func (l *Linter) LintFileWithContext(source []byte, file *ast.File, semantics *analysis.Result) ([]Diagnostic, error) {
	filename := file.Name
	var all []Diagnostic

	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer:  analyzer,
			Filename:  filename,
			File:      file,
			Semantics: semantics,
		}
		if err := analyzer.Run(pass); err != nil {
			return nil, fmt.Errorf("%s: analyzer %s: %w", filename, analyzer.Name, err)
		}
		// Set file on diagnostics that don't have one
		for i := range pass.diagnostics {
			if pass.diagnostics[i].Pos.File == "" {
				pass.diagnostics[i].Pos.File = filename
			}
		}
		all = append(all, pass.diagnostics...)
	}

	all = scanSuppressions(source, filename).filter(all)
	sort.SliceStable(all, func(i, j int) bool { return Less(all[i], all[j]) })

	return all, nil
}

// LintFileWithAnalysis parses, analyzes, and lints a source file in one call.
// This is a convenience that runs semantic analysis and passes the result to
// all analyzers.
func (l *Linter) LintFileWithAnalysis(source []byte, filename string, cfg *analysis.Config) ([]Diagnostic, error) {
	file, err := parseFile(source, filename)
	if err != nil {
		return nil, err
	}
	result := analysis.Analyze([]*ast.File{file}, cfg)
	return l.LintFileWithContext(source, file, result)
}

func parseFile(source []byte, filename string) (*ast.File, error) {
	file, err := parser.ParseFile(filename, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return file, nil
}

// DefaultAnalyzers returns the built-in set of lint checks.
func DefaultAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerUnreachableCode,
		AnalyzerLoopControl,
		AnalyzerUnusedVariable,
		AnalyzerShadowedVariable,
		AnalyzerUndefinedSymbol,
		AnalyzerCallArity,
	}
}
