// Copyright © 2024 The ELPS authors

// Package analysis provides scope-aware semantic analysis for parsed
// source files.
//
// The analyzer builds a scope tree from the files of one package, resolves
// symbol references, and identifies unresolved symbols.  It is used by the
// completion engine to find the symbols visible at a cursor and by lint
// analyzers for checks like unused-variable.
package analysis

import (
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Config controls the behavior of the analyzer.
type Config struct {
	// ExtraGlobals are package level symbols from files that are not
	// being analyzed.
	ExtraGlobals []ExternalSymbol

	// PackageExports maps import paths to their exported symbols.  Used to
	// resolve imported packages from the stdlib and the workspace.
	PackageExports map[string][]ExternalSymbol

	// DefineOnly builds scopes and defines symbols without resolving
	// references.
	DefineOnly bool
}

// ExternalSymbol represents a symbol defined outside the analyzed files.
type ExternalSymbol struct {
	Name      string
	Kind      SymbolKind
	Package   string
	Type      string
	Signature *Signature
	DocString string
	Source    *token.Location
}

func (ext ExternalSymbol) symbol() *Symbol {
	return &Symbol{
		Name:      ext.Name,
		Kind:      ext.Kind,
		Source:    ext.Source,
		Type:      ext.Type,
		Package:   ext.Package,
		Signature: ext.Signature,
		DocString: ext.DocString,
		Exported:  true,
		External:  true,
	}
}

// Result holds the output of semantic analysis.
type Result struct {
	RootScope    *Scope // builtin types
	PackageScope *Scope
	Symbols      []*Symbol
	References   []*Reference
	Unresolved   []*UnresolvedRef

	scopes  map[ast.Node]*Scope
	exports map[string][]ExternalSymbol
}

// ScopeOf returns the scope introduced by n.  Files, blocks and
// declarations that own parameters or members introduce scopes.  ScopeOf
// returns nil for any other node.
func (r *Result) ScopeOf(n ast.Node) *Scope {
	return r.scopes[n]
}

// Analyze performs semantic analysis on the files of one package.
// It builds a scope tree, resolves references, and collects unresolved
// symbols.  Files may contain placeholder nodes left by error recovery.
func Analyze(files []*ast.File, cfg *Config) *Result {
	if cfg == nil {
		cfg = &Config{}
	}

	root := NewScope(ScopeBuiltin, nil, nil)
	populateBuiltins(root)
	pkg := NewScope(ScopePackage, root, nil)

	for _, ext := range cfg.ExtraGlobals {
		pkg.Define(ext.symbol())
	}

	a := &analyzer{
		cfg: cfg,
		result: &Result{
			RootScope:    root,
			PackageScope: pkg,
			scopes:       make(map[ast.Node]*Scope),
			exports:      cfg.PackageExports,
		},
		imported: make(map[string]map[string]*Symbol),
	}

	// Phase 1: Pre-scan package level declarations (forward references)
	for _, f := range files {
		a.file = f.Name
		a.prescan(f, pkg)
	}

	// Phase 2: Deep recursive walk
	for _, f := range files {
		a.file = f.Name
		a.analyzeFile(f, pkg)
	}

	return a.result
}
