// Copyright © 2024 The ELPS authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/astutil"
	"github.com/luthersystems/balsp/parser/ast"
)

// AnalyzerUnreachableCode warns about statements that follow a statement
// which always transfers control out of the enclosing block.
var AnalyzerUnreachableCode = &Analyzer{
	Name:     "unreachable-code",
	Severity: SeverityWarning,
	Doc:      "Warn about statements that can never execute.\n\nA statement that follows return, break, next, throw, abort or retry in the same block is never reached. An if statement whose branches all terminate also ends the block.",
	Run: func(pass *Pass) error {
		astutil.Inspect(pass.File, func(n ast.Node) bool {
			b, ok := n.(*ast.Block)
			if !ok {
				return true
			}
			for i, s := range b.Stmts[:max(len(b.Stmts)-1, 0)] {
				if !terminates(s) {
					continue
				}
				rest := b.Stmts[i+1:]
				if _, ok := rest[0].(*ast.Placeholder); ok {
					break
				}
				d := NodeDiagnostic(pass.Filename, rest[0], "unreachable code")
				last := rest[len(rest)-1].Range()
				d.End.Line, d.End.Col = last.EndLine, last.EndCol
				pass.Report(d)
				break
			}
			return true
		})
		return nil
	},
}

// terminates reports whether control never continues past s.
func terminates(s ast.Node) bool {
	switch s := s.(type) {
	case *ast.Return, *ast.Break, *ast.Next, *ast.Throw, *ast.Abort, *ast.Retry:
		return true
	case *ast.Block:
		if s == nil {
			return false
		}
		for _, st := range s.Stmts {
			if terminates(st) {
				return true
			}
		}
	case *ast.If:
		return s != nil && s.Else != nil && terminates(s.Then) && terminates(s.Else)
	}
	return false
}

// AnalyzerLoopControl checks that break and next only appear inside loops.
var AnalyzerLoopControl = &Analyzer{
	Name:     "loop-control",
	Doc:      "Check that break and next appear inside a while or foreach body.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		var visit func(n ast.Node, loops int)
		visit = func(n ast.Node, loops int) {
			switch n := n.(type) {
			case *ast.While, *ast.Foreach:
				loops++
			case *ast.Break:
				if loops == 0 {
					pass.ReportNode(n, "break is not in a loop")
				}
			case *ast.Next:
				if loops == 0 {
					pass.ReportNode(n, "next is not in a loop")
				}
			}
			for _, c := range ast.Children(n) {
				visit(c, loops)
			}
		}
		visit(pass.File, 0)
		return nil
	},
}

// AnalyzerUnusedVariable warns about local variables that are never
// referenced.
var AnalyzerUnusedVariable = &Analyzer{
	Name:     "unused-variable",
	Severity: SeverityWarning,
	Doc:      "Warn about local variables that are declared but never used.\n\nApplies to variables declared in statement blocks, foreach variables and catch variables. Names beginning with an underscore are ignored. Requires semantic analysis.",
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		for _, sym := range localSymbols(pass) {
			if sym.References > 0 || strings.HasPrefix(sym.Name, "_") {
				continue
			}
			pass.Report(symbolDiagnostic(pass, sym, fmt.Sprintf("%s declared and not used", sym.Name)))
		}
		return nil
	},
}

// AnalyzerShadowedVariable warns when a local declaration hides a variable,
// parameter or constant of an enclosing scope.
var AnalyzerShadowedVariable = &Analyzer{
	Name:     "shadowed-variable",
	Severity: SeverityWarning,
	Doc:      "Warn when a local declaration shadows a name from an enclosing scope.\n\nShadowed variables, parameters and constants make it easy to read or assign the wrong binding. Requires semantic analysis.",
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		for _, sym := range localSymbols(pass) {
			parent := sym.Scope.Parent
			if parent == nil {
				continue
			}
			outer := parent.VisibleAt(sym.Source.Line, sym.Source.Col)[sym.Name]
			if outer == nil {
				continue
			}
			switch outer.Kind {
			case analysis.SymVariable, analysis.SymParameter, analysis.SymConstant:
			default:
				continue
			}
			d := symbolDiagnostic(pass, sym, fmt.Sprintf("%s shadows %s declared in an enclosing scope", sym.Name, outer.Kind))
			if outer.Source != nil {
				d.Notes = append(d.Notes, fmt.Sprintf("%s is declared at %s", sym.Name, outer.Source))
			}
			pass.Report(d)
		}
		return nil
	},
}

// AnalyzerUndefinedSymbol reports names and import paths that do not
// resolve.
var AnalyzerUndefinedSymbol = &Analyzer{
	Name:     "undefined-symbol",
	Doc:      "Report references to names that are not defined.\n\nNames are resolved against local declarations, package declarations, builtin types and the exports of imported packages. Import paths that name no known package are also reported. Requires semantic analysis.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		for _, u := range pass.Semantics.Unresolved {
			if u.Source == nil || u.Source.File != pass.Filename {
				continue
			}
			msg := "undefined: " + u.Name
			if u.Kind == analysis.RefImport {
				msg = "unknown package: " + u.Name
			}
			pass.Report(NodeDiagnostic(pass.Filename, u.Node, msg))
		}
		return nil
	},
}

// AnalyzerCallArity checks argument counts of calls to functions and
// actions with known signatures.
var AnalyzerCallArity = &Analyzer{
	Name:     "call-arity",
	Doc:      "Check argument counts for calls to functions with known signatures.\n\nThe callee is resolved through semantic analysis so calls into imported packages are checked against their exported signatures. Requires semantic analysis.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		if pass.Semantics == nil {
			return nil
		}
		resolved := make(map[ast.Node]*analysis.Symbol, len(pass.Semantics.References))
		for _, ref := range pass.Semantics.References {
			if ref.Kind == analysis.RefValue {
				resolved[ref.Node] = ref.Symbol
			}
		}
		astutil.WalkCalls([]ast.Node{pass.File}, func(call *ast.Call, _ int) {
			id, ok := call.Fun.(*ast.Ident)
			if !ok {
				return
			}
			sym := resolved[id]
			if sym == nil || !sym.Kind.IsCallable() || sym.Signature == nil {
				return
			}
			name := astutil.CalleeName(call)
			argc := astutil.ArgCount(call)
			if lo := sym.Signature.MinArity(); argc < lo {
				pass.ReportNode(call, "%s requires at least %d argument(s), got %d", name, lo, argc)
				return
			}
			if hi := sym.Signature.MaxArity(); hi >= 0 && argc > hi {
				pass.ReportNode(call, "%s accepts at most %d argument(s), got %d", name, hi, argc)
			}
		})
		return nil
	},
}

// localSymbols returns the block scoped variables declared in the file
// being linted, in source order.
func localSymbols(pass *Pass) []*analysis.Symbol {
	var syms []*analysis.Symbol
	for _, sym := range pass.Semantics.Symbols {
		if sym.Kind != analysis.SymVariable || sym.Scope == nil || sym.Scope.Kind != analysis.ScopeBlock {
			continue
		}
		if sym.Source == nil || sym.Source.File != pass.Filename {
			continue
		}
		syms = append(syms, sym)
	}
	sort.SliceStable(syms, func(i, j int) bool {
		a, b := syms[i].Source, syms[j].Source
		return a.Line < b.Line || a.Line == b.Line && a.Col < b.Col
	})
	return syms
}

// symbolDiagnostic returns a diagnostic covering the declared name of sym.
func symbolDiagnostic(pass *Pass, sym *analysis.Symbol, msg string) Diagnostic {
	if id := declaredName(sym.Node); id != nil {
		return NodeDiagnostic(pass.Filename, id, msg)
	}
	return Diagnostic{
		Pos:     Position{File: pass.Filename, Line: sym.Source.Line, Col: sym.Source.Col},
		Message: msg,
	}
}

func declaredName(n ast.Node) *ast.Ident {
	switch n := n.(type) {
	case *ast.VarDef:
		return n.Name
	case *ast.Foreach:
		return n.Var
	case *ast.Catch:
		return n.Name
	case *ast.Param:
		return n.Name
	}
	return nil
}

// AnalyzerNames returns a sorted list of all default analyzer names.
func AnalyzerNames() []string {
	analyzers := DefaultAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range DefaultAnalyzers() {
		fmt.Fprintf(&b, "  %s\n", a.Name)
		lines := strings.Split(a.Doc, "\n")
		fmt.Fprintf(&b, "    %s\n\n", lines[0])
	}
	return b.String()
}
