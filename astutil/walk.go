// Copyright © 2024 The ELPS authors

// Package astutil provides shared AST walking utilities for parsed source
// files.
//
// These helpers are used by both the lint and analysis packages for
// traversing syntax trees.
package astutil

import (
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Walk calls fn for every node in the tree, depth-first in source order.
// parent is nil for the root nodes.
func Walk(nodes []ast.Node, fn func(node ast.Node, parent ast.Node, depth int)) {
	for _, n := range nodes {
		walkNode(n, nil, 0, fn)
	}
}

func walkNode(node ast.Node, parent ast.Node, depth int, fn func(ast.Node, ast.Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range ast.Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Inspect traverses the tree rooted at n depth-first.  If fn returns false
// the children of the current node are skipped.
func Inspect(n ast.Node, fn func(ast.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range ast.Children(n) {
		Inspect(child, fn)
	}
}

// WalkCalls calls fn for every call expression in the tree.
func WalkCalls(nodes []ast.Node, fn func(call *ast.Call, depth int)) {
	Walk(nodes, func(node ast.Node, _ ast.Node, depth int) {
		if call, ok := node.(*ast.Call); ok {
			fn(call, depth)
		}
	})
}

// CalleeName returns the possibly qualified name of the function a call
// invokes, or "" when the callee is not a simple name.
func CalleeName(call *ast.Call) string {
	id, ok := call.Fun.(*ast.Ident)
	if !ok {
		return ""
	}
	if id.Package != "" {
		return id.Package + ":" + id.Name
	}
	return id.Name
}

// ArgCount returns the number of arguments in a call.
func ArgCount(call *ast.Call) int {
	return len(call.Args)
}

// UserDefined returns the set of names declared anywhere in file.  This
// includes:
//   - package level declarations (functions, globals, constants, types)
//   - parameter names of functions, resources and actions
//   - local variable names
//
// The result is file-global (not scope-aware), which is conservative: it may
// suppress a valid finding but will never produce a false positive.
func UserDefined(file *ast.File) map[string]bool {
	defs := make(map[string]bool)
	Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FunctionDecl:
			define(defs, n.Name)
		case *ast.TransformerDecl:
			define(defs, n.Name)
		case *ast.ServiceDecl:
			define(defs, n.Name)
		case *ast.ConnectorDecl:
			define(defs, n.Name)
		case *ast.StructDecl:
			define(defs, n.Name)
		case *ast.ConstDecl:
			define(defs, n.Name)
		case *ast.GlobalVar:
			define(defs, n.Name)
		case *ast.Param:
			define(defs, n.Name)
		case *ast.VarDef:
			define(defs, n.Name)
		case *ast.Foreach:
			define(defs, n.Var)
		case *ast.Catch:
			define(defs, n.Name)
		}
		return true
	})
	return defs
}

func define(defs map[string]bool, id *ast.Ident) {
	if id != nil && id.Name != "" {
		defs[id.Name] = true
	}
}

// SourceOf returns the best source range for a node.
// Prefers the node's own range, falls back to its first child's range.
func SourceOf(n ast.Node) token.Range {
	if r := n.Range(); !r.IsZero() {
		return r
	}
	for _, c := range ast.Children(n) {
		if r := c.Range(); !r.IsZero() {
			return r
		}
	}
	return token.Range{}
}
