// Copyright © 2024 The ELPS authors

package completion

import (
	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/parser/ast"
)

// Resolution is the outcome of scope resolution for one cursor position.
type Resolution struct {
	// Node is the container the cursor resolved to: a *ast.Block, a
	// service, connector, struct or annotation declaration, or an
	// *ast.AttachmentPoints.  Node is nil at the top level of a file.
	Node ast.Node
	// Owner is the construct that owns Node when Node is a block.  Owner
	// is nil for top level resolutions and for the final else block of an
	// if chain.
	Owner ast.Node
	// Enclosing lists the owners of every container between the file and
	// Node, outermost first.
	Enclosing []ast.Node
	// Symbols are the names visible at the cursor, sorted by name.
	Symbols []SymbolInfo
	// Qualifier is the package name typed immediately before the cursor
	// ("io" in "io:pr").  Symbols then hold the members of that package.
	Qualifier string

	scope *analysis.Scope
}

// Scope returns the analysis scope the cursor resolved to.  It is nil when
// the file was not analyzed.
func (res *Resolution) Scope() *analysis.Scope {
	return res.scope
}

// InLoop reports whether the cursor is inside the body of a while or
// foreach loop.
func (res *Resolution) InLoop() bool {
	return res.enclosedBy(func(n ast.Node) bool {
		switch n.(type) {
		case *ast.While, *ast.Foreach:
			return true
		}
		return false
	})
}

// InTransaction reports whether the cursor is inside a transaction block.
func (res *Resolution) InTransaction() bool {
	return res.enclosedBy(func(n ast.Node) bool {
		_, ok := n.(*ast.Transaction)
		return ok
	})
}

// enclosedBy scans the owners from the innermost outwards.  Callables end
// the scan.
func (res *Resolution) enclosedBy(match func(ast.Node) bool) bool {
	for i := len(res.Enclosing) - 1; i >= 0; i-- {
		n := res.Enclosing[i]
		if match(n) {
			return true
		}
		switch n.(type) {
		case *ast.FunctionDecl, *ast.TransformerDecl, *ast.ResourceDecl, *ast.ActionDecl:
			return false
		}
	}
	return false
}

// ResolutionState is the mutable state of one tree walk.  It tracks the
// stack of containers entered on the way to the cursor.
type ResolutionState struct {
	Cursor Position

	file   *ast.File
	result *analysis.Result
	blocks []*ast.Block
	owners []ast.Node
}

func newResolutionState(file *ast.File, result *analysis.Result, cursor Position) *ResolutionState {
	return &ResolutionState{Cursor: cursor, file: file, result: result}
}

// push enters a container.  Member and field lists push a nil block.
func (st *ResolutionState) push(b *ast.Block, owner ast.Node) {
	st.blocks = append(st.blocks, b)
	st.owners = append(st.owners, owner)
}

func (st *ResolutionState) pop() {
	st.blocks = st.blocks[:len(st.blocks)-1]
	st.owners = st.owners[:len(st.owners)-1]
}

// Block returns the innermost block being walked, or nil when the current
// container is a member or field list.
func (st *ResolutionState) Block() *ast.Block {
	if len(st.blocks) == 0 {
		return nil
	}
	return st.blocks[len(st.blocks)-1]
}

// Owner returns the owner of the current container.
func (st *ResolutionState) Owner() ast.Node {
	if len(st.owners) == 0 {
		return nil
	}
	return st.owners[len(st.owners)-1]
}

// isLast reports whether node is the final statement or field of the
// current container.
func (st *ResolutionState) isLast(node ast.Node) bool {
	if b := st.Block(); b != nil {
		n := len(b.Stmts)
		return n > 0 && ast.Node(b.Stmts[n-1]) == node
	}
	var fields []*ast.Field
	switch o := st.Owner().(type) {
	case *ast.StructDecl:
		fields = o.Fields
	case *ast.AnnotationDecl:
		fields = o.Fields
	}
	n := len(fields)
	return n > 0 && ast.Node(fields[n-1]) == node
}

// resolve captures the symbols visible at the cursor from container.
func (st *ResolutionState) resolve(container ast.Node) *Resolution {
	res := &Resolution{Node: container, Owner: st.Owner()}
	for _, o := range st.owners {
		if o != nil {
			res.Enclosing = append(res.Enclosing, o)
		}
	}
	if st.result == nil {
		return res
	}
	res.scope = st.scopeOf(container)
	if res.scope == nil {
		return res
	}
	line, col := st.Cursor.raw()
	res.Symbols = symbolInfos(analysis.SortedSymbols(res.scope.VisibleAt(line, col)))
	return res
}

func (st *ResolutionState) scopeOf(container ast.Node) *analysis.Scope {
	switch container.(type) {
	case nil, *ast.AttachmentPoints:
	default:
		if s := st.result.ScopeOf(container); s != nil {
			return s
		}
	}
	if s := st.result.ScopeOf(st.file); s != nil {
		return s
	}
	return st.result.PackageScope
}

func symbolInfos(syms []*analysis.Symbol) []SymbolInfo {
	if len(syms) == 0 {
		return nil
	}
	infos := make([]SymbolInfo, len(syms))
	for i, sym := range syms {
		infos[i] = SymbolInfo{Name: sym.Name, Symbol: sym}
	}
	return infos
}
