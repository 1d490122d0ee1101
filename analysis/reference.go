// Copyright © 2024 The ELPS authors

package analysis

import (
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// RefKind is the syntactic position a name was used in.
type RefKind int

const (
	RefValue  RefKind = iota // operand, callee or assignment target
	RefType                  // type name
	RefImport                // import path
)

func (k RefKind) String() string {
	switch k {
	case RefValue:
		return "value"
	case RefType:
		return "type"
	case RefImport:
		return "import"
	default:
		return "unknown"
	}
}

// Reference records a resolved use of a symbol.  Qualifier is the package
// alias of a qualified name such as io:println.
type Reference struct {
	Symbol    *Symbol
	Kind      RefKind
	Qualifier string
	Source    *token.Location
	Node      ast.Node
}

// UnresolvedRef records a use of a name that could not be resolved.  Name
// includes the qualifier, if any.
type UnresolvedRef struct {
	Name      string
	Kind      RefKind
	Qualifier string
	Source    *token.Location
	Node      ast.Node
}

// Resolved returns the symbol node was resolved to, or nil.
func (r *Result) Resolved(node ast.Node) *Symbol {
	for _, ref := range r.References {
		if ref.Node == node {
			return ref.Symbol
		}
	}
	return nil
}

// ReferencesTo returns the resolved uses of sym in source order.
func (r *Result) ReferencesTo(sym *Symbol) []*Reference {
	var refs []*Reference
	for _, ref := range r.References {
		if ref.Symbol == sym {
			refs = append(refs, ref)
		}
	}
	return refs
}
