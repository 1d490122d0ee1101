// Copyright © 2024 The ELPS authors

package analysis

import (
	"sort"

	"github.com/luthersystems/balsp/parser/ast"
)

// ScopeKind classifies the kind of scope.
type ScopeKind int

const (
	ScopeBuiltin    ScopeKind = iota // builtin types
	ScopePackage                     // package level declarations
	ScopeFile                        // imports of one source file
	ScopeFunction                    // function or transformer parameters
	ScopeService                     // service level variables
	ScopeResource                    // resource parameters
	ScopeConnector                   // connector parameters and variables
	ScopeAction                      // action parameters
	ScopeStruct                      // struct fields
	ScopeAnnotation                  // annotation fields
	ScopeBlock                       // statement block
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopePackage:
		return "package"
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeService:
		return "service"
	case ScopeResource:
		return "resource"
	case ScopeConnector:
		return "connector"
	case ScopeAction:
		return "action"
	case ScopeStruct:
		return "struct"
	case ScopeAnnotation:
		return "annotation"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the source.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Children []*Scope
	Symbols  map[string]*Symbol
	Node     ast.Node // the AST node that introduced this scope
}

// NewScope creates a new scope of the given kind with the given parent.
func NewScope(kind ScopeKind, parent *Scope, node ast.Node) *Scope {
	s := &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
		Node:    node,
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Define adds a symbol to this scope.
func (s *Scope) Define(sym *Symbol) {
	sym.Scope = s
	s.Symbols[sym.Name] = sym
}

// Lookup resolves a symbol by walking the parent chain.
// Returns nil if the symbol is not found.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if sym, ok := scope.Symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupLocal resolves a symbol only in this scope (not parents).
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// VisibleAt returns every symbol visible from s at the one-based source
// position (line, col).  Inner bindings shadow outer bindings of the same
// name.  Symbols local to a statement block are only visible once their
// declaration starts before the position.
func (s *Scope) VisibleAt(line, col int) map[string]*Symbol {
	visible := make(map[string]*Symbol)
	for scope := s; scope != nil; scope = scope.Parent {
		for name, sym := range scope.Symbols {
			if _, shadowed := visible[name]; shadowed {
				continue
			}
			if scope.Kind == ScopeBlock && !sym.declaredBefore(line, col) {
				continue
			}
			visible[name] = sym
		}
	}
	return visible
}

// SortedSymbols returns the symbols of m ordered by name.
func SortedSymbols(m map[string]*Symbol) []*Symbol {
	syms := make([]*Symbol, 0, len(m))
	for _, sym := range m {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Name < syms[j].Name
	})
	return syms
}

// ScopeAtPosition returns the innermost scope below root whose node
// contains the one-based position (line, col).  Root is returned when no
// nested scope contains the position.
func ScopeAtPosition(root *Scope, line, col int) *Scope {
	for _, child := range root.Children {
		if child.Node == nil {
			return ScopeAtPosition(child, line, col)
		}
		r := child.Node.Range()
		if before(line, col, r.StartLine, r.StartCol) || before(r.EndLine, r.EndCol, line, col) {
			continue
		}
		return ScopeAtPosition(child, line, col)
	}
	return root
}

func before(l1, c1, l2, c2 int) bool {
	return l1 < l2 || l1 == l2 && c1 < c2
}
