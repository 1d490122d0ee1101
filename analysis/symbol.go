// Copyright © 2024 The ELPS authors

package analysis

import (
	"strings"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// SymbolKind classifies a symbol definition.  The set of kinds is closed;
// capability checks such as IsType switch over every kind.
type SymbolKind int

const (
	SymBuiltinType SymbolKind = iota // int, string, map, ...
	SymStruct                        // struct type
	SymConnector                     // connector type
	SymVariable                      // package, service or local variable
	SymParameter                     // function, resource or action parameter
	SymConstant                      // const
	SymFunction                      // function or transformer
	SymService                       // service
	SymResource                      // service resource
	SymAction                        // connector action
	SymAnnotation                    // annotation definition
	SymPackage                       // imported package
	SymField                         // struct or annotation field
)

var symbolKindNames = [...]string{
	SymBuiltinType: "builtin-type",
	SymStruct:      "struct",
	SymConnector:   "connector",
	SymVariable:    "variable",
	SymParameter:   "parameter",
	SymConstant:    "constant",
	SymFunction:    "function",
	SymService:     "service",
	SymResource:    "resource",
	SymAction:      "action",
	SymAnnotation:  "annotation",
	SymPackage:     "package",
	SymField:       "field",
}

func (k SymbolKind) String() string {
	if k < 0 || int(k) >= len(symbolKindNames) {
		return "unknown"
	}
	return symbolKindNames[k]
}

// SymbolKinds returns every symbol kind.
func SymbolKinds() []SymbolKind {
	kinds := make([]SymbolKind, len(symbolKindNames))
	for i := range kinds {
		kinds[i] = SymbolKind(i)
	}
	return kinds
}

// IsType reports whether symbols of kind k name a type.
func (k SymbolKind) IsType() bool {
	switch k {
	case SymBuiltinType, SymStruct, SymConnector:
		return true
	case SymVariable, SymParameter, SymConstant, SymFunction, SymService,
		SymResource, SymAction, SymAnnotation, SymPackage, SymField:
		return false
	}
	return false
}

// IsValue reports whether symbols of kind k denote a value usable in an
// expression.
func (k SymbolKind) IsValue() bool {
	switch k {
	case SymVariable, SymParameter, SymConstant:
		return true
	case SymBuiltinType, SymStruct, SymConnector, SymFunction, SymService,
		SymResource, SymAction, SymAnnotation, SymPackage, SymField:
		return false
	}
	return false
}

// IsCallable reports whether symbols of kind k can be invoked.
func (k SymbolKind) IsCallable() bool {
	switch k {
	case SymFunction, SymAction:
		return true
	case SymBuiltinType, SymStruct, SymConnector, SymVariable, SymParameter,
		SymConstant, SymService, SymResource, SymAnnotation, SymPackage, SymField:
		return false
	}
	return false
}

// Symbol represents a defined name in a scope.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Source     *token.Location // nil for builtins and stdlib symbols
	Type       string          // declared type of values, e.g. "int[]"
	Scope      *Scope
	Package    string     // import path for package symbols and external symbols
	Signature  *Signature // non-nil for callables
	DocString  string
	Node       ast.Node // declaring node, nil when external
	References int
	Exported   bool
	External   bool
}

func (sym *Symbol) declaredBefore(line, col int) bool {
	if sym.Source == nil {
		return true
	}
	return before(sym.Source.Line, sym.Source.Col, line, col)
}

// Detail returns a short description of sym suitable for completion and
// hover text.
func (sym *Symbol) Detail() string {
	switch sym.Kind {
	case SymFunction, SymAction:
		return sym.Kind.String() + " " + sym.Name + sym.Signature.String()
	case SymVariable, SymParameter, SymConstant, SymField:
		if sym.Type != "" {
			return sym.Type + " " + sym.Name
		}
	case SymPackage:
		return "package " + sym.Package
	}
	return sym.Kind.String() + " " + sym.Name
}

// Param is a named, typed parameter of a callable.
type Param struct {
	Name string
	Type string
}

// Signature describes the parameter signature of a callable symbol.
type Signature struct {
	Params  []Param
	Returns []string
}

// MinArity returns the minimum number of arguments required.
func (sig *Signature) MinArity() int {
	if sig == nil {
		return 0
	}
	return len(sig.Params)
}

// MaxArity returns the maximum number of arguments accepted.
// Returns -1 when the signature is unknown.
func (sig *Signature) MaxArity() int {
	if sig == nil {
		return -1
	}
	return len(sig.Params)
}

// String renders sig in declaration syntax, e.g. "(int a, string b) (int)".
func (sig *Signature) String() string {
	if sig == nil {
		return "(...)"
	}
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = strings.TrimSpace(p.Type + " " + p.Name)
	}
	s := "(" + strings.Join(params, ", ") + ")"
	if len(sig.Returns) > 0 {
		s += " (" + strings.Join(sig.Returns, ", ") + ")"
	}
	return s
}

func signatureOf(params []*ast.Param, returns []*ast.TypeName) *Signature {
	sig := &Signature{}
	for _, p := range params {
		sig.Params = append(sig.Params, Param{Name: identName(p.Name), Type: typeString(p.Type)})
	}
	for _, r := range returns {
		sig.Returns = append(sig.Returns, typeString(r))
	}
	return sig
}

func typeString(t *ast.TypeName) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func identName(id *ast.Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}
