// Copyright © 2024 The ELPS authors

package analysis

import (
	"sort"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// analyzer is the internal state for a single analysis run.
type analyzer struct {
	cfg      *Config
	result   *Result
	file     string
	imported map[string]map[string]*Symbol // imported package members by path
}

// prescan registers the package level declarations of f so that they can
// be referenced before their definition.
func (a *analyzer) prescan(f *ast.File, pkg *Scope) {
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FunctionDecl:
			a.define(pkg, d.Name, SymFunction, d).Signature = signatureOf(d.Params, d.Returns)
		case *ast.TransformerDecl:
			a.define(pkg, d.Name, SymFunction, d).Signature = signatureOf(d.Params, d.Returns)
		case *ast.ServiceDecl:
			a.define(pkg, d.Name, SymService, d)
		case *ast.ConnectorDecl:
			a.define(pkg, d.Name, SymConnector, d)
		case *ast.StructDecl:
			a.define(pkg, d.Name, SymStruct, d)
		case *ast.AnnotationDecl:
			a.define(pkg, d.Name, SymAnnotation, d)
		case *ast.ConstDecl:
			a.define(pkg, d.Name, SymConstant, d).Type = typeString(d.Type)
		case *ast.GlobalVar:
			a.define(pkg, d.Name, SymVariable, d).Type = typeString(d.Type)
		}
	}
}

// define adds a symbol named by id to scope.  A detached symbol is returned
// when id is missing so that callers may set fields unconditionally.
func (a *analyzer) define(scope *Scope, id *ast.Ident, kind SymbolKind, node ast.Node) *Symbol {
	if id == nil || id.Name == "" {
		return &Symbol{Kind: kind, Node: node}
	}
	sym := &Symbol{
		Name:     id.Name,
		Kind:     kind,
		Source:   a.loc(id.Range()),
		Node:     node,
		Exported: scope.Kind == ScopePackage,
	}
	if doc, ok := node.(ast.Documented); ok {
		sym.DocString = doc.DocText()
	}
	scope.Define(sym)
	a.result.Symbols = append(a.result.Symbols, sym)
	return sym
}

func (a *analyzer) loc(r token.Range) *token.Location {
	return r.Start(a.file)
}

func (a *analyzer) scope(kind ScopeKind, parent *Scope, node ast.Node) *Scope {
	s := NewScope(kind, parent, node)
	a.result.scopes[node] = s
	return s
}

func (a *analyzer) analyzeFile(f *ast.File, pkg *Scope) {
	scope := a.scope(ScopeFile, pkg, f)
	for _, imp := range f.Imports {
		sym := &Symbol{
			Name:    imp.Name(),
			Kind:    SymPackage,
			Source:  a.loc(imp.Range()),
			Package: imp.Path,
			Node:    imp,
		}
		scope.Define(sym)
		a.result.Symbols = append(a.result.Symbols, sym)
		if _, ok := a.cfg.PackageExports[imp.Path]; !ok && !a.cfg.DefineOnly {
			a.result.Unresolved = append(a.result.Unresolved, &UnresolvedRef{
				Name:   imp.Path,
				Kind:   RefImport,
				Source: sym.Source,
				Node:   imp,
			})
		}
	}
	for _, d := range f.Decls {
		a.analyzeDecl(d, scope)
	}
}

func (a *analyzer) analyzeDecl(d ast.Decl, scope *Scope) {
	switch d := d.(type) {
	case *ast.FunctionDecl:
		a.annotations(d.Annotations, scope)
		fnScope := a.scope(ScopeFunction, scope, d)
		a.params(d.Params, fnScope)
		a.types(d.Returns, scope)
		a.block(d.Body, fnScope, nil)
	case *ast.TransformerDecl:
		fnScope := a.scope(ScopeFunction, scope, d)
		a.params(d.Params, fnScope)
		a.types(d.Returns, scope)
		a.block(d.Body, fnScope, nil)
	case *ast.ServiceDecl:
		a.annotations(d.Annotations, scope)
		svcScope := a.scope(ScopeService, scope, d)
		a.members(d.Members, svcScope)
	case *ast.ConnectorDecl:
		a.annotations(d.Annotations, scope)
		conScope := a.scope(ScopeConnector, scope, d)
		a.params(d.Params, conScope)
		a.members(d.Members, conScope)
	case *ast.StructDecl:
		a.fields(d.Fields, a.scope(ScopeStruct, scope, d))
	case *ast.AnnotationDecl:
		a.fields(d.Fields, a.scope(ScopeAnnotation, scope, d))
	case *ast.ConstDecl:
		a.resolveType(d.Type, scope)
		a.analyzeExpr(d.Value, scope)
	case *ast.GlobalVar:
		a.resolveType(d.Type, scope)
		a.analyzeExpr(d.Value, scope)
	}
}

// members analyzes the members of a service or connector.  Resources and
// actions are defined before any member body is analyzed.
func (a *analyzer) members(members []ast.Decl, scope *Scope) {
	for _, m := range members {
		switch m := m.(type) {
		case *ast.ResourceDecl:
			a.define(scope, m.Name, SymResource, m).Signature = signatureOf(m.Params, nil)
		case *ast.ActionDecl:
			a.define(scope, m.Name, SymAction, m).Signature = signatureOf(m.Params, m.Returns)
		}
	}
	for _, m := range members {
		switch m := m.(type) {
		case *ast.GlobalVar:
			a.resolveType(m.Type, scope)
			a.analyzeExpr(m.Value, scope)
			a.define(scope, m.Name, SymVariable, m).Type = typeString(m.Type)
		case *ast.ResourceDecl:
			a.annotations(m.Annotations, scope)
			resScope := a.scope(ScopeResource, scope, m)
			a.params(m.Params, resScope)
			a.block(m.Body, resScope, nil)
		case *ast.ActionDecl:
			a.annotations(m.Annotations, scope)
			actScope := a.scope(ScopeAction, scope, m)
			a.params(m.Params, actScope)
			a.types(m.Returns, scope)
			a.block(m.Body, actScope, nil)
		}
	}
}

func (a *analyzer) fields(fields []*ast.Field, scope *Scope) {
	for _, f := range fields {
		a.resolveType(f.Type, scope)
		a.analyzeExpr(f.Value, scope)
		a.define(scope, f.Name, SymField, f).Type = typeString(f.Type)
	}
}

func (a *analyzer) params(params []*ast.Param, scope *Scope) {
	for _, p := range params {
		a.resolveType(p.Type, scope)
		a.define(scope, p.Name, SymParameter, p).Type = typeString(p.Type)
	}
}

func (a *analyzer) types(types []*ast.TypeName, scope *Scope) {
	for _, t := range types {
		a.resolveType(t, scope)
	}
}

func (a *analyzer) annotations(annots []*ast.AnnotationAttachment, scope *Scope) {
	for _, an := range annots {
		a.resolveIdent(an.Name, scope)
		if an.Value != nil {
			a.analyzeExpr(an.Value, scope)
		}
	}
}

// block analyzes b in a new block scope below parent.  pre, if not nil,
// defines symbols bound by the owning statement before the statements are
// analyzed.
func (a *analyzer) block(b *ast.Block, parent *Scope, pre func(*Scope)) {
	if b == nil {
		return
	}
	scope := a.scope(ScopeBlock, parent, b)
	if pre != nil {
		pre(scope)
	}
	for _, s := range b.Stmts {
		a.analyzeStmt(s, scope)
	}
}

func (a *analyzer) analyzeStmt(s ast.Stmt, scope *Scope) {
	switch s := s.(type) {
	case *ast.VarDef:
		a.resolveType(s.Type, scope)
		a.analyzeExpr(s.Value, scope)
		a.define(scope, s.Name, SymVariable, s).Type = typeString(s.Type)
	case *ast.Assign:
		a.analyzeExpr(s.Target, scope)
		a.analyzeExpr(s.Value, scope)
	case *ast.ExprStmt:
		a.analyzeExpr(s.X, scope)
	case *ast.If:
		a.analyzeIf(s, scope)
	case *ast.While:
		a.analyzeExpr(s.Cond, scope)
		a.block(s.Body, scope, nil)
	case *ast.Foreach:
		a.analyzeExpr(s.Iter, scope)
		a.block(s.Body, scope, func(body *Scope) {
			a.define(body, s.Var, SymVariable, s)
		})
	case *ast.Try:
		a.block(s.Body, scope, nil)
		for _, c := range s.Catches {
			a.resolveType(c.Type, scope)
			a.block(c.Body, scope, func(body *Scope) {
				a.define(body, c.Name, SymVariable, c).Type = typeString(c.Type)
			})
		}
		if s.Finally != nil {
			a.block(s.Finally.Body, scope, nil)
		}
	case *ast.Transaction:
		for _, cl := range s.Clauses() {
			a.block(cl.Body, scope, nil)
		}
	case *ast.Return:
		for _, v := range s.Values {
			a.analyzeExpr(v, scope)
		}
	case *ast.Throw:
		a.analyzeExpr(s.X, scope)
	case *ast.Retry:
		a.analyzeExpr(s.Count, scope)
	}
}

func (a *analyzer) analyzeIf(s *ast.If, scope *Scope) {
	a.analyzeExpr(s.Cond, scope)
	a.block(s.Then, scope, nil)
	switch e := s.Else.(type) {
	case *ast.If:
		a.analyzeIf(e, scope)
	case *ast.Block:
		a.block(e, scope, nil)
	}
}

// analyzeExpr recursively walks an expression, tracking symbol references.
func (a *analyzer) analyzeExpr(x ast.Expr, scope *Scope) {
	switch x := x.(type) {
	case nil:
	case *ast.Ident:
		a.resolveIdent(x, scope)
	case *ast.Call:
		a.analyzeExpr(x.Fun, scope)
		for _, arg := range x.Args {
			a.analyzeExpr(arg, scope)
		}
	case *ast.Selector:
		// The selected name is a field of X's type.
		a.analyzeExpr(x.X, scope)
	case *ast.Index:
		a.analyzeExpr(x.X, scope)
		a.analyzeExpr(x.Index, scope)
	case *ast.Unary:
		a.analyzeExpr(x.X, scope)
	case *ast.Binary:
		a.analyzeExpr(x.X, scope)
		a.analyzeExpr(x.Y, scope)
	case *ast.Paren:
		a.analyzeExpr(x.X, scope)
	case *ast.ArrayLit:
		for _, e := range x.Elems {
			a.analyzeExpr(e, scope)
		}
	case *ast.MapLit:
		for _, kv := range x.Entries {
			a.analyzeExpr(kv.Value, scope)
		}
	}
}

// resolveIdent attempts to resolve a name reference in the given scope.
func (a *analyzer) resolveIdent(id *ast.Ident, scope *Scope) {
	if a.cfg.DefineOnly || id == nil || id.Name == "" {
		return
	}
	name := id.Name
	var sym *Symbol
	if id.Package != "" {
		name = id.Package + ":" + id.Name
		sym = a.member(id.Package, id.Name, scope)
	} else {
		sym = scope.Lookup(id.Name)
	}
	a.record(sym, RefValue, id.Package, name, id)
}

// resolveType attempts to resolve a type reference.  Names that resolve to
// symbols that are not types are unresolved.
func (a *analyzer) resolveType(t *ast.TypeName, scope *Scope) {
	if a.cfg.DefineOnly || t == nil || t.Name == "" {
		return
	}
	name := t.Name
	var sym *Symbol
	if t.Package != "" {
		name = t.Package + ":" + t.Name
		sym = a.member(t.Package, t.Name, scope)
	} else {
		sym = scope.Lookup(t.Name)
	}
	if sym != nil && !sym.Kind.IsType() {
		sym = nil
	}
	a.record(sym, RefType, t.Package, name, t)
}

func (a *analyzer) record(sym *Symbol, kind RefKind, qualifier, name string, node ast.Node) {
	src := a.loc(node.Range())
	if sym == nil {
		a.result.Unresolved = append(a.result.Unresolved, &UnresolvedRef{
			Name:      name,
			Kind:      kind,
			Qualifier: qualifier,
			Source:    src,
			Node:      node,
		})
		return
	}
	sym.References++
	a.result.References = append(a.result.References, &Reference{
		Symbol:    sym,
		Kind:      kind,
		Qualifier: qualifier,
		Source:    src,
		Node:      node,
	})
}

// member resolves name in the package imported as pkgName.
func (a *analyzer) member(pkgName, name string, scope *Scope) *Symbol {
	pkg := scope.Lookup(pkgName)
	if pkg == nil || pkg.Kind != SymPackage {
		return nil
	}
	pkg.References++
	return a.packageMembers(pkg.Package)[name]
}

// packageMembers returns the exported symbols of the package at path,
// materializing them on first use.
func (a *analyzer) packageMembers(path string) map[string]*Symbol {
	if m, ok := a.imported[path]; ok {
		return m
	}
	m := make(map[string]*Symbol)
	for _, ext := range a.cfg.PackageExports[path] {
		sym := ext.symbol()
		sym.Package = path
		m[ext.Name] = sym
	}
	a.imported[path] = m
	return m
}

// PackageMembers returns the exported symbols of the package imported as
// pkgName in scope, sorted by name.  It returns nil when pkgName does not
// name an imported package.
func (r *Result) PackageMembers(scope *Scope, pkgName string) []*Symbol {
	pkg := scope.Lookup(pkgName)
	if pkg == nil || pkg.Kind != SymPackage {
		return nil
	}
	syms := make([]*Symbol, 0, len(r.exports[pkg.Package]))
	for _, ext := range r.exports[pkg.Package] {
		sym := ext.symbol()
		sym.Package = pkg.Package
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Name < syms[j].Name
	})
	return syms
}
