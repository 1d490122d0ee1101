// Copyright © 2024 The ELPS authors

package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/parser/token"
)

func parse(t *testing.T, source string) *ast.File {
	t.Helper()
	s := token.NewScanner("test.bal", strings.NewReader(source))
	file, err := rdparser.New(s).ParseFile()
	require.NoError(t, err)
	return file
}

// parseAndAnalyze is a test helper that parses source and runs analysis.
func parseAndAnalyze(t *testing.T, source string) (*ast.File, *Result) {
	t.Helper()
	file := parse(t, source)
	return file, Analyze([]*ast.File{file}, &Config{PackageExports: StdlibExports()})
}

func unresolvedNames(r *Result) []string {
	var names []string
	for _, u := range r.Unresolved {
		names = append(names, u.Name)
	}
	return names
}

// --- Scope tests ---

func TestScope_Define_Lookup(t *testing.T) {
	parent := NewScope(ScopePackage, nil, nil)
	child := NewScope(ScopeBlock, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	// Child can see both x and y
	assert.NotNil(t, child.Lookup("x"))
	assert.NotNil(t, child.Lookup("y"))

	// Parent can only see x
	assert.NotNil(t, parent.Lookup("x"))
	assert.Nil(t, parent.Lookup("y"))
	assert.Equal(t, []*Scope{child}, parent.Children)
}

func TestScope_LookupLocal(t *testing.T) {
	parent := NewScope(ScopePackage, nil, nil)
	child := NewScope(ScopeBlock, parent, nil)

	parent.Define(&Symbol{Name: "x", Kind: SymVariable})
	child.Define(&Symbol{Name: "y", Kind: SymVariable})

	assert.Nil(t, child.LookupLocal("x"))
	assert.NotNil(t, child.LookupLocal("y"))
}

func TestScope_Shadowing(t *testing.T) {
	parent := NewScope(ScopePackage, nil, nil)
	child := NewScope(ScopeBlock, parent, nil)

	parentSym := &Symbol{Name: "x", Kind: SymVariable}
	childSym := &Symbol{Name: "x", Kind: SymVariable, Source: &token.Location{Line: 1, Col: 1}}
	parent.Define(parentSym)
	child.Define(childSym)

	// Child lookup finds the child's symbol
	assert.Same(t, childSym, child.Lookup("x"))
	// Parent lookup finds parent's symbol
	assert.Same(t, parentSym, parent.Lookup("x"))

	visible := child.VisibleAt(5, 1)
	assert.Same(t, childSym, visible["x"])
}

func TestScope_VisibleAt_DeclarationOrder(t *testing.T) {
	pkg := NewScope(ScopePackage, nil, nil)
	fn := NewScope(ScopeFunction, pkg, nil)
	block := NewScope(ScopeBlock, fn, nil)

	pkg.Define(&Symbol{Name: "later", Kind: SymFunction, Source: &token.Location{Line: 9, Col: 1}})
	fn.Define(&Symbol{Name: "p", Kind: SymParameter, Source: &token.Location{Line: 1, Col: 12}})
	block.Define(&Symbol{Name: "x", Kind: SymVariable, Source: &token.Location{Line: 2, Col: 6}})

	names := func(m map[string]*Symbol) []string {
		var out []string
		for _, sym := range SortedSymbols(m) {
			out = append(out, sym.Name)
		}
		return out
	}
	// Package level declarations are visible before their definition.
	assert.Equal(t, []string{"later", "p"}, names(block.VisibleAt(2, 1)))
	assert.Equal(t, []string{"later", "p"}, names(block.VisibleAt(2, 6)))
	assert.Equal(t, []string{"later", "p", "x"}, names(block.VisibleAt(2, 7)))
	assert.Equal(t, []string{"later", "p", "x"}, names(block.VisibleAt(3, 1)))
}

func TestScopeKind_String(t *testing.T) {
	assert.Equal(t, "block", ScopeBlock.String())
	assert.Equal(t, "unknown", ScopeKind(99).String())
}

// --- Symbol kind tests ---

func TestSymbolKind_Capabilities(t *testing.T) {
	for _, k := range SymbolKinds() {
		assert.NotEqual(t, "unknown", k.String())
		caps := 0
		for _, c := range []bool{k.IsType(), k.IsValue(), k.IsCallable()} {
			if c {
				caps++
			}
		}
		assert.LessOrEqual(t, caps, 1, k.String())
	}
	assert.True(t, SymStruct.IsType())
	assert.True(t, SymConnector.IsType())
	assert.True(t, SymParameter.IsValue())
	assert.True(t, SymAction.IsCallable())
	assert.False(t, SymPackage.IsType())
	assert.Equal(t, "unknown", SymbolKind(-1).String())
}

// --- Signature tests ---

func TestSignature_MinMaxArity(t *testing.T) {
	tests := []struct {
		name    string
		sig     *Signature
		wantMin int
		wantMax int
		str     string
	}{
		{
			name:    "nil signature",
			sig:     nil,
			wantMin: 0,
			wantMax: -1,
			str:     "(...)",
		},
		{
			name:    "empty",
			sig:     &Signature{},
			wantMin: 0,
			wantMax: 0,
			str:     "()",
		},
		{
			name: "params and returns",
			sig: &Signature{
				Params:  []Param{{Name: "a", Type: "int"}, {Name: "b", Type: "string"}},
				Returns: []string{"int", "error"},
			},
			wantMin: 2,
			wantMax: 2,
			str:     "(int a, string b) (int, error)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMin, tt.sig.MinArity())
			assert.Equal(t, tt.wantMax, tt.sig.MaxArity())
			assert.Equal(t, tt.str, tt.sig.String())
		})
	}
}

// --- Analyzer tests ---

func TestAnalyze_FunctionScopes(t *testing.T) {
	file, result := parseAndAnalyze(t, `function f(int a) { int x = a; }`)
	assert.Empty(t, result.Unresolved)

	fn := file.Decls[0].(*ast.FunctionDecl)
	fnScope := result.ScopeOf(fn)
	require.NotNil(t, fnScope)
	assert.Equal(t, ScopeFunction, fnScope.Kind)
	assert.NotNil(t, fnScope.LookupLocal("a"))
	assert.Same(t, result.ScopeOf(file), fnScope.Parent)

	body := result.ScopeOf(fn.Body)
	require.NotNil(t, body)
	assert.Equal(t, ScopeBlock, body.Kind)
	assert.Same(t, fnScope, body.Parent)
	x := body.LookupLocal("x")
	require.NotNil(t, x)
	assert.Equal(t, "int", x.Type)
	assert.Equal(t, "int x", x.Detail())

	f := result.PackageScope.LookupLocal("f")
	require.NotNil(t, f)
	assert.True(t, f.Exported)
	assert.Equal(t, "function f(int a)", f.Detail())
	assert.Equal(t, 1, fnScope.LookupLocal("a").References)
}

func TestAnalyze_Unresolved(t *testing.T) {
	_, result := parseAndAnalyze(t, `function f() { y = z + 1; }`)
	assert.Equal(t, []string{"y", "z"}, unresolvedNames(result))
}

func TestAnalyze_DocStrings(t *testing.T) {
	_, result := parseAndAnalyze(t, `
// Area computes an area.
function area(int w, int h) (int) {
	return w * h;
}

connector DB() {
	// query runs q.
	action query(string q) { }
}
`)
	area := result.PackageScope.LookupLocal("area")
	require.NotNil(t, area)
	assert.Equal(t, "Area computes an area.", area.DocString)
	assert.Empty(t, result.PackageScope.LookupLocal("DB").DocString)

	var query *Symbol
	for _, sym := range result.Symbols {
		if sym.Name == "query" {
			query = sym
		}
	}
	require.NotNil(t, query)
	assert.Equal(t, "query runs q.", query.DocString)
}

func TestAnalyze_ForwardReference(t *testing.T) {
	_, result := parseAndAnalyze(t, `
function g() { f(); }
function f() { }
`)
	assert.Empty(t, result.Unresolved)
	assert.Equal(t, 1, result.PackageScope.LookupLocal("f").References)
}

func TestAnalyze_LocalDeclarationOrder(t *testing.T) {
	_, result := parseAndAnalyze(t, `function f() { y = 1; int y = 2; }`)
	assert.Equal(t, []string{"y"}, unresolvedNames(result))
}

func TestAnalyze_Packages(t *testing.T) {
	_, result := parseAndAnalyze(t, `
import ballerina.io;
import ballerina.net.http as h;
import ballerina.missing;

function f(h:Request req) {
	io:println("x");
	io:nope();
	other:println();
}
`)
	assert.Equal(t, []string{"ballerina.missing", "io:nope", "other:println"}, unresolvedNames(result))
	var refs []string
	for _, ref := range result.References {
		refs = append(refs, ref.Symbol.Package+" "+ref.Symbol.Name)
	}
	assert.Equal(t, []string{"ballerina.net.http Request", "ballerina.io println"}, refs)
}

func TestAnalyze_ReferenceKinds(t *testing.T) {
	_, result := parseAndAnalyze(t, `
import ballerina.io;
import ballerina.missing;

function f(int p) {
	io:println(p);
	x = 1;
}
`)
	var refs []string
	for _, ref := range result.References {
		refs = append(refs, ref.Kind.String()+" "+ref.Qualifier+":"+ref.Symbol.Name)
	}
	assert.Equal(t, []string{"type :int", "value io:println", "value :p"}, refs)

	require.Len(t, result.Unresolved, 2)
	assert.Equal(t, RefImport, result.Unresolved[0].Kind)
	assert.Equal(t, RefValue, result.Unresolved[1].Kind)
	assert.Equal(t, "unknown", RefKind(7).String())

	p := result.References[2]
	assert.Same(t, p.Symbol, result.Resolved(p.Node))
	assert.Nil(t, result.Resolved(result.Unresolved[1].Node))
	assert.Equal(t, []*Reference{p}, result.ReferencesTo(p.Symbol))
}

func TestAnalyze_Types(t *testing.T) {
	_, result := parseAndAnalyze(t, `
struct Person { string name; Address addr; }
int counter = 0;
function f() {
	Person p = null;
	foo q = null;
	counter r = 1;
}
`)
	assert.Equal(t, []string{"Address", "foo", "counter"}, unresolvedNames(result))
}

func TestAnalyze_StatementScopes(t *testing.T) {
	file, result := parseAndAnalyze(t, `
function f() {
	foreach v in [1, 2] { v = v + 1; }
	try { } catch (error e) { throw e; } finally { }
	transaction { } failed { retry 1; }
	if (true) { } else if (false) { } else { }
	while (false) { }
}
`)
	assert.Empty(t, result.Unresolved)
	body := result.ScopeOf(file.Decls[0].(*ast.FunctionDecl).Body)
	require.NotNil(t, body)
	// foreach, try, catch, finally, transaction, failed, if, else if, else, while
	assert.Len(t, body.Children, 10)
	assert.NotNil(t, body.Children[0].LookupLocal("v"))
	assert.Nil(t, body.LookupLocal("v"))
	e := body.Children[2].LookupLocal("e")
	require.NotNil(t, e)
	assert.Equal(t, "error", e.Type)
}

func TestAnalyze_ServiceAndConnector(t *testing.T) {
	file, result := parseAndAnalyze(t, `
service<http> svc {
	int hits = 0;
	resource hi(message m) { hits = hits + 1; }
}
connector C(string url) {
	string base = url;
	action get(string path) (string) { return base + path + url; }
}
`)
	assert.Empty(t, result.Unresolved)

	svc := result.ScopeOf(file.Decls[0])
	require.NotNil(t, svc)
	assert.Equal(t, ScopeService, svc.Kind)
	assert.Equal(t, SymResource, svc.LookupLocal("hi").Kind)
	assert.False(t, svc.LookupLocal("hits").Exported)

	con := result.ScopeOf(file.Decls[1])
	require.NotNil(t, con)
	assert.Equal(t, SymParameter, con.LookupLocal("url").Kind)
	assert.Equal(t, SymAction, con.LookupLocal("get").Kind)
	assert.Equal(t, SymConnector, result.PackageScope.LookupLocal("C").Kind)
}

func TestAnalyze_StructFields(t *testing.T) {
	file, result := parseAndAnalyze(t, `
struct Person { string name; int age = 0; }
annotation Doc attach function { string text; }
`)
	st := result.ScopeOf(file.Decls[0])
	require.NotNil(t, st)
	assert.Equal(t, ScopeStruct, st.Kind)
	assert.Equal(t, SymField, st.LookupLocal("age").Kind)
	an := result.ScopeOf(file.Decls[1])
	require.NotNil(t, an)
	assert.Equal(t, ScopeAnnotation, an.Kind)
	assert.NotNil(t, an.LookupLocal("text"))
}

func TestAnalyze_Annotations(t *testing.T) {
	_, result := parseAndAnalyze(t, `
import ballerina.net.http;
annotation Doc { string text; }
@Doc{text: "a"}
@http:configuration{basePath: "/"}
@Missing{}
service<http> svc { }
`)
	assert.Equal(t, []string{"Missing"}, unresolvedNames(result))
	assert.Equal(t, 1, result.PackageScope.LookupLocal("Doc").References)
}

func TestAnalyze_DefineOnly(t *testing.T) {
	file := parse(t, `function f() { int x = missing; }`)
	result := Analyze([]*ast.File{file}, &Config{DefineOnly: true})
	assert.Empty(t, result.Unresolved)
	assert.Empty(t, result.References)
	assert.NotNil(t, result.ScopeOf(file.Decls[0].(*ast.FunctionDecl).Body).LookupLocal("x"))
}

func TestAnalyze_MultipleFiles(t *testing.T) {
	a := parse(t, `import ballerina.io; function f() { io:println(g()); }`)
	b := parse(t, `function g() (string) { return "x"; }`)
	result := Analyze([]*ast.File{a, b}, &Config{PackageExports: StdlibExports()})
	assert.Empty(t, result.Unresolved)
	assert.Nil(t, result.ScopeOf(b).LookupLocal("io"), "imports are file scoped")
	assert.NotNil(t, result.ScopeOf(a).LookupLocal("io"))
}

func TestAnalyze_ExtraGlobals(t *testing.T) {
	file := parse(t, `function f() { helper(); }`)
	result := Analyze([]*ast.File{file}, &Config{
		ExtraGlobals: []ExternalSymbol{{Name: "helper", Kind: SymFunction}},
	})
	assert.Empty(t, result.Unresolved)
	helper := result.PackageScope.LookupLocal("helper")
	require.NotNil(t, helper)
	assert.True(t, helper.External)
}

func TestAnalyze_Placeholders(t *testing.T) {
	file := &ast.File{Name: "test.bal", Decls: []ast.Decl{
		&ast.Placeholder{},
		&ast.FunctionDecl{
			Name: &ast.Ident{Name: "f"},
			Body: &ast.Block{Stmts: []ast.Stmt{&ast.Placeholder{}}},
		},
	}}
	result := Analyze([]*ast.File{file}, nil)
	assert.Empty(t, result.Unresolved)
	assert.NotNil(t, result.PackageScope.LookupLocal("f"))
}

func TestResult_PackageMembers(t *testing.T) {
	file, result := parseAndAnalyze(t, `import ballerina.math as m; function f() { }`)
	members := result.PackageMembers(result.ScopeOf(file), "m")
	require.NotEmpty(t, members)
	assert.Equal(t, "abs", members[0].Name)
	assert.Equal(t, "ballerina.math", members[0].Package)
	assert.Nil(t, result.PackageMembers(result.ScopeOf(file), "f"))
}

func TestScopeAtPosition(t *testing.T) {
	file, result := parseAndAnalyze(t, "function f() {\n  if (true) {\n    int x = 1;\n  }\n}\n")
	fn := file.Decls[0].(*ast.FunctionDecl)
	inner := fn.Body.Stmts[0].(*ast.If).Then

	assert.Same(t, result.ScopeOf(inner), ScopeAtPosition(result.RootScope, 3, 5))
	assert.Same(t, result.ScopeOf(fn.Body), ScopeAtPosition(result.RootScope, 2, 1))
	assert.Same(t, result.ScopeOf(file), ScopeAtPosition(result.RootScope, 6, 1))
}
