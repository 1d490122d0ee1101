// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// collectStrategy records every error and always recovers.
type collectStrategy struct {
	errs []*SyntaxError
}

func (s *collectStrategy) ReportError(err *SyntaxError)  { s.errs = append(s.errs, err) }
func (s *collectStrategy) Recover(err *SyntaxError) bool { return true }

func TestParser(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{``, `(File)`},
		{`function f(int a) (int) { return a + 1; }`,
			`(File (FunctionDecl f (Param int a) (Block (Return (Binary + (Ident a) (Literal 1))))))`},
		{`package a.b; import ballerina.io; int counter = 0;`,
			`(File (PackageDecl a.b) (ImportDecl ballerina.io) (GlobalVar int counter (Literal 0)))`},
		{`import ballerina.net.http as h;`,
			`(File (ImportDecl ballerina.net.http as h))`},
		{`const int MAX = 10;`,
			`(File (ConstDecl int MAX (Literal 10)))`},
		{`service<http> hello { int hits = 0; resource hi(http:Request req) { io:println("x"); } }`,
			`(File (ServiceDecl <http> hello (GlobalVar int hits (Literal 0)) (ResourceDecl hi (Param http:Request req) (Block (ExprStmt (Call (Ident io:println) (Literal "x")))))))`},
		{`connector C(string url) { string base; action get(string path) (string) { return base + path; } }`,
			`(File (ConnectorDecl C (Param string url) (GlobalVar string base) (ActionDecl get (Param string path) (Block (Return (Binary + (Ident base) (Ident path)))))))`},
		{`struct Person { string name; int age; }`,
			`(File (StructDecl Person (Field string name) (Field int age)))`},
		{`annotation Doc attach function, service { string text; }`,
			`(File (AnnotationDecl Doc (AttachmentPoints function,service) (Field string text)))`},
		{`function f() { if (x) { a = 1; } else if (y) { next; } else { break; } }`,
			`(File (FunctionDecl f (Block (If (Paren (Ident x)) (Block (Assign (Ident a) (Literal 1))) (If (Paren (Ident y)) (Block (Next)) (Block (Break)))))))`},
		{`function f() { try { throw e; } catch (error err) { retry; } finally { abort; } }`,
			`(File (FunctionDecl f (Block (Try (Block (Throw (Ident e))) (Catch error err (Block (Retry))) (Clause finally (Block (Abort)))))))`},
		{`function f() { transaction { var x = 1; } committed { } failed { } }`,
			`(File (FunctionDecl f (Block (Transaction (Clause transaction (Block (VarDef var x (Literal 1)))) (Clause failed (Block)) (Clause committed (Block))))))`},
		{`function f() { foreach v in xs { while (v > 0) { v = v - 1; } } }`,
			`(File (FunctionDecl f (Block (Foreach v (Ident xs) (Block (While (Paren (Binary > (Ident v) (Literal 0))) (Block (Assign (Ident v) (Binary - (Ident v) (Literal 1))))))))))`},
		{`@Doc{text: "x"} function g() { map m = {a: 1, "b": [1, 2]}; x.y[0] = !z; }`,
			`(File (FunctionDecl g (AnnotationAttachment Doc (MapLit (KeyValue (Ident text) (Literal "x")))) (Block (VarDef map m (MapLit (KeyValue (Ident a) (Literal 1)) (KeyValue (Literal "b") (ArrayLit (Literal 1) (Literal 2))))) (Assign (Index (Selector (Ident x) (Ident y)) (Literal 0)) (Unary ! (Ident z))))))`},
		{`function f() { int[] xs = [1]; http:Request r = null; a = b || c && d == e * 2; }`,
			`(File (FunctionDecl f (Block (VarDef int[] xs (ArrayLit (Literal 1))) (VarDef http:Request r (Literal null)) (Assign (Ident a) (Binary || (Ident b) (Binary && (Ident c) (Binary == (Ident d) (Binary * (Ident e) (Literal 2)))))))))`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewScanner(name, strings.NewReader(test.source)))
		file, err := p.ParseFile()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		assert.Equal(t, test.output, ast.Sprint(file), "test %d", i)
		testNodeRanges(t, file)
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`int x = 1; // A comment`, `(File (GlobalVar int x (Literal 1)))`},
		{`// A comment
			int x = 1;`, `(File (GlobalVar int x (Literal 1)))`},
		{`int /* inline */ x = 1;`, `(File (GlobalVar int x (Literal 1)))`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewScanner(name, strings.NewReader(test.source)))
		file, err := p.ParseFile()
		if err != nil {
			t.Errorf("test %d: parse error: %v", i, err)
			continue
		}
		if ast.Sprint(file) != test.output {
			t.Errorf("test %d: expected output: %s", i, test.output)
		}
	}
}

func testNodeRanges(t *testing.T, n ast.Node) {
	if _, ok := n.(*ast.File); !ok && n.Range().IsZero() {
		t.Errorf("node missing source range: %v", n.Kind())
	}
	for _, c := range ast.Children(n) {
		testNodeRanges(t, c)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		source string
		errmsg string
	}{
		{`function f() {`, `test0:1:15: missing } to close block opened at test0:1:14`},
		{`int x = ;`, `test1:1:9: expected expression, found ";"`},
		{`function f() { int x = 1 }`, `test2:1:25: missing ; before "}"`},
		{`struct S { int }`, `test3:1:16: expected identifier, found "}"`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewScanner(name, strings.NewReader(test.source)))
		file, err := p.ParseFile()
		if err == nil {
			t.Errorf("test %d: did not produce an error", i)
			continue
		}
		assert.Nil(t, file)
		var synErr *SyntaxError
		assert.True(t, errors.As(err, &synErr), "test %d", i)
		assert.Equal(t, test.errmsg, err.Error())
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		source string
		output string
		errs   int
	}{
		{`function f() { int x = 1; io: }`,
			`(File (FunctionDecl f (Block (VarDef int x (Literal 1)) (Placeholder))))`, 2},
		{"function f() {\n  try {",
			`(File (FunctionDecl f (Block (Try (Block)))))`, 2},
		{"function f() { int x = 1\n int y = 2; }",
			`(File (FunctionDecl f (Block (VarDef int x (Literal 1)) (VarDef int y (Literal 2)))))`, 1},
		{"junk ) ;\nfunction f() { }",
			`(File (Placeholder) (FunctionDecl f (Block)))`, 2},
		{"function f() {\n int x = 1;\nfunction g() { }",
			`(File (FunctionDecl f (Block (VarDef int x (Literal 1)))) (FunctionDecl g (Block)))`, 1},
		{"function f() { string s = \"abc\n s = 1; }",
			`(File (FunctionDecl f (Block (Placeholder) (Assign (Ident s) (Literal 1)))))`, 2},
		{"function f() { if (x) { y = 1; }",
			`(File (FunctionDecl f (Block (If (Paren (Ident x)) (Block (Assign (Ident y) (Literal 1)))))))`, 1},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		strategy := &collectStrategy{}
		p := New(token.NewScanner(name, strings.NewReader(test.source)), WithErrorStrategy(strategy))
		file, err := p.ParseFile()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		assert.Equal(t, test.output, ast.Sprint(file), "test %d", i)
		assert.Len(t, strategy.errs, test.errs, "test %d: %v", i, strategy.errs)
	}
}

func TestRecoveryClosesAtEOF(t *testing.T) {
	src := "function f() {\n  try { "
	strategy := &collectStrategy{}
	p := New(token.NewScanner("eof.bal", strings.NewReader(src)), WithErrorStrategy(strategy))
	file, err := p.ParseFile()
	require.NoError(t, err)
	fn := file.Decls[0].(*ast.FunctionDecl)
	try := fn.Body.Stmts[0].(*ast.Try)
	eof := token.Range{StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 9}
	assert.Equal(t, token.Range{StartLine: 2, StartCol: 7, EndLine: 2, EndCol: 9}, try.Body.Range())
	assert.Equal(t, eof.EndCol, try.Range().EndCol)
	assert.Equal(t, token.Range{StartLine: 1, StartCol: 14, EndLine: 2, EndCol: 9}, fn.Body.Range())
	for _, err := range strategy.errs {
		assert.Contains(t, err.Msg, "missing }")
		assert.Equal(t, eof, err.Range)
	}
}

func TestIfRanges(t *testing.T) {
	src := "function f() {\n  if (a) {\n  } else {\n  }\n}"
	p := New(token.NewScanner("if.bal", strings.NewReader(src)))
	file, err := p.ParseFile()
	require.NoError(t, err)
	n := file.Decls[0].(*ast.FunctionDecl).Body.Stmts[0].(*ast.If)
	assert.Equal(t, token.Range{StartLine: 2, StartCol: 3, EndLine: 3, EndCol: 3}, n.Range())
	assert.Equal(t, token.Range{StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 8}, n.ElseKw)
	assert.Equal(t, token.Range{StartLine: 3, StartCol: 10, EndLine: 4, EndCol: 3}, n.Else.Range())
	assert.Equal(t, token.Range{StartLine: 1, StartCol: 14, EndLine: 5, EndCol: 1}, file.Decls[0].(*ast.FunctionDecl).Body.Range())
}

func TestLexerFailure(t *testing.T) {
	for _, es := range []ErrorStrategy{&BailStrategy{}, &collectStrategy{}} {
		p := New(token.NewScanner("bad.bal", strings.NewReader("int x\xff = 1;")), WithErrorStrategy(es))
		file, err := p.ParseFile()
		assert.Nil(t, file)
		var locErr *token.LocationError
		require.True(t, errors.As(err, &locErr), "%T: %v", es, err)
		assert.Equal(t, "bad.bal:1:6", locErr.Source.String())
	}
}

func TestBailStrategy(t *testing.T) {
	s := &BailStrategy{}
	first := &SyntaxError{Msg: "first"}
	s.ReportError(first)
	s.ReportError(&SyntaxError{Msg: "second"})
	assert.Same(t, first, s.Err)
	assert.False(t, s.Recover(first))
}
