// Copyright © 2024 The ELPS authors

// Package ast declares the syntax tree produced by the rdparser package.
//
// Every node records the raw source range it was parsed from.  Ranges are
// one-based and the end column is inclusive.  Trees produced with a tolerant
// error strategy may contain Placeholder nodes where input could not be
// parsed; every other node is structurally complete.
package ast

import "github.com/luthersystems/balsp/parser/token"

// Node is implemented by all syntax tree nodes.
type Node interface {
	Kind() Kind
	Range() token.Range
}

// Decl is a top-level or member declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement inside a Block.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Extent is embedded in every node to record its source range.
type Extent struct {
	Src token.Range
}

func (e *Extent) Range() token.Range {
	return e.Src
}

// Commentary is embedded in declarations to hold their doc comment: the
// comments written on the lines directly above the declaration, with
// comment markers removed.
type Commentary struct {
	Doc string
}

func (c *Commentary) DocText() string {
	return c.Doc
}

func (c *Commentary) SetDoc(doc string) {
	c.Doc = doc
}

// Documented is a declaration that can carry a doc comment.
type Documented interface {
	Node
	DocText() string
	SetDoc(doc string)
}

// File is the root of a parsed compilation unit.
type File struct {
	Extent
	Name    string
	Package *PackageDecl // nil when the file has no package declaration
	Imports []*ImportDecl
	Decls   []Decl
}

type PackageDecl struct {
	Extent
	Path string // dotted package path, e.g. "a.b"
}

type ImportDecl struct {
	Extent
	Path  string
	Alias string // empty when the import is not renamed
}

// Name returns the identifier the import is referenced by in source.
func (imp *ImportDecl) Name() string {
	if imp.Alias != "" {
		return imp.Alias
	}
	path := imp.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

// TypeName is a reference to a type, optionally package qualified and with
// array dimensions.
type TypeName struct {
	Extent
	Package string
	Name    string
	Dims    int
}

func (t *TypeName) String() string {
	s := t.Name
	if t.Package != "" {
		s = t.Package + ":" + s
	}
	for i := 0; i < t.Dims; i++ {
		s += "[]"
	}
	return s
}

type Ident struct {
	Extent
	Package string // set for qualified references, e.g. io:println
	Name    string
}

type Param struct {
	Extent
	Type *TypeName
	Name *Ident
}

// AnnotationAttachment is an `@Name{...}` prefix on a declaration.
type AnnotationAttachment struct {
	Extent
	Name  *Ident
	Value Expr // nil or a *MapLit
}

type ConstDecl struct {
	Extent
	Commentary
	Type  *TypeName
	Name  *Ident
	Value Expr
}

// GlobalVar is a variable declared at package level or as a member of a
// service or connector.
type GlobalVar struct {
	Extent
	Commentary
	Type  *TypeName
	Name  *Ident
	Value Expr
}

type FunctionDecl struct {
	Extent
	Commentary
	Annotations []*AnnotationAttachment
	Name        *Ident
	Params      []*Param
	Returns     []*TypeName
	Body        *Block // nil for native functions
}

type TransformerDecl struct {
	Extent
	Commentary
	Name    *Ident
	Params  []*Param
	Returns []*TypeName
	Body    *Block
}

type ServiceDecl struct {
	Extent
	Commentary
	Annotations []*AnnotationAttachment
	Protocol    string
	Name        *Ident
	Lbrace      token.Range
	Rbrace      token.Range
	Members     []Decl // *GlobalVar, *ResourceDecl and *Placeholder
}

type ResourceDecl struct {
	Extent
	Commentary
	Annotations []*AnnotationAttachment
	Name        *Ident
	Params      []*Param
	Body        *Block
}

type ConnectorDecl struct {
	Extent
	Commentary
	Annotations []*AnnotationAttachment
	Name        *Ident
	Params      []*Param
	Lbrace      token.Range
	Rbrace      token.Range
	Members     []Decl // *GlobalVar, *ActionDecl and *Placeholder
}

type ActionDecl struct {
	Extent
	Commentary
	Annotations []*AnnotationAttachment
	Name        *Ident
	Params      []*Param
	Returns     []*TypeName
	Body        *Block
}

type StructDecl struct {
	Extent
	Commentary
	Name   *Ident
	Lbrace token.Range
	Rbrace token.Range
	Fields []*Field
}

type Field struct {
	Extent
	Type  *TypeName
	Name  *Ident
	Value Expr
}

type AnnotationDecl struct {
	Extent
	Commentary
	Name   *Ident
	Points *AttachmentPoints // nil without an attach clause
	Lbrace token.Range
	Rbrace token.Range
	Fields []*Field
}

// AttachmentPoints is the `attach a, b` clause of an annotation
// declaration.  Its range starts at the attach keyword.
type AttachmentPoints struct {
	Extent
	Attach token.Range
	Points []*Ident
}

// Block is a braced sequence of statements.  Its range covers both braces.
type Block struct {
	Extent
	Stmts []Stmt
}

type VarDef struct {
	Extent
	Type  *TypeName // nil for `var x = ...`
	Name  *Ident
	Value Expr
}

type Assign struct {
	Extent
	Target Expr
	Value  Expr
}

type ExprStmt struct {
	Extent
	X Expr
}

// If is a conditional.  Its range covers the condition and the then block
// only; an else clause is a separate node reachable through Else.
type If struct {
	Extent
	Cond   Expr
	Then   *Block
	ElseKw token.Range // zero without an else clause
	Else   Node        // nil, *If or *Block
}

type While struct {
	Extent
	Cond Expr
	Body *Block
}

type Foreach struct {
	Extent
	Var  *Ident
	Iter Expr
	Body *Block
}

type Try struct {
	Extent
	Body    *Block
	Catches []*Catch
	Finally *Clause
}

type Catch struct {
	Extent
	Type *TypeName
	Name *Ident
	Body *Block
}

// Clause is a keyword introduced block belonging to a compound statement:
// `finally { }`, or one of the transaction blocks.  The range starts at the
// keyword.
type Clause struct {
	Extent
	Keyword token.Type
	Body    *Block
}

// Transaction is a transaction statement.  Body is introduced by the
// transaction keyword itself; the other clauses may be absent and may appear
// in any order in source.
type Transaction struct {
	Extent
	Body      *Clause
	Failed    *Clause
	Aborted   *Clause
	Committed *Clause
}

// Clauses returns the clauses of tx that are present.
func (tx *Transaction) Clauses() []*Clause {
	var c []*Clause
	for _, cl := range []*Clause{tx.Body, tx.Failed, tx.Aborted, tx.Committed} {
		if cl != nil {
			c = append(c, cl)
		}
	}
	return c
}

type Return struct {
	Extent
	Values []Expr
}

type Break struct {
	Extent
}

type Next struct {
	Extent
}

type Throw struct {
	Extent
	X Expr
}

type Abort struct {
	Extent
}

type Retry struct {
	Extent
	Count Expr
}

// Placeholder stands in for input that could not be parsed.  A placeholder
// may appear anywhere a declaration, statement or expression is expected.
type Placeholder struct {
	Extent
	Err string
}

type Literal struct {
	Extent
	Type  token.Type // INT, FLOAT, STRING, TRUE, FALSE or NULL
	Value string
}

type Call struct {
	Extent
	Fun  Expr
	Args []Expr
}

type Selector struct {
	Extent
	X   Expr
	Sel *Ident
}

type Index struct {
	Extent
	X     Expr
	Index Expr
}

type Unary struct {
	Extent
	Op token.Type
	X  Expr
}

type Binary struct {
	Extent
	Op token.Type
	X  Expr
	Y  Expr
}

type Paren struct {
	Extent
	X Expr
}

type ArrayLit struct {
	Extent
	Elems []Expr
}

type KeyValue struct {
	Extent
	Key   Expr
	Value Expr
}

type MapLit struct {
	Extent
	Entries []*KeyValue
}

func (*File) Kind() Kind                 { return KindFile }
func (*PackageDecl) Kind() Kind          { return KindPackageDecl }
func (*ImportDecl) Kind() Kind           { return KindImportDecl }
func (*TypeName) Kind() Kind             { return KindTypeName }
func (*Ident) Kind() Kind                { return KindIdent }
func (*Param) Kind() Kind                { return KindParam }
func (*AnnotationAttachment) Kind() Kind { return KindAnnotationAttachment }
func (*ConstDecl) Kind() Kind            { return KindConstDecl }
func (*GlobalVar) Kind() Kind            { return KindGlobalVar }
func (*FunctionDecl) Kind() Kind         { return KindFunctionDecl }
func (*TransformerDecl) Kind() Kind      { return KindTransformerDecl }
func (*ServiceDecl) Kind() Kind          { return KindServiceDecl }
func (*ResourceDecl) Kind() Kind         { return KindResourceDecl }
func (*ConnectorDecl) Kind() Kind        { return KindConnectorDecl }
func (*ActionDecl) Kind() Kind           { return KindActionDecl }
func (*StructDecl) Kind() Kind           { return KindStructDecl }
func (*Field) Kind() Kind                { return KindField }
func (*AnnotationDecl) Kind() Kind       { return KindAnnotationDecl }
func (*AttachmentPoints) Kind() Kind     { return KindAttachmentPoints }
func (*Block) Kind() Kind                { return KindBlock }
func (*VarDef) Kind() Kind               { return KindVarDef }
func (*Assign) Kind() Kind               { return KindAssign }
func (*ExprStmt) Kind() Kind             { return KindExprStmt }
func (*If) Kind() Kind                   { return KindIf }
func (*While) Kind() Kind                { return KindWhile }
func (*Foreach) Kind() Kind              { return KindForeach }
func (*Try) Kind() Kind                  { return KindTry }
func (*Catch) Kind() Kind                { return KindCatch }
func (*Clause) Kind() Kind               { return KindClause }
func (*Transaction) Kind() Kind          { return KindTransaction }
func (*Return) Kind() Kind               { return KindReturn }
func (*Break) Kind() Kind                { return KindBreak }
func (*Next) Kind() Kind                 { return KindNext }
func (*Throw) Kind() Kind                { return KindThrow }
func (*Abort) Kind() Kind                { return KindAbort }
func (*Retry) Kind() Kind                { return KindRetry }
func (*Placeholder) Kind() Kind          { return KindPlaceholder }
func (*Literal) Kind() Kind              { return KindLiteral }
func (*Call) Kind() Kind                 { return KindCall }
func (*Selector) Kind() Kind             { return KindSelector }
func (*Index) Kind() Kind                { return KindIndex }
func (*Unary) Kind() Kind                { return KindUnary }
func (*Binary) Kind() Kind               { return KindBinary }
func (*Paren) Kind() Kind                { return KindParen }
func (*ArrayLit) Kind() Kind             { return KindArrayLit }
func (*KeyValue) Kind() Kind             { return KindKeyValue }
func (*MapLit) Kind() Kind               { return KindMapLit }

func (*ConstDecl) declNode()       {}
func (*GlobalVar) declNode()       {}
func (*FunctionDecl) declNode()    {}
func (*TransformerDecl) declNode() {}
func (*ServiceDecl) declNode()     {}
func (*ResourceDecl) declNode()    {}
func (*ConnectorDecl) declNode()   {}
func (*ActionDecl) declNode()      {}
func (*StructDecl) declNode()      {}
func (*AnnotationDecl) declNode()  {}
func (*Placeholder) declNode()     {}

func (*VarDef) stmtNode()      {}
func (*Assign) stmtNode()      {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*Foreach) stmtNode()     {}
func (*Try) stmtNode()         {}
func (*Transaction) stmtNode() {}
func (*Return) stmtNode()      {}
func (*Break) stmtNode()       {}
func (*Next) stmtNode()        {}
func (*Throw) stmtNode()       {}
func (*Abort) stmtNode()       {}
func (*Retry) stmtNode()       {}
func (*Placeholder) stmtNode() {}

func (*Ident) exprNode()       {}
func (*Literal) exprNode()     {}
func (*Call) exprNode()        {}
func (*Selector) exprNode()    {}
func (*Index) exprNode()       {}
func (*Unary) exprNode()       {}
func (*Binary) exprNode()      {}
func (*Paren) exprNode()       {}
func (*ArrayLit) exprNode()    {}
func (*MapLit) exprNode()      {}
func (*Placeholder) exprNode() {}
