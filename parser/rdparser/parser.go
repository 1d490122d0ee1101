// Copyright © 2018 The ELPS authors

package rdparser

import (
	"fmt"
	"strconv"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Option configures a Parser.
type Option func(*Parser)

// WithErrorStrategy installs the strategy consulted on syntax errors.
func WithErrorStrategy(es ErrorStrategy) Option {
	return func(p *Parser) {
		p.strategy = es
	}
}

// Parser is a recursive descent parser producing *ast.File trees.
type Parser struct {
	src      *TokenSource
	strategy ErrorStrategy
	prev     *token.Token    // last consumed token
	hard     int             // errors which invalidate the enclosing statement
	eofEnd   *token.Location // set once a construct has been closed at EOF
	lastErr  string
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource, opts ...Option) *Parser {
	p := &Parser{
		src: src,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.strategy == nil {
		p.strategy = &BailStrategy{}
	}
	return p
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner, opts ...Option) *Parser {
	return NewFromSource(NewTokenSource(scanner), opts...)
}

// ParseFile parses a complete compilation unit.  Syntax errors are passed to
// the parser's ErrorStrategy.  When the strategy declines to recover the
// offending *SyntaxError is returned.  A failure reading the input is
// returned as a *token.LocationError regardless of the strategy.
func (p *Parser) ParseFile() (file *ast.File, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		file = nil
		err = b.err
		if lexErr := p.src.Err(); lexErr != nil {
			err = lexErr
		}
	}()
	file = p.parseFile()
	if lexErr := p.src.Err(); lexErr != nil {
		return nil, lexErr
	}
	return file, nil
}

func (p *Parser) parseFile() *ast.File {
	first := p.peek()
	f := &ast.File{Name: first.Source.File}
	if p.peekType() == token.PACKAGE {
		f.Package = p.parsePackageDecl()
	}
	for !p.src.IsEOF() {
		before := p.peek()
		switch p.peekType() {
		case token.IMPORT:
			f.Imports = append(f.Imports, p.parseImportDecl())
		case token.PACKAGE:
			p.errorf(before, "package declaration must be the first declaration")
			f.Decls = append(f.Decls, p.syncDecl(before))
		default:
			f.Decls = append(f.Decls, p.parseDecl())
		}
		if p.peek() == before {
			p.next()
		}
	}
	f.Src = token.Span(first.Source, p.peek().Source)
	return f
}

func (p *Parser) parsePackageDecl() *ast.PackageDecl {
	start := p.next()
	pkg := &ast.PackageDecl{Path: p.parseDottedPath()}
	p.expectSemi()
	pkg.Src = p.span(start)
	return pkg
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.next()
	imp := &ast.ImportDecl{Path: p.parseDottedPath()}
	if p.accept(token.AS) {
		imp.Alias = p.parseIdent().Name
	}
	p.expectSemi()
	imp.Src = p.span(start)
	return imp
}

func (p *Parser) parseDottedPath() string {
	path := p.parseIdent().Name
	for p.accept(token.DOT) {
		path += "." + p.parseIdent().Name
	}
	return path
}

func (p *Parser) parseDecl() ast.Decl {
	before, start := p.prev, p.peek()
	d := p.parseDeclAt(start)
	p.attachDoc(d, before, start)
	return d
}

func (p *Parser) parseDeclAt(start *token.Token) ast.Decl {
	annots := p.parseAnnotations()
	switch p.peekType() {
	case token.FUNCTION:
		return p.parseFunctionDecl(start, annots)
	case token.SERVICE:
		return p.parseServiceDecl(start, annots)
	case token.CONNECTOR:
		return p.parseConnectorDecl(start, annots)
	case token.STRUCT:
		return p.parseStructDecl(start)
	case token.ANNOTATION:
		return p.parseAnnotationDecl(start)
	case token.CONST:
		return p.parseConstDecl(start)
	case token.TRANSFORMER:
		return p.parseTransformerDecl(start)
	case token.IDENT:
		return p.parseGlobalVar(start)
	}
	p.errorExpected("declaration")
	return p.syncDecl(start)
}

func (p *Parser) parseAnnotations() []*ast.AnnotationAttachment {
	var annots []*ast.AnnotationAttachment
	for p.peekType() == token.AT {
		start := p.next()
		a := &ast.AnnotationAttachment{}
		a.Name = p.parseQualifiedIdent()
		if p.peekType() == token.LBRACE {
			a.Value = p.parseMapLit()
		}
		a.Src = p.span(start)
		annots = append(annots, a)
	}
	return annots
}

func (p *Parser) parseFunctionDecl(start *token.Token, annots []*ast.AnnotationAttachment) *ast.FunctionDecl {
	p.next()
	fn := &ast.FunctionDecl{Annotations: annots}
	fn.Name = p.parseIdent()
	fn.Params = p.parseParams()
	fn.Returns = p.parseReturns()
	fn.Body = p.parseBody()
	fn.Src = p.span(start)
	return fn
}

func (p *Parser) parseTransformerDecl(start *token.Token) *ast.TransformerDecl {
	p.next()
	tr := &ast.TransformerDecl{}
	if p.accept(token.LT) {
		tr.Params = p.parseParamList(token.GT)
	}
	if p.peekType() == token.IDENT {
		tr.Name = p.parseIdent()
		if p.peekType() == token.LPAREN {
			tr.Params = append(tr.Params, p.parseParams()...)
		}
	}
	tr.Returns = p.parseReturns()
	tr.Body = p.parseBody()
	tr.Src = p.span(start)
	return tr
}

func (p *Parser) parseServiceDecl(start *token.Token, annots []*ast.AnnotationAttachment) *ast.ServiceDecl {
	p.next()
	svc := &ast.ServiceDecl{Annotations: annots}
	if p.accept(token.LT) {
		svc.Protocol = p.parseIdent().Name
		p.expect(token.GT)
	}
	svc.Name = p.parseIdent()
	svc.Lbrace, svc.Rbrace, svc.Members = p.parseMembers(token.RESOURCE)
	svc.Src = p.span(start)
	return svc
}

func (p *Parser) parseConnectorDecl(start *token.Token, annots []*ast.AnnotationAttachment) *ast.ConnectorDecl {
	p.next()
	con := &ast.ConnectorDecl{Annotations: annots}
	con.Name = p.parseIdent()
	con.Params = p.parseParams()
	con.Lbrace, con.Rbrace, con.Members = p.parseMembers(token.ACTION)
	con.Src = p.span(start)
	return con
}

// parseMembers parses the braced member list of a service or connector.
// The member keyword is RESOURCE for services and ACTION for connectors.
func (p *Parser) parseMembers(member token.Type) (lb, rb token.Range, members []ast.Decl) {
	if p.peekType() != token.LBRACE {
		if p.src.IsEOF() {
			eof := p.peek()
			p.errorf(eof, "expected {, found EOF")
			r := p.closeAtEOF(eof)
			return r, r, nil
		}
		p.errorExpected("{")
		r := p.missing()
		return r, r, nil
	}
	open := p.next()
	lb = open.Range()
	for {
		switch tok := p.peek(); {
		case tok.Type == token.RBRACE:
			rb = p.next().Range()
			return lb, rb, members
		case tok.Type == token.EOF:
			p.errorf(tok, "missing } to close %s opened at %v", open.Text, open.Source)
			rb = p.closeAtEOF(tok)
			return lb, rb, members
		case isDeclKeyword(tok.Type) && tok.Type != member:
			p.errorf(tok, "missing } to close %s opened at %v", open.Text, open.Source)
			rb = p.missing()
			return lb, rb, members
		}
		before := p.peek()
		members = append(members, p.parseMember(member))
		if p.peek() == before {
			p.next()
		}
	}
}

func (p *Parser) parseMember(member token.Type) ast.Decl {
	before, start := p.prev, p.peek()
	d := p.parseMemberAt(start, member)
	p.attachDoc(d, before, start)
	return d
}

func (p *Parser) parseMemberAt(start *token.Token, member token.Type) ast.Decl {
	annots := p.parseAnnotations()
	switch p.peekType() {
	case member:
		if member == token.ACTION {
			return p.parseActionDecl(start, annots)
		}
		return p.parseResourceDecl(start, annots)
	case token.IDENT:
		return p.parseGlobalVar(start)
	}
	p.errorExpected(member.String())
	return p.syncDecl(start)
}

func (p *Parser) parseResourceDecl(start *token.Token, annots []*ast.AnnotationAttachment) *ast.ResourceDecl {
	p.next()
	res := &ast.ResourceDecl{Annotations: annots}
	res.Name = p.parseIdent()
	res.Params = p.parseParams()
	res.Body = p.parseBody()
	res.Src = p.span(start)
	return res
}

func (p *Parser) parseActionDecl(start *token.Token, annots []*ast.AnnotationAttachment) *ast.ActionDecl {
	p.next()
	act := &ast.ActionDecl{Annotations: annots}
	act.Name = p.parseIdent()
	act.Params = p.parseParams()
	act.Returns = p.parseReturns()
	act.Body = p.parseBody()
	act.Src = p.span(start)
	return act
}

func (p *Parser) parseStructDecl(start *token.Token) *ast.StructDecl {
	p.next()
	st := &ast.StructDecl{}
	st.Name = p.parseIdent()
	st.Lbrace, st.Rbrace, st.Fields = p.parseFields()
	st.Src = p.span(start)
	return st
}

func (p *Parser) parseAnnotationDecl(start *token.Token) *ast.AnnotationDecl {
	p.next()
	an := &ast.AnnotationDecl{}
	an.Name = p.parseIdent()
	if p.peekType() == token.ATTACH {
		an.Points = p.parseAttachmentPoints()
	}
	switch {
	case p.peekType() == token.LBRACE:
		an.Lbrace, an.Rbrace, an.Fields = p.parseFields()
	case p.src.IsEOF():
		eof := p.peek()
		p.errorf(eof, "expected { or ;, found EOF")
		an.Lbrace = p.closeAtEOF(eof)
		an.Rbrace = an.Lbrace
		an.Src = p.span(start)
		return an
	default:
		p.expectSemi()
	}
	an.Src = p.span(start)
	return an
}

func (p *Parser) parseAttachmentPoints() *ast.AttachmentPoints {
	kw := p.next()
	pts := &ast.AttachmentPoints{Attach: kw.Range()}
	for {
		tok := p.peek()
		if tok.Type != token.IDENT && !tok.Type.IsKeyword() {
			if len(pts.Points) > 0 || tok.Type != token.LBRACE {
				p.errorExpected("attachment point")
			}
			break
		}
		p.next()
		pts.Points = append(pts.Points, &ast.Ident{
			Extent: ast.Extent{Src: tok.Range()},
			Name:   tok.Text,
		})
		if !p.accept(token.COMMA) {
			break
		}
	}
	pts.Src = p.span(kw)
	return pts
}

// parseFields parses the braced field list of a struct or annotation.
// Fields that cannot be parsed are reported and dropped.
func (p *Parser) parseFields() (lb, rb token.Range, fields []*ast.Field) {
	open := p.next()
	lb = open.Range()
	for {
		switch tok := p.peek(); {
		case tok.Type == token.RBRACE:
			rb = p.next().Range()
			return lb, rb, fields
		case tok.Type == token.EOF:
			p.errorf(tok, "missing } to close %s opened at %v", open.Text, open.Source)
			rb = p.closeAtEOF(tok)
			return lb, rb, fields
		case isDeclKeyword(tok.Type):
			p.errorf(tok, "missing } to close %s opened at %v", open.Text, open.Source)
			rb = p.missing()
			return lb, rb, fields
		}
		start := p.peek()
		hard := p.hard
		fd := &ast.Field{}
		fd.Type = p.parseTypeName()
		fd.Name = p.parseIdent()
		if p.accept(token.ASSIGN) {
			fd.Value = p.parseExpr()
		}
		p.expectSemi()
		fd.Src = p.span(start)
		if p.hard > hard {
			p.syncDecl(start)
		} else {
			fields = append(fields, fd)
		}
		if p.peek() == start {
			p.next()
		}
	}
}

func (p *Parser) parseConstDecl(start *token.Token) ast.Decl {
	p.next()
	hard := p.hard
	c := &ast.ConstDecl{}
	c.Type = p.parseTypeName()
	c.Name = p.parseIdent()
	if p.expect(token.ASSIGN) != nil {
		c.Value = p.parseExpr()
	}
	p.expectSemi()
	if p.hard > hard {
		return p.syncDecl(start)
	}
	c.Src = p.span(start)
	return c
}

func (p *Parser) parseGlobalVar(start *token.Token) ast.Decl {
	hard := p.hard
	v := &ast.GlobalVar{}
	v.Type = p.parseTypeName()
	v.Name = p.parseIdent()
	if p.accept(token.ASSIGN) {
		v.Value = p.parseExpr()
	}
	p.expectSemi()
	if p.hard > hard {
		return p.syncDecl(start)
	}
	v.Src = p.span(start)
	return v
}

func (p *Parser) parseParams() []*ast.Param {
	if p.expect(token.LPAREN) == nil {
		return nil
	}
	return p.parseParamList(token.RPAREN)
}

// parseParamList parses parameters up to and including the closing token.
func (p *Parser) parseParamList(closing token.Type) []*ast.Param {
	var params []*ast.Param
	if p.accept(closing) {
		return params
	}
	for {
		if p.peekType() != token.IDENT {
			p.errorExpected("parameter")
			p.skipTo(closing, token.LBRACE)
			p.accept(closing)
			return params
		}
		start := p.peek()
		prm := &ast.Param{}
		prm.Type = p.parseTypeName()
		prm.Name = p.parseIdent()
		prm.Src = p.span(start)
		params = append(params, prm)
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.expect(closing) == nil {
		p.skipTo(closing, token.LBRACE)
		p.accept(closing)
	}
	return params
}

func (p *Parser) parseReturns() []*ast.TypeName {
	if !p.accept(token.LPAREN) {
		return nil
	}
	var types []*ast.TypeName
	if p.accept(token.RPAREN) {
		return types
	}
	for {
		types = append(types, p.parseTypeName())
		if p.peekType() == token.IDENT {
			// named return parameter
			p.next()
		}
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return types
}

func (p *Parser) parseTypeName() *ast.TypeName {
	start := p.peek()
	if start.Type != token.IDENT {
		p.errorExpected("type name")
		return &ast.TypeName{Extent: ast.Extent{Src: p.missing()}}
	}
	p.next()
	t := &ast.TypeName{Name: start.Text}
	if p.peekType() == token.COLON && p.peekTypeN(1) == token.IDENT {
		p.next()
		t.Package = t.Name
		t.Name = p.next().Text
	}
	if p.peekType() == token.LT && p.peekTypeN(1) == token.IDENT && p.peekTypeN(2) == token.GT {
		// constrained type, e.g. map<string>
		p.next()
		p.next()
		p.next()
	}
	for p.peekType() == token.LBRACK && p.peekTypeN(1) == token.RBRACK {
		p.next()
		p.next()
		t.Dims++
	}
	t.Src = p.span(start)
	return t
}

func (p *Parser) parseIdent() *ast.Ident {
	tok := p.peek()
	if tok.Type != token.IDENT {
		p.errorExpected("identifier")
		return &ast.Ident{Extent: ast.Extent{Src: p.missing()}}
	}
	p.next()
	return &ast.Ident{Extent: ast.Extent{Src: tok.Range()}, Name: tok.Text}
}

func (p *Parser) parseQualifiedIdent() *ast.Ident {
	start := p.peek()
	id := p.parseIdent()
	if id.Name != "" && p.accept(token.COLON) {
		id.Package = id.Name
		id.Name = p.parseIdent().Name
		id.Src = p.span(start)
	}
	return id
}

// parseBody parses the block of a function-like declaration.
func (p *Parser) parseBody() *ast.Block {
	return p.parseStmtBlock()
}

// parseStmtBlock parses a block where one is required.  When no block is
// present the error is reported and an empty block with a zero width range
// is returned.
func (p *Parser) parseStmtBlock() *ast.Block {
	if p.peekType() != token.LBRACE {
		p.errorExpected("{")
		return &ast.Block{Extent: ast.Extent{Src: p.missing()}}
	}
	return p.parseBlock()
}

func (p *Parser) parseBlock() *ast.Block {
	lb := p.next()
	b := &ast.Block{}
	for {
		switch tok := p.peek(); {
		case tok.Type == token.RBRACE:
			p.next()
			b.Src = p.span(lb)
			return b
		case tok.Type == token.EOF:
			// The block is closed at EOF.
			p.errorf(tok, "missing } to close block opened at %v", lb.Source)
			p.closeAtEOF(tok)
			b.Src = p.span(lb)
			return b
		case isDeclKeyword(tok.Type):
			p.errorf(tok, "missing } to close block opened at %v", lb.Source)
			b.Src = p.span(lb)
			return b
		}
		before := p.peek()
		b.Stmts = append(b.Stmts, p.parseStmt())
		if p.peek() == before {
			p.next()
		}
	}
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.peek()
	switch start.Type {
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOREACH:
		return p.parseForeach()
	case token.TRY:
		return p.parseTry()
	case token.TRANSACTION:
		return p.parseTransaction()
	}
	hard := p.hard
	s := p.parseSimpleStmt()
	if p.hard > hard {
		return p.syncStmt(start)
	}
	return s
}

func (p *Parser) parseSimpleStmt() ast.Stmt {
	start := p.peek()
	switch start.Type {
	case token.RETURN:
		p.next()
		ret := &ast.Return{}
		if !p.atStmtEnd() {
			ret.Values = append(ret.Values, p.parseExpr())
			for p.accept(token.COMMA) {
				ret.Values = append(ret.Values, p.parseExpr())
			}
		}
		p.expectSemi()
		ret.Src = p.span(start)
		return ret
	case token.BREAK:
		p.next()
		p.expectSemi()
		return &ast.Break{Extent: ast.Extent{Src: p.span(start)}}
	case token.NEXT:
		p.next()
		p.expectSemi()
		return &ast.Next{Extent: ast.Extent{Src: p.span(start)}}
	case token.ABORT:
		p.next()
		p.expectSemi()
		return &ast.Abort{Extent: ast.Extent{Src: p.span(start)}}
	case token.RETRY:
		p.next()
		r := &ast.Retry{}
		if !p.atStmtEnd() {
			r.Count = p.parseExpr()
		}
		p.expectSemi()
		r.Src = p.span(start)
		return r
	case token.THROW:
		p.next()
		th := &ast.Throw{X: p.parseExpr()}
		p.expectSemi()
		th.Src = p.span(start)
		return th
	case token.VAR:
		p.next()
		v := &ast.VarDef{}
		v.Name = p.parseIdent()
		if p.expect(token.ASSIGN) != nil {
			v.Value = p.parseExpr()
		}
		p.expectSemi()
		v.Src = p.span(start)
		return v
	case token.IDENT:
		if p.isVarDefStart() {
			v := &ast.VarDef{}
			v.Type = p.parseTypeName()
			v.Name = p.parseIdent()
			if p.accept(token.ASSIGN) {
				v.Value = p.parseExpr()
			}
			p.expectSemi()
			v.Src = p.span(start)
			return v
		}
	}
	x := p.parseExpr()
	if p.accept(token.ASSIGN) {
		as := &ast.Assign{Target: x, Value: p.parseExpr()}
		p.expectSemi()
		as.Src = p.span(start)
		return as
	}
	p.expectSemi()
	return &ast.ExprStmt{Extent: ast.Extent{Src: p.span(start)}, X: x}
}

// isVarDefStart reports whether the upcoming tokens begin a typed variable
// definition rather than an expression.
func (p *Parser) isVarDefStart() bool {
	switch p.peekTypeN(1) {
	case token.IDENT:
		return true
	case token.COLON:
		return p.peekTypeN(2) == token.IDENT && p.peekTypeN(3) == token.IDENT
	case token.LBRACK:
		return p.peekTypeN(2) == token.RBRACK
	case token.LT:
		return p.peekTypeN(2) == token.IDENT && p.peekTypeN(3) == token.GT && p.peekTypeN(4) == token.IDENT
	}
	return false
}

func (p *Parser) atStmtEnd() bool {
	switch p.peekType() {
	case token.SEMI, token.RBRACE, token.EOF:
		return true
	}
	return p.prev != nil && p.peek().Source.Line > p.prev.Source.Line
}

func (p *Parser) parseIf() *ast.If {
	start := p.next()
	n := &ast.If{}
	n.Cond = p.parseExpr()
	n.Then = p.parseStmtBlock()
	n.Src = p.span(start)
	if p.peekType() == token.ELSE {
		kw := p.next()
		n.ElseKw = kw.Range()
		if p.peekType() == token.IF {
			n.Else = p.parseIf()
		} else {
			n.Else = p.parseStmtBlock()
		}
	}
	return n
}

func (p *Parser) parseWhile() *ast.While {
	start := p.next()
	n := &ast.While{}
	n.Cond = p.parseExpr()
	n.Body = p.parseStmtBlock()
	n.Src = p.span(start)
	return n
}

func (p *Parser) parseForeach() *ast.Foreach {
	start := p.next()
	n := &ast.Foreach{}
	n.Var = p.parseIdent()
	if p.expect(token.IN) != nil {
		n.Iter = p.parseExpr()
	}
	n.Body = p.parseStmtBlock()
	n.Src = p.span(start)
	return n
}

func (p *Parser) parseTry() *ast.Try {
	start := p.next()
	n := &ast.Try{}
	n.Body = p.parseStmtBlock()
	for p.peekType() == token.CATCH {
		kw := p.next()
		c := &ast.Catch{}
		if p.expect(token.LPAREN) != nil {
			c.Type = p.parseTypeName()
			c.Name = p.parseIdent()
			p.expect(token.RPAREN)
		}
		c.Body = p.parseStmtBlock()
		c.Src = p.span(kw)
		n.Catches = append(n.Catches, c)
	}
	if p.peekType() == token.FINALLY {
		kw := p.next()
		body := p.parseStmtBlock()
		n.Finally = &ast.Clause{
			Extent:  ast.Extent{Src: p.span(kw)},
			Keyword: token.FINALLY,
			Body:    body,
		}
	}
	n.Src = p.span(start)
	return n
}

func (p *Parser) parseTransaction() *ast.Transaction {
	start := p.next()
	n := &ast.Transaction{}
	body := p.parseStmtBlock()
	n.Body = &ast.Clause{
		Extent:  ast.Extent{Src: p.span(start)},
		Keyword: token.TRANSACTION,
		Body:    body,
	}
	for {
		var slot **ast.Clause
		switch p.peekType() {
		case token.FAILED:
			slot = &n.Failed
		case token.ABORTED:
			slot = &n.Aborted
		case token.COMMITTED:
			slot = &n.Committed
		}
		if slot == nil {
			break
		}
		kw := p.next()
		body := p.parseStmtBlock()
		cl := &ast.Clause{
			Extent:  ast.Extent{Src: p.span(kw)},
			Keyword: kw.Type,
			Body:    body,
		}
		if *slot != nil {
			p.errorf(kw, "duplicate %s block", kw.Text)
			continue
		}
		*slot = cl
	}
	n.Src = p.span(start)
	return n
}

var binaryPrecedence = map[token.Type]int{
	token.OR:      1,
	token.AND:     2,
	token.EQ:      3,
	token.NE:      3,
	token.LT:      4,
	token.GT:      4,
	token.LE:      4,
	token.GE:      4,
	token.PLUS:    5,
	token.MINUS:   5,
	token.STAR:    6,
	token.SLASH:   6,
	token.PERCENT: 6,
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(prec1 int) ast.Expr {
	x := p.parseUnary()
	for {
		op := p.peekType()
		prec, ok := binaryPrecedence[op]
		if !ok || prec < prec1 {
			return x
		}
		p.next()
		y := p.parseBinary(prec + 1)
		x = &ast.Binary{
			Extent: ast.Extent{Src: joinRange(x.Range(), y.Range())},
			Op:     op,
			X:      x,
			Y:      y,
		}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.peekType() {
	case token.NOT, token.MINUS:
		op := p.next()
		x := p.parseUnary()
		return &ast.Unary{
			Extent: ast.Extent{Src: joinRange(op.Range(), x.Range())},
			Op:     op.Type,
			X:      x,
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.peekType() {
		case token.LPAREN:
			p.next()
			call := &ast.Call{Fun: x, Args: p.parseExprList(token.RPAREN)}
			call.Src = p.spanFrom(x.Range())
			x = call
		case token.DOT:
			p.next()
			sel := &ast.Selector{X: x, Sel: p.parseIdent()}
			sel.Src = p.spanFrom(x.Range())
			x = sel
		case token.LBRACK:
			p.next()
			idx := &ast.Index{X: x, Index: p.parseExpr()}
			p.expect(token.RBRACK)
			idx.Src = p.spanFrom(x.Range())
			x = idx
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case token.IDENT:
		p.next()
		id := &ast.Ident{Name: tok.Text}
		if p.peekType() == token.COLON {
			p.next()
			id.Package = id.Name
			id.Name = p.parseIdent().Name
		}
		id.Src = p.span(tok)
		return id
	case token.INT, token.FLOAT, token.STRING, token.TRUE, token.FALSE, token.NULL:
		p.next()
		lit := &ast.Literal{Extent: ast.Extent{Src: tok.Range()}, Type: tok.Type, Value: tok.Text}
		if tok.Type == token.STRING {
			if _, err := strconv.Unquote(tok.Text); err != nil {
				p.softErrorf(tok, "invalid string literal %s", tok.Text)
			}
		}
		return lit
	case token.ERROR:
		p.next()
		if len(tok.Text) > 0 && tok.Text[0] == '"' {
			p.errorf(tok, "unterminated string literal")
		} else {
			p.errorf(tok, "%s", tok.Text)
		}
		return p.placeholder(tok.Range())
	case token.INVALID:
		p.next()
		p.errorf(tok, "unexpected %q", tok.Text)
		return p.placeholder(tok.Range())
	case token.LPAREN:
		p.next()
		par := &ast.Paren{X: p.parseExpr()}
		p.expect(token.RPAREN)
		par.Src = p.span(tok)
		return par
	case token.LBRACK:
		p.next()
		arr := &ast.ArrayLit{Elems: p.parseExprList(token.RBRACK)}
		arr.Src = p.span(tok)
		return arr
	case token.LBRACE:
		return p.parseMapLit()
	}
	p.errorExpected("expression")
	switch {
	case tok.Type == token.SEMI, tok.Type == token.RBRACE, tok.Type == token.RPAREN,
		tok.Type == token.RBRACK, tok.Type == token.COMMA, tok.Type == token.EOF,
		isStmtKeyword(tok.Type), isDeclKeyword(tok.Type):
		return p.placeholder(p.missing())
	}
	p.next()
	return p.placeholder(tok.Range())
}

// parseExprList parses a comma separated list of expressions up to and
// including the closing token.
func (p *Parser) parseExprList(closing token.Type) []ast.Expr {
	var list []ast.Expr
	if p.accept(closing) {
		return list
	}
	for {
		list = append(list, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(closing)
	return list
}

func (p *Parser) parseMapLit() *ast.MapLit {
	open := p.next()
	m := &ast.MapLit{}
	if p.accept(token.RBRACE) {
		m.Src = p.span(open)
		return m
	}
	for {
		start := p.peek()
		kv := &ast.KeyValue{}
		switch start.Type {
		case token.IDENT:
			kv.Key = p.parseIdent()
		case token.STRING:
			p.next()
			kv.Key = &ast.Literal{Extent: ast.Extent{Src: start.Range()}, Type: token.STRING, Value: start.Text}
		default:
			p.errorExpected("map key")
			kv.Key = p.placeholder(p.missing())
		}
		if p.expect(token.COLON) != nil {
			kv.Value = p.parseExpr()
		}
		kv.Src = p.span(start)
		m.Entries = append(m.Entries, kv)
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.src.IsEOF() {
		eof := p.peek()
		p.errorf(eof, "missing } to close map literal opened at %v", open.Source)
		p.closeAtEOF(eof)
		m.Src = p.span(open)
		return m
	}
	p.expect(token.RBRACE)
	m.Src = p.span(open)
	return m
}

// closeAtEOF records that a construct was closed by the EOF token eof and
// returns the zero width range of the synthesized closing token.
func (p *Parser) closeAtEOF(eof *token.Token) token.Range {
	p.eofEnd = eof.Source
	return token.Span(eof.Source, eof.Source)
}

func (p *Parser) placeholder(r token.Range) *ast.Placeholder {
	return &ast.Placeholder{Extent: ast.Extent{Src: r}, Err: p.lastErr}
}

// syncStmt skips the remainder of a statement which failed to parse and
// returns a placeholder covering the skipped input.
func (p *Parser) syncStmt(start *token.Token) *ast.Placeholder {
	p.skipFrom(start, func(typ token.Type) bool {
		return isStmtKeyword(typ) || isDeclKeyword(typ)
	})
	return p.placeholder(p.span(start))
}

// syncDecl skips the remainder of a declaration which failed to parse and
// returns a placeholder covering the skipped input.
func (p *Parser) syncDecl(start *token.Token) *ast.Placeholder {
	p.skipFrom(start, func(typ token.Type) bool {
		return isDeclKeyword(typ) || typ == token.AT
	})
	return p.placeholder(p.span(start))
}

// skipFrom consumes tokens until a synchronization point: a semicolon
// (consumed), an unbalanced closing brace, EOF, a token for which stop
// returns true or a token starting a new line.  Nested brackets are skipped
// as a unit.  Input already terminated by a semicolon is not skipped
// further.
func (p *Parser) skipFrom(start *token.Token, stop func(token.Type) bool) {
	consumed := p.consumedSince(start)
	if consumed && p.prev.Type == token.SEMI {
		return
	}
	depth := 0
	for {
		tok := p.peek()
		if tok.Type == token.EOF {
			return
		}
		if depth == 0 {
			switch {
			case tok.Type == token.SEMI:
				p.next()
				return
			case tok.Type == token.RBRACE:
				return
			case consumed && stop(tok.Type):
				return
			case consumed && tok.Source.Line > p.prev.End().Line:
				return
			}
		}
		switch tok.Type {
		case token.LBRACE, token.LPAREN, token.LBRACK:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACK:
			if depth > 0 {
				depth--
			}
		}
		p.next()
		consumed = true
	}
}

// skipTo consumes tokens until the next token has one of the given types or
// is EOF.
func (p *Parser) skipTo(types ...token.Type) {
	for !p.src.IsEOF() {
		for _, typ := range types {
			if p.peekType() == typ {
				return
			}
		}
		p.next()
	}
}

func (p *Parser) consumedSince(start *token.Token) bool {
	return p.prev != nil && p.prev.Source.Pos >= start.Source.Pos
}

func (p *Parser) expectSemi() {
	if p.accept(token.SEMI) {
		return
	}
	tok := p.peek()
	switch {
	case tok.Type == token.RBRACE, tok.Type == token.EOF, isStmtKeyword(tok.Type),
		p.prev != nil && tok.Source.Line > p.prev.End().Line:
		// The semicolon is assumed present.
		p.softErrorf(p.after(), "missing ; before %s", describe(tok))
	default:
		p.errorExpected(";")
	}
}

// after returns a zero length token positioned just after the last consumed
// token.
func (p *Parser) after() *token.Token {
	if p.prev == nil {
		return &token.Token{Type: token.SEMI, Source: p.peek().Source}
	}
	loc := *p.prev.End()
	loc.Col++
	loc.Pos = p.prev.Source.Pos + len(p.prev.Text)
	return &token.Token{Type: token.SEMI, Source: &loc}
}

func (p *Parser) peek() *token.Token {
	return p.src.Peek()
}

func (p *Parser) peekType() token.Type {
	return p.src.Peek().Type
}

func (p *Parser) peekTypeN(n int) token.Type {
	return p.src.PeekN(n).Type
}

// next consumes and returns the next token.  At EOF the EOF token is
// returned and nothing is consumed.
func (p *Parser) next() *token.Token {
	if !p.src.Scan() {
		return p.src.Token
	}
	p.prev = p.src.Token
	return p.prev
}

func (p *Parser) accept(typ ...token.Type) bool {
	for _, t := range typ {
		if p.peekType() == t {
			p.next()
			return true
		}
	}
	return false
}

func (p *Parser) expect(typ token.Type) *token.Token {
	if p.peekType() == typ {
		return p.next()
	}
	p.errorExpected(typ.String())
	return nil
}

// span returns the range from start through the last consumed token.  Once
// a construct has been closed at EOF every enclosing construct ends at EOF
// as well.
func (p *Parser) span(start *token.Token) token.Range {
	if p.eofEnd != nil {
		return token.Span(start.Source, p.eofEnd)
	}
	if !p.consumedSince(start) {
		return token.Span(start.Source, start.Source)
	}
	return token.Span(start.Source, p.prev.End())
}

// spanFrom returns the range from the start of r through the last consumed
// token.
func (p *Parser) spanFrom(r token.Range) token.Range {
	end := p.prev.End()
	if p.eofEnd != nil {
		end = p.eofEnd
	}
	r.EndLine = end.Line
	r.EndCol = end.Col
	return r
}

// missing returns a zero width range positioned at the end of the last
// consumed token, for nodes that are absent from the input.
func (p *Parser) missing() token.Range {
	if p.prev == nil {
		loc := p.peek().Source
		return token.Span(loc, loc)
	}
	end := p.prev.End()
	return token.Span(end, end)
}

func (p *Parser) errorExpected(what string) {
	tok := p.peek()
	p.errorf(tok, "expected %s, found %s", what, describe(tok))
}

func (p *Parser) errorf(tok *token.Token, format string, v ...interface{}) {
	p.hard++
	p.report(tok, fmt.Sprintf(format, v...))
}

// softErrorf reports an error that the parser repairs in place without
// invalidating the enclosing statement.
func (p *Parser) softErrorf(tok *token.Token, format string, v ...interface{}) {
	p.report(tok, fmt.Sprintf(format, v...))
}

func (p *Parser) report(tok *token.Token, msg string) {
	err := &SyntaxError{
		Msg:    msg,
		Source: tok.Source,
		Range:  tok.Range(),
	}
	p.lastErr = msg
	p.strategy.ReportError(err)
	if !p.strategy.Recover(err) {
		panic(bailout{err})
	}
}

func describe(tok *token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "EOF"
	case token.IDENT:
		return fmt.Sprintf("identifier %s", tok.Text)
	}
	return fmt.Sprintf("%q", tok.Text)
}

func joinRange(a, b token.Range) token.Range {
	return token.Range{
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
	}
}

func isStmtKeyword(typ token.Type) bool {
	switch typ {
	case token.IF, token.WHILE, token.FOREACH, token.TRY, token.TRANSACTION,
		token.RETURN, token.BREAK, token.NEXT, token.THROW, token.ABORT,
		token.RETRY, token.VAR:
		return true
	}
	return false
}

// isDeclKeyword reports whether typ can only begin a declaration.
func isDeclKeyword(typ token.Type) bool {
	switch typ {
	case token.FUNCTION, token.SERVICE, token.CONNECTOR, token.STRUCT,
		token.ANNOTATION, token.CONST, token.TRANSFORMER, token.IMPORT,
		token.PACKAGE, token.RESOURCE, token.ACTION:
		return true
	}
	return false
}
