// Copyright © 2024 The ELPS authors

package completion

import (
	"sort"

	"github.com/luthersystems/balsp/analysis"
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// Resolve walks file and returns the innermost container whose scope
// applies at cursor.  The walk stops at the first container a policy
// accepts.  A container whose members all fail their policy still resolves
// when the cursor lies inside its braces.  When nothing resolves the
// cursor is at the top level of the file.  The result of analyzing the
// file's package supplies visible symbols and may be nil.
func Resolve(file *ast.File, result *analysis.Result, cursor Position) *Resolution {
	st := newResolutionState(file, result, cursor)
	if file != nil {
		for _, d := range file.Decls {
			if res := st.visitDecl(d); res != nil {
				return res
			}
		}
	}
	return st.resolve(nil)
}

func (st *ResolutionState) visitDecl(d ast.Decl) *Resolution {
	switch d := d.(type) {
	case *ast.FunctionDecl:
		return st.visitBlock(d.Body, d)
	case *ast.TransformerDecl:
		return st.visitBlock(d.Body, d)
	case *ast.ResourceDecl:
		return st.visitBlock(d.Body, d)
	case *ast.ActionDecl:
		return st.visitBlock(d.Body, d)
	case *ast.ServiceDecl:
		return st.visitMembers(d, d.Lbrace, d.Rbrace, d.Members)
	case *ast.ConnectorDecl:
		return st.visitMembers(d, d.Lbrace, d.Rbrace, d.Members)
	case *ast.StructDecl:
		return st.visitFields(d, d.Lbrace, d.Rbrace, d.Fields)
	case *ast.AnnotationDecl:
		if res := st.visitAttachmentPoints(d); res != nil {
			return res
		}
		return st.visitFields(d, d.Lbrace, d.Rbrace, d.Fields)
	}
	return nil
}

// braces returns the span from an opening brace to its closing brace.
func braces(lbrace, rbrace token.Range) Span {
	return Span{Start: Normalize(lbrace).Start, End: Normalize(rbrace).Start}
}

func (st *ResolutionState) visitMembers(owner ast.Decl, lbrace, rbrace token.Range, members []ast.Decl) *Resolution {
	if lbrace.IsZero() {
		return nil
	}
	inside := braces(lbrace, rbrace)
	if !st.Cursor.After(inside.Start) {
		return nil
	}
	st.push(nil, owner)
	defer st.pop()
	for _, m := range members {
		if PolicyDeclaration.CursorBefore(Normalize(m.Range()), m, st) {
			return st.resolve(owner)
		}
		if res := st.visitDecl(m); res != nil {
			return res
		}
	}
	if inside.Encloses(st.Cursor) {
		return st.resolve(owner)
	}
	return nil
}

func (st *ResolutionState) visitFields(owner ast.Decl, lbrace, rbrace token.Range, fields []*ast.Field) *Resolution {
	if lbrace.IsZero() {
		return nil
	}
	inside := braces(lbrace, rbrace)
	if !st.Cursor.After(inside.Start) {
		return nil
	}
	st.push(nil, owner)
	defer st.pop()
	for _, f := range fields {
		if PolicyFieldList.CursorBefore(Normalize(f.Range()), f, st) {
			return st.resolve(owner)
		}
	}
	if inside.Encloses(st.Cursor) {
		return st.resolve(owner)
	}
	return nil
}

// visitAttachmentPoints resolves a cursor between the attach keyword and
// the opening brace of an annotation declaration.
func (st *ResolutionState) visitAttachmentPoints(d *ast.AnnotationDecl) *Resolution {
	pts := d.Points
	if pts == nil {
		return nil
	}
	region := Span{Start: Normalize(pts.Attach).End, End: Normalize(d.Range()).End}
	if !d.Lbrace.IsZero() {
		region.End = Normalize(d.Lbrace).Start
	}
	if !st.Cursor.After(region.Start) {
		return nil
	}
	st.push(nil, d)
	defer st.pop()
	for _, p := range pts.Points {
		if PolicyDeclaration.CursorBefore(Normalize(p.Range()), p, st) {
			return st.resolve(pts)
		}
	}
	if st.Cursor.BeforeOrEqual(region.End) {
		return st.resolve(pts)
	}
	return nil
}

// visitBlock walks the statements of b when the cursor lies past its
// opening brace.
func (st *ResolutionState) visitBlock(b *ast.Block, owner ast.Node) *Resolution {
	if b == nil || b.Range().IsZero() {
		return nil
	}
	span := Normalize(b.Range())
	if !st.Cursor.After(span.Start) {
		return nil
	}
	st.push(b, owner)
	defer st.pop()
	for _, s := range b.Stmts {
		if PolicyBlock.CursorBefore(Normalize(s.Range()), s, st) {
			return st.resolve(b)
		}
		if res := st.visitStmt(s); res != nil {
			return res
		}
	}
	if span.Encloses(st.Cursor) {
		return st.resolve(b)
	}
	return nil
}

func (st *ResolutionState) visitStmt(s ast.Stmt) *Resolution {
	switch s := s.(type) {
	case *ast.If:
		return st.visitIf(s)
	case *ast.While:
		return st.visitBlock(s.Body, s)
	case *ast.Foreach:
		return st.visitBlock(s.Body, s)
	case *ast.Try:
		if res := st.visitBlock(s.Body, s); res != nil {
			return res
		}
		for _, c := range s.Catches {
			if res := st.visitBlock(c.Body, c); res != nil {
				return res
			}
		}
		if s.Finally != nil {
			return st.visitBlock(s.Finally.Body, s)
		}
	case *ast.Transaction:
		clauses := s.Clauses()
		sort.SliceStable(clauses, func(i, j int) bool {
			return Normalize(clauses[i].Range()).Start.Before(Normalize(clauses[j].Range()).Start)
		})
		for _, cl := range clauses {
			if res := st.visitBlock(cl.Body, s); res != nil {
				return res
			}
		}
	}
	return nil
}

func (st *ResolutionState) visitIf(n *ast.If) *Resolution {
	if res := st.visitBlock(n.Then, n); res != nil {
		return res
	}
	switch e := n.Else.(type) {
	case *ast.If:
		return st.visitIf(e)
	case *ast.Block:
		return st.visitBlock(e, nil)
	}
	return nil
}
