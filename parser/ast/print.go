// Copyright © 2024 The ELPS authors

package ast

import "strings"

// Sprint renders n as a compact s-expression.  Leaf details (names, literal
// values, operators) follow the node kind.  Sprint is intended for tests and
// debugging output.
func Sprint(n Node) string {
	var b strings.Builder
	sprint(&b, n)
	return b.String()
}

func sprint(b *strings.Builder, n Node) {
	b.WriteString("(")
	b.WriteString(n.Kind().String())
	if d := detail(n); d != "" {
		b.WriteString(" ")
		b.WriteString(d)
	}
	for _, c := range Children(n) {
		if folded(n, c) {
			continue
		}
		b.WriteString(" ")
		sprint(b, c)
	}
	b.WriteString(")")
}

// folded reports whether child c of n is already rendered in n's detail.
func folded(n, c Node) bool {
	switch c := c.(type) {
	case *TypeName:
		return true
	case *Ident:
		switch n := n.(type) {
		case *AttachmentPoints:
			return true
		case *AnnotationAttachment:
			return c == n.Name
		case *Param:
			return c == n.Name
		case *ConstDecl:
			return c == n.Name
		case *GlobalVar:
			return c == n.Name
		case *FunctionDecl:
			return c == n.Name
		case *TransformerDecl:
			return c == n.Name
		case *ServiceDecl:
			return c == n.Name
		case *ResourceDecl:
			return c == n.Name
		case *ConnectorDecl:
			return c == n.Name
		case *ActionDecl:
			return c == n.Name
		case *StructDecl:
			return c == n.Name
		case *Field:
			return c == n.Name
		case *AnnotationDecl:
			return c == n.Name
		case *VarDef:
			return c == n.Name
		case *Foreach:
			return c == n.Var
		case *Catch:
			return c == n.Name
		}
	}
	return false
}

func detail(n Node) string {
	switch n := n.(type) {
	case *PackageDecl:
		return n.Path
	case *ImportDecl:
		if n.Alias != "" {
			return n.Path + " as " + n.Alias
		}
		return n.Path
	case *Ident:
		if n.Package != "" {
			return n.Package + ":" + n.Name
		}
		return n.Name
	case *TypeName:
		return n.String()
	case *Param:
		return join(typeString(n.Type), identString(n.Name))
	case *AnnotationAttachment:
		return identString(n.Name)
	case *ConstDecl:
		return join(typeString(n.Type), identString(n.Name))
	case *GlobalVar:
		return join(typeString(n.Type), identString(n.Name))
	case *FunctionDecl:
		return identString(n.Name)
	case *TransformerDecl:
		return identString(n.Name)
	case *ServiceDecl:
		if n.Protocol != "" {
			return "<" + n.Protocol + "> " + identString(n.Name)
		}
		return identString(n.Name)
	case *ResourceDecl:
		return identString(n.Name)
	case *ConnectorDecl:
		return identString(n.Name)
	case *ActionDecl:
		return identString(n.Name)
	case *StructDecl:
		return identString(n.Name)
	case *Field:
		return join(typeString(n.Type), identString(n.Name))
	case *AnnotationDecl:
		return identString(n.Name)
	case *AttachmentPoints:
		names := make([]string, len(n.Points))
		for i, p := range n.Points {
			names[i] = p.Name
		}
		return strings.Join(names, ",")
	case *VarDef:
		t := "var"
		if n.Type != nil {
			t = n.Type.String()
		}
		return join(t, identString(n.Name))
	case *Foreach:
		return identString(n.Var)
	case *Catch:
		return join(typeString(n.Type), identString(n.Name))
	case *Clause:
		return n.Keyword.String()
	case *Literal:
		return n.Value
	case *Unary:
		return n.Op.String()
	case *Binary:
		return n.Op.String()
	}
	return ""
}

func typeString(t *TypeName) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func identString(id *Ident) string {
	if id == nil {
		return ""
	}
	return id.Name
}

func join(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
