// Copyright © 2024 The ELPS authors

package ast

// Children returns the direct children of n in source order.  Nil optional
// children are omitted.
func Children(n Node) []Node {
	var c children
	switch n := n.(type) {
	case *File:
		c.add(n.Package)
		for _, imp := range n.Imports {
			c.add(imp)
		}
		for _, d := range n.Decls {
			c.add(d)
		}
	case *Param:
		c.add(n.Type, n.Name)
	case *AnnotationAttachment:
		c.add(n.Name, n.Value)
	case *ConstDecl:
		c.add(n.Type, n.Name, n.Value)
	case *GlobalVar:
		c.add(n.Type, n.Name, n.Value)
	case *FunctionDecl:
		c.annotations(n.Annotations)
		c.add(n.Name)
		c.params(n.Params)
		c.types(n.Returns)
		c.add(n.Body)
	case *TransformerDecl:
		c.add(n.Name)
		c.params(n.Params)
		c.types(n.Returns)
		c.add(n.Body)
	case *ServiceDecl:
		c.annotations(n.Annotations)
		c.add(n.Name)
		for _, m := range n.Members {
			c.add(m)
		}
	case *ResourceDecl:
		c.annotations(n.Annotations)
		c.add(n.Name)
		c.params(n.Params)
		c.add(n.Body)
	case *ConnectorDecl:
		c.annotations(n.Annotations)
		c.add(n.Name)
		c.params(n.Params)
		for _, m := range n.Members {
			c.add(m)
		}
	case *ActionDecl:
		c.annotations(n.Annotations)
		c.add(n.Name)
		c.params(n.Params)
		c.types(n.Returns)
		c.add(n.Body)
	case *StructDecl:
		c.add(n.Name)
		for _, f := range n.Fields {
			c.add(f)
		}
	case *Field:
		c.add(n.Type, n.Name, n.Value)
	case *AnnotationDecl:
		c.add(n.Name, n.Points)
		for _, f := range n.Fields {
			c.add(f)
		}
	case *AttachmentPoints:
		for _, p := range n.Points {
			c.add(p)
		}
	case *Block:
		for _, s := range n.Stmts {
			c.add(s)
		}
	case *VarDef:
		c.add(n.Type, n.Name, n.Value)
	case *Assign:
		c.add(n.Target, n.Value)
	case *ExprStmt:
		c.add(n.X)
	case *If:
		c.add(n.Cond, n.Then, n.Else)
	case *While:
		c.add(n.Cond, n.Body)
	case *Foreach:
		c.add(n.Var, n.Iter, n.Body)
	case *Try:
		c.add(n.Body)
		for _, cat := range n.Catches {
			c.add(cat)
		}
		c.add(n.Finally)
	case *Catch:
		c.add(n.Type, n.Name, n.Body)
	case *Clause:
		c.add(n.Body)
	case *Transaction:
		for _, cl := range n.Clauses() {
			c.add(cl)
		}
	case *Return:
		for _, v := range n.Values {
			c.add(v)
		}
	case *Throw:
		c.add(n.X)
	case *Retry:
		c.add(n.Count)
	case *Call:
		c.add(n.Fun)
		for _, a := range n.Args {
			c.add(a)
		}
	case *Selector:
		c.add(n.X, n.Sel)
	case *Index:
		c.add(n.X, n.Index)
	case *Unary:
		c.add(n.X)
	case *Binary:
		c.add(n.X, n.Y)
	case *Paren:
		c.add(n.X)
	case *ArrayLit:
		for _, e := range n.Elems {
			c.add(e)
		}
	case *KeyValue:
		c.add(n.Key, n.Value)
	case *MapLit:
		for _, kv := range n.Entries {
			c.add(kv)
		}
	}
	return c
}

type children []Node

func (c *children) add(nodes ...Node) {
	for _, n := range nodes {
		if !isNil(n) {
			*c = append(*c, n)
		}
	}
}

func (c *children) annotations(a []*AnnotationAttachment) {
	for _, n := range a {
		c.add(n)
	}
}

func (c *children) params(p []*Param) {
	for _, n := range p {
		c.add(n)
	}
}

func (c *children) types(t []*TypeName) {
	for _, n := range t {
		c.add(n)
	}
}

// isNil reports whether n is nil or a typed nil pointer held in an interface.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *PackageDecl:
		return n == nil
	case *TypeName:
		return n == nil
	case *Ident:
		return n == nil
	case *Block:
		return n == nil
	case *AttachmentPoints:
		return n == nil
	case *Clause:
		return n == nil
	case *If:
		return n == nil
	case *MapLit:
		return n == nil
	}
	return false
}
