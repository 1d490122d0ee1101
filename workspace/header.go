// Copyright © 2024 The ELPS authors

package workspace

import (
	"strings"

	parsec "github.com/prataprc/goparsec"
)

// PackageFromContent returns the package path declared at the top of a
// source file, or "" when the file has no package declaration.  Only the
// header is examined so the rest of the file may be incomplete.
//
//	header  := comment* 'package' ident ('.' ident)* ';'
//	comment := '//' ... | '/*' ... '*/'
func PackageFromContent(src []byte) string {
	s := parsec.NewScanner(src)
	root, _ := newHeaderParser()(s)
	path, ok := root.(packagePath)
	if !ok {
		return ""
	}
	return string(path)
}

type packagePath string

func newHeaderParser() parsec.Parser {
	lineComment := parsec.Token(`//[^\n]*`, "COMMENT")
	blockComment := parsec.Token(`/\*(?s:.*?)\*/`, "COMMENT")
	comments := parsec.Kleene(nil, parsec.OrdChoice(nil, lineComment, blockComment))
	keyword := parsec.Token(`package\b`, "PACKAGE")
	ident := parsec.Token(`[A-Za-z_][A-Za-z0-9_]*`, "IDENT")
	dot := parsec.Atom(".", "DOT")
	semi := parsec.Atom(";", "SEMI")
	qualified := parsec.Kleene(nil, parsec.And(nil, dot, ident))
	path := parsec.And(joinPath, ident, qualified)
	decl := parsec.And(declPath, keyword, path, semi)
	return parsec.And(headerPath, comments, decl)
}

func joinPath(nodes []parsec.ParsecNode) parsec.ParsecNode {
	var parts []string
	var collect func(n parsec.ParsecNode)
	collect = func(n parsec.ParsecNode) {
		switch n := n.(type) {
		case *parsec.Terminal:
			if n.Name == "IDENT" {
				parts = append(parts, n.Value)
			}
		case []parsec.ParsecNode:
			for _, c := range n {
				collect(c)
			}
		}
	}
	collect(nodes)
	return packagePath(strings.Join(parts, "."))
}

func declPath(nodes []parsec.ParsecNode) parsec.ParsecNode {
	for _, n := range nodes {
		if p, ok := n.(packagePath); ok {
			return p
		}
	}
	return nil
}

func headerPath(nodes []parsec.ParsecNode) parsec.ParsecNode {
	if len(nodes) == 0 {
		return nil
	}
	return declPath(nodes[len(nodes)-1:])
}
