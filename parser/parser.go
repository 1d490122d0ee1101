// Copyright © 2018 The ELPS authors

// Package parser is the front end for Ballerina source files.  The
// recursive descent parser lives in rdparser; this package wires it to a
// scanner over an in-memory source.
package parser

import (
	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/rdparser"
	"github.com/luthersystems/balsp/parser/token"
)

// ParseFile parses src.  Positions in the tree and in errors name the file
// path.  Without options the parse stops at the first syntax error, which is
// returned as a *rdparser.SyntaxError.
func ParseFile(path string, src []byte, opts ...rdparser.Option) (*ast.File, error) {
	return rdparser.New(token.NewScannerBytes(path, src), opts...).ParseFile()
}
