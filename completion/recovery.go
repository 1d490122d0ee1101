// Copyright © 2024 The ELPS authors

package completion

import "github.com/luthersystems/balsp/parser/rdparser"

// TolerantStrategy records syntax errors and always continues parsing.
// The parser then fills gaps with placeholder nodes and closes constructs
// left open at the end of input, which keeps partially typed documents
// usable for completion.
type TolerantStrategy struct {
	Errors []*rdparser.SyntaxError
}

var _ rdparser.ErrorStrategy = (*TolerantStrategy)(nil)

func (s *TolerantStrategy) ReportError(err *rdparser.SyntaxError) {
	s.Errors = append(s.Errors, err)
}

func (s *TolerantStrategy) Recover(*rdparser.SyntaxError) bool {
	return true
}

// NewTolerantStrategy is suitable for compiler.Config.Strategy.
func NewTolerantStrategy() rdparser.ErrorStrategy {
	return &TolerantStrategy{}
}
