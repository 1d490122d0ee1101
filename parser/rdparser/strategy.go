// Copyright © 2024 The ELPS authors

package rdparser

import (
	"fmt"

	"github.com/luthersystems/balsp/parser/token"
)

// SyntaxError describes input the parser could not accept.
type SyntaxError struct {
	Msg    string
	Source *token.Location
	Range  token.Range
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Msg)
}

// ErrorStrategy decides how a Parser reacts to syntax errors.
type ErrorStrategy interface {
	// ReportError is called once for every syntax error, in source order.
	ReportError(err *SyntaxError)
	// Recover returns true if parsing should continue past err.  When
	// parsing continues the parser substitutes ast.Placeholder nodes for
	// input it skips and closes any constructs left open at EOF.
	Recover(err *SyntaxError) bool
}

// BailStrategy stops the parse at the first syntax error.  It is the default
// strategy of a Parser.
type BailStrategy struct {
	Err *SyntaxError
}

var _ ErrorStrategy = (*BailStrategy)(nil)

func (s *BailStrategy) ReportError(err *SyntaxError) {
	if s.Err == nil {
		s.Err = err
	}
}

func (s *BailStrategy) Recover(err *SyntaxError) bool {
	return false
}

// bailout is the panic value used to unwind a parse that cannot recover.
type bailout struct {
	err *SyntaxError
}
