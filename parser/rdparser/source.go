// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/balsp/parser/lexer"
	"github.com/luthersystems/balsp/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for
// testing or for dynamic environments.
type TokenStream interface {
	// ReadToken returns a set of token from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF.
	// ReadToken never returns an empty slice.  In the presence of io errors a
	// TokenStream must return a token with type token.ERROR whenever called.
	ReadToken() []*token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any time
// a TokenSource wants a token.
type TokenGenerator func() []*token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() []*token.Token {
	return fn()
}

// TokenSource abstracts a TokenStream by adding "memory" and lookahead.
// Comment tokens are removed from the stream and kept with the token that
// follows them, see Comments.
type TokenSource struct {
	lex   TokenStream
	Token *token.Token
	peek  []*token.Token

	pending  []*token.Token
	comments map[*token.Token][]*token.Token
}

func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex:      stream,
		comments: make(map[*token.Token][]*token.Token),
	}
}

// Comments returns the comments between tok and the token before it.  tok
// must have been returned by the source.
func (s *TokenSource) Comments(tok *token.Token) []*token.Token {
	return s.comments[tok]
}

// NewTokenSource initializes and returns a new TokenSource that scans tokens
// from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	lex := lexer.New(scanner)
	return NewTokenStreamSource(lex)
}

// Err returns the fatal input error of the underlying stream, if the stream
// is able to report one.
func (s *TokenSource) Err() error {
	if e, ok := s.lex.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

func (s *TokenSource) Peek() *token.Token {
	return s.PeekN(0)
}

// PeekN returns the token n positions past the next token.  PeekN(0) is
// equivalent to Peek.  Peeking beyond the end of the stream returns the EOF
// token.
func (s *TokenSource) PeekN(n int) *token.Token {
	for len(s.peek) <= n {
		if len(s.peek) > 0 && s.peek[len(s.peek)-1].Type == token.EOF {
			return s.peek[len(s.peek)-1]
		}
		for _, tok := range s.lex.ReadToken() {
			if tok.Type == token.COMMENT {
				s.pending = append(s.pending, tok)
				continue
			}
			if len(s.pending) > 0 {
				s.comments[tok] = s.pending
				s.pending = nil
			}
			s.peek = append(s.peek, tok)
		}
	}
	return s.peek[n]
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.peek = s.peek[1:]
}
