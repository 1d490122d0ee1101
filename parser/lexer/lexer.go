// Copyright © 2018 The ELPS authors

package lexer

import (
	"errors"
	"unicode"

	"github.com/luthersystems/balsp/parser/token"
)

type LexFn func(*Lexer) []*token.Token

// ErrInvalidUTF8 is reported through Err when the source text is not valid
// utf-8.
var ErrInvalidUTF8 = errors.New("invalid utf-8 sequence in source text")

type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
	err     error
}

func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
	return lex
}

// ReadToken returns the next token in the stream.  After a fatal input
// failure ReadToken returns a single ERROR token followed by EOF tokens, and
// Err reports the failure.
func (lex *Lexer) ReadToken() []*token.Token {
	return lex.lex(lex)
}

// Err returns the input failure that stopped the lexer, if any.  Malformed
// tokens (e.g. an unterminated string) are not failures; they are reported as
// ERROR or INVALID tokens for the parser to recover from.
func (lex *Lexer) Err() error {
	return lex.err
}

func (lex *Lexer) readToken() []*token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(c rune) bool { return true }) {
		if lex.scanner.EOF() {
			return lex.emit(token.EOF, "")
		}
		return lex.fail()
	}
	switch c := lex.scanner.Rune(); c {
	case '{':
		return lex.charToken(token.LBRACE)
	case '}':
		return lex.charToken(token.RBRACE)
	case '(':
		return lex.charToken(token.LPAREN)
	case ')':
		return lex.charToken(token.RPAREN)
	case '[':
		return lex.charToken(token.LBRACK)
	case ']':
		return lex.charToken(token.RBRACK)
	case ';':
		return lex.charToken(token.SEMI)
	case ',':
		return lex.charToken(token.COMMA)
	case '.':
		return lex.charToken(token.DOT)
	case ':':
		return lex.charToken(token.COLON)
	case '@':
		return lex.charToken(token.AT)
	case '?':
		return lex.charToken(token.QUESTION)
	case '+':
		return lex.charToken(token.PLUS)
	case '*':
		return lex.charToken(token.STAR)
	case '%':
		return lex.charToken(token.PERCENT)
	case '=':
		return lex.either('=', token.EQ, token.ASSIGN)
	case '!':
		return lex.either('=', token.NE, token.NOT)
	case '>':
		return lex.either('=', token.GE, token.GT)
	case '<':
		if lex.scanner.AcceptRune('-') {
			return lex.emitText(token.LARROW)
		}
		return lex.either('=', token.LE, token.LT)
	case '-':
		return lex.either('>', token.RARROW, token.MINUS)
	case '&':
		if lex.scanner.AcceptRune('&') {
			return lex.emitText(token.AND)
		}
		return lex.invalid()
	case '|':
		if lex.scanner.AcceptRune('|') {
			return lex.emitText(token.OR)
		}
		return lex.invalid()
	case '/':
		switch {
		case lex.scanner.AcceptRune('/'):
			lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
			return lex.emitText(token.COMMENT)
		case lex.scanner.AcceptRune('*'):
			return lex.readBlockComment()
		}
		return lex.emitText(token.SLASH)
	case '"':
		return lex.readString()
	default:
		if isDigit(c) {
			return lex.readNumber()
		}
		if isWordStart(c) {
			return lex.readWord()
		}
		return lex.invalid()
	}
}

// fail handles a rune which could not be scanned even though input remains.
func (lex *Lexer) fail() []*token.Token {
	err := lex.scanner.Err()
	if err == nil {
		err = ErrInvalidUTF8
	}
	lex.err = &token.LocationError{
		Err:    err,
		Source: lex.scanner.LocStart(),
	}
	lex.lex = (*Lexer).readEOF
	return lex.emit(token.ERROR, err.Error())
}

func (lex *Lexer) readEOF() []*token.Token {
	return lex.emit(token.EOF, "")
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := []*token.Token{{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}}
	lex.scanner.Ignore()
	return tok
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

// invalid emits the text scanned so far as a single INVALID token.
func (lex *Lexer) invalid() []*token.Token {
	return lex.emitText(token.INVALID)
}

func (lex *Lexer) charToken(typ token.Type) []*token.Token {
	return lex.emitText(typ)
}

// either emits long when the next rune is c and short otherwise.
func (lex *Lexer) either(c rune, long, short token.Type) []*token.Token {
	if lex.scanner.AcceptRune(c) {
		return lex.emitText(long)
	}
	return lex.emitText(short)
}

func (lex *Lexer) readBlockComment() []*token.Token {
	for {
		if _, ok := lex.scanner.AcceptString("*/"); ok {
			return lex.emitText(token.COMMENT)
		}
		if !lex.scanner.Accept(func(c rune) bool { return true }) {
			if lex.scanner.EOF() {
				return lex.emit(token.ERROR, "unterminated block comment")
			}
			return lex.fail()
		}
	}
}

func (lex *Lexer) readString() []*token.Token {
	for {
		if lex.scanner.AcceptRune('"') {
			return lex.emitText(token.STRING)
		}
		if lex.scanner.AcceptRune('\\') {
			// Escapes are validated by the parser.
			if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
				return lex.emitText(token.ERROR)
			}
			continue
		}
		if !lex.scanner.Accept(func(c rune) bool { return c != '\n' }) {
			if r, ok := lex.scanner.Peek(); !ok && !lex.scanner.EOF() || ok && r != '\n' {
				return lex.fail()
			}
			// An unterminated string ends at the line break.  The partial
			// literal is emitted as an ERROR token so the parser can report
			// it and keep going.
			return lex.emitText(token.ERROR)
		}
	}
}

func (lex *Lexer) readWord() []*token.Token {
	lex.scanner.AcceptSeq(isWord)
	return lex.emitText(token.Lookup(lex.scanner.Text()))
}

func (lex *Lexer) readNumber() []*token.Token {
	lex.scanner.AcceptSeqDigit() // the first digit already scanned
	if lex.peekRune() == '.' {
		lex.scanner.AcceptRune('.')
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.invalid()
		}
		return lex.readFloatExponent()
	}
	if lex.scanner.AcceptAny("eE") {
		return lex.readFloatExponent()
	}
	if isWordStart(lex.peekRune()) {
		lex.scanner.AcceptSeq(isWord)
		return lex.invalid()
	}
	return lex.emitText(token.INT)
}

func (lex *Lexer) readFloatExponent() []*token.Token {
	if lex.scanner.AcceptAny("eE") || isExponent(lex.scanner.Rune()) {
		lex.scanner.AcceptAny("+-") // optional sign
		if lex.scanner.AcceptSeqDigit() == 0 {
			return lex.invalid()
		}
	}
	return lex.emitText(token.FLOAT)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		lex.scanner.Ignore()
	}
}

func (lex *Lexer) peekRune() rune {
	r, _ := lex.scanner.Peek()
	return r
}

func isExponent(c rune) bool {
	return c == 'e' || c == 'E'
}

func isWordStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isWord(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}
