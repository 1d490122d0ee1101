// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

type Token struct {
	Type   Type
	Text   string
	Source *Location
}

// End returns the location of the last character of tok.  Tokens never span
// lines so the end shares the start line.  An empty token (EOF) ends where it
// starts.
func (tok *Token) End() *Location {
	n := len(tok.Text)
	if n == 0 {
		n = 1
	}
	end := *tok.Source
	end.Col += n - 1
	end.Pos += len(tok.Text)
	return &end
}

// Range returns the raw source range covered by tok.
func (tok *Token) Range() Range {
	return Span(tok.Source, tok.End())
}

type Type uint

// Type constants used for the lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	COMMENT

	// Atomic expressions & literals
	IDENT
	INT
	FLOAT
	STRING

	// Delimiters
	LBRACE
	RBRACE
	LPAREN
	RPAREN
	LBRACK
	RBRACK
	SEMI
	COMMA
	DOT
	COLON
	AT

	// Operators
	ASSIGN
	EQ
	NE
	LT
	GT
	LE
	GE
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	NOT
	AND
	OR
	QUESTION
	RARROW
	LARROW

	keywordBeg
	PACKAGE
	IMPORT
	AS
	CONST
	FUNCTION
	SERVICE
	RESOURCE
	CONNECTOR
	ACTION
	STRUCT
	ANNOTATION
	ATTACH
	TRANSFORMER
	IF
	ELSE
	WHILE
	FOREACH
	IN
	TRY
	CATCH
	FINALLY
	TRANSACTION
	FAILED
	ABORTED
	COMMITTED
	ABORT
	RETRY
	RETURN
	BREAK
	NEXT
	THROW
	VAR
	TRUE
	FALSE
	NULL
	keywordEnd

	numTokenTypes
)

var typeStrings = [numTokenTypes]string{
	INVALID:     "invalid",
	ERROR:       "error",
	EOF:         "EOF",
	COMMENT:     "comment",
	IDENT:       "identifier",
	INT:         "int",
	FLOAT:       "float",
	STRING:      "string",
	LBRACE:      "{",
	RBRACE:      "}",
	LPAREN:      "(",
	RPAREN:      ")",
	LBRACK:      "[",
	RBRACK:      "]",
	SEMI:        ";",
	COMMA:       ",",
	DOT:         ".",
	COLON:       ":",
	AT:          "@",
	ASSIGN:      "=",
	EQ:          "==",
	NE:          "!=",
	LT:          "<",
	GT:          ">",
	LE:          "<=",
	GE:          ">=",
	PLUS:        "+",
	MINUS:       "-",
	STAR:        "*",
	SLASH:       "/",
	PERCENT:     "%",
	NOT:         "!",
	AND:         "&&",
	OR:          "||",
	QUESTION:    "?",
	RARROW:      "->",
	LARROW:      "<-",
	keywordBeg:  "<keywords>",
	PACKAGE:     "package",
	IMPORT:      "import",
	AS:          "as",
	CONST:       "const",
	FUNCTION:    "function",
	SERVICE:     "service",
	RESOURCE:    "resource",
	CONNECTOR:   "connector",
	ACTION:      "action",
	STRUCT:      "struct",
	ANNOTATION:  "annotation",
	ATTACH:      "attach",
	TRANSFORMER: "transformer",
	IF:          "if",
	ELSE:        "else",
	WHILE:       "while",
	FOREACH:     "foreach",
	IN:          "in",
	TRY:         "try",
	CATCH:       "catch",
	FINALLY:     "finally",
	TRANSACTION: "transaction",
	FAILED:      "failed",
	ABORTED:     "aborted",
	COMMITTED:   "committed",
	ABORT:       "abort",
	RETRY:       "retry",
	RETURN:      "return",
	BREAK:       "break",
	NEXT:        "next",
	THROW:       "throw",
	VAR:         "var",
	TRUE:        "true",
	FALSE:       "false",
	NULL:        "null",
	keywordEnd:  "</keywords>",
}

func (typ Type) String() string {
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsKeyword reports whether typ is a reserved word.
func (typ Type) IsKeyword() bool {
	return keywordBeg < typ && typ < keywordEnd
}

var keywords map[string]Type

func init() {
	keywords = make(map[string]Type, keywordEnd-keywordBeg)
	for typ := keywordBeg + 1; typ < keywordEnd; typ++ {
		keywords[typeStrings[typ]] = typ
	}
}

// Lookup maps an identifier to its keyword type, or IDENT when ident is not
// reserved.
func Lookup(ident string) Type {
	if typ, ok := keywords[ident]; ok {
		return typ
	}
	return IDENT
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int
	Line int // line number (starting at 1 when tracked)
	Col  int // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Range is a raw source range as reported by the parser.  All coordinates
// are one-based and the end column is the column of the last character
// covered by the range.
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Span returns the range from start through end.
func Span(start, end *Location) Range {
	return Range{
		StartLine: start.Line,
		StartCol:  start.Col,
		EndLine:   end.Line,
		EndCol:    end.Col,
	}
}

// Start returns the first location covered by r within file.
func (r Range) Start(file string) *Location {
	return &Location{File: file, Line: r.StartLine, Col: r.StartCol}
}

// IsZero reports whether r carries no position information.
func (r Range) IsZero() bool {
	return r.StartLine == 0 && r.EndLine == 0
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
