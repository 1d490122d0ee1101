// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner walks source text one utf-8 rune at a time and cuts it into
// tokens.  The whole input is held in memory so that locations can be
// computed for any offset after the fact.
type Scanner struct {
	file string
	path string
	src  []byte

	// lineStarts holds the offset of the first byte of every line seen so
	// far.  lineStarts[0] is always zero.
	lineStarts []int

	start int  // offset of the first byte of the current token
	pos   int  // offset of c
	next  int  // offset just beyond c
	c     Rune // most recently scanned rune

	readErr error
}

// NewScanner reads all of r and returns a Scanner over it.  A read failure
// is not reported immediately; runes read before the failure are scanned
// normally and Err reports the failure once they are exhausted.
func NewScanner(file string, r io.Reader) *Scanner {
	src, err := io.ReadAll(r)
	s := NewScannerBytes(file, src)
	s.readErr = err
	return s
}

// NewScannerBytes returns a Scanner over src.  The scanner does not modify
// src.
func NewScannerBytes(file string, src []byte) *Scanner {
	return &Scanner{
		file:       file,
		src:        src,
		lineStarts: []int{0},
	}
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.next])
}

// Rune returns the current unicode rune that is being scanned.  The rune
// returned by Rune is the last rune in a token returned by EmitToken.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Peek returns the next rune to be scanned.  The second result is false at
// the end of input and when the next bytes are not valid utf-8; the next call
// to ScanRune will then return an error reflecting the cause.
func (s *Scanner) Peek() (rune, bool) {
	r, ok := s.decode()
	if !ok || r.IsRuneError() {
		return 0, false
	}
	return r.C, true
}

func (s *Scanner) decode() (Rune, bool) {
	if s.next >= len(s.src) {
		return Rune{}, false
	}
	c, n := utf8.DecodeRune(s.src[s.next:])
	return Rune{c, n}, true
}

// ScanRune adds the next rune of input to the current token.  At the end of
// input ScanRune returns io.EOF, or the read failure given to NewScanner.
func (s *Scanner) ScanRune() error {
	r, ok := s.decode()
	if !ok {
		if s.readErr != nil {
			return s.readErr
		}
		return io.EOF
	}
	if r.IsRuneError() {
		if s.readErr != nil && len(s.src)-s.next < utf8.UTFMax {
			// A truncated read rather than bad input.
			return s.readErr
		}
		return &InvalidUTF8Error{Byte: s.src[s.next], Pos: s.next}
	}
	s.pos = s.next
	s.next += r.N
	s.c = r
	if r.C == '\n' {
		s.lineStarts = append(s.lineStarts, s.next)
	}
	return nil
}

// InvalidUTF8Error is returned by ScanRune when the input contains a byte
// that does not begin a valid utf-8 sequence.
type InvalidUTF8Error struct {
	Byte byte
	Pos  int
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("invalid utf-8 sequence in source text starting with byte %#02x", e.Byte)
}

// Err returns the read failure given to NewScanner once every byte read
// before it has been consumed.  Invalid utf-8 is not a read failure.
func (s *Scanner) Err() error {
	if s.readErr == nil {
		return nil
	}
	rem := s.src[s.next:]
	if len(rem) == 0 {
		return s.readErr
	}
	if len(rem) < utf8.UTFMax {
		if c, n := utf8.DecodeRune(rem); c == utf8.RuneError && n == 1 {
			// Possibly a utf-8 sequence cut short by the failure.
			return s.readErr
		}
	}
	return nil
}

// EOF reports whether all input has been scanned.  It is false when input
// ended early due to a read failure, see Err.
func (s *Scanner) EOF() bool {
	return s.readErr == nil && s.next >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok || !fn(peek) {
		return false
	}
	return s.ScanRune() == nil
}

func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(r rune) bool { return '0' <= r && r <= '9' })
}

func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqRune(c rune) int {
	var n int
	for s.AcceptRune(c) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqAny(charset string) int {
	var n int
	for s.AcceptAny(charset) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	var n int
	for s.AcceptDigit() {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqSpace() int {
	var n int
	for s.AcceptSpace() {
		n++
	}
	return n
}

// AcceptString scans literal if the input continues with it.  Otherwise the
// scanner is left after the longest matching prefix, whose length in runes
// is returned.
func (s *Scanner) AcceptString(literal string) (int, bool) {
	var n int
	for _, c := range literal {
		if !s.AcceptRune(c) {
			return n, false
		}
		n++
	}
	return n, true
}

// LocStart returns a Location referencing the beginning of the current token,
// just beyond the end of the previous token.  Columns count bytes from the
// start of the line.
func (s *Scanner) LocStart() *Location {
	return s.locAt(s.start)
}

// Loc returns a Location referencing the current scanner position, the last
// rune of the current token.
func (s *Scanner) Loc() *Location {
	return s.locAt(s.pos)
}

// locAt returns the location of offset, which must not be beyond the
// scanned input.
func (s *Scanner) locAt(offset int) *Location {
	i, found := slices.BinarySearch(s.lineStarts, offset)
	if !found {
		i--
	}
	return &Location{
		File: s.file,
		Path: s.path,
		Line: i + 1,
		Col:  offset - s.lineStarts[i] + 1,
		Pos:  offset,
	}
}

// Rune is a decoded rune and its width in bytes.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if Rune represents an invalid utf-8 sequence read
// by utf8.DecodeRune.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}
