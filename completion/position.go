// Copyright © 2024 The ELPS authors

package completion

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/luthersystems/balsp/parser/token"
)

// Position is a zero-based location in a document.  Columns count bytes.
type Position struct {
	Line   uint32 `json:"line" msgpack:"line"`
	Column uint32 `json:"column" msgpack:"column"`
}

// NewPosition returns the position at the zero-based line and column.  It
// fails when either coordinate is negative or out of range.
func NewPosition(line, col int) (Position, error) {
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		return Position{}, fmt.Errorf("line %d: %w", line, err)
	}
	c, err := safecast.Conv[uint32](col)
	if err != nil {
		return Position{}, fmt.Errorf("column %d: %w", col, err)
	}
	return Position{Line: l, Column: c}, nil
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || p.Line == o.Line && p.Column < o.Column
}

// After reports whether p comes strictly after o.
func (p Position) After(o Position) bool {
	return o.Before(p)
}

// BeforeOrEqual reports whether p does not come after o.
func (p Position) BeforeOrEqual(o Position) bool {
	return !p.After(o)
}

// AfterOrEqual reports whether p does not come before o.
func (p Position) AfterOrEqual(o Position) bool {
	return !p.Before(o)
}

// raw returns the one-based line and column of p.
func (p Position) raw() (line, col int) {
	return int(p.Line) + 1, int(p.Column) + 1
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a normalized source range.  End is the position of the last
// character covered by the span.
type Span struct {
	Start Position
	End   Position
}

// Normalize converts a one-based parser range to a zero-based span.
// Coordinates that are already zero stay zero.
func Normalize(r token.Range) Span {
	return Span{
		Start: Position{Line: zeroBased(r.StartLine), Column: zeroBased(r.StartCol)},
		End:   Position{Line: zeroBased(r.EndLine), Column: zeroBased(r.EndCol)},
	}
}

func zeroBased(n int) uint32 {
	u, err := safecast.Conv[uint32](n - 1)
	if err != nil {
		return 0
	}
	return u
}

// Contains reports whether p lies within s, both ends included.
func (s Span) Contains(p Position) bool {
	return p.AfterOrEqual(s.Start) && p.BeforeOrEqual(s.End)
}

// Encloses reports whether p lies strictly after the start of s and not
// after its end.  For a braced construct this is a cursor inside the
// braces: after the opening brace and at or before the closing one.
func (s Span) Encloses(p Position) bool {
	return p.After(s.Start) && p.BeforeOrEqual(s.End)
}

func (s Span) String() string {
	return s.Start.String() + "-" + s.End.String()
}
