// Copyright © 2024 The ELPS authors

package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/balsp/completion"
	"github.com/luthersystems/balsp/parser/token"
)

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// lspRange converts a one-based parser range, whose end column is the last
// character covered, to an LSP range with an exclusive end.  Ranges that
// end before they start collapse to their start.
func lspRange(r token.Range) protocol.Range {
	start := protocol.Position{
		Line:      safeUint(r.StartLine - 1),
		Character: safeUint(r.StartCol - 1),
	}
	end := protocol.Position{
		Line:      safeUint(r.EndLine - 1),
		Character: safeUint(r.EndCol),
	}
	if end.Line < start.Line || end.Line == start.Line && end.Character < start.Character {
		end = start
	}
	return protocol.Range{Start: start, End: end}
}

// enginePosition converts an LSP position to a completion position.  Both
// are zero-based.
func enginePosition(p protocol.Position) completion.Position {
	return completion.Position{Line: p.Line, Column: p.Character}
}
