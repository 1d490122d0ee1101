// Copyright © 2024 The ELPS authors

package completion

import (
	"sort"

	"github.com/luthersystems/balsp/parser/ast"
)

// Policy decides whether the cursor lies before a member of a container,
// which makes the container the resolved scope.
type Policy int

const (
	// PolicyBlock applies to statements of a block.  The cursor resolves
	// to the block when it precedes a statement or trails the last one
	// without passing the block's boundary.
	PolicyBlock Policy = iota
	// PolicyDeclaration applies to service and connector members and to
	// annotation attachment points.  Only a cursor preceding a member
	// resolves.
	PolicyDeclaration
	// PolicyFieldList applies to fields of struct and annotation
	// declarations.  It behaves like PolicyBlock with the declaration as
	// the boundary.
	PolicyFieldList
)

func (p Policy) String() string {
	switch p {
	case PolicyBlock:
		return "block"
	case PolicyDeclaration:
		return "declaration"
	case PolicyFieldList:
		return "field-list"
	}
	return "unknown"
}

// CursorBefore reports whether the cursor of st resolves to the current
// container when examined at node, whose normalized range is span.
func (p Policy) CursorBefore(span Span, node ast.Node, st *ResolutionState) bool {
	if st.Cursor.Before(span.Start) {
		return true
	}
	switch p {
	case PolicyBlock, PolicyFieldList:
		if !st.isLast(node) {
			return false
		}
		end := span.End
		if n, ok := node.(*ast.If); ok {
			end = ChainEnd(n)
		}
		return st.Cursor.After(end) && st.Cursor.BeforeOrEqual(ownerEnd(st.Owner(), st.Block()))
	}
	return false
}

// ChainEnd returns the end of an if statement including all of its else
// clauses.  A chain ending in an else-if ends with that final if.
func ChainEnd(n *ast.If) Position {
	for {
		switch e := n.Else.(type) {
		case *ast.If:
			n = e
		case nil:
			return Normalize(n.Range()).End
		default:
			return Normalize(e.Range()).End
		}
	}
}

// ownerEnd returns the last position at which a cursor trailing the final
// statement of block still belongs to block.  Owners with several bodies
// end each body where the next clause begins.
func ownerEnd(owner ast.Node, block *ast.Block) Position {
	switch o := owner.(type) {
	case nil:
		if block == nil {
			return Position{}
		}
		return Normalize(block.Range()).End
	case *ast.If:
		if o.Else != nil && block == o.Then {
			return Normalize(o.ElseKw).Start
		}
	case *ast.Try:
		if block == o.Body {
			switch {
			case len(o.Catches) > 0:
				return Normalize(o.Catches[0].Range()).Start
			case o.Finally != nil && o.Finally.Body != nil:
				return Normalize(o.Finally.Body.Range()).Start
			}
		}
	case *ast.Transaction:
		return transactionEnd(o, block)
	}
	return Normalize(owner.Range()).End
}

// transactionEnd orders the clauses of tx by where they end.  Clauses
// ending together keep their declaration order.
func transactionEnd(tx *ast.Transaction, block *ast.Block) Position {
	clauses := tx.Clauses()
	sort.SliceStable(clauses, func(i, j int) bool {
		return Normalize(clauses[i].Range()).End.Before(Normalize(clauses[j].Range()).End)
	})
	for i, cl := range clauses {
		if cl.Body != block {
			continue
		}
		if i+1 < len(clauses) {
			return Normalize(clauses[i+1].Range()).Start
		}
		break
	}
	return Normalize(tx.Range()).End
}
