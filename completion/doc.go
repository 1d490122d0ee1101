// Copyright © 2024 The ELPS authors

// Package completion resolves the lexical scope enclosing a cursor in a
// possibly incomplete source file and produces completion candidates for
// it.
//
// A request flows through four stages.  The document is compiled with a
// TolerantStrategy so that syntax errors leave placeholder nodes instead of
// aborting the parse.  Resolve walks the syntax tree depth first, asking a
// Policy at every member of every container whether the cursor sits before
// it, and stops at the first container that claims the cursor.  The visible
// symbols of that container are narrowed with a Filter, and a Dispatcher
// hands the result to the generator registered for the container's node
// kind.
package completion
