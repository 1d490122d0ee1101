// Copyright © 2024 The ELPS authors

package lint

import (
	"strings"

	"github.com/luthersystems/balsp/parser/lexer"
	"github.com/luthersystems/balsp/parser/token"
)

// nolint is a suppression directive written as a comment:
//
//	int x = 1; // nolint
//	int y = 2; // nolint:unused-variable,shadowed-variable
//
// A directive trailing code covers its own line.  A directive on a line of
// its own covers the line after it.
type nolint struct {
	all   bool
	names []string
}

func (n nolint) covers(analyzer string) bool {
	if n.all {
		return true
	}
	for _, name := range n.names {
		if name == analyzer {
			return true
		}
	}
	return false
}

// suppressions maps line numbers to the directives covering them.
type suppressions map[int][]nolint

func (s suppressions) suppressed(d Diagnostic) bool {
	for _, n := range s[d.Pos.Line] {
		if n.covers(d.Analyzer) {
			return true
		}
	}
	return false
}

func (s suppressions) filter(diags []Diagnostic) []Diagnostic {
	if len(s) == 0 {
		return diags
	}
	kept := diags[:0]
	for _, d := range diags {
		if !s.suppressed(d) {
			kept = append(kept, d)
		}
	}
	return kept
}

// scanSuppressions lexes source for nolint directives.  After an input
// failure the lexer reports EOF, so directives before it still apply.
func scanSuppressions(source []byte, filename string) suppressions {
	s := make(suppressions)
	lex := lexer.New(token.NewScannerBytes(filename, source))
	lastCodeLine := 0
	for {
		for _, tok := range lex.ReadToken() {
			switch tok.Type {
			case token.EOF:
				return s
			case token.COMMENT:
				n, ok := parseNolint(tok.Text)
				if !ok || tok.Source == nil {
					continue
				}
				line := tok.Source.Line
				if line != lastCodeLine {
					line++
				}
				s[line] = append(s[line], n)
			default:
				if tok.Source != nil {
					lastCodeLine = tok.End().Line
				}
			}
		}
	}
}

// parseNolint reports whether the comment text is a nolint directive.
func parseNolint(comment string) (nolint, bool) {
	text := strings.TrimSpace(comment)
	switch {
	case strings.HasPrefix(text, "//"):
		text = text[2:]
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(text[2:], "*/")
	}
	text = strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(text, "nolint")
	if !ok {
		return nolint{}, false
	}
	if rest == "" {
		return nolint{all: true}, true
	}
	list, ok := strings.CutPrefix(rest, ":")
	if !ok {
		return nolint{}, false
	}
	// A trailing explanation may follow the names.
	if i := strings.Index(list, "//"); i >= 0 {
		list = list[:i]
	}
	var n nolint
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			n.names = append(n.names, name)
		}
	}
	return n, len(n.names) > 0
}
