// Copyright © 2024 The ELPS authors

package rdparser

import (
	"strings"

	"github.com/luthersystems/balsp/parser/ast"
	"github.com/luthersystems/balsp/parser/token"
)

// attachDoc gives d the doc comment written above start, its first token.
// before is the last token consumed ahead of d, or nil.
func (p *Parser) attachDoc(d ast.Decl, before, start *token.Token) {
	doc, ok := d.(ast.Documented)
	if !ok {
		return
	}
	if text := docComment(p.src, before, start); text != "" {
		doc.SetDoc(text)
	}
}

// docComment returns the text of the comments ending on the lines directly
// above tok with no blank line between them.  A comment trailing the code of
// before is not part of it, nor is a nolint directive.
func docComment(src *TokenSource, before, tok *token.Token) string {
	comments := src.Comments(tok)
	next := tok.Source.Line
	first := len(comments)
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if commentEndLine(c) != next-1 {
			break
		}
		if before != nil && c.Source.Line == before.End().Line {
			break
		}
		next = c.Source.Line
		first = i
	}
	var lines []string
	for _, c := range comments[first:] {
		lines = append(lines, commentLines(c.Text)...)
	}
	if len(lines) > 0 && strings.HasPrefix(lines[0], "nolint") {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func commentEndLine(c *token.Token) int {
	return c.Source.Line + strings.Count(c.Text, "\n")
}

// commentLines strips comment markers from text.
func commentLines(text string) []string {
	if body, ok := strings.CutPrefix(text, "//"); ok {
		return []string{trimOneSpace(body)}
	}
	body := strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines = append(lines, trimOneSpace(line))
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimOneSpace(s string) string {
	return strings.TrimRight(strings.TrimPrefix(s, " "), " \t\r")
}
