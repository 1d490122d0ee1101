// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const defaultTabWidth = 4

// Renderer formats diagnostics as annotated source snippets.  A Renderer
// caches the files it reads and is not safe for concurrent use.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// TabWidth is the display width of a tab.  Zero means 4.
	TabWidth int

	sources map[string][]string
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for _, span := range d.Spans {
		r.writeSpan(ew, d.Severity, span, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.note.Sprint("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary writes a line such as "2 errors, 1 warning" for diags.  It
// writes nothing when diags is empty.
func (r *Renderer) RenderSummary(w io.Writer, diags []Diagnostic) error {
	counts := Count(diags)
	var parts []string
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityNote} {
		if n := counts[sev]; n > 0 {
			parts = append(parts, plural(n, sev.String()))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	p := choosePalette(r.Color, w)
	_, err := fmt.Fprintf(w, "%s\n", p.message.Sprint(strings.Join(parts, ", ")))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	sev := d.Severity.String()
	if d.Code != "" {
		sev += "[" + d.Code + "]"
	}
	ew.printf("%s%s %s\n", p.severityStyle(d.Severity).Sprint(sev), p.message.Sprint(":"), p.message.Sprint(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, sev Severity, span Span, p palette) {
	ew.printf("  %s %s\n", p.gutter.Sprint("-->"), location(span))

	source, ok := r.sourceLine(span.File, span.Line)
	if !ok {
		ew.printf("   %s\n", p.gutter.Sprint("|"))
		return
	}

	num := strconv.Itoa(span.Line)
	pad := strings.Repeat(" ", len(num))
	bar := p.gutter.Sprint(pad + " |")

	ew.printf(" %s\n", bar)
	ew.printf(" %s  %s\n", p.gutter.Sprint(num+" |"), r.expandTabs(source))

	col := max(span.Col, 1)
	endCol := span.EndCol
	switch {
	case span.EndLine > span.Line:
		endCol = len(source)
	case endCol <= 0:
		endCol = tokenEnd(source, col)
	}
	endCol = max(endCol, col)

	indent := r.width(prefix(source, col-1))
	underLen := max(r.width(prefix(source, endCol))-indent, 1)
	marker := p.markerStyle(sev)
	ew.printf(" %s  %s%s", bar, strings.Repeat(" ", indent), marker.Sprint(strings.Repeat("^", underLen)))
	if span.Label != "" {
		ew.printf(" %s", marker.Sprint(span.Label))
	}
	ew.printf("\n")
	ew.printf(" %s\n", bar)
}

// location formats the position of span as file:line:col.
func location(span Span) string {
	switch {
	case span.Line <= 0:
		return span.File
	case span.Col <= 0:
		return fmt.Sprintf("%s:%d", span.File, span.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
	}
}

// sourceLine returns the one-based line of file.
func (r *Renderer) sourceLine(file string, line int) (string, bool) {
	if line <= 0 || file == "" {
		return "", false
	}
	lines, ok := r.sources[file]
	if !ok {
		lines = r.readLines(file)
		if r.sources == nil {
			r.sources = make(map[string][]string)
		}
		r.sources[file] = lines
	}
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

func (r *Renderer) readLines(file string) []string {
	reader := r.SourceReader
	if reader == nil {
		reader = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := reader(file)
	if err != nil {
		return nil
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return lines
}

// tokenEnd returns the one-based column of the last byte of the identifier
// or operator starting at col.
func tokenEnd(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	end := col - 1
	if isWordByte(source[end]) {
		for end+1 < len(source) && isWordByte(source[end+1]) {
			end++
		}
	}
	return end + 1
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// prefix returns the first n bytes of s, or all of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	return s[:n]
}

func (r *Renderer) tabWidth() int {
	if r.TabWidth > 0 {
		return r.TabWidth
	}
	return defaultTabWidth
}

func (r *Renderer) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", r.tabWidth()))
}

// width returns the display width of s on a terminal.
func (r *Renderer) width(s string) int {
	return runewidth.StringWidth(r.expandTabs(s))
}
