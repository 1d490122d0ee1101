// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color terminals unless NO_COLOR is set
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode returns the mode named "auto", "always" or "never".
// Unknown names select ColorAuto.
func ParseColorMode(name string) ColorMode {
	switch name {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// palette holds the styles of diagnostic output.
type palette struct {
	severity map[Severity]*color.Color
	message  *color.Color
	gutter   *color.Color
	marker   map[Severity]*color.Color
	note     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		severity: map[Severity]*color.Color{
			SeverityError:   color.New(color.FgRed, color.Bold),
			SeverityWarning: color.New(color.FgYellow, color.Bold),
			SeverityNote:    color.New(color.FgCyan, color.Bold),
		},
		message: color.New(color.Bold),
		gutter:  color.New(color.FgBlue, color.Bold),
		marker: map[Severity]*color.Color{
			SeverityError:   color.New(color.FgRed, color.Bold),
			SeverityWarning: color.New(color.FgYellow, color.Bold),
			SeverityNote:    color.New(color.FgCyan, color.Bold),
		},
		note: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range p.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) all() []*color.Color {
	cs := []*color.Color{p.message, p.gutter, p.note}
	for _, c := range p.severity {
		cs = append(cs, c)
	}
	for _, c := range p.marker {
		cs = append(cs, c)
	}
	return cs
}

func (p palette) severityStyle(s Severity) *color.Color {
	if c, ok := p.severity[s]; ok {
		return c
	}
	return p.message
}

func (p palette) markerStyle(s Severity) *color.Color {
	if c, ok := p.marker[s]; ok {
		return c
	}
	return p.message
}

// choosePalette selects the palette for mode when writing to w.
func choosePalette(mode ColorMode, w io.Writer) palette {
	return newPalette(mode.Enabled(w))
}

// Enabled reports whether output written to w should be colored.
func (m ColorMode) Enabled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(w)
	}
}

// isTerminal reports whether w is connected to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
