// Package render presents property timelines, revision lists and object
// listings as coloured text, fixed-width tables or JSON.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// NoHistoryText is printed when a timeline has no entries.
const NoHistoryText = "No history found for this property."

// Format selects an output layout.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("render: unknown format %q (want text, table or json)", s)
	}
}

// ColorEnabled reports whether w is a terminal that should receive colour.
// NO_COLOR in the environment always disables it.
func ColorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor enables ANSI colour.
func WithColor(on bool) Option {
	return func(r *Renderer) {
		r.color = on
	}
}

// WithDiff shows a character diff between each value and the next older
// kept value in text output.
func WithDiff(on bool) Option {
	return func(r *Renderer) {
		r.diff = on
	}
}

// WithWidth sets the maximum value column width for tables.
func WithWidth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.width = n
		}
	}
}

// Renderer writes results in one of the supported formats.
type Renderer struct {
	color bool
	diff  bool
	width int

	heading *color.Color
	hash    *color.Color
	faint   *color.Color
	absent  *color.Color
	failed  *color.Color
	added   *color.Color
	removed *color.Color
}

// New returns a Renderer. Colour is off unless WithColor(true) is given.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: 48}
	for _, opt := range opts {
		opt(r)
	}
	r.heading = r.style(color.Bold)
	r.hash = r.style(color.FgYellow)
	r.faint = r.style(color.Faint)
	r.absent = r.style(color.FgHiBlack, color.Italic)
	r.failed = r.style(color.FgRed, color.Bold)
	r.added = r.style(color.FgGreen)
	r.removed = r.style(color.FgRed, color.CrossedOut)
	return r
}

func (r *Renderer) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
