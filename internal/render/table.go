package render

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type column struct {
	title string
	width int
}

// table lays out cells in columns measured in terminal cells, so wide
// runes in asset names or values keep the columns aligned.
type table struct {
	cols []column
	rows [][]string
}

func newTable(cols ...column) *table {
	return &table{cols: cols}
}

func (t *table) row(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	// shrink columns to their widest cell
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, r := range t.rows {
		for i := range t.cols {
			if cw := runewidth.StringWidth(flatten(r[i])); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for i, c := range t.cols {
		if widths[i] > c.width {
			widths[i] = c.width
		}
	}

	var b strings.Builder
	titles := make([]string, len(t.cols))
	for i, c := range t.cols {
		titles[i] = c.title
	}
	t.line(&b, widths, titles)
	for _, r := range t.rows {
		t.line(&b, widths, r)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (t *table) line(b *strings.Builder, widths []int, cells []string) {
	last := len(cells) - 1
	for i, cell := range cells {
		cell = runewidth.Truncate(flatten(cell), widths[i], "…")
		if i == last {
			b.WriteString(cell)
			break
		}
		b.WriteString(runewidth.FillRight(cell, widths[i]))
		b.WriteString("  ")
	}
	b.WriteString("\n")
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
