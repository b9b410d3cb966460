package render

import (
	"fmt"
	"io"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/models"
)

const dateLayout = "2006-01-02 15:04"

// History writes a property timeline.
func (r *Renderer) History(w io.Writer, f Format, res *historyservice.Result) error {
	switch f {
	case FormatJSON:
		return JSON(w, NewReport(res))
	case FormatTable:
		return r.historyTable(w, res)
	default:
		return r.historyText(w, res)
	}
}

func (r *Renderer) historyText(w io.Writer, res *historyservice.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.heading.Sprint("Asset:"), res.Asset)
	fmt.Fprintf(&b, "%s %s\n", r.heading.Sprint("Object:"), res.AnchorID)
	fmt.Fprintf(&b, "%s %s\n", r.heading.Sprint("Property:"), res.Path)
	b.WriteString("\n")

	if len(res.Entries) == 0 {
		b.WriteString(NoHistoryText + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%s\n", r.heading.Sprintf("History (%d changes in %d revisions)", len(res.Entries), res.Scanned))
	for i, e := range res.Entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %s", r.hash.Sprint(e.Revision.ShortID()), e.Revision.Summary)
		if !e.Revision.Date.IsZero() {
			fmt.Fprintf(&b, "  %s", r.faint.Sprint(e.Revision.Date.Format(dateLayout)))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  Author: %s\n", e.Revision.Author)
		fmt.Fprintf(&b, "  Value:  %s\n", r.value(e))
		if r.diff && i+1 < len(res.Entries) {
			if d, ok := r.change(res.Entries[i+1], e); ok {
				fmt.Fprintf(&b, "  Change: %s\n", d)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) value(e models.TimelineEntry) string {
	switch {
	case e.Value != nil:
		return *e.Value
	case e.Outcome.IsError():
		return r.failed.Sprint(e.Display())
	default:
		return r.absent.Sprint(e.Display())
	}
}

// change renders a character diff from the older value to the newer one.
// It reports false unless both entries carry values.
func (r *Renderer) change(older, newer models.TimelineEntry) (string, bool) {
	if older.Value == nil || newer.Value == nil {
		return "", false
	}
	return r.Diff(*older.Value, *newer.Value), true
}

// Diff marks deletions as [-text-] and insertions as {+text+}.
func (r *Renderer) Diff(from, to string) string {
	dmp := diffpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, false))
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffDelete:
			b.WriteString(r.removed.Sprint("[-" + d.Text + "-]"))
		case diffpatch.DiffInsert:
			b.WriteString(r.added.Sprint("{+" + d.Text + "+}"))
		case diffpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func (r *Renderer) historyTable(w io.Writer, res *historyservice.Result) error {
	if len(res.Entries) == 0 {
		_, err := fmt.Fprintln(w, NoHistoryText)
		return err
	}
	t := newTable(
		column{title: "REVISION", width: 8},
		column{title: "DATE", width: len(dateLayout)},
		column{title: "AUTHOR", width: 16},
		column{title: "VALUE", width: r.width},
		column{title: "SUMMARY", width: 40},
	)
	for _, e := range res.Entries {
		t.row(e.Revision.ShortID(), formatDate(e.Revision), e.Revision.Author, e.Display(), e.Revision.Summary)
	}
	return t.write(w)
}
