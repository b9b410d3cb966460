package render

import (
	"fmt"
	"io"

	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/models"
)

// Revisions writes a revision list.
func (r *Renderer) Revisions(w io.Writer, f Format, revs []models.Revision) error {
	if f == FormatJSON {
		return JSON(w, NewRevisions(revs))
	}
	if len(revs) == 0 {
		_, err := fmt.Fprintln(w, "No revisions found.")
		return err
	}
	if f == FormatTable {
		t := newTable(
			column{title: "REVISION", width: 8},
			column{title: "DATE", width: len(dateLayout)},
			column{title: "AUTHOR", width: 16},
			column{title: "SUMMARY", width: 60},
		)
		for _, rev := range revs {
			t.row(rev.ShortID(), formatDate(rev), rev.Author, rev.Summary)
		}
		return t.write(w)
	}
	for _, rev := range revs {
		line := fmt.Sprintf("%s %s  %s  %s", r.hash.Sprint(rev.ShortID()),
			r.faint.Sprint(formatDate(rev)), rev.Author, rev.Summary)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Objects writes the anchored objects of an asset.
func (r *Renderer) Objects(w io.Writer, f Format, res *historyservice.ObjectsResult) error {
	if f == FormatJSON {
		return JSON(w, struct {
			Asset    string      `json:"asset"`
			Revision RevisionDTO `json:"revision"`
			Objects  any         `json:"objects"`
		}{res.Asset, NewRevision(res.Revision), res.Objects})
	}
	if f == FormatText {
		fmt.Fprintf(w, "%s %s @ %s\n\n", r.heading.Sprint("Asset:"), res.Asset, r.hash.Sprint(res.Revision.ShortID()))
	}
	t := newTable(
		column{title: "ANCHOR", width: 24},
		column{title: "CLASS", width: 8},
		column{title: "TYPE", width: 40},
		column{title: "STRIPPED", width: 8},
	)
	for _, o := range res.Objects {
		stripped := ""
		if o.Stripped {
			stripped = "yes"
		}
		t.row(o.AnchorID, o.ClassID, o.TypeName, stripped)
	}
	return t.write(w)
}

func formatDate(rev models.Revision) string {
	if rev.Date.IsZero() {
		return ""
	}
	return rev.Date.Format(dateLayout)
}
