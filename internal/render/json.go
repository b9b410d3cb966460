package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/models"
)

// RevisionDTO is the wire form of a revision.
type RevisionDTO struct {
	ID      string    `json:"id"`
	ShortID string    `json:"short_id"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Summary string    `json:"summary"`
	Path    string    `json:"path,omitempty"`
}

// NewRevision converts a revision for output.
func NewRevision(r models.Revision) RevisionDTO {
	return RevisionDTO{
		ID:      r.ID,
		ShortID: r.ShortID(),
		Author:  r.Author,
		Date:    r.Date,
		Summary: r.Summary,
		Path:    r.Path,
	}
}

// NewRevisions converts a revision list, never returning nil.
func NewRevisions(revs []models.Revision) []RevisionDTO {
	out := make([]RevisionDTO, 0, len(revs))
	for _, r := range revs {
		out = append(out, NewRevision(r))
	}
	return out
}

// EntryDTO is the wire form of a timeline entry. Value is null when the
// property was absent or unreadable.
type EntryDTO struct {
	Revision RevisionDTO    `json:"revision"`
	Value    *string        `json:"value"`
	Display  string         `json:"display"`
	Outcome  models.Outcome `json:"outcome"`
	Detail   string         `json:"detail,omitempty"`
}

// ReportDTO is the wire form of a property history result.
type ReportDTO struct {
	Asset    string     `json:"asset"`
	AnchorID string     `json:"anchor_id"`
	Path     string     `json:"path"`
	Scanned  int        `json:"scanned"`
	Entries  []EntryDTO `json:"entries"`
	Message  string     `json:"message,omitempty"`
}

// NewReport converts a history result for output.
func NewReport(res *historyservice.Result) ReportDTO {
	rep := ReportDTO{
		Asset:    res.Asset,
		AnchorID: res.AnchorID,
		Path:     res.Path,
		Scanned:  res.Scanned,
		Entries:  make([]EntryDTO, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		rep.Entries = append(rep.Entries, EntryDTO{
			Revision: NewRevision(e.Revision),
			Value:    e.Value,
			Display:  e.Display(),
			Outcome:  e.Outcome,
			Detail:   e.Detail,
		})
	}
	if len(rep.Entries) == 0 {
		rep.Message = NoHistoryText
	}
	return rep
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
