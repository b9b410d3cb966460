// Package models defines the domain types shared across prophist.
package models

import (
	"time"

	"github.com/starford/prophist/internal/propath"
)

// Revision is one historical snapshot of an asset.
type Revision struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Summary string    `json:"summary"`
	// Path is the asset path at this revision, which differs from the
	// queried path when the asset was renamed.
	Path string `json:"path,omitempty"`
	// Content is the full asset text at this revision; empty when the asset
	// did not exist.
	Content string `json:"-"`
}

// ShortID returns the first seven characters of the revision id.
func (r Revision) ShortID() string {
	if len(r.ID) <= 7 {
		return r.ID
	}
	return r.ID[:7]
}

// PropertyQuery selects one field of one anchored object.
type PropertyQuery struct {
	AnchorID string
	Path     propath.Path
}
