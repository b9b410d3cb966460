// Package vcs supplies asset revisions and their contents from version
// control.
package vcs

import (
	"context"

	"github.com/starford/prophist/internal/models"
)

// History is the revision source consumed by the history service.
type History interface {
	// Revisions lists the revisions that touched path, newest first.
	// Content is left empty; Path holds the asset path at that revision.
	Revisions(ctx context.Context, path string) ([]models.Revision, error)
	// Content returns the full text of path as of revision.
	Content(ctx context.Context, revision, path string) (string, error)
	// Resolve turns a user-supplied revision (hash, abbreviation, branch,
	// tag or HEAD) into a full commit id.
	Resolve(ctx context.Context, revision string) (string, error)
}
