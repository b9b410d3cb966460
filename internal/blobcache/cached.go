package blobcache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/prophist/internal/models"
	"github.com/starford/prophist/internal/vcs"
)

// Cached is a vcs.History that serves Content from a Store before falling
// back to the wrapped history. Revisions always go to the source since
// branches move.
type Cached struct {
	src    vcs.History
	store  Store
	logger *slog.Logger
}

var _ vcs.History = (*Cached)(nil)

// Wrap returns src with a read-through content cache.
func Wrap(src vcs.History, store Store, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{src: src, store: store, logger: logger}
}

// Revisions delegates to the source history.
func (c *Cached) Revisions(ctx context.Context, path string) ([]models.Revision, error) {
	return c.src.Revisions(ctx, path)
}

// Resolve delegates to the source history.
func (c *Cached) Resolve(ctx context.Context, revision string) (string, error) {
	return c.src.Resolve(ctx, revision)
}

// Content returns cached content when present. Only full commit ids are
// cached; names such as HEAD or a branch move and always go to the source.
// Source errors are not cached.
func (c *Cached) Content(ctx context.Context, revision, path string) (string, error) {
	if !vcs.IsObjectID(revision) {
		return c.src.Content(ctx, revision, path)
	}
	content, err := c.store.Get(revision, path)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.logger.Warn("blobcache: get failed", slog.String("revision", revision),
			slog.String("path", path), slog.String("error", err.Error()))
	}

	content, err = c.src.Content(ctx, revision, path)
	if err != nil {
		return "", err
	}
	if perr := c.store.Put(revision, path, content); perr != nil {
		c.logger.Warn("blobcache: put failed", slog.String("revision", revision),
			slog.String("path", path), slog.String("error", perr.Error()))
	}
	return content, nil
}
