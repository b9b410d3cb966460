// Package timeline reduces a revision history to the revisions at which a
// single property changed.
package timeline

import (
	"errors"
	"log/slog"

	"github.com/starford/prophist/internal/models"
	"github.com/starford/prophist/internal/propath"
	"github.com/starford/prophist/internal/yamldoc"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-revision diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// Builder evaluates a query against revisions. It holds no state between
// calls and is safe for concurrent use.
type Builder struct {
	logger *slog.Logger
}

// New returns a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build evaluates q with a default Builder.
func Build(q models.PropertyQuery, revs []models.Revision) []models.TimelineEntry {
	return New().Build(q, revs)
}

// Build evaluates q at every revision, in the given order, and keeps the
// first entry plus every entry whose value differs from the last kept one.
// All absent outcomes compare equal to each other; a parse failure never
// compares equal to anything.
func (b *Builder) Build(q models.PropertyQuery, revs []models.Revision) []models.TimelineEntry {
	out := make([]models.TimelineEntry, 0, len(revs))
	for _, rev := range revs {
		e := b.Evaluate(q, rev)
		if len(out) > 0 && same(out[len(out)-1], e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Evaluate reads q at a single revision, without compression.
func (b *Builder) Evaluate(q models.PropertyQuery, rev models.Revision) models.TimelineEntry {
	e := models.TimelineEntry{Revision: rev}

	doc, err := yamldoc.Parse(rev.Content)
	switch {
	case errors.Is(err, yamldoc.ErrEmptyDocument):
		e.Outcome = models.OutcomeContentAbsent
		return b.trace(e)
	case err != nil:
		e.Outcome = models.OutcomeParseFailure
		e.Detail = err.Error()
		return b.trace(e)
	}

	fields, err := yamldoc.Locate(doc, q.AnchorID)
	switch {
	case errors.Is(err, yamldoc.ErrUnexpectedShape):
		e.Outcome = models.OutcomeUnexpectedShape
		e.Detail = err.Error()
		return b.trace(e)
	case err != nil:
		e.Outcome = models.OutcomeAnchorNotFound
		e.Detail = err.Error()
		return b.trace(e)
	}

	node, err := propath.Traverse(fields, q.Path)
	if err != nil {
		e.Outcome = models.OutcomePathNotFound
		e.Detail = err.Error()
		return b.trace(e)
	}

	v := yamldoc.Format(node)
	e.Value = &v
	e.Outcome = models.OutcomeValue
	return e
}

func (b *Builder) trace(e models.TimelineEntry) models.TimelineEntry {
	if b.logger != nil {
		b.logger.Debug("timeline: value unavailable",
			slog.String("revision", e.Revision.ShortID()),
			slog.String("outcome", e.Outcome.String()),
			slog.String("detail", e.Detail))
	}
	return e
}

func same(kept, next models.TimelineEntry) bool {
	if kept.Outcome.IsError() || next.Outcome.IsError() {
		return false
	}
	if kept.Value == nil || next.Value == nil {
		return kept.Value == nil && next.Value == nil
	}
	return *kept.Value == *next.Value
}
