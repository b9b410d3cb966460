// Package historyservice answers property history queries by fetching
// revisions from a vcs.History and running them through the timeline
// builder.
package historyservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/starford/prophist/internal/apperr"
	"github.com/starford/prophist/internal/models"
	"github.com/starford/prophist/internal/propath"
	"github.com/starford/prophist/internal/timeline"
	"github.com/starford/prophist/internal/vcs"
	"github.com/starford/prophist/internal/yamldoc"
)

const defaultConcurrency = 8

// Request selects a property of an object inside an asset.
type Request struct {
	Asset    string `json:"asset"`
	AnchorID string `json:"anchor_id"`
	Path     string `json:"path"`
	// Limit caps how many revisions are scanned, newest first (0 = all).
	Limit int `json:"limit,omitempty"`
}

// Validate checks required fields and path syntax.
func (r Request) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Asset, validation.Required),
		validation.Field(&r.AnchorID, validation.Required),
		validation.Field(&r.Path, validation.Required, validation.By(validPath)),
		validation.Field(&r.Limit, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}
	return nil
}

func validPath(v any) error {
	s, _ := v.(string)
	_, err := propath.Parse(s)
	return err
}

// Result is the answer to a property history query.
type Result struct {
	Asset    string                 `json:"asset"`
	AnchorID string                 `json:"anchor_id"`
	Path     string                 `json:"path"`
	Scanned  int                    `json:"scanned"`
	Entries  []models.TimelineEntry `json:"entries"`
}

// ObjectsResult lists the anchored objects of an asset at one revision.
type ObjectsResult struct {
	Asset    string               `json:"asset"`
	Revision models.Revision      `json:"revision"`
	Objects  []yamldoc.ObjectInfo `json:"objects"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithConcurrency bounds parallel content fetches.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBuilder replaces the timeline builder.
func WithBuilder(b *timeline.Builder) Option {
	return func(s *Service) {
		s.builder = b
	}
}

// Service coordinates revision retrieval and timeline construction.
type Service struct {
	history     vcs.History
	builder     *timeline.Builder
	logger      *slog.Logger
	concurrency int
}

// NewService creates a history service over history.
func NewService(history vcs.History, opts ...Option) *Service {
	s := &Service{history: history, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.builder == nil {
		s.builder = timeline.New(timeline.WithLogger(s.logger))
	}
	return s
}

// PropertyHistory returns the compressed timeline of req.Path on object
// req.AnchorID, newest first. An asset without revisions yields an empty
// timeline.
func (s *Service) PropertyHistory(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path := propath.MustParse(req.Path)

	revs, err := s.Revisions(ctx, req.Asset, req.Limit)
	if err != nil {
		return nil, err
	}
	if err := s.fetch(ctx, req.Asset, revs); err != nil {
		return nil, err
	}

	q := models.PropertyQuery{AnchorID: req.AnchorID, Path: path}
	entries := s.builder.Build(q, revs)
	s.logger.Debug("history: built timeline",
		slog.String("asset", req.Asset),
		slog.String("anchor", req.AnchorID),
		slog.String("path", path.String()),
		slog.Int("scanned", len(revs)),
		slog.Int("kept", len(entries)))

	return &Result{
		Asset:    req.Asset,
		AnchorID: req.AnchorID,
		Path:     path.String(),
		Scanned:  len(revs),
		Entries:  entries,
	}, nil
}

// Revisions lists revision metadata for asset, newest first, truncated to
// limit when limit > 0.
func (s *Service) Revisions(ctx context.Context, asset string, limit int) ([]models.Revision, error) {
	if asset == "" {
		return nil, fmt.Errorf("%w: asset is required", apperr.ErrInvalidRequest)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be no less than 0", apperr.ErrInvalidRequest)
	}
	revs, err := s.history.Revisions(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("history: list revisions of %s: %w", asset, err)
	}
	if limit > 0 && len(revs) > limit {
		revs = revs[:limit]
	}
	if revs == nil {
		revs = []models.Revision{}
	}
	return revs, nil
}

// Objects parses asset at revision and lists its anchored objects. An
// empty revision means the newest one; any other revision is resolved to a
// commit id first.
func (s *Service) Objects(ctx context.Context, asset, revision string) (*ObjectsResult, error) {
	if asset == "" {
		return nil, fmt.Errorf("%w: asset is required", apperr.ErrInvalidRequest)
	}
	if strings.HasPrefix(revision, "-") {
		return nil, fmt.Errorf("%w: invalid revision %q", apperr.ErrInvalidRequest, revision)
	}
	rev := models.Revision{Path: asset}
	if revision != "" {
		// Content is only ever read at a resolved commit id.
		id, err := s.history.Resolve(ctx, revision)
		if err != nil {
			return nil, fmt.Errorf("history: resolve %s: %w", revision, err)
		}
		rev.ID = id
	} else {
		revs, err := s.Revisions(ctx, asset, 1)
		if err != nil {
			return nil, err
		}
		if len(revs) == 0 {
			return nil, fmt.Errorf("%w: no revisions of %s", apperr.ErrNotFound, asset)
		}
		rev = revs[0]
	}
	if rev.Path == "" {
		rev.Path = asset
	}

	content, err := s.history.Content(ctx, rev.ID, rev.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s at %s: %v", apperr.ErrNotFound, asset, rev.ShortID(), err)
	}
	doc, err := yamldoc.Parse(content)
	switch {
	case errors.Is(err, yamldoc.ErrEmptyDocument):
		return nil, fmt.Errorf("%w: %s is empty at %s", apperr.ErrNotFound, asset, rev.ShortID())
	case err != nil:
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	return &ObjectsResult{Asset: asset, Revision: rev, Objects: doc.Objects()}, nil
}

// fetch fills Content for every revision. A failed fetch leaves the
// content empty, which the timeline reports as absent.
func (s *Service) fetch(ctx context.Context, asset string, revs []models.Revision) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range revs {
		g.Go(func() error {
			path := revs[i].Path
			if path == "" {
				path = asset
			}
			content, err := s.history.Content(gctx, revs[i].ID, path)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("history: content unavailable",
					slog.String("revision", revs[i].ShortID()),
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}
			revs[i].Content = content
			return nil
		})
	}
	return g.Wait()
}
