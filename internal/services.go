package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/prophist/internal/blobcache"
	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/vcs"
)

// NewLogger builds the JSON logger used by every entry point.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Services is the wired history stack for one repository.
type Services struct {
	Git     *vcs.Git
	History *historyservice.Service

	cache *blobcache.DB
}

// OpenServices resolves the repository, opens the content cache when
// enabled and builds the history service.
func OpenServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	git, err := vcs.NewGit(ctx, cfg.Repository.Path,
		vcs.WithBinary(cfg.Repository.GitBinary),
		vcs.WithFollow(cfg.Repository.FollowRenames),
		vcs.WithMaxRevisions(cfg.Repository.MaxRevisions),
	)
	if err != nil {
		return nil, err
	}

	s := &Services{Git: git}
	var history vcs.History = git
	if cfg.Cache.Enabled {
		db, err := blobcache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		s.cache = db
		history = blobcache.Wrap(git, db, logger)
	}

	s.History = historyservice.NewService(history,
		historyservice.WithLogger(logger),
		historyservice.WithConcurrency(cfg.Repository.FetchConcurrency),
	)

	logger.Debug("repository opened",
		slog.String("root", git.Root()),
		slog.String("git_dir", git.GitDir()),
		slog.Bool("cache", cfg.Cache.Enabled))
	return s, nil
}

// Close releases the content cache.
func (s *Services) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
