package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/starford/prophist/internal/apperr"
	"github.com/starford/prophist/internal/models"
)

const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
	logFormat = "--pretty=format:" + recordSep + "%H" + fieldSep + "%an" + fieldSep + "%aI" + fieldSep + "%s"
)

// GitOption configures a Git history.
type GitOption func(*Git)

// WithBinary sets the git executable (default "git").
func WithBinary(bin string) GitOption {
	return func(g *Git) {
		if bin != "" {
			g.binary = bin
		}
	}
}

// WithFollow makes Revisions follow the asset across renames.
func WithFollow(follow bool) GitOption {
	return func(g *Git) {
		g.follow = follow
	}
}

// WithMaxRevisions caps the number of revisions listed (0 = unlimited).
func WithMaxRevisions(n int) GitOption {
	return func(g *Git) {
		g.maxCount = n
	}
}

// Git implements History by running the git CLI inside a work tree.
type Git struct {
	binary   string
	follow   bool
	maxCount int

	root   string // absolute work tree root
	gitDir string // absolute .git directory
}

var _ History = (*Git)(nil)

// NewGit resolves the repository containing dir. It returns
// apperr.ErrGitNotFound when the executable is missing and
// apperr.ErrNotRepository when dir is not inside a work tree.
func NewGit(ctx context.Context, dir string, opts ...GitOption) (*Git, error) {
	g := &Git{binary: "git"}
	for _, opt := range opts {
		opt(g)
	}

	if _, err := exec.LookPath(g.binary); err != nil {
		return nil, fmt.Errorf("vcs: %w: %s", apperr.ErrGitNotFound, g.binary)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("vcs: resolve dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, g.binary, "rev-parse", "--show-toplevel", "--absolute-git-dir")
	cmd.Dir = abs
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("vcs: %w: %s", apperr.ErrNotRepository, abs)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("vcs: unexpected rev-parse output %q", out)
	}
	g.root = filepath.Clean(lines[0])
	g.gitDir = filepath.Clean(lines[1])
	return g, nil
}

// Root returns the absolute work tree root.
func (g *Git) Root() string { return g.root }

// GitDir returns the absolute git directory.
func (g *Git) GitDir() string { return g.gitDir }

// RelPath resolves path (absolute, or relative to the work tree root) to a
// slash-separated path inside the work tree. Paths escaping the root are
// rejected with apperr.ErrInvalidRequest.
func (g *Git) RelPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("vcs: %w: empty path", apperr.ErrInvalidRequest)
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, filepath.Clean(path))
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return "", fmt.Errorf("vcs: resolve path: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("vcs: %w: path escapes repository root: %s", apperr.ErrInvalidRequest, path)
	}
	return filepath.ToSlash(rel), nil
}

// Revisions runs git log for path, newest first.
func (g *Git) Revisions(ctx context.Context, path string) ([]models.Revision, error) {
	rel, err := g.RelPath(path)
	if err != nil {
		return nil, err
	}
	args := []string{"log", logFormat, "--name-only"}
	if g.follow {
		args = append(args, "--follow")
	}
	if g.maxCount > 0 {
		args = append(args, "--max-count="+strconv.Itoa(g.maxCount))
	}
	args = append(args, "--", rel)

	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("vcs: log %s: %w", rel, err)
	}
	return parseLog(out, rel), nil
}

// Content runs git show revision:path. Revisions that git would read as
// options are rejected.
func (g *Git) Content(ctx context.Context, revision, path string) (string, error) {
	if err := checkRevision(revision); err != nil {
		return "", err
	}
	rel, err := g.RelPath(path)
	if err != nil {
		return "", err
	}
	out, err := g.run(ctx, "show", revision+":"+rel)
	if err != nil {
		return "", fmt.Errorf("vcs: show %s:%s: %w", revision, rel, err)
	}
	return string(out), nil
}

// Resolve runs git rev-parse to map revision to the commit it names.
// Unknown revisions wrap apperr.ErrNotFound.
func (g *Git) Resolve(ctx context.Context, revision string) (string, error) {
	if err := checkRevision(revision); err != nil {
		return "", err
	}
	out, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "--end-of-options", revision+"^{commit}")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("vcs: %w: unknown revision %q", apperr.ErrNotFound, revision)
	}
	id := strings.TrimSpace(string(out))
	if !IsObjectID(id) {
		return "", fmt.Errorf("vcs: unexpected rev-parse output %q", out)
	}
	return id, nil
}

func checkRevision(revision string) error {
	switch {
	case revision == "":
		return fmt.Errorf("vcs: %w: empty revision", apperr.ErrInvalidRequest)
	case strings.HasPrefix(revision, "-"):
		return fmt.Errorf("vcs: %w: invalid revision %q", apperr.ErrInvalidRequest, revision)
	case strings.ContainsAny(revision, "\x00\n"):
		return fmt.Errorf("vcs: %w: invalid revision %q", apperr.ErrInvalidRequest, revision)
	}
	return nil
}

// IsObjectID reports whether s is a full SHA-1 or SHA-256 object id in
// lower-case hex.
func IsObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Dir = g.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}
	return out, nil
}

// parseLog reads records produced by logFormat plus --name-only. Records
// without a file name (merges) fall back to the queried path.
func parseLog(out []byte, fallback string) []models.Revision {
	var revs []models.Revision
	for _, rec := range strings.Split(string(out), recordSep) {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		lines := strings.Split(strings.TrimRight(rec, "\n"), "\n")
		fields := strings.SplitN(lines[0], fieldSep, 4)
		if len(fields) < 4 {
			continue
		}
		rev := models.Revision{
			ID:      fields[0],
			Author:  fields[1],
			Summary: fields[3],
			Path:    fallback,
		}
		if t, err := time.Parse(time.RFC3339, fields[2]); err == nil {
			rev.Date = t
		}
		for _, l := range lines[1:] {
			if l = strings.TrimSpace(l); l != "" {
				rev.Path = l
				break
			}
		}
		revs = append(revs, rev)
	}
	return revs
}
