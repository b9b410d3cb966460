// Package watch reports git ref changes (commits, checkouts, fetches) by
// watching a repository's git directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Callback receives one settled ref change. kind is "created", "updated"
// or "deleted"; ref is slash separated and relative to the git directory,
// e.g. "HEAD" or "refs/heads/main".
type Callback func(kind, ref string)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the ref set must stay quiet before changes
// are reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// Watcher follows HEAD, packed-refs and everything under refs/.
type Watcher struct {
	gitDir   string
	debounce time.Duration
	logger   *slog.Logger
}

// New returns a watcher for gitDir.
func New(gitDir string, opts ...Option) *Watcher {
	w := &Watcher{gitDir: gitDir, debounce: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// rootRefs are the files directly inside the git directory worth
// reporting.
var rootRefs = map[string]bool{"HEAD": true, "packed-refs": true}

// Run watches until ctx is cancelled, calling cb after every quiet period
// that follows a change.
func (w *Watcher) Run(ctx context.Context, cb Callback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.gitDir); err != nil {
		return err
	}
	refsDir := filepath.Join(w.gitDir, "refs")
	if err := addDirsRecursive(fw, refsDir); err != nil && !os.IsNotExist(err) {
		return err
	}

	known := w.scan()
	pending := make(map[string]struct{})
	w.logger.Info("watch: started", slog.String("git_dir", w.gitDir), slog.Int("refs", len(known)))

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
			return
		}
		timer.Reset(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watch: stopped")
			return nil

		case <-timerC:
			w.flush(known, pending, cb)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watch: add dir failed", slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// refs may have landed before the watch was added
					for ref := range w.scanDir(ev.Name) {
						pending[ref] = struct{}{}
					}
					schedule()
					continue
				}
			}
			ref, ok := w.refName(ev.Name)
			if !ok {
				continue
			}
			pending[ref] = struct{}{}
			schedule()

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch: error", slog.String("error", werr.Error()))
		}
	}
}

// flush classifies pending refs by comparing the file system against the
// known set.
func (w *Watcher) flush(known, pending map[string]struct{}, cb Callback) {
	for ref := range pending {
		delete(pending, ref)
		_, wasKnown := known[ref]
		_, err := os.Stat(filepath.Join(w.gitDir, filepath.FromSlash(ref)))
		exists := err == nil

		var kind string
		switch {
		case exists && wasKnown:
			kind = "updated"
		case exists:
			kind = "created"
			known[ref] = struct{}{}
		case wasKnown:
			kind = "deleted"
			delete(known, ref)
		default:
			continue
		}
		w.logger.Debug("watch: ref changed", slog.String("ref", ref), slog.String("op", kind))
		if cb != nil {
			cb(kind, ref)
		}
	}
}

// refName maps an event path to a ref name, rejecting lock files and
// files outside refs/ other than HEAD and packed-refs.
func (w *Watcher) refName(path string) (string, bool) {
	if strings.HasSuffix(path, ".lock") {
		return "", false
	}
	rel, err := filepath.Rel(w.gitDir, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rootRefs[rel] || strings.HasPrefix(rel, "refs/") {
		return rel, true
	}
	return "", false
}

func (w *Watcher) scan() map[string]struct{} {
	known := w.scanDir(filepath.Join(w.gitDir, "refs"))
	for name := range rootRefs {
		if _, err := os.Stat(filepath.Join(w.gitDir, name)); err == nil {
			known[name] = struct{}{}
		}
	}
	return known
}

func (w *Watcher) scanDir(dir string) map[string]struct{} {
	out := make(map[string]struct{})
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ref, ok := w.refName(path); ok {
			out[ref] = struct{}{}
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
