// Package testutil provides shared test helpers: asset fixtures, an
// in-memory revision history, and throwaway git repositories.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/prophist/internal/apperr"
	"github.com/starford/prophist/internal/models"
)

// UnityHeader is the directive block every Unity text asset starts with.
const UnityHeader = "%YAML 1.1\n%TAG !u! tag:unity3d.com,2011:\n"

// Object renders one anchored sub-document. Body lines are indented under
// the type name.
func Object(classID int, anchor, typeName string, body ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- !u!%d &%s\n%s:\n", classID, anchor, typeName)
	for _, l := range body {
		b.WriteString("  " + l + "\n")
	}
	return b.String()
}

// Asset joins objects under the Unity header.
func Asset(objects ...string) string {
	return UnityHeader + strings.Join(objects, "")
}

// PlayerPrefab returns a small prefab whose Transform (anchor 400) has
// m_LocalPosition {x, y, 0} and whose MonoBehaviour (anchor 11400000) has a
// speed field and a three element items list.
func PlayerPrefab(x, y, speed string) string {
	return Asset(
		Object(1, "100", "GameObject",
			"m_Name: Player",
			"m_Component:",
			"- component: {fileID: 400}",
			"- component: {fileID: 11400000}",
		),
		Object(4, "400", "Transform",
			"m_LocalPosition: {x: "+x+", y: "+y+", z: 0}",
		),
		Object(114, "11400000", "MonoBehaviour",
			"m_Enabled: 1",
			"speed: "+speed,
			"items:",
			"- 10",
			"- 20",
			"- 30",
		),
	)
}

// FakeHistory is an in-memory vcs.History. Revisions are kept newest first.
// Ids are not validated, so short readable ids work in tests.
type FakeHistory struct {
	mu        sync.Mutex
	revisions map[string][]models.Revision
	contents  map[string]string
	calls     map[string]int
	refs      map[string]string

	// RevisionsErr, when set, is returned by Revisions.
	RevisionsErr error
	// ContentErr maps revision ids to errors returned by Content.
	ContentErr map[string]error
}

// NewFakeHistory returns an empty FakeHistory.
func NewFakeHistory() *FakeHistory {
	return &FakeHistory{
		revisions:  make(map[string][]models.Revision),
		contents:   make(map[string]string),
		calls:      make(map[string]int),
		refs:       make(map[string]string),
		ContentErr: make(map[string]error),
	}
}

// Commit records a new newest revision of path holding content.
func (f *FakeHistory) Commit(id, author, summary, path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rev := models.Revision{
		ID:      id,
		Author:  author,
		Summary: summary,
		Path:    path,
		Date:    time.Date(2024, 1, 1, 0, 0, len(f.revisions[path]), 0, time.UTC),
	}
	f.revisions[path] = append([]models.Revision{rev}, f.revisions[path]...)
	f.contents[id+":"+path] = content
}

// Revisions implements vcs.History.
func (f *FakeHistory) Revisions(_ context.Context, path string) ([]models.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RevisionsErr != nil {
		return nil, f.RevisionsErr
	}
	out := make([]models.Revision, len(f.revisions[path]))
	copy(out, f.revisions[path])
	return out, nil
}

// SetRef points a symbolic name such as HEAD or a branch at id.
func (f *FakeHistory) SetRef(name, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[name] = id
}

// Content implements vcs.History. Revisions may be ids or names set with
// SetRef.
func (f *FakeHistory) Content(_ context.Context, revision, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[revision+":"+path]++
	if err := f.ContentErr[revision]; err != nil {
		return "", err
	}
	id := revision
	if target, ok := f.refs[revision]; ok {
		id = target
	}
	key := id + ":" + path
	c, ok := f.contents[key]
	if !ok {
		return "", fmt.Errorf("fake: %s does not exist", key)
	}
	return c, nil
}

// Resolve implements vcs.History. It knows committed ids and names set
// with SetRef; anything else wraps apperr.ErrNotFound.
func (f *FakeHistory) Resolve(_ context.Context, revision string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.refs[revision]; ok {
		return id, nil
	}
	for _, revs := range f.revisions {
		for _, r := range revs {
			if r.ID == revision {
				return r.ID, nil
			}
		}
	}
	return "", fmt.Errorf("fake: %w: unknown revision %q", apperr.ErrNotFound, revision)
}

// ContentCalls returns how many times Content was called for revision:path.
func (f *FakeHistory) ContentCalls(revision, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[revision+":"+path]
}

// GitRepo is a temporary git work tree for integration tests.
type GitRepo struct {
	t   *testing.T
	Dir string
}

// NewGitRepo initialises a repository in a temp dir. The test is skipped
// when git is not installed.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	r := &GitRepo{t: t, Dir: t.TempDir()}
	r.Git("init", "-q")
	r.Git("config", "user.name", "Test Author")
	r.Git("config", "user.email", "test@example.com")
	r.Git("config", "commit.gpgsign", "false")
	return r
}

// Git runs a git command in the repository and returns trimmed stdout.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// Commit writes content to path and commits it, returning the commit hash.
func (r *GitRepo) Commit(path, content, message string) string {
	r.t.Helper()
	abs := filepath.Join(r.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
	r.Git("add", path)
	r.Git("commit", "-q", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// Move renames a tracked file and commits the rename.
func (r *GitRepo) Move(from, to, message string) string {
	r.t.Helper()
	if err := os.MkdirAll(filepath.Dir(filepath.Join(r.Dir, filepath.FromSlash(to))), 0o755); err != nil {
		r.t.Fatal(err)
	}
	r.Git("mv", from, to)
	r.Git("commit", "-q", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// TempDBPath returns a temp file path for an SQLite database that is
// removed when the test ends.
func TempDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "prophist-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})
	return f.Name()
}
