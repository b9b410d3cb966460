// Package blobcache provides an SQLite-backed cache of asset contents keyed
// by (commit id, path). Git blobs never change for a given commit, so entries
// are never invalidated; symbolic revisions are not cached.
package blobcache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/prophist/internal/checksum"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS blobs (
	revision   TEXT NOT NULL,
	path       TEXT NOT NULL,
	content    TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (revision, path)
);
`

// ErrMiss is returned by Get when no entry exists.
var ErrMiss = errors.New("blobcache: miss")

// Store is the cache contract used by Cached.
type Store interface {
	Get(revision, path string) (string, error)
	Put(revision, path, content string) error
}

// DB wraps a sql.DB holding the blobs table.
type DB struct {
	conn *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("blobcache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("blobcache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("blobcache: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the cached content. A row whose checksum no longer matches is
// deleted and reported as a miss.
func (db *DB) Get(revision, path string) (string, error) {
	var content, sum string
	err := db.conn.QueryRow(`SELECT content, checksum FROM blobs WHERE revision = ? AND path = ?`,
		revision, path).Scan(&content, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("blobcache: get: %w", err)
	}
	if verr := checksum.Verify(content, sum); verr != nil {
		_, _ = db.conn.Exec(`DELETE FROM blobs WHERE revision = ? AND path = ?`, revision, path)
		return "", fmt.Errorf("%w: %v", ErrMiss, verr)
	}
	return content, nil
}

// Put stores content, replacing any previous row.
func (db *DB) Put(revision, path, content string) error {
	_, err := db.conn.Exec(`
		INSERT INTO blobs (revision, path, content, checksum, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(revision, path) DO UPDATE SET
			content    = excluded.content,
			checksum   = excluded.checksum,
			fetched_at = excluded.fetched_at
	`, revision, path, content, checksum.Sum(content), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("blobcache: put: %w", err)
	}
	return nil
}

// Count returns the number of cached blobs.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM blobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("blobcache: count: %w", err)
	}
	return n, nil
}
