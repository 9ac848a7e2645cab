// Package cache stores arbiter responses in SQLite so that re-runs over the
// same data replay the same decisions.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/agentstation/utc"
	_ "modernc.org/sqlite"

	"github.com/luisKisters/bahnhofjaeger/pkg/arbiter"
	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	key        TEXT PRIMARY KEY,
	model      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Client is an arbiter.Client that answers repeated prompts from a SQLite
// file and forwards the rest to the wrapped client. Only successful
// responses are stored.
type Client struct {
	db    *sql.DB
	path  string
	model string
	inner arbiter.Client

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64 `json:"hits" yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
}

// Open opens or creates the cache at path. model is part of every key so
// that switching models never replays another model's answers.
func Open(path, model string, inner arbiter.Client) (*Client, error) {
	if inner == nil {
		return nil, &errors.ValidationError{Field: "client", Message: "cannot be nil"}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapResource("open", "response cache", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.WrapResource("configure", "response cache", path, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("initialize", "response cache", path, err)
	}

	return &Client{db: db, path: path, model: model, inner: inner}, nil
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file.
func (c *Client) Path() string {
	return c.path
}

// Stats returns the lookup counters.
func (c *Client) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Generate returns the stored response for prompt, or asks the wrapped
// client and stores its answer.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	key := Key(c.model, prompt)

	var response string
	err := c.db.QueryRowContext(ctx, "SELECT response FROM responses WHERE key = ?", key).Scan(&response)
	switch {
	case err == nil:
		c.hits.Add(1)
		return response, nil
	case !stderrors.Is(err, sql.ErrNoRows):
		return "", errors.WrapResource("read", "response cache", c.path, err)
	}

	c.misses.Add(1)
	response, err = c.inner.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO responses (key, model, response, created_at) VALUES (?, ?, ?, ?)",
		key, c.model, response, utc.Now().Time.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", errors.WrapResource("write", "response cache", c.path, err)
	}
	return response, nil
}

// Key derives the cache key of a prompt for a model.
func Key(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
