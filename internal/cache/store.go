// Package cache persists last-known-good query payloads so screens can render
// while offline. Entries are idempotent snapshots keyed by query signature:
// last writer wins, nothing expires, and staleness is tolerated indefinitely.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

// hotEntries bounds the in-memory read-through layer. Evicting from it only
// costs a re-read from SQLite.
const hotEntries = 128

// Store is a durable string-keyed store of JSON payloads with an LRU layer in
// front of SQLite. Get failures are indistinguishable from misses and Put
// failures are logged and swallowed: the caller's critical path never depends
// on the cache succeeding.
type Store struct {
	db     *sql.DB
	hot    *lru.Cache[string, []byte]
	logger *slog.Logger
}

// Open creates (or reuses) the cache database under dataDir.
func Open(dataDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache database: %w", err)
	}

	hot, err := lru.New[string, []byte](hotEntries)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create hot cache: %w", err)
	}
	s.hot = hot

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		stored_at DATETIME NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get loads the payload stored under key into v and reports whether a usable
// value was found. A read error or corrupt payload is treated as a miss: it
// is logged and the caller degrades to "fetch live or show nothing".
func (s *Store) Get(ctx context.Context, key string, v any) bool {
	raw, ok := s.hot.Get(key)
	if !ok {
		var payload string
		err := s.db.QueryRowContext(ctx,
			`SELECT payload FROM entries WHERE key = ?`, key,
		).Scan(&payload)
		switch {
		case err == sql.ErrNoRows:
			missesTotal.Inc()
			return false
		case err != nil:
			s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
			readErrorsTotal.Inc()
			return false
		}
		raw = []byte(payload)
		s.hot.Add(key, raw)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("cache payload corrupt, treating as miss", "key", key, "error", err)
		s.hot.Remove(key)
		readErrorsTotal.Inc()
		return false
	}

	hitsTotal.Inc()
	return true
}

// Put stores v under key, overwriting any previous entry. Failures are logged
// and never surfaced; a lost write only means the next cold start misses.
func (s *Store) Put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache payload not serializable, dropping", "key", key, "error", err)
		writeErrorsTotal.Inc()
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (key, payload, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key, string(raw), time.Now().UTC(),
	)
	if err != nil {
		s.logger.Warn("cache write failed, dropping", "key", key, "error", err)
		writeErrorsTotal.Inc()
		return
	}

	s.hot.Add(key, raw)
}
