// Package history provides SQLite-based persistence for smoke-run results.
// If opening the DB or executing queries fails, the store falls back to in-memory storage.
package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/comigor/mineai-smoke/internal/logger"
)

// Store keeps run results in SQLite with an in-memory copy as fallback.
type Store struct {
	mu      sync.Mutex
	entries []Entry // in-memory fallback

	db *sql.DB
}

// Open opens the SQLite database at path and creates the results table if it doesn't exist.
// A failure is logged and leaves the store memory-only.
func Open(ctx context.Context, path string) *Store {
	s := &Store{}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	if _, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		message TEXT,
		created_at DATETIME
	);`); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		_ = db.Close()
		return s
	}
	logger.L.Info("sqlite history DB initialized", "path", path)
	s.db = db
	return s
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Save persists a result to the SQLite database when available and always keeps
// an in-memory copy as fallback.
func (s *Store) Save(ctx context.Context, e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `INSERT INTO results (run_id, seq, name, status, message, created_at) VALUES (?,?,?,?,?,?);`,
			e.RunID, e.Seq, e.Name, e.Status, e.Message, e.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store result in sqlite; falling back to memory", "error", err)
		}
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// List returns all results of a run in execution order.
func (s *Store) List(ctx context.Context, runID string) []Entry {
	var out []Entry
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, seq, name, status, message, created_at FROM results WHERE run_id = ? ORDER BY seq ASC, id ASC;`, runID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var e Entry
				if err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &e.Name, &e.Status, &e.Message, &e.CreatedAt); err == nil {
					out = append(out, e)
				}
			}
			return out
		}
		logger.L.Warn("sqlite query failed; reading in-memory history", "error", err)
	}
	s.mu.Lock()
	for _, e := range s.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	return out
}
