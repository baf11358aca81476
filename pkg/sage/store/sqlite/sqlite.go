// Package sqlite implements the transcript store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/sage/pkg/sage/store"
)

// savedAtLayout is fixed-width (nine fraction digits, always UTC) so
// the lexical ORDER BY on saved_at sorts chronologically.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite transcript database with WAL mode enabled,
// creating the schema if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS transcripts (
	id TEXT PRIMARY KEY,
	target TEXT,
	outcome TEXT NOT NULL,
	result_category TEXT,
	result_value TEXT,
	saved_at TEXT NOT NULL,
	exchanges TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transcripts_saved_at ON transcripts(saved_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveTranscript inserts or replaces a transcript, keyed by session id.
func (s *sqliteStore) SaveTranscript(ctx context.Context, t store.Transcript) error {
	exchanges, err := json.Marshal(t.Exchanges)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO transcripts (id, target, outcome, result_category, result_value, saved_at, exchanges)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	target=excluded.target,
	outcome=excluded.outcome,
	result_category=excluded.result_category,
	result_value=excluded.result_value,
	saved_at=excluded.saved_at,
	exchanges=excluded.exchanges;
`

	_, err = s.db.ExecContext(
		ctx,
		stmt,
		t.ID,
		t.Target,
		t.Outcome,
		t.ResultCategory,
		t.ResultValue,
		t.SavedAt.UTC().Format(savedAtLayout),
		string(exchanges),
	)
	return err
}

// GetTranscript fetches a transcript by session id.
func (s *sqliteStore) GetTranscript(ctx context.Context, id string) (store.Transcript, bool, error) {
	const stmt = `
SELECT id, target, outcome, result_category, result_value, saved_at, exchanges
FROM transcripts WHERE id = ?;
`

	var t store.Transcript
	var savedAt, exchanges string
	err := s.db.QueryRowContext(ctx, stmt, id).Scan(
		&t.ID, &t.Target, &t.Outcome, &t.ResultCategory, &t.ResultValue, &savedAt, &exchanges)
	if err == sql.ErrNoRows {
		return store.Transcript{}, false, nil
	}
	if err != nil {
		return store.Transcript{}, false, err
	}

	if err := decodeRow(&t, savedAt, exchanges); err != nil {
		return store.Transcript{}, false, err
	}
	return t, true, nil
}

// ListTranscripts returns up to limit transcripts, most recent first.
func (s *sqliteStore) ListTranscripts(ctx context.Context, limit int) ([]store.Transcript, error) {
	if limit <= 0 {
		limit = 50
	}

	const stmt = `
SELECT id, target, outcome, result_category, result_value, saved_at, exchanges
FROM transcripts ORDER BY saved_at DESC LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Transcript
	for rows.Next() {
		var t store.Transcript
		var savedAt, exchanges string
		if err := rows.Scan(&t.ID, &t.Target, &t.Outcome, &t.ResultCategory, &t.ResultValue, &savedAt, &exchanges); err != nil {
			return nil, err
		}
		if err := decodeRow(&t, savedAt, exchanges); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func decodeRow(t *store.Transcript, savedAt, exchanges string) error {
	ts, err := time.Parse(savedAtLayout, savedAt)
	if err != nil {
		return err
	}
	t.SavedAt = ts
	return json.Unmarshal([]byte(exchanges), &t.Exchanges)
}
