package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/linechat/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// HistoryStore implements store.HistoryStore for SQLite.
type HistoryStore struct {
	db       *sql.DB
	capacity int
}

// New opens dsn, applies the schema and keeps at most capacity rows (0 keeps everything).
// ":memory:" gives a store that lives as long as the process.
func New(dsn string, capacity int) (*HistoryStore, error) {
	return NewWithSetup(dsn, capacity, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function instead of the
// built-in schema.
func NewWithSetup(dsn string, capacity int, setup func(*sql.DB) error) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &HistoryStore{db: db, capacity: capacity}, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Append inserts a formatted message and prunes rows beyond capacity.
func (s *HistoryStore) Append(ctx context.Context, text string) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO history (text) VALUES (?)`, text)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if s.capacity <= 0 {
		return nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id <= ?`, id-int64(s.capacity)); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// Recent returns up to limit newest entries, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]store.Entry, error) {
	if limit <= 0 {
		limit = -1 // no LIMIT in SQLite
	}
	query := `
		SELECT id, text, created_at FROM (
			SELECT id, text, created_at
			FROM history
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []store.Entry
	for rows.Next() {
		var e store.Entry
		if err := rows.Scan(&e.ID, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Len reports how many rows are retained.
func (s *HistoryStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

var _ store.HistoryStore = (*HistoryStore)(nil)
