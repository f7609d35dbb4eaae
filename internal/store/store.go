package store

import (
	"context"
	"time"
)

// Entry is one formatted public broadcast kept in history.
type Entry struct {
	ID        int64
	Text      string
	CreatedAt time.Time
}

// HistoryStore keeps the public message history.
// Callers serialize Append against other writers; implementations only need to be
// safe for the concurrent reads the HTTP API performs.
type HistoryStore interface {
	// Append adds an already formatted message to the end of history.
	Append(ctx context.Context, text string) error

	// Recent returns up to limit of the newest entries, oldest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Len reports how many entries are currently retained.
	Len(ctx context.Context) (int, error)

	// Close releases underlying resources.
	Close() error
}
