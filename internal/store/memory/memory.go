package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/linechat/internal/store"
)

// MinCapacity is the smallest ring the store will keep.
const MinCapacity = 20

// HistoryStore is a bounded in-memory ring of formatted messages.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []store.Entry
	start   int
	size    int
	nextID  int64
}

// New creates a ring retaining the newest capacity entries.
func New(capacity int) *HistoryStore {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &HistoryStore{entries: make([]store.Entry, capacity)}
}

// Append adds text at the tail, evicting the oldest entry when full.
func (s *HistoryStore) Append(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry := store.Entry{ID: s.nextID, Text: text, CreatedAt: time.Now()}

	capacity := len(s.entries)
	if s.size < capacity {
		s.entries[(s.start+s.size)%capacity] = entry
		s.size++
		return nil
	}
	s.entries[s.start] = entry
	s.start = (s.start + 1) % capacity
	return nil
}

// Recent returns up to limit newest entries, oldest first.
func (s *HistoryStore) Recent(_ context.Context, limit int) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > s.size {
		limit = s.size
	}
	out := make([]store.Entry, 0, limit)
	capacity := len(s.entries)
	for i := s.size - limit; i < s.size; i++ {
		out = append(out, s.entries[(s.start+i)%capacity])
	}
	return out, nil
}

// Len reports the number of retained entries.
func (s *HistoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size, nil
}

// Close is a no-op.
func (s *HistoryStore) Close() error {
	return nil
}
