package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quickorder/internal/cache"
	"quickorder/internal/domain"
	"quickorder/internal/metrics"
)

// History returns entries most recent first.
func (s *Store) History() []domain.OrderHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.OrderHistoryEntry, len(s.history))
	for i, e := range s.history {
		out[i] = copyEntry(e)
	}
	return out
}

// copyEntry gives e its own Items array.
func copyEntry(e domain.OrderHistoryEntry) domain.OrderHistoryEntry {
	items := make([]domain.HistoryItem, len(e.Items))
	copy(items, e.Items)
	e.Items = items
	return e
}

// AddHistoryEntry assigns a fresh id, puts the entry first and writes the
// whole list to the cache before returning. The entry is kept in memory even
// when the write fails.
func (s *Store) AddHistoryEntry(ctx context.Context, entry domain.OrderHistoryEntry) (domain.OrderHistoryEntry, error) {
	entry = copyEntry(entry)
	entry.ID = newID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]domain.OrderHistoryEntry{entry}, s.history...)
	return copyEntry(entry), s.persistHistory(ctx)
}

func (s *Store) DeleteHistoryEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			return s.persistHistory(ctx)
		}
	}
	return ErrEntryNotFound
}

func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []domain.OrderHistoryEntry{}
	return s.persistHistory(ctx)
}

// persistHistory must be called with mu held.
func (s *Store) persistHistory(ctx context.Context) error {
	data, err := json.Marshal(s.history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.cache.Set(ctx, cache.HistoryKey, data); err != nil {
		s.log.WithError(err).Error("failed to persist history")
		metrics.RecordCacheWriteFailure("history")
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s *Store) readHistory(ctx context.Context) []domain.OrderHistoryEntry {
	data, err := s.cache.Get(ctx, cache.HistoryKey)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.log.WithError(err).Warn("cannot read history")
		}
		return []domain.OrderHistoryEntry{}
	}

	var entries []domain.OrderHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.WithError(err).Warn("corrupt history in cache, starting empty")
		return []domain.OrderHistoryEntry{}
	}
	if entries == nil {
		entries = []domain.OrderHistoryEntry{}
	}
	return entries
}
