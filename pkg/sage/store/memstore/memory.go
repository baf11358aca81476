// Package memstore is an in-memory store.Store for tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/sage/pkg/sage/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu          sync.RWMutex
	transcripts map[string]store.Transcript
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		transcripts: make(map[string]store.Transcript),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveTranscript inserts or replaces a transcript, keyed by session id.
func (s *Store) SaveTranscript(ctx context.Context, t store.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[t.ID] = t
	return nil
}

// GetTranscript fetches a transcript by session id.
func (s *Store) GetTranscript(ctx context.Context, id string) (store.Transcript, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[id]
	return t, ok, nil
}

// ListTranscripts returns up to limit transcripts, most recent first.
func (s *Store) ListTranscripts(ctx context.Context, limit int) ([]store.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	out := make([]store.Transcript, 0, len(s.transcripts))
	for _, t := range s.transcripts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
