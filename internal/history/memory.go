package history

import (
	"context"
	"sync"

	"github.com/jonathan/trustcheck/internal/types"
)

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	results []types.VerificationResult
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append prepends result and drops anything past Limit.
func (s *MemoryStore) Append(_ context.Context, result types.VerificationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append([]types.VerificationResult{result}, s.results...)
	if len(s.results) > Limit {
		s.results = s.results[:Limit]
	}
	return nil
}

// List returns a copy of the stored results, most recent first.
func (s *MemoryStore) List(_ context.Context) ([]types.VerificationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.VerificationResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

// Clear removes every result.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.results = nil
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
