package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenMetadata
}

// NewTokenStore creates a new in-memory token catalogue.
func NewTokenStore() *TokenStore {
	return &TokenStore{byMint: make(map[string]*domain.TokenMetadata)}
}

// Upsert inserts or replaces the entry for m.Address.
func (s *TokenStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byMint[m.Address] = m.Clone()
	return nil
}

// GetByMint retrieves an entry by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return m.Clone(), nil
}

// Search matches symbol or name substrings case-insensitively, or the exact address.
func (s *TokenStore) Search(_ context.Context, query string, limit int) ([]*domain.TokenMetadata, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenMetadata
	for addr, m := range s.byMint {
		if addr == query ||
			strings.Contains(strings.ToLower(m.Symbol), q) ||
			strings.Contains(strings.ToLower(m.Name), q) {
			result = append(result, m.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].MarketCap != result[j].MarketCap {
			return result[i].MarketCap > result[j].MarketCap
		}
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
