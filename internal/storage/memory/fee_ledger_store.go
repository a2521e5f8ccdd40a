package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// FeeLedgerStore is an in-memory implementation of storage.FeeLedgerStore.
type FeeLedgerStore struct {
	mu      sync.RWMutex
	entries []domain.FeeLedgerEntry
}

// NewFeeLedgerStore creates a new in-memory fee ledger.
func NewFeeLedgerStore() *FeeLedgerStore {
	return &FeeLedgerStore{}
}

// Record appends a fee entry.
func (s *FeeLedgerStore) Record(_ context.Context, e *domain.FeeLedgerEntry) error {
	if e == nil || e.TransactionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, *e)
	return nil
}

// Stats aggregates fees per token mint.
func (s *FeeLedgerStore) Stats(_ context.Context, feeAccount string) ([]domain.FeeStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMint := make(map[string]*domain.FeeStat)
	for _, e := range s.entries {
		if feeAccount != "" && e.FeeAccount != feeAccount {
			continue
		}
		stat, ok := byMint[e.TokenMint]
		if !ok {
			stat = &domain.FeeStat{TokenMint: e.TokenMint}
			byMint[e.TokenMint] = stat
		}
		stat.TotalFees += e.FeeAmount
		stat.Count++
	}

	result := make([]domain.FeeStat, 0, len(byMint))
	for _, stat := range byMint {
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenMint < result[j].TokenMint
	})
	return result, nil
}

// Len returns the number of recorded entries.
func (s *FeeLedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ storage.FeeLedgerStore = (*FeeLedgerStore)(nil)
