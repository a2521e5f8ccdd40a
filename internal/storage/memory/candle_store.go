package memory

import (
	"context"
	"sort"
	"sync"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu      sync.RWMutex
	candles map[candleKey]domain.Candle
}

type candleKey struct {
	pair      string
	timeframe string
	timestamp int64
}

// NewCandleStore creates a new in-memory candle archive.
func NewCandleStore() *CandleStore {
	return &CandleStore{candles: make(map[candleKey]domain.Candle)}
}

// InsertBulk archives candles, replacing existing rows with the same key.
func (s *CandleStore) InsertBulk(_ context.Context, candles []domain.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range candles {
		s.candles[candleKey{c.PairAddress, c.Timeframe, c.Timestamp}] = c
	}
	return nil
}

// GetLatest retrieves the newest limit candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(_ context.Context, pairAddress, timeframe string, limit int) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Candle
	for k, c := range s.candles {
		if k.pair == pairAddress && k.timeframe == timeframe {
			result = append(result, c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
