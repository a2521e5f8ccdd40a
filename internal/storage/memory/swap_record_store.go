package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// SwapRecordStore is an in-memory implementation of storage.SwapRecordStore.
type SwapRecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.SwapRecord // keyed by id
	now     func() time.Time
}

// NewSwapRecordStore creates a new in-memory swap record store.
func NewSwapRecordStore() *SwapRecordStore {
	return &SwapRecordStore{
		records: make(map[string]*domain.SwapRecord),
		now:     time.Now,
	}
}

// Create persists a copy of r. Returns ErrDuplicateKey if the id exists.
func (s *SwapRecordStore) Create(_ context.Context, r *domain.SwapRecord) (string, error) {
	if r == nil {
		return "", storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := copySwapRecord(r)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.records[rec.ID]; exists {
		return "", storage.ErrDuplicateKey
	}
	if rec.Status == "" {
		rec.Status = domain.SwapStatusPending
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().UnixMilli()
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = rec.CreatedAt
	}

	s.records[rec.ID] = rec
	return rec.ID, nil
}

// AttachSignature confirms the record with the given id.
func (s *SwapRecordStore) AttachSignature(_ context.Context, id, signature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return false, nil
	}

	sig := signature
	rec.Signature = &sig
	rec.Status = domain.SwapStatusConfirmed
	rec.UpdatedAt = s.now().UnixMilli()
	return true, nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) GetByID(_ context.Context, id string) (*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySwapRecord(rec), nil
}

// ListByWallet retrieves up to limit records for wallet, newest first.
func (s *SwapRecordStore) ListByWallet(_ context.Context, wallet string, limit int) ([]*domain.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapRecord
	for _, rec := range s.records {
		if rec.UserWallet == wallet {
			result = append(result, copySwapRecord(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copySwapRecord(r *domain.SwapRecord) *domain.SwapRecord {
	c := *r
	c.FeeAccount = copyString(r.FeeAccount)
	c.Signature = copyString(r.Signature)
	c.ErrorMessage = copyString(r.ErrorMessage)
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)
