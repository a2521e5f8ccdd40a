package storage

import (
	"context"

	"solana-swap-gateway/internal/domain"
)

// SwapRecordStore provides access to swap_records storage.
//
// Records are never deleted. The only transition performed by the gateway is
// pending -> confirmed via AttachSignature.
type SwapRecordStore interface {
	// Create persists a new record and returns its id. An empty ID is assigned a UUID.
	Create(ctx context.Context, r *domain.SwapRecord) (string, error)

	// AttachSignature sets the signature, marks the record confirmed and bumps updated_at.
	// Returns false when no record has the id.
	AttachSignature(ctx context.Context, id, signature string) (bool, error)

	// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.SwapRecord, error)

	// ListByWallet retrieves up to limit records for a wallet, newest first.
	ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.SwapRecord, error)
}

// FeeLedgerStore provides access to fee_ledger storage.
type FeeLedgerStore interface {
	// Record appends a fee entry.
	Record(ctx context.Context, e *domain.FeeLedgerEntry) error

	// Stats aggregates fees per token mint, ordered by token mint.
	// An empty feeAccount aggregates over all accounts.
	Stats(ctx context.Context, feeAccount string) ([]domain.FeeStat, error)
}

// TokenStore provides access to the persisted token catalogue.
type TokenStore interface {
	// Upsert inserts or replaces the catalogue entry for m.Address.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// GetByMint retrieves an entry by mint address. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error)

	// Search returns up to limit entries whose symbol or name contains query
	// (case-insensitive) or whose address equals query, by market cap DESC.
	Search(ctx context.Context, query string, limit int) ([]*domain.TokenMetadata, error)
}

// CandleStore provides access to the pair_candles archive.
type CandleStore interface {
	// InsertBulk archives candles. Re-archiving a (pair, timeframe, timestamp) replaces it.
	InsertBulk(ctx context.Context, candles []domain.Candle) error

	// GetLatest retrieves the newest limit candles for a pair and timeframe, ordered by timestamp ASC.
	GetLatest(ctx context.Context, pairAddress, timeframe string, limit int) ([]domain.Candle, error)
}
