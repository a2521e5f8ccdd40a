package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// FeeLedgerStore implements storage.FeeLedgerStore using PostgreSQL.
type FeeLedgerStore struct {
	pool *Pool
}

// NewFeeLedgerStore creates a new FeeLedgerStore.
func NewFeeLedgerStore(pool *Pool) *FeeLedgerStore {
	return &FeeLedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeeLedgerStore = (*FeeLedgerStore)(nil)

// Record appends a fee entry.
func (s *FeeLedgerStore) Record(ctx context.Context, e *domain.FeeLedgerEntry) (err error) {
	start := time.Now()
	defer func() { observe("fee_ledger.record", start, err) }()

	if e.TransactionID == "" {
		return storage.ErrInvalidInput
	}
	createdAt := e.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	query := `
		INSERT INTO fee_ledger (transaction_id, fee_amount, token_mint, fee_account, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.pool.Exec(ctx, query, e.TransactionID, e.FeeAmount, e.TokenMint, e.FeeAccount, createdAt); err != nil {
		return storeError("insert fee entry", err)
	}
	return nil
}

// Stats aggregates fees per token mint.
func (s *FeeLedgerStore) Stats(ctx context.Context, feeAccount string) (stats []domain.FeeStat, err error) {
	start := time.Now()
	defer func() { observe("fee_ledger.stats", start, err) }()

	query := `
		SELECT token_mint, COALESCE(SUM(fee_amount), 0)::BIGINT, COUNT(*)
		FROM fee_ledger
		WHERE ($1::text = '' OR fee_account = $1::text)
		GROUP BY token_mint
		ORDER BY token_mint ASC
	`

	rows, err := s.pool.Query(ctx, query, feeAccount)
	if err != nil {
		return nil, storeError("query fee stats", err)
	}
	defer rows.Close()

	stats = []domain.FeeStat{}
	for rows.Next() {
		var st domain.FeeStat
		if err := rows.Scan(&st.TokenMint, &st.TotalFees, &st.Count); err != nil {
			return nil, fmt.Errorf("scan fee stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate fee stats", err)
	}
	return stats, nil
}
