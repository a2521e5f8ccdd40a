package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// SwapRecordStore implements storage.SwapRecordStore using PostgreSQL.
type SwapRecordStore struct {
	pool *Pool
}

// NewSwapRecordStore creates a new SwapRecordStore.
func NewSwapRecordStore(pool *Pool) *SwapRecordStore {
	return &SwapRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapRecordStore = (*SwapRecordStore)(nil)

const swapRecordColumns = `
	id, user_wallet, input_mint, output_mint, input_amount, output_amount,
	fee_amount, fee_account, status, signature, error_message, created_at, updated_at
`

// Create persists a new record. Returns ErrDuplicateKey if the id exists.
func (s *SwapRecordStore) Create(ctx context.Context, r *domain.SwapRecord) (id string, err error) {
	start := time.Now()
	defer func() { observe("swap_records.create", start, err) }()

	id = r.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := r.Status
	if status == "" {
		status = domain.SwapStatusPending
	}
	createdAt := r.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}
	updatedAt := r.UpdatedAt
	if updatedAt == 0 {
		updatedAt = createdAt
	}

	query := `INSERT INTO swap_records (` + swapRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		id,
		r.UserWallet,
		r.InputMint,
		r.OutputMint,
		r.InputAmount,
		r.OutputAmount,
		r.FeeAmount,
		r.FeeAccount,
		string(status),
		r.Signature,
		r.ErrorMessage,
		createdAt,
		updatedAt,
	)
	if err != nil {
		return "", storeError("insert swap record", err)
	}
	return id, nil
}

// AttachSignature confirms the record with the given id.
func (s *SwapRecordStore) AttachSignature(ctx context.Context, id, signature string) (ok bool, err error) {
	start := time.Now()
	defer func() { observe("swap_records.attach_signature", start, err) }()

	query := `
		UPDATE swap_records
		SET signature = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, signature, string(domain.SwapStatusConfirmed), time.Now().UnixMilli())
	if err != nil {
		return false, storeError("attach signature", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a record by id. Returns ErrNotFound if not exists.
func (s *SwapRecordStore) GetByID(ctx context.Context, id string) (r *domain.SwapRecord, err error) {
	start := time.Now()
	defer func() { observe("swap_records.get", start, err) }()

	query := `SELECT ` + swapRecordColumns + ` FROM swap_records WHERE id = $1`

	r, err = scanSwapRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeError("get swap record", err)
	}
	return r, nil
}

// ListByWallet retrieves up to limit records for wallet, newest first.
func (s *SwapRecordStore) ListByWallet(ctx context.Context, wallet string, limit int) (result []*domain.SwapRecord, err error) {
	start := time.Now()
	defer func() { observe("swap_records.list_by_wallet", start, err) }()

	query := `SELECT ` + swapRecordColumns + `
		FROM swap_records
		WHERE user_wallet = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, wallet, limit)
	if err != nil {
		return nil, storeError("query swap records", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanSwapRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate swap records", err)
	}
	return result, nil
}

// scanSwapRecord scans a single row into SwapRecord.
func scanSwapRecord(row pgx.Row) (*domain.SwapRecord, error) {
	var r domain.SwapRecord
	var status string

	err := row.Scan(
		&r.ID,
		&r.UserWallet,
		&r.InputMint,
		&r.OutputMint,
		&r.InputAmount,
		&r.OutputAmount,
		&r.FeeAmount,
		&r.FeeAccount,
		&status,
		&r.Signature,
		&r.ErrorMessage,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.SwapStatus(status)
	return &r, nil
}
