package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `mint, name, symbol, decimals, logo_uri, price, volume_24h, market_cap, pair_address`

// Upsert inserts or replaces the entry for m.Address.
func (s *TokenStore) Upsert(ctx context.Context, m *domain.TokenMetadata) (err error) {
	start := time.Now()
	defer func() { observe("tokens.upsert", start, err) }()

	if m.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (` + tokenColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (mint) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			logo_uri = EXCLUDED.logo_uri,
			price = EXCLUDED.price,
			volume_24h = EXCLUDED.volume_24h,
			market_cap = EXCLUDED.market_cap,
			pair_address = EXCLUDED.pair_address,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		m.Address,
		m.Name,
		m.Symbol,
		m.Decimals,
		m.LogoURI,
		m.Price,
		m.Volume24h,
		m.MarketCap,
		m.PairAddress,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return storeError("upsert token", err)
	}
	return nil
}

// GetByMint retrieves an entry by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (m *domain.TokenMetadata, err error) {
	start := time.Now()
	defer func() { observe("tokens.get", start, err) }()

	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE mint = $1`

	m, err = scanToken(s.pool.QueryRow(ctx, query, mint))
	if err != nil {
		return nil, storeError("get token", err)
	}
	return m, nil
}

// Search matches symbol or name substrings case-insensitively, or the exact address.
func (s *TokenStore) Search(ctx context.Context, query string, limit int) (result []*domain.TokenMetadata, err error) {
	start := time.Now()
	defer func() { observe("tokens.search", start, err) }()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, storage.ErrInvalidInput
	}

	sql := `SELECT ` + tokenColumns + `
		FROM tokens
		WHERE mint = $1
		   OR symbol ILIKE '%' || $2::text || '%'
		   OR name ILIKE '%' || $2::text || '%'
		ORDER BY market_cap DESC, mint ASC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, sql, query, escapeLike(trimmed), limit)
	if err != nil {
		return nil, storeError("search tokens", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate tokens", err)
	}
	return result, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// scanToken scans a single row into TokenMetadata.
func scanToken(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata

	err := row.Scan(
		&m.Address,
		&m.Name,
		&m.Symbol,
		&m.Decimals,
		&m.LogoURI,
		&m.Price,
		&m.Volume24h,
		&m.MarketCap,
		&m.PairAddress,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
