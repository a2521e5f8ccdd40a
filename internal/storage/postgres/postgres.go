// Package postgres implements the gateway stores on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/storage"
)

// ApplicationName tags gateway sessions in pg_stat_activity unless the DSN sets one.
const ApplicationName = "swap-gateway"

const (
	defaultMaxConnIdleTime = 5 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
)

// Pool is the pgx pool shared by the swap record, fee ledger and token stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings it within the connect timeout.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := poolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnConfig.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// poolConfig parses dsn and fills the gateway defaults the DSN leaves unset.
func poolConfig(dsn string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if config.MaxConnIdleTime == 0 {
		config.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	if config.ConnConfig.ConnectTimeout == 0 {
		config.ConnConfig.ConnectTimeout = defaultConnectTimeout
	}
	if config.ConnConfig.RuntimeParams == nil {
		config.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}
	return config, nil
}

// SQLSTATE codes mapped onto storage errors.
const (
	pgErrUniqueViolation   = "23505"
	pgErrCheckViolation    = "23514"
	pgErrNotNullViolation  = "23502"
	pgErrInvalidText       = "22P02"
	pgErrNumericOutOfRange = "22003"
)

// storeError maps pgx failures onto the storage sentinels. No rows becomes
// storage.ErrNotFound itself; other mapped codes keep the server message.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, storage.ErrDuplicateKey, pgErr.ConstraintName)
		case pgErrCheckViolation, pgErrNotNullViolation, pgErrInvalidText, pgErrNumericOutOfRange:
			return fmt.Errorf("%s: %w: %s", op, storage.ErrInvalidInput, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// observe records query latency and failures. Not-found is not a failure.
func observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
