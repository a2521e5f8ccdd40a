package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
//
// pair_candles is a ReplacingMergeTree; reads use FINAL so re-archived
// buckets are returned once.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk archives candles in a single batch.
func (s *CandleStore) InsertBulk(ctx context.Context, candles []domain.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "pair_candles.insert", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pair_candles (
			pair_address, timeframe, timestamp_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range candles {
		err = batch.Append(
			c.PairAddress, c.Timeframe, uint64(c.Timestamp),
			c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetLatest retrieves the newest limit candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(ctx context.Context, pairAddress, timeframe string, limit int) (candles []domain.Candle, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "pair_candles.latest", time.Since(start).Seconds(), err)
	}()

	query := `
		SELECT pair_address, timeframe, timestamp_ms, open, high, low, close, volume
		FROM (
			SELECT pair_address, timeframe, timestamp_ms, open, high, low, close, volume
			FROM pair_candles FINAL
			WHERE pair_address = ? AND timeframe = ?
			ORDER BY timestamp_ms DESC
			LIMIT ?
		)
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, pairAddress, timeframe, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query latest candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// chRows is the subset of driver.Rows used by scanners.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanCandles scans multiple rows.
func scanCandles(rows chRows) ([]domain.Candle, error) {
	var candles []domain.Candle

	for rows.Next() {
		var c domain.Candle
		var timestampMs uint64

		err := rows.Scan(
			&c.PairAddress, &c.Timeframe, &timestampMs,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = int64(timestampMs)
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return candles, nil
}
