// Package chart builds token price charts from pool candles.
package chart

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/provider"
	"solana-swap-gateway/internal/storage"
)

// PairSource finds the market pair of a token.
type PairSource interface {
	FetchPair(ctx context.Context, mint string) (*provider.Pair, error)
}

// CandleSource returns candles for a pool, oldest first.
type CandleSource interface {
	FetchCandles(ctx context.Context, pool, timeframe string, limit int) ([]domain.Candle, error)
}

// Chart is the price chart of one token.
type Chart struct {
	Data         []domain.ChartPoint `json:"data"`
	CurrentPrice float64             `json:"current_price"`
	Mock         bool                `json:"mock"` // always false; kept for client compatibility
}

// Service serves price charts.
type Service struct {
	pairs   PairSource
	candles CandleSource
	archive storage.CandleStore
	log     logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithArchive stores fetched candles and serves them when the candle source fails.
func WithArchive(store storage.CandleStore) Option {
	return func(s *Service) {
		s.archive = store
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// NewService creates a chart service.
func NewService(pairs PairSource, candles CandleSource, opts ...Option) *Service {
	s := &Service{
		pairs:   pairs,
		candles: candles,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceChart returns the chart of token for interval (1h, 1d, 1w or 1m).
// It never fails on upstream errors: without a pair the chart is empty with a
// zero price, and when candles cannot be fetched the archived series is used,
// or else an empty series with the current price.
func (s *Service) PriceChart(ctx context.Context, token, interval string) (*Chart, error) {
	mint, err := address.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	if !domain.ValidInterval(interval) {
		return nil, apperr.Invalid("interval must be one of 1h, 1d, 1w, 1m, got %q", interval)
	}
	log := s.log.WithFields(logrus.Fields{"mint": mint, "interval": interval})

	pair, err := s.pairs.FetchPair(ctx, mint)
	if err != nil || pair.PairAddress == "" {
		log.WithError(err).Warn("no pair found for chart")
		return &Chart{Data: []domain.ChartPoint{}}, nil
	}

	chart := &Chart{Data: []domain.ChartPoint{}, CurrentPrice: pair.PriceUSD}
	timeframe, limit := domain.Timeframe(interval)
	log = log.WithField("pair", pair.PairAddress)

	candles, err := s.candles.FetchCandles(ctx, pair.PairAddress, timeframe, limit)
	if err != nil {
		log.WithError(err).Warn("candle fetch failed")
		candles = s.archived(ctx, log, pair.PairAddress, timeframe, limit)
	} else {
		s.store(ctx, log, candles)
	}

	for _, c := range candles {
		chart.Data = append(chart.Data, domain.ChartPoint{
			Timestamp: c.Timestamp,
			Price:     c.Close,
			Volume:    c.Volume,
		})
	}
	return chart, nil
}

func (s *Service) store(ctx context.Context, log logrus.FieldLogger, candles []domain.Candle) {
	if s.archive == nil || len(candles) == 0 {
		return
	}
	if err := s.archive.InsertBulk(ctx, candles); err != nil {
		log.WithError(err).Error("failed to archive candles")
	}
}

func (s *Service) archived(ctx context.Context, log logrus.FieldLogger, pair, timeframe string, limit int) []domain.Candle {
	if s.archive == nil {
		return nil
	}
	candles, err := s.archive.GetLatest(ctx, pair, timeframe, limit)
	if err != nil {
		log.WithError(err).Error("failed to read archived candles")
		return nil
	}
	if len(candles) > 0 {
		log.WithField("candles", len(candles)).Info("serving archived candles")
	}
	return candles
}
