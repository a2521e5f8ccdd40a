// Package currency serves the USD/IDR exchange rate.
package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/cache"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/provider"
)

// Rate defaults.
const (
	FallbackRate   = 15800.0
	FallbackSource = "fallback"
	CacheTTL       = time.Hour
)

const cacheKey = "USD/IDR"

// Service returns the current rate, trying each source in order and caching
// the result, the fallback included, for CacheTTL.
type Service struct {
	sources []provider.RateSource
	cache   *cache.TTLCache[domain.ExchangeRate]
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for the cache and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// NewService creates a Service over sources, tried in order.
func NewService(sources []provider.RateSource, opts ...Option) *Service {
	s := &Service{
		sources: sources,
		now:     time.Now,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.NewTTL[domain.ExchangeRate](CacheTTL, s.now)
	return s
}

// Rate returns IDR per USD. It never fails.
func (s *Service) Rate(ctx context.Context) domain.ExchangeRate {
	if rate, ok := s.cache.Get(cacheKey); ok {
		return rate
	}

	rate := domain.ExchangeRate{
		Rate:         FallbackRate,
		Source:       FallbackSource,
		CurrencyPair: domain.CurrencyPairUSDIDR,
	}
	for _, src := range s.sources {
		value, err := src.FetchUSDIDR(ctx)
		if err != nil {
			s.log.WithField("provider", src.Name()).WithError(err).Warn("exchange rate source failed")
			continue
		}
		rate.Rate = value
		rate.Source = src.Name()
		break
	}
	if rate.Source == FallbackSource {
		s.log.WithField("rate", FallbackRate).Warn("using fallback exchange rate")
	}

	rate.LastUpdate = s.now().UTC().Format(time.RFC3339)
	s.cache.Set(cacheKey, rate)
	return rate
}

// Convert returns usd * rate.
func Convert(usd, rate float64) (float64, error) {
	if usd < 0 {
		return 0, apperr.Invalid("usd amount must not be negative, got %v", usd)
	}
	return decimal.NewFromFloat(usd).Mul(decimal.NewFromFloat(rate)).InexactFloat64(), nil
}
