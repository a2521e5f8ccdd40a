// Package resolver resolves token metadata through the provider fallback chain.
//
// Resolution order for one mint:
//
//  1. cache (skipped on force refresh)
//  2. sentinel seed overlaid with the static table
//  3. market data: price, volume and market cap always; name, symbol and logo
//     only while the symbol is still the sentinel
//  4. RPC metadata, only while the symbol is still the sentinel
//
// The result is cached without expiry. Resolve never fails: every provider
// error degrades to "try the next source". Provider calls are bounded by
// their own timeouts only, never by the caller's cancellation.
package resolver

import (
	"context"

	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/provider"
	"solana-swap-gateway/internal/storage"
)

// Cache stores resolved metadata by mint.
type Cache interface {
	Get(ctx context.Context, mint string) (*domain.TokenMetadata, bool)
	Set(ctx context.Context, mint string, m *domain.TokenMetadata)
}

// StaticLookup is the static table consulted before any network source.
type StaticLookup interface {
	Lookup(mint string) (*domain.PartialMetadata, bool)
}

// Resolver runs the metadata fallback chain.
type Resolver struct {
	cache   Cache
	static  StaticLookup
	market  provider.MetadataSource
	rpc     provider.MetadataSource
	catalog storage.TokenStore
	log     logrus.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCatalog upserts every named resolution into the token catalogue.
func WithCatalog(store storage.TokenStore) Option {
	return func(r *Resolver) {
		r.catalog = store
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

// New creates a Resolver. static, market and rpc may be nil to skip a step.
func New(cache Cache, static StaticLookup, market, rpc provider.MetadataSource, opts ...Option) *Resolver {
	r := &Resolver{
		cache:  cache,
		static: static,
		market: market,
		rpc:    rpc,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns metadata for a validated mint. It always returns a non-nil
// result; when no source names the token the sentinel values are kept.
func (r *Resolver) Resolve(ctx context.Context, mint string, forceRefresh bool) *domain.TokenMetadata {
	if !forceRefresh {
		if cached, ok := r.cache.Get(ctx, mint); ok {
			observability.RecordResolution("cached")
			return cached
		}
	}

	// A canceled request must not cache the sentinel.
	ctx = context.WithoutCancel(ctx)

	m := domain.NewUnknownToken(mint)
	log := r.log.WithField("mint", mint)

	if r.static != nil {
		if p, ok := r.static.Lookup(mint); ok {
			apply(m, p)
		}
	}

	if r.market != nil {
		p, err := r.market.Fetch(ctx, mint)
		if err != nil {
			log.WithField("provider", r.market.Name()).WithError(err).Warn("market data unavailable")
		} else {
			applyMarket(m, p)
		}
	}

	if m.IsUnknown() && r.rpc != nil {
		p, err := r.rpc.Fetch(ctx, mint)
		if err != nil {
			log.WithField("provider", r.rpc.Name()).WithError(err).Warn("rpc metadata unavailable")
		} else {
			apply(m, p)
		}
	}

	r.cache.Set(ctx, mint, m)

	if m.IsUnknown() {
		observability.RecordResolution("unknown")
	} else {
		observability.RecordResolution("resolved")
		r.remember(ctx, m)
	}

	return m.Clone()
}

// remember upserts m into the catalogue. Failures are logged and swallowed.
func (r *Resolver) remember(ctx context.Context, m *domain.TokenMetadata) {
	if r.catalog == nil {
		return
	}
	if err := r.catalog.Upsert(ctx, m); err != nil {
		observability.RecordBackgroundFailure("token_catalog_upsert")
		r.log.WithField("mint", m.Address).WithError(err).Error("failed to upsert token catalogue")
	}
}

// apply overwrites every field p supplies.
func apply(m *domain.TokenMetadata, p *domain.PartialMetadata) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Symbol != nil {
		m.Symbol = *p.Symbol
	}
	if p.Decimals != nil && *p.Decimals >= 0 {
		m.Decimals = *p.Decimals
	}
	if p.LogoURI != nil {
		logo := *p.LogoURI
		m.LogoURI = &logo
	}
	applyPrices(m, p)
}

// applyMarket overwrites market figures, and naming fields only while the
// token is still unnamed. Market data never supplies decimals.
func applyMarket(m *domain.TokenMetadata, p *domain.PartialMetadata) {
	if m.IsUnknown() {
		if p.Name != nil {
			m.Name = *p.Name
		}
		if p.Symbol != nil {
			m.Symbol = *p.Symbol
		}
		if p.LogoURI != nil {
			logo := *p.LogoURI
			m.LogoURI = &logo
		}
	}
	applyPrices(m, p)
}

func applyPrices(m *domain.TokenMetadata, p *domain.PartialMetadata) {
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.Volume24h != nil {
		m.Volume24h = *p.Volume24h
	}
	if p.MarketCap != nil {
		m.MarketCap = *p.MarketCap
	}
	if p.PairAddress != nil {
		m.PairAddress = *p.PairAddress
	}
}
