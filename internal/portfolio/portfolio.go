// Package portfolio reads wallet balances and values them with resolved token prices.
package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-swap-gateway/internal/address"
	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/solana"
)

// MaxBatchMints bounds the mints accepted by Balances.
const MaxBatchMints = 50

const rpcService = "solana_rpc"

// MetadataResolver resolves token metadata. It never fails.
type MetadataResolver interface {
	Resolve(ctx context.Context, mint string, forceRefresh bool) *domain.TokenMetadata
}

// Service serves balances and portfolios.
type Service struct {
	rpc      solana.RPCClient
	resolver MetadataResolver
	log      logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// NewService creates a portfolio service.
func NewService(rpc solana.RPCClient, resolver MetadataResolver, opts ...Option) *Service {
	s := &Service{
		rpc:      rpc,
		resolver: resolver,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance returns wallet's balance of mint. Native SOL is read with getBalance,
// SPL tokens are summed across every token account of the mint.
// RPC failures are returned as *apperr.UpstreamError.
func (s *Service) Balance(ctx context.Context, wallet, mint string) (*domain.TokenBalance, error) {
	w, err := address.Validate(wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	m, err := address.Validate(mint)
	if err != nil {
		return nil, fmt.Errorf("token_mint: %w", err)
	}
	return s.balance(ctx, w, m)
}

func (s *Service) balance(ctx context.Context, wallet, mint string) (*domain.TokenBalance, error) {
	if mint == solana.NativeMint {
		lamports, err := s.rpc.GetBalance(ctx, wallet)
		if err != nil {
			return nil, apperr.Upstream(rpcService, err)
		}
		return newBalance(decimal.NewFromInt(int64(lamports)), solana.NativeDecimals), nil
	}

	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, wallet, mint)
	if err != nil {
		return nil, apperr.Upstream(rpcService, err)
	}
	if len(accounts) == 0 {
		meta := s.resolver.Resolve(ctx, mint, false)
		return newBalance(decimal.Zero, meta.Decimals), nil
	}

	total := decimal.Zero
	for _, acct := range accounts {
		amount, err := decimal.NewFromString(acct.Amount)
		if err != nil {
			return nil, apperr.Upstream(rpcService, fmt.Errorf("token account %s amount %q: %w", acct.Pubkey, acct.Amount, err))
		}
		total = total.Add(amount)
	}
	return newBalance(total, accounts[0].Decimals), nil
}

// Balances returns the balance of each mint. A mint whose lookup fails is
// reported with a zero balance.
func (s *Service) Balances(ctx context.Context, wallet string, mints []string) (map[string]*domain.TokenBalance, error) {
	w, err := address.Validate(wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	if len(mints) == 0 {
		return nil, apperr.Invalid("mints must not be empty")
	}
	if len(mints) > MaxBatchMints {
		return nil, apperr.Invalid("at most %d mints per request, got %d", MaxBatchMints, len(mints))
	}

	valid := make([]string, 0, len(mints))
	for _, mint := range mints {
		m, err := address.Validate(mint)
		if err != nil {
			return nil, fmt.Errorf("mint %q: %w", mint, err)
		}
		valid = append(valid, m)
	}

	result := make(map[string]*domain.TokenBalance, len(valid))
	for _, mint := range valid {
		b, err := s.balance(ctx, w, mint)
		if err != nil {
			s.log.WithFields(logrus.Fields{"wallet": w, "mint": mint}).WithError(err).Warn("balance lookup failed")
			b = &domain.TokenBalance{Balance: "0"}
		}
		result[mint] = b
	}
	return result, nil
}

// Portfolio values every non-zero holding of wallet. The SOL and SPL sections
// degrade independently: a failed RPC call drops its section only.
func (s *Service) Portfolio(ctx context.Context, wallet string) (*domain.Portfolio, error) {
	w, err := address.Validate(wallet)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w", err)
	}
	log := s.log.WithField("wallet", w)

	type position struct {
		mint     string
		balance  float64
		decimals int
	}
	var positions []position

	lamports, err := s.rpc.GetBalance(ctx, w)
	if err != nil {
		log.WithError(err).Warn("SOL balance unavailable")
	} else if lamports > 0 {
		sol := decimal.NewFromInt(int64(lamports)).Shift(-solana.NativeDecimals).InexactFloat64()
		positions = append(positions, position{mint: solana.NativeMint, balance: sol, decimals: solana.NativeDecimals})
	}

	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, w, "")
	if err != nil {
		log.WithError(err).Warn("token accounts unavailable")
	}
	for _, acct := range accounts {
		if acct.UIAmount > 0 {
			positions = append(positions, position{mint: acct.Mint, balance: acct.UIAmount, decimals: acct.Decimals})
		}
	}

	p := &domain.Portfolio{Wallet: w, Tokens: make([]*domain.Holding, 0, len(positions))}
	total := decimal.Zero
	for _, pos := range positions {
		meta := s.resolver.Resolve(ctx, pos.mint, false)
		value := decimal.NewFromFloat(pos.balance).Mul(decimal.NewFromFloat(meta.Price))
		total = total.Add(value)

		p.Tokens = append(p.Tokens, &domain.Holding{
			Address:   pos.mint,
			Symbol:    meta.Symbol,
			Name:      meta.Name,
			Balance:   pos.balance,
			Decimals:  pos.decimals,
			PriceUSD:  meta.Price,
			ValueUSD:  value.InexactFloat64(),
			LogoURI:   meta.LogoURI,
			Volume24h: meta.Volume24h,
			MarketCap: meta.MarketCap,
		})
	}

	sort.SliceStable(p.Tokens, func(i, j int) bool {
		return p.Tokens[i].ValueUSD > p.Tokens[j].ValueUSD
	})
	p.TotalUSD = total.InexactFloat64()
	p.TokenCount = len(p.Tokens)

	log.WithField("tokens", p.TokenCount).Debug("portfolio valued")
	return p, nil
}

func newBalance(raw decimal.Decimal, decimals int) *domain.TokenBalance {
	return &domain.TokenBalance{
		Balance:  raw.String(),
		UIAmount: raw.Shift(-int32(decimals)).InexactFloat64(),
		Decimals: decimals,
	}
}
