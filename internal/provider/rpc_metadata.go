package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-swap-gateway/internal/domain"
	"solana-swap-gateway/internal/observability"
	"solana-swap-gateway/internal/solana"
)

// RPCMetadataTimeout bounds one RPC metadata lookup.
const RPCMetadataTimeout = 3 * time.Second

// RPCMetadata fetches token metadata from the RPC node.
//
// It asks for the DAS asset first. When the node rejects the method (plain
// Solana nodes do not implement DAS) and on-chain fallback is enabled, it
// reads decimals from the mint account and name/symbol from the Metaplex
// metadata account instead.
type RPCMetadata struct {
	rpc      solana.RPCClient
	timeout  time.Duration
	fallback bool
}

var _ MetadataSource = (*RPCMetadata)(nil)

// RPCMetadataOption configures RPCMetadata.
type RPCMetadataOption func(*RPCMetadata)

// WithOnChainFallback enables the mint + Metaplex fallback.
func WithOnChainFallback(enabled bool) RPCMetadataOption {
	return func(r *RPCMetadata) {
		r.fallback = enabled
	}
}

// WithRPCTimeout overrides the lookup timeout.
func WithRPCTimeout(d time.Duration) RPCMetadataOption {
	return func(r *RPCMetadata) {
		r.timeout = d
	}
}

// NewRPCMetadata creates an RPC metadata source.
func NewRPCMetadata(rpc solana.RPCClient, opts ...RPCMetadataOption) *RPCMetadata {
	r := &RPCMetadata{rpc: rpc, timeout: RPCMetadataTimeout, fallback: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements MetadataSource.
func (r *RPCMetadata) Name() string { return "rpc_metadata" }

// Fetch implements MetadataSource.
func (r *RPCMetadata) Fetch(ctx context.Context, mint string) (*domain.PartialMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	p, err := r.fetch(ctx, mint)
	observability.RecordProviderCall(r.Name(), time.Since(start).Seconds(), err)
	if err != nil {
		return nil, unavailable(r.Name(), err)
	}
	return p, nil
}

func (r *RPCMetadata) fetch(ctx context.Context, mint string) (*domain.PartialMetadata, error) {
	asset, err := r.rpc.GetAsset(ctx, mint)
	if err != nil {
		if r.fallback && solana.IsRPCError(err) {
			return r.fetchOnChain(ctx, mint)
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	if asset == nil {
		return nil, errors.New("asset not found")
	}

	p := &domain.PartialMetadata{
		Name:     strPtr(asset.Name),
		Symbol:   strPtr(asset.Symbol),
		Decimals: asset.Decimals,
		LogoURI:  strPtr(asset.Image),
	}
	if p.Name == nil && p.Symbol == nil && p.Decimals == nil && p.LogoURI == nil {
		return nil, errors.New("asset has no metadata")
	}
	return p, nil
}

func (r *RPCMetadata) fetchOnChain(ctx context.Context, mint string) (*domain.PartialMetadata, error) {
	mintInfo, err := r.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account info: %w", err)
	}
	if mintInfo == nil {
		return nil, errors.New("mint account not found")
	}

	p := &domain.PartialMetadata{}
	if parsed, err := solana.ParseMint(mintInfo.Data); err == nil {
		decimals := parsed.Decimals
		p.Decimals = &decimals
	}

	if pda, err := solana.MetadataPDA(mint); err == nil {
		metaInfo, err := r.rpc.GetAccountInfo(ctx, pda)
		if err == nil && metaInfo != nil {
			if meta, err := solana.ParseMetaplexMetadata(metaInfo.Data); err == nil {
				p.Name = strPtr(meta.Name)
				p.Symbol = strPtr(meta.Symbol)
			}
		}
	}

	if p.Decimals == nil && p.Name == nil && p.Symbol == nil {
		return nil, errors.New("no on-chain metadata")
	}
	return p, nil
}
