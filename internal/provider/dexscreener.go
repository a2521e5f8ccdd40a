package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"solana-swap-gateway/internal/domain"
)

// DexScreener defaults.
const (
	DefaultDexScreenerURL = "https://api.dexscreener.com"
	DexScreenerTimeout    = 5 * time.Second
	solanaChainID         = "solana"
)

// Pair is the market data of the first Solana pair for a token.
type Pair struct {
	PairAddress string
	PriceUSD    float64
	Volume24h   float64
	MarketCap   float64 // fdv, or marketCap when fdv is absent
	BaseName    string
	BaseSymbol  string
	ImageURL    string
}

// DexScreener fetches market data from the DexScreener API.
type DexScreener struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

var _ MetadataSource = (*DexScreener)(nil)

// NewDexScreener creates a DexScreener client. Empty baseURL and nil client use defaults.
func NewDexScreener(baseURL string, client *http.Client) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if client == nil {
		client = newClient(DexScreenerTimeout)
	}
	return &DexScreener{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: DexScreenerTimeout,
	}
}

// Name implements MetadataSource.
func (d *DexScreener) Name() string { return "dexscreener" }

type dexTokensResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID     string `json:"chainId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD string `json:"priceUsd"`
	Volume   struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
	Info      *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
}

// FetchPair returns the first Solana pair listed for mint.
func (d *DexScreener) FetchPair(ctx context.Context, mint string) (*Pair, error) {
	endpoint := d.baseURL + "/latest/dex/tokens/" + url.PathEscape(mint)

	var resp dexTokensResponse
	if err := getJSON(ctx, d.client, d.Name(), endpoint, d.timeout, &resp); err != nil {
		return nil, err
	}

	for _, p := range resp.Pairs {
		if p.ChainID != solanaChainID {
			continue
		}

		pair := &Pair{
			PairAddress: p.PairAddress,
			Volume24h:   p.Volume.H24,
			MarketCap:   p.FDV,
			BaseName:    p.BaseToken.Name,
			BaseSymbol:  p.BaseToken.Symbol,
		}
		if pair.MarketCap == 0 {
			pair.MarketCap = p.MarketCap
		}
		if p.PriceUSD != "" {
			price, err := strconv.ParseFloat(p.PriceUSD, 64)
			if err != nil {
				return nil, unavailable(d.Name(), err)
			}
			pair.PriceUSD = price
		}
		if p.Info != nil {
			pair.ImageURL = p.Info.ImageURL
		}
		return pair, nil
	}

	return nil, unavailable(d.Name(), errors.New("no solana pairs"))
}

// Fetch implements MetadataSource.
func (d *DexScreener) Fetch(ctx context.Context, mint string) (*domain.PartialMetadata, error) {
	pair, err := d.FetchPair(ctx, mint)
	if err != nil {
		return nil, err
	}

	price, volume, mcap := pair.PriceUSD, pair.Volume24h, pair.MarketCap
	return &domain.PartialMetadata{
		Name:        strPtr(pair.BaseName),
		Symbol:      strPtr(pair.BaseSymbol),
		LogoURI:     strPtr(pair.ImageURL),
		Price:       &price,
		Volume24h:   &volume,
		MarketCap:   &mcap,
		PairAddress: strPtr(pair.PairAddress),
	}, nil
}
