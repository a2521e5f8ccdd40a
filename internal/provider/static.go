package provider

import (
	"context"
	"fmt"

	"solana-swap-gateway/internal/domain"
)

// StaticToken is a well-known token with fixed metadata.
type StaticToken struct {
	Address  string  `yaml:"address" validate:"required"`
	Name     string  `yaml:"name" validate:"required"`
	Symbol   string  `yaml:"symbol" validate:"required"`
	Decimals int     `yaml:"decimals" validate:"gte=0,lte=18"`
	LogoURI  *string `yaml:"logo_uri"`
}

// Well-known mints.
const (
	MintSOL    = "So11111111111111111111111111111111111111112"
	MintUSDC   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT   = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintTEKRA1 = "4ymWDE5kwxZ5rxN3mWLvJEBHESbZSiqBuvWmSVcGqZdj"
	MintTEKRA2 = "FShCGqGUWRZkqovteJBGegUJAcjRzHZiBmHYGgSqpump"
)

// TokenListLogo returns the solana-labs token-list logo URL for mint.
func TokenListLogo(mint string) *string {
	url := fmt.Sprintf("https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/%s/logo.png", mint)
	return &url
}

// DefaultStaticTokens is the built-in token table.
func DefaultStaticTokens() []StaticToken {
	return []StaticToken{
		{Address: MintSOL, Name: "Solana", Symbol: "SOL", Decimals: 9, LogoURI: TokenListLogo(MintSOL)},
		{Address: MintUSDC, Name: "USD Coin", Symbol: "USDC", Decimals: 6, LogoURI: TokenListLogo(MintUSDC)},
		{Address: MintUSDT, Name: "USDT", Symbol: "USDT", Decimals: 6, LogoURI: TokenListLogo(MintUSDT)},
		{Address: MintTEKRA1, Name: "TEKRA Token 1", Symbol: "TEKRA", Decimals: 9},
		{Address: MintTEKRA2, Name: "TEKRA Token 2", Symbol: "TEKRA", Decimals: 9},
	}
}

// StaticTable serves metadata for well-known tokens without network calls.
type StaticTable struct {
	order  []string
	tokens map[string]StaticToken
}

var _ MetadataSource = (*StaticTable)(nil)

// NewStaticTable builds a table. A nil slice uses DefaultStaticTokens.
func NewStaticTable(tokens []StaticToken) *StaticTable {
	if tokens == nil {
		tokens = DefaultStaticTokens()
	}
	t := &StaticTable{tokens: make(map[string]StaticToken, len(tokens))}
	for _, tok := range tokens {
		if _, dup := t.tokens[tok.Address]; !dup {
			t.order = append(t.order, tok.Address)
		}
		t.tokens[tok.Address] = tok
	}
	return t
}

// Name implements MetadataSource.
func (t *StaticTable) Name() string { return "static" }

// Lookup returns the table entry for mint.
func (t *StaticTable) Lookup(mint string) (*domain.PartialMetadata, bool) {
	tok, ok := t.tokens[mint]
	if !ok {
		return nil, false
	}
	decimals := tok.Decimals
	return &domain.PartialMetadata{
		Name:     strPtr(tok.Name),
		Symbol:   strPtr(tok.Symbol),
		Decimals: &decimals,
		LogoURI:  tok.LogoURI,
	}, true
}

// Fetch implements MetadataSource. Unknown mints are reported unavailable.
func (t *StaticTable) Fetch(_ context.Context, mint string) (*domain.PartialMetadata, error) {
	p, ok := t.Lookup(mint)
	if !ok {
		return nil, unavailable(t.Name(), fmt.Errorf("mint %s not in table", mint))
	}
	return p, nil
}

// List returns every entry as TokenMetadata, in table order.
func (t *StaticTable) List() []*domain.TokenMetadata {
	out := make([]*domain.TokenMetadata, 0, len(t.order))
	for _, addr := range t.order {
		tok := t.tokens[addr]
		out = append(out, &domain.TokenMetadata{
			Address:  tok.Address,
			Name:     tok.Name,
			Symbol:   tok.Symbol,
			Decimals: tok.Decimals,
			LogoURI:  tok.LogoURI,
		})
	}
	return out
}

// Addresses returns the table's mints in table order.
func (t *StaticTable) Addresses() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
