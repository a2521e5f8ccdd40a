package domain

// Sentinel values used when no source supplies a field.
const (
	UnknownName     = "Unknown Token"
	UnknownSymbol   = "UNK"
	DefaultDecimals = 9
)

// TokenMetadata is the resolved view of a token.
// Numeric market fields are zero when unknown, never absent.
type TokenMetadata struct {
	Address     string  `json:"address"`         // validated mint address
	Name        string  `json:"name"`            // display name
	Symbol      string  `json:"symbol"`          // ticker, UnknownSymbol when unresolved
	Decimals    int     `json:"decimals"`        // smallest-unit precision
	LogoURI     *string `json:"logoURI"`         // logo URL (nullable)
	Price       float64 `json:"price_per_token"` // USD
	Volume24h   float64 `json:"volume_24h"`      // USD
	MarketCap   float64 `json:"market_cap"`      // USD
	PairAddress string  `json:"-"`               // market pair used for charts
}

// NewUnknownToken returns the sentinel metadata for address.
func NewUnknownToken(address string) *TokenMetadata {
	return &TokenMetadata{
		Address:  address,
		Name:     UnknownName,
		Symbol:   UnknownSymbol,
		Decimals: DefaultDecimals,
	}
}

// IsUnknown reports whether no source has named the token yet.
func (m *TokenMetadata) IsUnknown() bool {
	return m.Symbol == UnknownSymbol
}

// Clone returns a deep copy.
func (m *TokenMetadata) Clone() *TokenMetadata {
	c := *m
	if m.LogoURI != nil {
		logo := *m.LogoURI
		c.LogoURI = &logo
	}
	return &c
}

// PartialMetadata is what a single source knows about a token.
// Nil fields were not supplied.
type PartialMetadata struct {
	Name        *string
	Symbol      *string
	Decimals    *int
	LogoURI     *string
	Price       *float64
	Volume24h   *float64
	MarketCap   *float64
	PairAddress *string
}
