package domain

// TokenBalance is a wallet's holding of one mint, summed across token accounts.
type TokenBalance struct {
	Balance  string  `json:"balance"`  // raw amount, smallest units
	UIAmount float64 `json:"uiAmount"` // Balance / 10^Decimals
	Decimals int     `json:"decimals"`
}

// Holding is one portfolio line.
type Holding struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"` // ui amount
	Decimals  int     `json:"decimals"`
	PriceUSD  float64 `json:"price_usd"`
	ValueUSD  float64 `json:"value_usd"`
	LogoURI   *string `json:"logoURI"`
	Volume24h float64 `json:"volume_24h"`
	MarketCap float64 `json:"market_cap"`
}

// Portfolio is a valued snapshot of a wallet.
type Portfolio struct {
	Wallet     string     `json:"wallet"`
	TotalUSD   float64    `json:"total_usd"`
	TokenCount int        `json:"token_count"`
	Tokens     []*Holding `json:"tokens"`
}
