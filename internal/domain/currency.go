package domain

// ExchangeRate is a USD/IDR quote.
type ExchangeRate struct {
	Rate         float64 `json:"rate"`
	LastUpdate   string  `json:"last_update"`
	Source       string  `json:"source"` // provider host or "fallback"
	CurrencyPair string  `json:"currency_pair"`
}

// CurrencyPairUSDIDR is the only supported pair.
const CurrencyPairUSDIDR = "USD/IDR"
