// Package fee computes platform fees and resolves fee-collection wallets.
package fee

import (
	"github.com/shopspring/decimal"

	"solana-swap-gateway/internal/apperr"
)

// DefaultBps is the platform fee in basis points (0.5%).
const DefaultBps = 50

var bpsDenominator = decimal.NewFromInt(10000)

// DefaultWallets maps output mints to their fee-collection wallets.
var DefaultWallets = map[string]string{
	"4ymWDE5kwxZ5rxN3mWLvJEBHESbZSiqBuvWmSVcGqZdj": "EcC2sMMECMwJRG8ZDjpyRpjR4YMFGY5GmCU7qNBqDLFp",
	"FShCGqGUWRZkqovteJBGegUJAcjRzHZiBmHYGgSqpump": "AfwGDmpKgNSKu1KHqnsCT8v5D8vRfg8Ne3CwD44BgfY8",
}

// Calculate returns floor(amount * bps / 10000).
func Calculate(amount, bps int64) (int64, error) {
	if amount < 0 {
		return 0, apperr.Invalid("fee amount must not be negative, got %d", amount)
	}
	if bps < 0 {
		return 0, apperr.Invalid("fee bps must not be negative, got %d", bps)
	}
	fee := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(bps)).Div(bpsDenominator).Floor()
	return fee.IntPart(), nil
}

// Percentage converts basis points to a display percentage (50 -> 0.5).
func Percentage(bps int64) float64 {
	return decimal.NewFromInt(bps).Div(decimal.NewFromInt(100)).InexactFloat64()
}

// Schedule holds the configured fee rate and wallet mapping.
type Schedule struct {
	bps     int64
	wallets map[string]string
}

// NewSchedule creates a Schedule. A nil wallets map uses DefaultWallets.
func NewSchedule(bps int64, wallets map[string]string) *Schedule {
	if wallets == nil {
		wallets = DefaultWallets
	}
	w := make(map[string]string, len(wallets))
	for mint, wallet := range wallets {
		w[mint] = wallet
	}
	return &Schedule{bps: bps, wallets: w}
}

// Bps returns the configured fee rate.
func (s *Schedule) Bps() int64 {
	return s.bps
}

// Calculate applies the configured rate to amount.
func (s *Schedule) Calculate(amount int64) (int64, error) {
	return Calculate(amount, s.bps)
}

// FeeAccount returns the fee wallet configured for outputMint.
// The lookup keys by the token being bought, which is also the token the fee is taken in.
func (s *Schedule) FeeAccount(outputMint string) (string, bool) {
	wallet, ok := s.wallets[outputMint]
	return wallet, ok
}
