package domain

// FeeLedgerEntry records a platform fee attached to a built swap.
// Corresponds to fee_ledger table in PostgreSQL.
type FeeLedgerEntry struct {
	TransactionID string `json:"transactionId"` // SwapRecord.ID
	FeeAmount     int64  `json:"feeAmount"`     // smallest units
	TokenMint     string `json:"tokenMint"`     // token the fee is denominated in
	FeeAccount    string `json:"feeAccount"`    // fee wallet
	CreatedAt     int64  `json:"createdAt"`     // ms
}

// FeeStat aggregates fee ledger entries for one token mint.
type FeeStat struct {
	TokenMint string `json:"tokenMint"`
	TotalFees int64  `json:"totalFees"`
	Count     int64  `json:"count"`
}
