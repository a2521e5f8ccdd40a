package domain

// SwapStatus is the lifecycle state of a SwapRecord.
type SwapStatus string

// Swap status constants. SwapStatusFailed is accepted by stores but no
// operation currently transitions a record into it.
const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusConfirmed SwapStatus = "confirmed"
	SwapStatusFailed    SwapStatus = "failed"
)

// Valid reports whether s is a known status.
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapStatusPending, SwapStatusConfirmed, SwapStatusFailed:
		return true
	}
	return false
}

// SwapRecord is a swap transaction built for a user.
// Corresponds to swap_records table in PostgreSQL.
type SwapRecord struct {
	ID           string     `json:"id"`           // UUID
	UserWallet   string     `json:"userWallet"`   // signer public key
	InputMint    string     `json:"inputMint"`    // token sold
	OutputMint   string     `json:"outputMint"`   // token bought
	InputAmount  int64      `json:"inputAmount"`  // smallest units
	OutputAmount int64      `json:"outputAmount"` // smallest units
	FeeAmount    int64      `json:"feeAmount"`    // smallest units of output token
	FeeAccount   *string    `json:"feeAccount"`   // fee wallet (nullable)
	Status       SwapStatus `json:"status"`
	Signature    *string    `json:"signature"`    // set on confirmation (nullable)
	ErrorMessage *string    `json:"errorMessage"` // (nullable)
	CreatedAt    int64      `json:"createdAt"`    // ms
	UpdatedAt    int64      `json:"updatedAt"`    // ms
}
