package solana

import "context"

// RPCClient defines the Solana JSON-RPC methods the gateway uses.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountsByOwner returns the SPL token accounts held by owner.
	// An empty mint lists accounts of every mint owned through the SPL Token program.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)

	// GetAsset returns DAS asset metadata. Returns nil if the asset is unknown.
	GetAsset(ctx context.Context, id string) (*Asset, error)

	// GetAccountInfo returns raw account data. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}

// Well-known program and mint addresses.
const (
	TokenProgramID    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	NativeMint        = "So11111111111111111111111111111111111111112"
	LamportsPerSOL    = 1_000_000_000
	NativeDecimals    = 9
)

// TokenAccount is a parsed SPL token account.
type TokenAccount struct {
	Pubkey   string
	Mint     string
	Amount   string // raw amount, smallest units
	Decimals int
	UIAmount float64
}

// Asset is the subset of a DAS getAsset result used for metadata.
type Asset struct {
	ID       string
	Name     string
	Symbol   string
	Decimals *int
	Image    string
	Price    *float64 // token_info.price_info.price_per_token
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
