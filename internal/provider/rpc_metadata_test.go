package provider

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-swap-gateway/internal/apperr"
	"solana-swap-gateway/internal/solana"
)

// fakeRPC is a scripted solana.RPCClient.
type fakeRPC struct {
	asset     *solana.Asset
	assetErr  error
	accounts  map[string]*solana.AccountInfo
	assetHits int
}

func (f *fakeRPC) GetBalance(context.Context, string) (uint64, error) { return 0, nil }

func (f *fakeRPC) GetTokenAccountsByOwner(context.Context, string, string) ([]solana.TokenAccount, error) {
	return nil, nil
}

func (f *fakeRPC) GetAsset(context.Context, string) (*solana.Asset, error) {
	f.assetHits++
	return f.asset, f.assetErr
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	return f.accounts[pubkey], nil
}

func intPtr(v int) *int { return &v }

func TestRPCMetadata_Asset(t *testing.T) {
	rpc := &fakeRPC{asset: &solana.Asset{
		Name:     "Jupiter",
		Symbol:   "JUP",
		Decimals: intPtr(6),
		Image:    "https://static.jup.ag/jup/icon.png",
	}}

	p, err := NewRPCMetadata(rpc).Fetch(context.Background(), "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN")
	require.NoError(t, err)
	assert.Equal(t, "Jupiter", *p.Name)
	assert.Equal(t, "JUP", *p.Symbol)
	assert.Equal(t, 6, *p.Decimals)
	assert.Equal(t, "https://static.jup.ag/jup/icon.png", *p.LogoURI)
	assert.Nil(t, p.Price)
}

func TestRPCMetadata_AssetNotFound(t *testing.T) {
	_, err := NewRPCMetadata(&fakeRPC{}).Fetch(context.Background(), bonkMint)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func TestRPCMetadata_TransportErrorIsUnavailable(t *testing.T) {
	rpc := &fakeRPC{assetErr: errors.New("connection reset")}

	_, err := NewRPCMetadata(rpc).Fetch(context.Background(), bonkMint)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func metaplexAccount(name, symbol string) string {
	borsh := func(s string, pad int) []byte {
		buf := make([]byte, 4+pad)
		binary.LittleEndian.PutUint32(buf, uint32(pad))
		copy(buf[4:], s)
		return buf
	}
	data := []byte{4}
	data = append(data, make([]byte, 64)...)
	data = append(data, borsh(name, 32)...)
	data = append(data, borsh(symbol, 10)...)
	data = append(data, borsh("", 200)...)
	return base64.StdEncoding.EncodeToString(data)
}

func mintAccount(decimals byte) string {
	data := make([]byte, solana.MintLayoutSize)
	data[44] = decimals
	return base64.StdEncoding.EncodeToString(data)
}

func TestRPCMetadata_OnChainFallback(t *testing.T) {
	pda, err := solana.MetadataPDA(bonkMint)
	require.NoError(t, err)

	rpc := &fakeRPC{
		assetErr: &solana.RPCError{Code: -32601, Message: "Method not found"},
		accounts: map[string]*solana.AccountInfo{
			bonkMint: {Data: mintAccount(5)},
			pda:      {Data: metaplexAccount("Bonk", "Bonk")},
		},
	}

	p, err := NewRPCMetadata(rpc).Fetch(context.Background(), bonkMint)
	require.NoError(t, err)
	assert.Equal(t, 5, *p.Decimals)
	assert.Equal(t, "Bonk", *p.Name)
	assert.Equal(t, "Bonk", *p.Symbol)
	assert.Nil(t, p.LogoURI)
}

func TestRPCMetadata_OnChainFallbackDisabled(t *testing.T) {
	rpc := &fakeRPC{assetErr: &solana.RPCError{Code: -32601, Message: "Method not found"}}

	_, err := NewRPCMetadata(rpc, WithOnChainFallback(false)).Fetch(context.Background(), bonkMint)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func TestRPCMetadata_OnChainMintMissing(t *testing.T) {
	rpc := &fakeRPC{assetErr: &solana.RPCError{Code: -32601, Message: "Method not found"}}

	_, err := NewRPCMetadata(rpc).Fetch(context.Background(), bonkMint)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}
