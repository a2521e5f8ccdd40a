package solana

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// MintLayoutSize is the size of an SPL Token mint account.
//   - mintAuthority: Option<Pubkey> (36 bytes: 4 + 32)
//   - supply: u64 (8 bytes)
//   - decimals: u8 (1 byte)
//   - isInitialized: bool (1 byte)
//   - freezeAuthority: Option<Pubkey> (36 bytes: 4 + 32)
const MintLayoutSize = 82

// MintInfo is the parsed subset of an SPL Token mint.
type MintInfo struct {
	Supply   uint64
	Decimals int
}

// ParseMint decodes base64 SPL Token mint account data.
func ParseMint(data string) (*MintInfo, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}
	if len(decoded) < MintLayoutSize {
		return nil, fmt.Errorf("mint data too short: %d", len(decoded))
	}
	return &MintInfo{
		Supply:   binary.LittleEndian.Uint64(decoded[36:44]),
		Decimals: int(decoded[44]),
	}, nil
}

// MetaplexMetadata is the parsed prefix of a Metaplex Metadata account.
type MetaplexMetadata struct {
	Name   string
	Symbol string
	URI    string
}

// Metaplex Metadata layout:
//   - key: u8 (4 for MetadataV1)
//   - updateAuthority: Pubkey (32 bytes)
//   - mint: Pubkey (32 bytes)
//   - name, symbol, uri: borsh strings (u32 length + bytes, NUL padded)
const (
	metaplexKeyMetadataV1 = 4
	metaplexHeaderSize    = 65
)

// ParseMetaplexMetadata decodes base64 Metaplex Metadata account data.
func ParseMetaplexMetadata(data string) (*MetaplexMetadata, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(decoded) < metaplexHeaderSize+4 {
		return nil, fmt.Errorf("metadata too short: %d", len(decoded))
	}
	if decoded[0] != metaplexKeyMetadataV1 {
		return nil, fmt.Errorf("unexpected metadata key %d", decoded[0])
	}

	offset := metaplexHeaderSize
	name, offset, err := readBorshString(decoded, offset, 64)
	if err != nil {
		return nil, fmt.Errorf("read name: %w", err)
	}
	symbol, offset, err := readBorshString(decoded, offset, 32)
	if err != nil {
		return nil, fmt.Errorf("read symbol: %w", err)
	}
	uri, _, err := readBorshString(decoded, offset, 256)
	if err != nil {
		// uri is optional for our purposes
		uri = ""
	}

	return &MetaplexMetadata{Name: name, Symbol: symbol, URI: uri}, nil
}

func readBorshString(buf []byte, offset, maxLen int) (string, int, error) {
	if offset+4 > len(buf) {
		return "", offset, fmt.Errorf("truncated length at %d", offset)
	}
	n := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	if n > maxLen || offset+n > len(buf) {
		return "", offset, fmt.Errorf("invalid string length %d", n)
	}
	s := strings.TrimRight(string(buf[offset:offset+n]), "\x00")
	return strings.TrimSpace(s), offset + n, nil
}
