package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const pdaMarker = "ProgramDerivedAddress"

// FindProgramAddress derives a Program Derived Address, searching bumps from 255 down.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", 0, fmt.Errorf("decode program id: %w", err)
	}
	if len(program) != 32 {
		return "", 0, fmt.Errorf("program id must be 32 bytes, got %d", len(program))
	}

	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, program...)
		data = append(data, []byte(pdaMarker)...)

		hash := sha256.Sum256(data)

		// A PDA must lie off the ed25519 curve
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), uint8(bump), nil
		}
	}

	return "", 0, fmt.Errorf("no viable bump seed")
}

// MetadataPDA returns the Metaplex metadata account of mint.
// Seeds: ["metadata", metaplex_program_id, mint]
func MetadataPDA(mint string) (string, error) {
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	if len(mintBytes) != 32 {
		return "", fmt.Errorf("mint must be 32 bytes, got %d", len(mintBytes))
	}
	programBytes, err := base58.Decode(MetaplexProgramID)
	if err != nil {
		return "", fmt.Errorf("decode metaplex program: %w", err)
	}

	pda, _, err := FindProgramAddress([][]byte{[]byte("metadata"), programBytes, mintBytes}, MetaplexProgramID)
	return pda, err
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
