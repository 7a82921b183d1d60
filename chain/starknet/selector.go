package starknet

import (
	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/crypto/sha3"
)

// Keccak returns the Starknet keccak of data: keccak256 truncated to its 250 least significant bits.
func Keccak(data []byte) *felt.Felt {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	sum := h.Sum(nil)
	sum[0] &= 0x03

	return new(felt.Felt).SetBytes(sum)
}

// GetSelectorFromName returns the entry point selector for a Cairo function or event name.
func GetSelectorFromName(name string) *felt.Felt {
	return Keccak([]byte(name))
}
