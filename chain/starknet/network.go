package starknet

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

// Known chain ids, as short strings.
const (
	ChainIDMainnet = "SN_MAIN"
	ChainIDSepolia = "SN_SEPOLIA"
)

// Network names understood without a network configuration file.
const (
	NetworkMainnet = "mainnet"
	NetworkSepolia = "sepolia"
	NetworkDevnet  = "devnet"
)

var knownChainIDs = map[string]string{
	NetworkMainnet: ChainIDMainnet,
	NetworkSepolia: ChainIDSepolia,
	// starknet-devnet defaults to the sepolia chain id
	NetworkDevnet: ChainIDSepolia,
}

// ChainIDForNetwork returns the chain id of a well known network name.
func ChainIDForNetwork(name string) (string, error) {
	id, ok := knownChainIDs[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown starknet network %q", name)
	}

	return id, nil
}

// ChainIDFelt encodes a chain id short string as used in transaction hashes.
func ChainIDFelt(chainID string) (*felt.Felt, error) {
	return ShortString(chainID)
}

// DecodeChainID decodes the hex felt returned by starknet_chainId into its short string form.
func DecodeChainID(raw string) (string, error) {
	f, err := ParseFelt(raw)
	if err != nil {
		return "", fmt.Errorf("decode chain id: %w", err)
	}

	return DecodeShortString(f), nil
}

// ChainSelector resolves the chain selector registered for a Starknet chain id. Chains unknown to
// the selector registry (such as private devnets) return an error.
func ChainSelector(chainID string) (uint64, error) {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(chainID, chainsel.FamilyStarknet)
	if err != nil {
		return 0, fmt.Errorf("no chain selector for starknet chain %s: %w", chainID, err)
	}

	return details.ChainSelector, nil
}
