package starknet

import (
	"fmt"

	chainsel "github.com/smartcontractkit/chain-selectors"
)

// Chain is a Starknet network the tooling is connected to, together with the deployer account.
type Chain struct {
	// Network is the configured network name, e.g. sepolia.
	Network string
	// ChainID is the decoded chain id, e.g. SN_SEPOLIA.
	ChainID string
	// Selector is the chain selector, zero for networks unknown to the selector registry.
	Selector uint64
	// URL is the RPC endpoint the client is connected to.
	URL string

	Client   Client
	Deployer *Account
}

// ChainSelector returns the chain selector of the chain.
func (c Chain) ChainSelector() uint64 { return c.Selector }

// Name returns the network name of the chain.
func (c Chain) Name() string { return c.Network }

// Family returns the selector family of the chain.
func (c Chain) Family() string { return chainsel.FamilyStarknet }

// String returns chain name and chain id "<name> (<chain id>)".
func (c Chain) String() string { return fmt.Sprintf("%s (%s)", c.Network, c.ChainID) }
