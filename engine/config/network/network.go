package network

import (
	"errors"
	"fmt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
)

// NetworkType represents the type of network.
type NetworkType string

const (
	NetworkTypeMainnet NetworkType = "mainnet"
	NetworkTypeTestnet NetworkType = "testnet"
	NetworkTypeDevnet  NetworkType = "devnet"
)

// Network represents a network configuration.
type Network struct {
	Name          string        `yaml:"name"`
	Type          NetworkType   `yaml:"type"`
	ChainID       string        `yaml:"chain_id"`
	BlockExplorer BlockExplorer `yaml:"block_explorer"`
	RPCs          []RPC         `yaml:"rpcs"`
	Metadata      any           `yaml:"metadata"`
}

// ResolvedChainID returns the configured chain id, falling back to the chain id of a well known
// network of the same name.
func (n *Network) ResolvedChainID() (string, error) {
	if n.ChainID != "" {
		return n.ChainID, nil
	}

	return starknet.ChainIDForNetwork(n.Name)
}

// ChainSelector returns the chain selector registered for the chain id of the network.
func (n *Network) ChainSelector() (uint64, error) {
	id, err := n.ResolvedChainID()
	if err != nil {
		return 0, err
	}

	return starknet.ChainSelector(id)
}

// Validate validates the network configuration to ensure that all required fields are set.
func (n *Network) Validate() error {
	if n.Name == "" {
		return errors.New("name is required")
	}

	switch n.Type {
	case NetworkTypeMainnet, NetworkTypeTestnet, NetworkTypeDevnet:
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown network type %q", n.Type)
	}

	if _, err := n.ResolvedChainID(); err != nil {
		return errors.New("chain id is required for networks that are not well known")
	}

	if len(n.RPCs) == 0 {
		return errors.New("at least one RPC is required")
	}

	return nil
}

// PreferredRPC returns the endpoint of the first RPC.
func (n *Network) PreferredRPC() string {
	if len(n.RPCs) == 0 {
		return ""
	}

	return n.RPCs[0].PreferredEndpoint()
}

// TxURL returns the block explorer link of a transaction, or an empty string when the network
// has no block explorer.
func (n *Network) TxURL(txHash string) string {
	if n.BlockExplorer.URL == "" {
		return ""
	}

	return n.BlockExplorer.URL + "/tx/" + txHash
}

// RPC represents an RPC configuration in the flattened structure
type RPC struct {
	RPCName            string `yaml:"rpc_name"`
	PreferredURLScheme string `yaml:"preferred_url_scheme"`
	HTTPURL            string `yaml:"http_url"`
	WSURL              string `yaml:"ws_url"`
}

// PreferredEndpoint returns the correct endpoint based on the preferred URL scheme. By default, it
// returns the HTTP URL.
func (rpc *RPC) PreferredEndpoint() string {
	if rpc.PreferredURLScheme == "ws" {
		return rpc.WSURL
	}

	return rpc.HTTPURL
}

// BlockExplorer represents a block explorer configuration in the flattened structure
type BlockExplorer struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}
