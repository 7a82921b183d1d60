package chain

import (
	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
)

var _ BlockChain = starknet.Chain{}

// BlockChain is an interface that represents a chain the tooling deploys to.
type BlockChain interface {
	// String returns chain name and chain id "<name> (<chain id>)"
	String() string
	// Name returns the name of the chain
	Name() string
	ChainSelector() uint64
	Family() string
}
