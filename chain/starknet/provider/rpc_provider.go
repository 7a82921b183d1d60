package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smartcontractkit/starknet-deployments/chain"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/rpcclient"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: The network name, e.g. sepolia.
	Network string
	// Optional: The chain id short string. Defaults to the chain id of a well known network.
	ChainID string
	// Required: The RPC URL to connect to the Starknet node.
	RPCURL string
	// Required: Generator of the deployer account.
	DeployerAccountGen AccountGenerator
	// Optional: Initialize a chain without deployer when the account cannot be generated. The
	// generation error is available from DeployerErr, so that it can be reported as a failed
	// precondition instead of aborting the setup.
	AllowMissingDeployer bool
	// Optional: Number of receipt polls and delay between them when waiting for transactions.
	ConfirmRetryAttempts uint
	ConfirmRetryDelay    time.Duration
}

// validate checks if the RPCChainProviderConfig is valid.
func (c RPCChainProviderConfig) validate() error {
	if c.Network == "" {
		return errors.New("network is required")
	}
	if c.RPCURL == "" {
		return errors.New("rpc url is required")
	}
	if c.DeployerAccountGen == nil {
		return errors.New("deployer account generator is required")
	}

	return nil
}

var _ chain.Provider = (*RPCChainProvider)(nil)

// RPCChainProvider is a chain provider that provides a chain that connects to a Starknet node via
// JSON-RPC. Initialize does not contact the node, reachability is asserted by the deployment
// preconditions.
type RPCChainProvider struct {
	config RPCChainProviderConfig
	lggr   logger.Logger

	// chain is the Starknet chain instance that this provider manages. The Initialize method
	// sets up the chain.
	chain *starknet.Chain
	// deployerErr is the account generation failure tolerated by AllowMissingDeployer.
	deployerErr error
}

// NewRPCChainProvider creates a new RPCChainProvider with the given configuration.
func NewRPCChainProvider(lggr logger.Logger, config RPCChainProviderConfig) *RPCChainProvider {
	return &RPCChainProvider{
		config: config,
		lggr:   lggr,
	}
}

// Initialize validates the configuration, generates the deployer account and sets up the RPC
// client.
func (p *RPCChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	if err := p.config.validate(); err != nil {
		return nil, fmt.Errorf("failed to validate provider config: %w", err)
	}

	chainID := p.config.ChainID
	if chainID == "" {
		var err error
		if chainID, err = starknet.ChainIDForNetwork(p.config.Network); err != nil {
			return nil, fmt.Errorf("chain id is required for network %s: %w", p.config.Network, err)
		}
	}

	deployer, err := p.config.DeployerAccountGen.Generate()
	if err != nil {
		if !p.config.AllowMissingDeployer {
			return nil, fmt.Errorf("failed to generate deployer account: %w", err)
		}
		p.deployerErr = err
		deployer = nil
	}

	var opts []rpcclient.Option
	if p.config.ConfirmRetryAttempts > 0 {
		opts = append(opts, rpcclient.WithConfirmRetry(p.config.ConfirmRetryAttempts, p.config.ConfirmRetryDelay))
	}
	client, err := rpcclient.Dial(ctx, p.config.RPCURL, p.lggr.Named("rpc"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	selector, err := starknet.ChainSelector(chainID)
	if err != nil {
		p.lggr.Debugw("No chain selector registered for chain", "chainID", chainID, "err", err)
	}

	p.chain = &starknet.Chain{
		Network:  p.config.Network,
		ChainID:  chainID,
		Selector: selector,
		URL:      p.config.RPCURL,
		Client:   client,
		Deployer: deployer,
	}

	return *p.chain, nil
}

// DeployerErr returns why the deployer account could not be generated, nil when the chain has a
// deployer.
func (p *RPCChainProvider) DeployerErr() error {
	return p.deployerErr
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "Starknet RPC Chain Provider"
}

// ChainSelector returns the chain selector of the chain, zero before Initialize or for chains
// unknown to the selector registry.
func (p *RPCChainProvider) ChainSelector() uint64 {
	if p.chain == nil {
		return 0
	}

	return p.chain.Selector
}

// BlockChain returns the Starknet chain instance managed by this provider. You must call
// Initialize before using this method to ensure the chain is properly set up.
func (p *RPCChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}
