// Package environment assembles the Starknet connection, deployer account and settings a command
// runs with, from the environment configuration and the networks file.
package environment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/provider"
	"github.com/smartcontractkit/starknet-deployments/deployment"
	cfgenv "github.com/smartcontractkit/starknet-deployments/engine/config/env"
	"github.com/smartcontractkit/starknet-deployments/engine/config/network"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// DefaultDevnetRPC is the endpoint of a local starknet-devnet.
const DefaultDevnetRPC = "http://127.0.0.1:5050/rpc"

// Environment is a connected Starknet network together with the deployer account.
type Environment struct {
	Config  *cfgenv.Config
	Network network.Network
	Chain   starknet.Chain
	// Sender is nil when the deployer account could not be loaded.
	Sender *starknet.Sender
	// DeployerErr is why the deployer account could not be loaded.
	DeployerErr error
}

// CheckerConfig returns the configuration of the deployment preconditions.
func (e *Environment) CheckerConfig() deployment.CheckerConfig {
	return deployment.CheckerConfig{
		Network:     e.Chain.Network,
		ChainID:     e.Chain.ChainID,
		Client:      e.Chain.Client,
		Deployer:    e.Chain.Deployer,
		DeployerErr: e.DeployerErr,
	}
}

// Close releases the connection to the node.
func (e *Environment) Close() {
	if c, ok := e.Chain.Client.(interface{ Close() }); ok {
		c.Close()
	}
}

// LoadOptions configures Load.
type LoadOptions struct {
	configFile   string
	networksFile string
	network      string
}

// Network returns the network override, empty when the configured network is used.
func (o *LoadOptions) Network() string { return o.network }

// LoadOption is a function that modifies LoadOptions.
type LoadOption func(*LoadOptions)

// WithConfigFile reads the environment configuration from path before applying env vars.
func WithConfigFile(path string) LoadOption {
	return func(o *LoadOptions) {
		o.configFile = path
	}
}

// WithNetworksFile reads network definitions from path. A missing file leaves only the well known
// networks.
func WithNetworksFile(path string) LoadOption {
	return func(o *LoadOptions) {
		o.networksFile = path
	}
}

// WithNetwork overrides the configured network.
func WithNetwork(name string) LoadOption {
	return func(o *LoadOptions) {
		o.network = name
	}
}

// Load connects to the configured network. A deployer account that cannot be loaded does not
// fail Load; it is reported through DeployerErr.
func Load(ctx context.Context, lggr logger.Logger, opts ...LoadOption) (*Environment, error) {
	o := &LoadOptions{networksFile: network.DefaultPath}
	for _, opt := range opts {
		opt(o)
	}

	var (
		cfg *cfgenv.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = cfgenv.Load(o.configFile)
	} else {
		cfg, err = cfgenv.LoadEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}
	if o.network != "" {
		cfg.Starknet.Network = o.network
	}

	networks, err := LoadNetworks(o.networksFile)
	if err != nil {
		return nil, err
	}
	net, err := ResolveNetwork(networks, cfg.Starknet)
	if err != nil {
		return nil, err
	}
	chainID, err := net.ResolvedChainID()
	if err != nil {
		return nil, err
	}

	p := provider.NewRPCChainProvider(lggr, provider.RPCChainProviderConfig{
		Network:              net.Name,
		ChainID:              chainID,
		RPCURL:               net.PreferredRPC(),
		DeployerAccountGen:   provider.AccountGenPrivateKey(cfg.Starknet.AccountAddress, cfg.Starknet.PrivateKey),
		AllowMissingDeployer: true,
	})
	bc, err := p.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize network %s: %w", net.Name, err)
	}
	sn, ok := bc.(starknet.Chain)
	if !ok {
		return nil, fmt.Errorf("unexpected chain type %T", bc)
	}

	return New(cfg, net, sn, p.DeployerErr(), lggr)
}

// New assembles an environment around an already connected chain.
func New(cfg *cfgenv.Config, net network.Network, sn starknet.Chain, deployerErr error, lggr logger.Logger) (*Environment, error) {
	env := &Environment{Config: cfg, Network: net, Chain: sn, DeployerErr: deployerErr}
	if sn.Deployer == nil {
		if env.DeployerErr == nil {
			env.DeployerErr = errors.New("no deployer account configured")
		}

		return env, nil
	}

	sender, err := starknet.NewSender(sn.Client, sn.Deployer, sn.ChainID, lggr.Named("sender"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	env.Sender = sender

	return env, nil
}

// LoadNetworks reads the networks file. Without a file only the well known networks are
// available, and their RPC endpoint must come from the environment configuration.
func LoadNetworks(path string) (*network.Config, error) {
	if path == "" {
		return network.NewConfig(wellKnownNetworks()), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return network.NewConfig(wellKnownNetworks()), nil
	}

	cfg, err := network.Load([]string{path}, network.WithEnvExpansion())
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveNetwork picks the configured network. The RPC URL of the environment configuration
// takes precedence over the endpoints of the networks file.
func ResolveNetwork(networks *network.Config, sc cfgenv.StarknetConfig) (network.Network, error) {
	name := sc.Network
	if name == "" {
		name = cfgenv.DefaultNetwork
	}

	net, err := networks.NetworkByName(name)
	if err != nil {
		return network.Network{}, err
	}
	if sc.RPCURL != "" {
		net.RPCs = append([]network.RPC{{RPCName: "env", HTTPURL: sc.RPCURL}}, net.RPCs...)
	}
	if net.PreferredRPC() == "" {
		return network.Network{}, fmt.Errorf("no rpc url configured for network %s, set STARKNET_RPC_URL", name)
	}

	return net, nil
}

// wellKnownNetworks lists the networks usable without a networks file. Only the devnet has a
// default endpoint.
func wellKnownNetworks() []network.Network {
	return []network.Network{
		{
			Name:          starknet.NetworkMainnet,
			Type:          network.NetworkTypeMainnet,
			ChainID:       starknet.ChainIDMainnet,
			BlockExplorer: network.BlockExplorer{Type: "voyager", URL: "https://voyager.online"},
		},
		{
			Name:          starknet.NetworkSepolia,
			Type:          network.NetworkTypeTestnet,
			ChainID:       starknet.ChainIDSepolia,
			BlockExplorer: network.BlockExplorer{Type: "voyager", URL: "https://sepolia.voyager.online"},
		},
		{
			Name:    starknet.NetworkDevnet,
			Type:    network.NetworkTypeDevnet,
			ChainID: starknet.ChainIDSepolia,
			RPCs:    []network.RPC{{RPCName: "local", HTTPURL: DefaultDevnetRPC}},
		},
	}
}
