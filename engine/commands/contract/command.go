package contract

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/binding"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/flags"
	"github.com/smartcontractkit/starknet-deployments/engine/environment"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// Config holds the configuration for contract commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("contract.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// targetFlags select the contract and the environment it is deployed on.
type targetFlags struct {
	manifest string
	config   string
	networks string
	network  string
	contract string
	args     []string
}

func addTargetFlags(cmd *cobra.Command) {
	flags.Manifest(cmd)
	flags.Config(cmd)
	flags.Networks(cmd)
	flags.Network(cmd)
	flags.Contract(cmd)
	flags.Args(cmd)
}

func readTargetFlags(cmd *cobra.Command) targetFlags {
	return targetFlags{
		manifest: flags.MustString(cmd.Flags().GetString("manifest")),
		config:   flags.MustString(cmd.Flags().GetString("config")),
		networks: flags.MustString(cmd.Flags().GetString("networks")),
		network:  flags.MustString(cmd.Flags().GetString("network")),
		contract: flags.MustString(cmd.Flags().GetString("contract")),
		args:     flags.MustStringArray(cmd.Flags().GetStringArray("arg")),
	}
}

// loadContract connects to the network and binds the manifest entry of the contract, writable
// through the deployer account when writable is set. The caller closes the returned environment.
func loadContract(cmd *cobra.Command, cfg Config, f targetFlags, writable bool) (*binding.Contract, *environment.Environment, error) {
	deps := cfg.deps()

	m, err := deps.ManifestLoader(f.manifest, cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	envOpts := []environment.LoadOption{environment.WithNetworksFile(f.networks)}
	if f.config != "" {
		envOpts = append(envOpts, environment.WithConfigFile(f.config))
	}
	if f.network != "" {
		envOpts = append(envOpts, environment.WithNetwork(f.network))
	}
	env, err := deps.EnvLoader(cmd.Context(), cfg.Logger, envOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load environment: %w", err)
	}

	entry, err := m.Get(env.Chain.Network, f.contract)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("contract %s on %s: %w", f.contract, env.Chain.Network, err)
	}

	opts := []binding.Option{binding.WithLogger(cfg.Logger)}
	if writable {
		if env.Sender == nil {
			env.Close()
			return nil, nil, fmt.Errorf("cannot send transactions: %w", env.DeployerErr)
		}
		opts = append(opts, binding.WithSender(env.Sender))
	}
	c, err := binding.FromEntry(entry, env.Chain.Client, opts...)
	if err != nil {
		env.Close()
		return nil, nil, err
	}

	return c, env, nil
}
