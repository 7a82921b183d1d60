// Package commands assembles the starknet-deploy CLI.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	commands := commands.New(lggr)
//	deployCmd, err := commands.Deploy()
//	if err != nil {
//	    return err
//	}
//	app.AddCommand(deployCmd)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/smartcontractkit/starknet-deployments/engine/commands/deploy"
//
//	cmd, err := deploy.NewCommand(deploy.Config{
//	    Logger: lggr,
//	    Deps:   deploy.Deps{...},  // inject fakes for testing
//	})
//	if err != nil {
//	    return err
//	}
//	app.AddCommand(cmd)
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/catalog"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/contract"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/deploy"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/manifest"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// Deploy creates the deploy command.
func (c *Commands) Deploy() (*cobra.Command, error) {
	return deploy.NewCommand(deploy.Config{Logger: c.lggr})
}

// Manifest creates the manifest command group.
func (c *Commands) Manifest() (*cobra.Command, error) {
	return manifest.NewCommand(manifest.Config{Logger: c.lggr})
}

// Call creates the call command.
func (c *Commands) Call() (*cobra.Command, error) {
	return contract.NewCallCommand(contract.Config{Logger: c.lggr})
}

// Invoke creates the invoke command.
func (c *Commands) Invoke() (*cobra.Command, error) {
	return contract.NewInvokeCommand(contract.Config{Logger: c.lggr})
}

// Catalog creates the catalog command group.
func (c *Commands) Catalog() (*cobra.Command, error) {
	return catalog.NewCommand(catalog.Config{Logger: c.lggr})
}

var rootLong = text.LongDesc(`
	Deploys Starknet contracts through the Universal Deployer Contract and keeps a manifest of
	the deployed addresses and ABIs.

	The network and deployer account are read from STARKNET_NETWORK, STARKNET_RPC_URL,
	STARKNET_ACCOUNT_ADDRESS and STARKNET_PRIVATE_KEY, or from the file given with --config.
`)

// Root creates the starknet-deploy root command with every subcommand attached.
func (c *Commands) Root() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "starknet-deploy",
		Short:         "Starknet contract deployment",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, newCmd := range []func() (*cobra.Command, error){c.Deploy, c.Manifest, c.Call, c.Invoke, c.Catalog} {
		cmd, err := newCmd()
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}

	return root, nil
}
