package manifest

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

var (
	manifestShort = "Manifest operations"

	manifestLong = text.LongDesc(`
		Commands for inspecting the deployment manifest.

		The manifest holds the address, class hash and ABI of every contract deployed per network.
	`)
)

// Config holds the configuration for manifest commands.
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
		return errors.New("manifest.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new manifest command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: manifestShort,
		Long:  manifestLong,
	}

	cmd.AddCommand(newShowCmd(cfg))

	return cmd, nil
}
