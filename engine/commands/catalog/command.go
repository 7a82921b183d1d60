package catalog

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

var (
	catalogShort = "Catalog operations"

	catalogLong = text.LongDesc(`
		Commands for managing the SQL catalog.

		The catalog mirrors the manifest into a postgres table so that services without access to
		the manifest file can look up deployed contracts.
	`)
)

// Config holds the configuration for catalog commands.
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
		return errors.New("catalog.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// NewCommand creates a new catalog command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: catalogShort,
		Long:  catalogLong,
	}

	cmd.AddCommand(newSyncCmd(cfg))

	return cmd, nil
}
