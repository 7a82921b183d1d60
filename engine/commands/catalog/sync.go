package catalog

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/flags"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
)

var (
	syncShort = "Sync the manifest to the catalog"

	syncLong = text.LongDesc(`
		Writes every entry of the manifest into the catalog in a single transaction. Rows of the
		same network and contract are replaced, other rows are kept.

		The connection string is read from CATALOG_DSN, or DATABASE_URL when it is not set.
	`)

	syncExample = text.Examples(`
		# Sync the default manifest
		CATALOG_DSN=postgres://deployer@localhost/deployments starknet-deploy catalog sync
	`)
)

type syncFlags struct {
	manifest string
	config   string
}

// newSyncCmd creates the "sync" subcommand.
func newSyncCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Short:   syncShort,
		Long:    syncLong,
		Example: syncExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := syncFlags{
				manifest: flags.MustString(cmd.Flags().GetString("manifest")),
				config:   flags.MustString(cmd.Flags().GetString("config")),
			}

			return runSync(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Manifest(cmd)
	flags.Config(cmd)

	return cmd
}

// runSync executes the sync command logic.
func runSync(cmd *cobra.Command, cfg Config, f syncFlags) (err error) {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	envCfg, err := deps.ConfigLoader(f.config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if envCfg.Catalog.DSN == "" {
		return errors.New("catalog is not configured, set CATALOG_DSN")
	}

	m, err := deps.ManifestLoader(f.manifest, cfg.Logger)
	if err != nil {
		return err
	}

	// --- Execute

	cmd.Printf("📡 Syncing %s to catalog\n", f.manifest)

	store, err := deps.StoreOpener(ctx, envCfg.Catalog.DSN, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	if err = store.Migrate(ctx); err != nil {
		return err
	}
	n, err := store.Sync(ctx, m)
	if err != nil {
		return fmt.Errorf("error syncing manifest to catalog: %w", err)
	}

	cmd.Printf("✅ Synced %s to catalog\n", text.Plural(n, "row"))

	return nil
}
