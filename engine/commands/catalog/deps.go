// Package catalog provides CLI commands for mirroring the manifest into the SQL catalog.
package catalog

import (
	"context"

	cfgenv "github.com/smartcontractkit/starknet-deployments/engine/config/env"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
	fcatalog "github.com/smartcontractkit/starknet-deployments/manifest/catalog"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// Store is the part of the catalog store used by the commands.
type Store interface {
	Migrate(ctx context.Context) error
	Sync(ctx context.Context, m fmanifest.Manifest) (int, error)
	Close() error
}

// ConfigLoaderFunc loads the environment configuration, from path when it is not empty.
type ConfigLoaderFunc func(path string) (*cfgenv.Config, error)

// StoreOpenerFunc connects to the catalog database.
type StoreOpenerFunc func(ctx context.Context, dsn string, lggr logger.Logger) (Store, error)

// ManifestLoaderFunc reads the manifest at path.
type ManifestLoaderFunc func(path string, lggr logger.Logger) (fmanifest.Manifest, error)

// defaultConfigLoader is the production implementation that loads the environment config.
func defaultConfigLoader(path string) (*cfgenv.Config, error) {
	if path == "" {
		return cfgenv.LoadEnv()
	}

	return cfgenv.Load(path)
}

// defaultStoreOpener is the production implementation that connects to postgres.
func defaultStoreOpener(ctx context.Context, dsn string, lggr logger.Logger) (Store, error) {
	return fcatalog.Open(ctx, fcatalog.DriverPostgres, dsn, lggr)
}

// defaultManifestLoader is the production implementation that reads the manifest file.
func defaultManifestLoader(path string, lggr logger.Logger) (fmanifest.Manifest, error) {
	return fmanifest.NewExporter(path, lggr).Load()
}

// Deps holds the injectable dependencies for catalog commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ConfigLoader loads the catalog connection string.
	// Default: config.Load or config.LoadEnv
	ConfigLoader ConfigLoaderFunc

	// StoreOpener connects to the catalog.
	// Default: catalog.Open with the postgres driver
	StoreOpener StoreOpenerFunc

	// ManifestLoader reads the manifest to sync.
	// Default: manifest.Exporter.Load
	ManifestLoader ManifestLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = defaultConfigLoader
	}
	if d.StoreOpener == nil {
		d.StoreOpener = defaultStoreOpener
	}
	if d.ManifestLoader == nil {
		d.ManifestLoader = defaultManifestLoader
	}
}
