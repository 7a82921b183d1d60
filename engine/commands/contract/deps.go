// Package contract provides the CLI commands that read from and write to deployed contracts.
package contract

import (
	"context"

	"github.com/smartcontractkit/starknet-deployments/engine/environment"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// EnvLoaderFunc connects to the configured network.
type EnvLoaderFunc func(ctx context.Context, lggr logger.Logger, opts ...environment.LoadOption) (*environment.Environment, error)

// ManifestLoaderFunc reads the manifest at path.
type ManifestLoaderFunc func(path string, lggr logger.Logger) (fmanifest.Manifest, error)

// defaultManifestLoader is the production implementation that reads the manifest file.
func defaultManifestLoader(path string, lggr logger.Logger) (fmanifest.Manifest, error) {
	return fmanifest.NewExporter(path, lggr).Load()
}

// Deps holds the injectable dependencies for contract commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// EnvLoader connects to the network and loads the deployer account.
	// Default: environment.Load
	EnvLoader EnvLoaderFunc

	// ManifestLoader reads the manifest holding the contract.
	// Default: manifest.Exporter.Load
	ManifestLoader ManifestLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.EnvLoader == nil {
		d.EnvLoader = environment.Load
	}
	if d.ManifestLoader == nil {
		d.ManifestLoader = defaultManifestLoader
	}
}
