// Package manifest provides CLI commands for inspecting the deployment manifest.
package manifest

import (
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// ManifestLoaderFunc reads the manifest at path.
type ManifestLoaderFunc func(path string, lggr logger.Logger) (fmanifest.Manifest, error)

// defaultManifestLoader is the production implementation that reads the manifest file.
func defaultManifestLoader(path string, lggr logger.Logger) (fmanifest.Manifest, error) {
	return fmanifest.NewExporter(path, lggr).Load()
}

// Deps holds the injectable dependencies for manifest commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// ManifestLoader reads the manifest.
	// Default: manifest.Exporter.Load
	ManifestLoader ManifestLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.ManifestLoader == nil {
		d.ManifestLoader = defaultManifestLoader
	}
}
