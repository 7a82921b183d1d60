package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smartcontractkit/starknet-deployments/deployment"
	"github.com/smartcontractkit/starknet-deployments/internal/jsonutils"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// DefaultPath is the manifest location relative to the project root.
const DefaultPath = "deployments/manifest.json"

// filePerm keeps the manifest readable by other local tooling.
const filePerm = 0o644

// Exporter reads and writes the manifest file. Writes replace the file atomically, so readers
// never observe a partially written manifest.
type Exporter struct {
	path string
	// latestDir, when set, also receives a <network>_latest.json file per exported network.
	latestDir string
	lggr      logger.Logger

	mu sync.Mutex
}

var _ deployment.Manifest = (*Exporter)(nil)

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLatestFiles writes, next to the manifest, one <network>_latest.json file per exported
// network holding only that network's contracts.
func WithLatestFiles() ExporterOption {
	return func(e *Exporter) {
		e.latestDir = filepath.Dir(e.path)
	}
}

// NewExporter returns an Exporter for the manifest at path.
func NewExporter(path string, lggr logger.Logger, opts ...ExporterOption) *Exporter {
	e := &Exporter{path: path, lggr: lggr.Named("manifest")}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Path returns the manifest file path.
func (e *Exporter) Path() string { return e.path }

// Load reads the manifest. A missing file is an empty manifest.
func (e *Exporter) Load() (Manifest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.load()
}

// Lookup returns the recorded deployment of contract on network.
func (e *Exporter) Lookup(network, contract string) (deployment.DeployResult, bool, error) {
	m, err := e.Load()
	if err != nil {
		return deployment.DeployResult{}, false, err
	}

	entry, err := m.Get(network, contract)
	if errors.Is(err, ErrEntryNotFound) {
		return deployment.DeployResult{}, false, nil
	}

	return entry.Result(network), true, nil
}

// Export merges results into the entries of network and rewrites the manifest.
func (e *Exporter) Export(network string, results []deployment.DeployResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.load()
	if err != nil {
		return err
	}
	m.Merge(network, results)

	if err = jsonutils.WriteFile(e.path, m, filePerm); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", e.path, err)
	}
	e.lggr.Infow("Manifest written", "path", e.path, "network", network, "contracts", len(results))

	if e.latestDir != "" {
		latest := filepath.Join(e.latestDir, network+"_latest.json")
		if err = jsonutils.WriteFile(latest, m[network], filePerm); err != nil {
			return fmt.Errorf("failed to write %s: %w", latest, err)
		}
	}

	return nil
}

func (e *Exporter) load() (Manifest, error) {
	m, err := jsonutils.LoadFile[Manifest](e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}

		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	if m == nil {
		m = Manifest{}
	}

	return m, nil
}
