// Package deploy provides the CLI command that deploys the contracts of a plan.
package deploy

import (
	"context"

	"github.com/smartcontractkit/starknet-deployments/engine/config/plan"
	"github.com/smartcontractkit/starknet-deployments/engine/environment"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// EnvLoaderFunc connects to the configured network.
type EnvLoaderFunc func(ctx context.Context, lggr logger.Logger, opts ...environment.LoadOption) (*environment.Environment, error)

// PlanLoaderFunc reads the deploy plan at path.
type PlanLoaderFunc func(path string) (*plan.Plan, error)

// Deps holds the injectable dependencies for the deploy command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// EnvLoader connects to the network and loads the deployer account.
	// Default: environment.Load
	EnvLoader EnvLoaderFunc

	// PlanLoader reads the deploy plan.
	// Default: plan.Load
	PlanLoader PlanLoaderFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.EnvLoader == nil {
		d.EnvLoader = environment.Load
	}
	if d.PlanLoader == nil {
		d.PlanLoader = plan.Load
	}
}
