package deployment

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// Names of the precondition checks.
const (
	CheckDeployerDefined  = "deployer-defined"
	CheckNetworkActive    = "network-active"
	CheckDeployerSignable = "deployer-signable"
)

// signProbe is the message hash signed to prove the deployer key controls the account.
var signProbe = starknet.MustShortString("starknet-deploy-probe")

// CheckerConfig is what the precondition checks inspect.
type CheckerConfig struct {
	// Network is the target network name.
	Network string
	// ChainID is the chain id the endpoint must report.
	ChainID string
	Client  starknet.Client
	// Deployer is nil when no deployer could be loaded. DeployerErr then holds the reason.
	Deployer    *starknet.Account
	DeployerErr error
}

// Checker verifies the deployer, the network endpoint and the signing capability before any
// deployment work is done.
type Checker struct {
	cfg  CheckerConfig
	lggr logger.Logger
}

// NewChecker returns a Checker for cfg.
func NewChecker(cfg CheckerConfig, lggr logger.Logger) *Checker {
	return &Checker{cfg: cfg, lggr: lggr.Named("checker")}
}

// CheckAll runs every check concurrently and returns the first failure as a KindPrecondition
// *Error. The remaining checks are cancelled once one fails.
func (c *Checker) CheckAll(ctx context.Context) error {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{CheckDeployerDefined, c.deployerDefined},
		{CheckNetworkActive, c.networkActive},
		{CheckDeployerSignable, c.deployerSignable},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		g.Go(func() error {
			if err := check.fn(gctx); err != nil {
				c.lggr.Errorw("Precondition check failed", "check", check.name, "error", err)
				return newError(KindPrecondition, GlobalScope, check.name+" check failed", err)
			}
			c.lggr.Debugw("Precondition check passed", "check", check.name)

			return nil
		})
	}

	return g.Wait()
}

func (c *Checker) deployerDefined(_ context.Context) error {
	if c.cfg.DeployerErr != nil {
		return fmt.Errorf("deployer account is not defined: %w", c.cfg.DeployerErr)
	}
	if c.cfg.Deployer == nil {
		return errors.New("deployer account is not defined")
	}

	return nil
}

func (c *Checker) networkActive(ctx context.Context) error {
	if c.cfg.Client == nil {
		return errors.New("no rpc client configured")
	}

	got, err := c.cfg.Client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("rpc endpoint for network %s is not reachable: %w", c.cfg.Network, err)
	}
	if c.cfg.ChainID != "" && got != c.cfg.ChainID {
		return fmt.Errorf("rpc endpoint serves chain %s, network %s expects %s", got, c.cfg.Network, c.cfg.ChainID)
	}

	return nil
}

func (c *Checker) deployerSignable(ctx context.Context) error {
	if c.cfg.Deployer == nil {
		return c.deployerDefined(ctx)
	}
	if c.cfg.Client == nil {
		return errors.New("no rpc client configured")
	}

	sig, err := c.cfg.Deployer.Sign(ctx, signProbe)
	if err != nil {
		return fmt.Errorf("deployer key cannot sign: %w", err)
	}

	return c.cfg.Deployer.VerifyOnchain(ctx, c.cfg.Client, signProbe, sig)
}
