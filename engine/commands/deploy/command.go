package deploy

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/deployment"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/flags"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
	"github.com/smartcontractkit/starknet-deployments/engine/environment"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/operations"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

const (
	// journalFile holds submitted deployments not yet in the manifest, next to the manifest.
	journalFile = ".journal.json"
	// reportsDir holds the operation reports, next to the manifest.
	reportsDir = "reports"
)

var (
	deployShort = "Deploy the contracts of a plan"

	deployLong = text.LongDesc(`
		Deploys every contract of the plan through the Universal Deployer Contract and records
		the accepted deployments in the manifest.

		Before anything is submitted the network must answer with the expected chain id and the
		deployer account must be able to sign. Contracts already in the manifest with identical
		inputs are not deployed again. A contract that fails does not stop the others unless the
		plan sets failOnPartial or --fail-on-partial is given.
	`)

	deployExample = text.Examples(`
		# Deploy deploy.yaml to the network of STARKNET_NETWORK
		starknet-deploy deploy

		# Deploy another plan to sepolia and fail when any contract fails
		starknet-deploy deploy -p plans/tokens.yaml -n sepolia --fail-on-partial
	`)
)

// Config holds the configuration for the deploy command.
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
		return errors.New("deploy.Config: missing required fields: Logger")
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

type deployFlags struct {
	plan          string
	manifest      string
	config        string
	networks      string
	network       string
	failOnPartial bool
}

// NewCommand creates the deploy command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:     "deploy",
		Short:   deployShort,
		Long:    deployLong,
		Example: deployExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := deployFlags{
				plan:          flags.MustString(cmd.Flags().GetString("plan")),
				manifest:      flags.MustString(cmd.Flags().GetString("manifest")),
				config:        flags.MustString(cmd.Flags().GetString("config")),
				networks:      flags.MustString(cmd.Flags().GetString("networks")),
				network:       flags.MustString(cmd.Flags().GetString("network")),
				failOnPartial: flags.MustBool(cmd.Flags().GetBool("fail-on-partial")),
			}

			return runDeploy(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Plan(cmd)
	flags.Manifest(cmd)
	flags.Config(cmd)
	flags.Networks(cmd)
	flags.Network(cmd)

	// Local flags
	cmd.Flags().Bool("fail-on-partial", false, "Exit with an error when any contract fails to deploy")

	return cmd, nil
}

// runDeploy executes the deploy command logic.
func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags) error {
	ctx := cmd.Context()
	deps := cfg.deps()

	// --- Load

	p, err := deps.PlanLoader(f.plan)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	specs, err := p.Specs()
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	defaults, err := p.DefaultFees()
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	network := f.network
	if network == "" {
		network = p.Network
	}
	opts := []environment.LoadOption{environment.WithNetworksFile(f.networks)}
	if f.config != "" {
		opts = append(opts, environment.WithConfigFile(f.config))
	}
	if network != "" {
		opts = append(opts, environment.WithNetwork(network))
	}

	env, err := deps.EnvLoader(ctx, cfg.Logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	defer env.Close()

	dir := filepath.Dir(f.manifest)
	journal, err := deployment.OpenJournal(filepath.Join(dir, journalFile))
	if err != nil {
		return err
	}
	reporter, err := operations.NewFileReporter(filepath.Join(dir, reportsDir))
	if err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// --- Execute

	exporter := fmanifest.NewExporter(f.manifest, cfg.Logger, fmanifest.WithLatestFiles())

	var deployer *felt.Felt
	if env.Chain.Deployer != nil {
		deployer = env.Chain.Deployer.Address()
	}

	execOpts := []deployment.ExecutorOption{
		deployment.WithManifest(exporter),
		deployment.WithJournal(journal),
		deployment.WithReporter(reporter),
	}
	if p.Concurrency > 0 {
		execOpts = append(execOpts, deployment.WithConcurrency(p.Concurrency))
	}
	pipeOpts := []deployment.PipelineOption{deployment.WithPipelineJournal(journal)}
	if p.FailOnPartial || f.failOnPartial {
		pipeOpts = append(pipeOpts, deployment.WithFailOnPartial())
	}

	pipeline := deployment.NewPipeline(
		deployment.NewChecker(env.CheckerConfig(), cfg.Logger),
		deployment.NewBuilder(env.Chain.Network, deployer),
		deployment.NewExecutor(env.Chain, env.Sender, cfg.Logger, execOpts...),
		exporter,
		cfg.Logger,
		pipeOpts...,
	)

	if block, berr := env.Chain.Client.BlockNumber(ctx); berr == nil {
		cmd.Printf("🚀 Deploying %s to %s at block %d\n", text.Plural(len(specs), "contract"), env.Chain, block)
	} else {
		cfg.Logger.Warnw("Failed to fetch the latest block", "error", berr)
		cmd.Printf("🚀 Deploying %s to %s\n", text.Plural(len(specs), "contract"), env.Chain)
	}

	summary, runErr := pipeline.Run(ctx, specs, defaults)
	if len(summary.Outcomes) > 0 {
		printSummary(cmd.OutOrStdout(), env.Network, summary)
	}
	if runErr != nil {
		return runErr
	}

	if failed := len(summary.Failed()); failed > 0 {
		cmd.Printf("⚠️  %s failed, %s written to %s\n",
			text.Plural(failed, "contract"), text.Plural(len(summary.Results()), "deployment"), f.manifest)

		return nil
	}
	cmd.Printf("✅ %s written to %s\n", text.Plural(len(summary.Results()), "deployment"), f.manifest)

	return nil
}
