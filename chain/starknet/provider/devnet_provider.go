package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smartcontractkit/starknet-deployments/chain"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/rpcclient"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

const (
	// defaultDevnetImage is the default Docker image used for the Starknet devnet.
	defaultDevnetImage = "shardlabs/starknet-devnet-rs:0.4.0"
	devnetPort         = "5050/tcp"
)

// DevnetChainProviderConfig holds the configuration to initialize the DevnetChainProvider.
type DevnetChainProviderConfig struct {
	// Optional: Docker image to use for the devnet. If empty, defaults to defaultDevnetImage.
	Image string
	// Optional: Seed of the predeployed accounts.
	Seed uint
}

func (c DevnetChainProviderConfig) image() string {
	if c.Image == "" {
		return defaultDevnetImage
	}

	return c.Image
}

var _ chain.Provider = (*DevnetChainProvider)(nil)

// DevnetChainProvider manages a Starknet devnet running inside a Docker container. The first
// predeployed account becomes the deployer.
//
// This provider requires Docker to be installed and operational. Spinning up a new container can
// be slow, so it is recommended to initialize the provider only once per test suite.
type DevnetChainProvider struct {
	t      *testing.T
	config DevnetChainProviderConfig

	chain *starknet.Chain
}

// NewDevnetChainProvider creates a new DevnetChainProvider with the given configuration.
func NewDevnetChainProvider(t *testing.T, config DevnetChainProviderConfig) *DevnetChainProvider {
	t.Helper()

	return &DevnetChainProvider{t: t, config: config}
}

// Initialize starts the devnet container, waits for it to become healthy and loads the first
// predeployed account.
func (p *DevnetChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	url, err := p.startContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start devnet container: %w", err)
	}

	deployer, err := predeployedAccount(ctx, url)
	if err != nil {
		return nil, err
	}

	lggr := logger.Test(p.t)
	client, err := rpcclient.Dial(ctx, url, lggr.Named("rpc"), rpcclient.WithConfirmRetry(60, 500*time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}
	p.t.Cleanup(client.Close)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get devnet chain id: %w", err)
	}

	p.chain = &starknet.Chain{
		Network:  starknet.NetworkDevnet,
		ChainID:  chainID,
		URL:      url,
		Client:   client,
		Deployer: deployer,
	}

	return *p.chain, nil
}

func (p *DevnetChainProvider) startContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        p.config.image(),
		ExposedPorts: []string{devnetPort},
		Cmd:          []string{"--seed", fmt.Sprint(p.config.Seed), "--accounts", "1", "--host", "0.0.0.0"},
		WaitingFor: wait.ForHTTP("/is_alive").
			WithPort(devnetPort).
			WithStartupTimeout(2 * time.Minute),
	}

	var url string
	err := retry.Do(func() error {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		testcontainers.CleanupContainer(p.t, container)
		if err != nil {
			return err
		}

		endpoint, err := container.PortEndpoint(ctx, devnetPort, "http")
		if err != nil {
			return err
		}
		url = endpoint + "/rpc"

		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(attempt uint, err error) {
			p.t.Logf("Attempt %d: Failed to start devnet container: %v", attempt+1, err)
		}),
	)

	return url, err
}

type predeployed struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func predeployedAccount(ctx context.Context, url string) (*starknet.Account, error) {
	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial devnet: %w", err)
	}
	defer c.Close()

	var accounts []predeployed
	if err = c.CallContext(ctx, &accounts, "devnet_getPredeployedAccounts"); err != nil {
		return nil, fmt.Errorf("failed to fetch predeployed accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, errors.New("devnet has no predeployed accounts")
	}

	return AccountGenPrivateKey(accounts[0].Address, accounts[0].PrivateKey).Generate()
}

// Name returns the name of the DevnetChainProvider.
func (*DevnetChainProvider) Name() string {
	return "Starknet Devnet Chain Provider"
}

// ChainSelector returns zero, devnets are not registered with the selector registry.
func (*DevnetChainProvider) ChainSelector() uint64 {
	return 0
}

// BlockChain returns the devnet chain instance. You must call Initialize before using this method.
func (p *DevnetChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}
