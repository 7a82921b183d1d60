package deployment

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/starknettest"
	"github.com/smartcontractkit/starknet-deployments/internal/pointer"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

const (
	deployerAddress = "0x64b48806902a367c8598f4f95c305e8c1a1acba5f082d294a43793113115691"

	counterABI = `[
  {"type": "interface", "name": "counter::ICounter", "items": [
    {"type": "function", "name": "get_counter", "inputs": [], "outputs": [{"type": "core::integer::u32"}], "state_mutability": "view"}
  ]},
  {"type": "constructor", "name": "constructor", "inputs": [
    {"name": "init_value", "type": "core::integer::u32"},
    {"name": "owner", "type": "core::starknet::contract_address::ContractAddress"}
  ]}
]`
)

var (
	counterClassHash = starknet.MustParseFelt("0x2a8846878b6ad1f54f6ba46f5f40e11cee755c677f130b2c4b60566c9003f1f")
	fixedNow         = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// counterSpec is the counter contract deployed with an initial value and the deployer as owner.
func counterSpec(name string, initValue uint64) ContractSpec {
	return ContractSpec{
		Contract:   "CounterContract",
		ExportName: name,
		Artifact:   Artifact{ClassHash: counterClassHash, ABI: []byte(counterABI)},
		ConstructorArgs: []abi.Arg{
			{Name: "init_value", Value: initValue},
			{Name: "owner", Value: DeployerPlaceholder},
		},
	}
}

// sepoliaFees are fee options bounding every resource class explicitly.
func sepoliaFees() FeeOptions {
	price := new(big.Int).SetUint64(0x5af3107a4000)

	return FeeOptions{
		Tip: pointer.To(uint64(10000000000000000)),
		ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
			starknet.ResourceL1Gas:     {MaxAmount: 0x20000, MaxPricePerUnit: price},
			starknet.ResourceL2Gas:     {MaxAmount: 0, MaxPricePerUnit: big.NewInt(0)},
			starknet.ResourceL1DataGas: {MaxAmount: 0x20000, MaxPricePerUnit: price},
		},
	}
}

type testEnv struct {
	client *starknettest.FakeClient
	chain  starknet.Chain
	sender *starknet.Sender
	lggr   logger.Logger
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	lggr := logger.Test(t)
	client := starknettest.NewFakeClient()
	client.DeclareClass(counterClassHash, []byte(counterABI))

	account := starknettest.NewAccount(deployerAddress)
	sender, err := starknet.NewSender(client, account, starknet.ChainIDSepolia, lggr)
	require.NoError(t, err)

	return testEnv{
		client: client,
		chain: starknet.Chain{
			Network:  starknet.NetworkSepolia,
			ChainID:  starknet.ChainIDSepolia,
			Client:   client,
			Deployer: account,
		},
		sender: sender,
		lggr:   lggr,
	}
}

func (e testEnv) builder(opts ...BuilderOption) *Builder {
	return NewBuilder(e.chain.Network, e.chain.Deployer.Address(), opts...)
}

func (e testEnv) executor(opts ...ExecutorOption) *Executor {
	opts = append([]ExecutorOption{WithClock(func() time.Time { return fixedNow })}, opts...)

	return NewExecutor(e.chain, e.sender, e.lggr, opts...)
}

func (e testEnv) checker() *Checker {
	return NewChecker(CheckerConfig{
		Network:  e.chain.Network,
		ChainID:  e.chain.ChainID,
		Client:   e.client,
		Deployer: e.chain.Deployer,
	}, e.lggr)
}

func (e testEnv) build(t *testing.T, specs ...ContractSpec) []DeployRequest {
	t.Helper()

	b := e.builder()
	reqs := make([]DeployRequest, 0, len(specs))
	for _, spec := range specs {
		req, err := b.Build(spec, sepoliaFees())
		require.NoError(t, err)
		reqs = append(reqs, req)
	}

	return reqs
}

// memManifest is an in-memory Manifest.
type memManifest struct {
	mu        sync.Mutex
	entries   map[string]DeployResult
	exports   int
	exportErr error
}

var _ Manifest = (*memManifest)(nil)

func newMemManifest() *memManifest {
	return &memManifest{entries: map[string]DeployResult{}}
}

func (m *memManifest) Lookup(network, contract string) (DeployResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.entries[network+"/"+contract]

	return r, ok, nil
}

func (m *memManifest) Export(network string, results []DeployResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exportErr != nil {
		return m.exportErr
	}
	m.exports++
	for _, r := range results {
		m.entries[network+"/"+r.Contract] = r
	}

	return nil
}

// ctorArgs returns the constructor calldata of the Universal Deployer call in tx.
func ctorArgs(tx *starknet.InvokeTxnV3) []*felt.Felt {
	calls := starknettest.DecodeExecuteCalldata(tx.Calldata)
	if len(calls) == 0 || len(calls[0].Calldata) < 4 {
		return nil
	}

	return calls[0].Calldata[4:]
}
