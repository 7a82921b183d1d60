package deployment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/NethermindEth/juno/core/felt"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/operations"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// DefaultConcurrency is the number of deployments in flight at once unless configured otherwise.
const DefaultConcurrency = 1

// Manifest is the persisted record of accepted deployments.
type Manifest interface {
	// Lookup returns the recorded deployment of contract on network.
	Lookup(network, contract string) (DeployResult, bool, error)
	// Export merges the results into the record of network.
	Export(network string, results []DeployResult) error
}

// Executor submits deploy requests from the deployer account and resolves each to a DeployResult
// or a classified error. Requests fail independently of each other.
type Executor struct {
	chain       starknet.Chain
	sender      *starknet.Sender
	manifest    Manifest
	journal     *Journal
	reporter    operations.Reporter
	concurrency int
	now         func() time.Time
	lggr        logger.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithConcurrency bounds the number of deployments in flight. Values below one are ignored.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithManifest makes the executor reuse deployments already recorded in m.
func WithManifest(m Manifest) ExecutorOption {
	return func(e *Executor) {
		e.manifest = m
	}
}

// WithJournal records submitted transactions in j.
func WithJournal(j *Journal) ExecutorOption {
	return func(e *Executor) {
		e.journal = j
	}
}

// WithReporter records an operation report per deployment in r.
func WithReporter(r operations.Reporter) ExecutorOption {
	return func(e *Executor) {
		e.reporter = r
	}
}

// WithClock overrides the clock stamping results.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor returns an Executor deploying to chain through sender.
func NewExecutor(chain starknet.Chain, sender *starknet.Sender, lggr logger.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		chain:       chain,
		sender:      sender,
		journal:     NewMemoryJournal(),
		reporter:    operations.NewMemoryReporter(),
		concurrency: DefaultConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
		lggr:        lggr.Named("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute deploys reqs and returns their outcomes in request order. Up to the configured
// concurrency deployments are in flight at once; nonces are still assigned in submission order.
func (e *Executor) Execute(ctx context.Context, reqs []DeployRequest) Summary {
	outcomes := make([]Outcome, len(reqs))
	bundle := operations.NewBundle(func() context.Context { return ctx }, e.lggr, e.reporter)

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = e.deploy(ctx, bundle, req)
			return nil
		})
	}
	_ = g.Wait()

	return Summary{Network: e.chain.Network, Outcomes: outcomes}
}

func (e *Executor) deploy(ctx context.Context, bundle operations.Bundle, req DeployRequest) Outcome {
	lggr := e.lggr.With("contract", req.Contract())
	out := Outcome{Contract: req.Contract()}

	if err := ctx.Err(); err != nil {
		out.Err = classify(req.Contract(), err)
		return out
	}

	if !req.Redeploy() {
		if res, ok := e.lookupManifest(ctx, req, lggr); ok {
			lggr.Infow("Contract already deployed, reusing manifest entry", "address", res.Address)
			out.Result, out.Reused = &res, true

			return out
		}

		res, ok, err := e.resumePending(ctx, req, lggr)
		if err != nil {
			out.Err = classify(req.Contract(), err)
			return out
		}
		if ok {
			out.Result = res
			return out
		}
	}

	if _, err := e.chain.Client.Class(ctx, req.ClassHash()); err != nil {
		out.Err = classify(req.Contract(), err)
		lggr.Warnw("Class is not available", "classHash", req.ClassHash(), "error", err)

		return out
	}

	var execOpts []operations.ExecuteOption[DeployInput, DeployDeps]
	if req.Redeploy() {
		execOpts = append(execOpts, operations.WithForceExecute[DeployInput, DeployDeps]())
	}

	report, err := operations.ExecuteOperation(bundle, DeployContractOp, e.deps(), newDeployInput(req), execOpts...)
	if err != nil {
		out.Err = classify(req.Contract(), err)
		lggr.Warnw("Deployment failed", "kind", out.Err.Kind, "error", err)

		return out
	}

	res, err := e.result(req, report.Output)
	if err != nil {
		out.Err = classify(req.Contract(), err)
		return out
	}
	lggr.Infow("Contract deployed", "address", res.Address, "txHash", res.TransactionHash,
		"block", res.BlockNumber)
	out.Result = &res

	return out
}

func (e *Executor) deps() DeployDeps {
	return DeployDeps{
		Client:  e.chain.Client,
		Sender:  e.sender,
		Journal: e.journal,
		Now:     e.now,
	}
}

// lookupManifest returns the manifest entry of req when it was deployed with the same fingerprint
// and its contract still exists on chain with the recorded class.
func (e *Executor) lookupManifest(ctx context.Context, req DeployRequest, lggr logger.Logger) (DeployResult, bool) {
	if e.manifest == nil {
		return DeployResult{}, false
	}

	res, ok, err := e.manifest.Lookup(e.chain.Network, req.Contract())
	if err != nil {
		lggr.Warnw("Failed to read manifest entry, deploying anyway", "error", err)
		return DeployResult{}, false
	}
	if !ok || res.Fingerprint != req.Fingerprint() {
		return DeployResult{}, false
	}

	classHash, err := e.chain.Client.ClassHashAt(ctx, res.Address)
	switch {
	case starknet.IsRPCErrorCode(err, starknet.CodeContractNotFound):
		lggr.Warnw("Manifest entry has no contract on chain, deploying again", "address", res.Address)
		return DeployResult{}, false
	case err != nil:
		lggr.Warnw("Failed to verify manifest entry on chain, reusing it", "address", res.Address, "error", err)
	case res.ClassHash != nil && !classHash.Equal(res.ClassHash):
		lggr.Warnw("Contract on chain has a different class, deploying again",
			"address", res.Address, "classHash", classHash)

		return DeployResult{}, false
	}

	return res, true
}

// resumePending waits for a transaction an earlier run submitted for req. A rejected or unknown
// transaction is dropped from the journal so req is submitted again.
func (e *Executor) resumePending(ctx context.Context, req DeployRequest, lggr logger.Logger) (*DeployResult, bool, error) {
	if e.journal == nil {
		return nil, false, nil
	}

	entry, ok := e.journal.Pending(req.Fingerprint())
	if !ok || entry.Network != e.chain.Network {
		return nil, false, nil
	}
	lggr.Infow("Waiting for previously submitted deployment", "txHash", entry.TransactionHash)

	receipt, err := e.chain.Client.WaitForAcceptance(ctx, entry.TransactionHash)
	if err != nil {
		var rejected *starknet.TxRejectedError
		if errors.As(err, &rejected) || starknet.IsRPCErrorCode(err, starknet.CodeTxHashNotFound) {
			lggr.Warnw("Previously submitted deployment did not land, submitting again",
				"txHash", entry.TransactionHash, "error", err)

			return nil, false, e.journal.Remove(req.Fingerprint())
		}

		return nil, false, err
	}

	addr, err := addressFromReceipt(receipt, entry.ExpectedAddress)
	if err != nil {
		return nil, false, err
	}
	res, err := e.result(req, DeployOutput{
		Address:         addr.String(),
		TransactionHash: entry.TransactionHash.String(),
		BlockNumber:     receipt.BlockNumber,
		DeployedAt:      entry.SubmittedAt,
	})
	if err != nil {
		return nil, false, err
	}

	return &res, true, nil
}

func (e *Executor) result(req DeployRequest, out DeployOutput) (DeployResult, error) {
	addr, err := starknet.ParseFelt(out.Address)
	if err != nil {
		return DeployResult{}, fmt.Errorf("invalid deployed address: %w", err)
	}
	txHash, err := starknet.ParseFelt(out.TransactionHash)
	if err != nil {
		return DeployResult{}, fmt.Errorf("invalid transaction hash: %w", err)
	}

	return DeployResult{
		Network:         e.chain.Network,
		Contract:        req.Contract(),
		Artifact:        req.Artifact(),
		Address:         addr,
		TransactionHash: txHash,
		ClassHash:       req.ClassHash(),
		ABI:             req.ABI(),
		Fingerprint:     req.Fingerprint(),
		BlockNumber:     out.BlockNumber,
		DeployedAt:      out.DeployedAt,
	}, nil
}

// addressFromReceipt prefers the address reported by the Universal Deployer over expected, the
// address computed when the transaction was submitted.
func addressFromReceipt(receipt *starknet.Receipt, expected *felt.Felt) (*felt.Felt, error) {
	if addr, ok := starknet.DeployedAddressFromEvents(receipt.Events); ok {
		return addr, nil
	}
	if expected != nil {
		return expected, nil
	}

	return nil, errors.New("receipt carries no ContractDeployed event")
}

// DeployInput is the serializable input of DeployContractOp.
type DeployInput struct {
	Network     string     `json:"network"`
	Contract    string     `json:"contract"`
	ClassHash   string     `json:"classHash"`
	Salt        string     `json:"salt"`
	Unique      bool       `json:"unique"`
	Calldata    []string   `json:"calldata"`
	Fee         FeeOptions `json:"fee"`
	Fingerprint string     `json:"fingerprint"`
	// ExpectedAddress is the locally computed address, used when the receipt carries no event.
	ExpectedAddress string `json:"expectedAddress,omitempty"`
}

func newDeployInput(req DeployRequest) DeployInput {
	in := DeployInput{
		Network:     req.Network(),
		Contract:    req.Contract(),
		ClassHash:   req.ClassHash().String(),
		Salt:        req.Salt().String(),
		Unique:      req.Unique(),
		Calldata:    starknet.FeltStrings(req.Calldata()),
		Fee:         req.Fee(),
		Fingerprint: req.Fingerprint(),
	}
	if addr := req.ExpectedAddress(); addr != nil {
		in.ExpectedAddress = addr.String()
	}

	return in
}

// DeployOutput is the serializable output of DeployContractOp.
type DeployOutput struct {
	Address         string    `json:"address"`
	TransactionHash string    `json:"transactionHash"`
	BlockNumber     uint64    `json:"blockNumber"`
	DeployedAt      time.Time `json:"deployedAt"`
}

// DeployDeps are the dependencies of DeployContractOp.
type DeployDeps struct {
	Client  starknet.Client
	Sender  *starknet.Sender
	Journal *Journal
	Now     func() time.Time
}

// DeployContractOp deploys a contract through the Universal Deployer and waits for the
// transaction to be accepted.
var DeployContractOp = operations.NewOperation(
	"deploy-contract",
	semver.MustParse("1.0.0"),
	"Deploys a declared contract class through the Universal Deployer",
	func(b operations.Bundle, deps DeployDeps, in DeployInput) (DeployOutput, error) {
		ctx := b.GetContext()

		call, err := in.call()
		if err != nil {
			return DeployOutput{}, err
		}

		var expected *felt.Felt
		if in.ExpectedAddress != "" {
			if expected, err = starknet.ParseFelt(in.ExpectedAddress); err != nil {
				return DeployOutput{}, fmt.Errorf("expected address: %w", err)
			}
		}

		txHash, err := deps.Sender.Send(ctx, []starknet.Call{call}, in.Fee.TxFee())
		if err != nil {
			return DeployOutput{}, err
		}
		b.Logger.Infow("Deployment submitted", "contract", in.Contract, "txHash", txHash)

		submittedAt := deps.Now()
		if deps.Journal != nil {
			jerr := deps.Journal.Record(in.Fingerprint, JournalEntry{
				Network:         in.Network,
				Contract:        in.Contract,
				TransactionHash: txHash,
				ExpectedAddress: expected,
				SubmittedAt:     submittedAt,
			})
			if jerr != nil {
				b.Logger.Errorw("Failed to journal submitted deployment", "txHash", txHash, "error", jerr)
			}
		}

		receipt, err := deps.Client.WaitForAcceptance(ctx, txHash)
		if err != nil {
			var rejected *starknet.TxRejectedError
			if errors.As(err, &rejected) && deps.Journal != nil {
				if jerr := deps.Journal.Remove(in.Fingerprint); jerr != nil {
					b.Logger.Errorw("Failed to drop rejected deployment from journal", "error", jerr)
				}
			}

			return DeployOutput{}, err
		}

		if _, ok := starknet.DeployedAddressFromEvents(receipt.Events); !ok && expected != nil {
			b.Logger.Warnw("No ContractDeployed event in receipt, using computed address",
				"txHash", txHash, "address", expected)
		}
		addr, err := addressFromReceipt(receipt, expected)
		if err != nil {
			return DeployOutput{}, err
		}

		return DeployOutput{
			Address:         addr.String(),
			TransactionHash: txHash.String(),
			BlockNumber:     receipt.BlockNumber,
			DeployedAt:      submittedAt,
		}, nil
	},
)

func (in DeployInput) call() (starknet.Call, error) {
	classHash, err := starknet.ParseFelt(in.ClassHash)
	if err != nil {
		return starknet.Call{}, fmt.Errorf("class hash: %w", err)
	}
	salt, err := starknet.ParseFelt(in.Salt)
	if err != nil {
		return starknet.Call{}, fmt.Errorf("salt: %w", err)
	}
	calldata := make([]*felt.Felt, len(in.Calldata))
	for i, s := range in.Calldata {
		if calldata[i], err = starknet.ParseFelt(s); err != nil {
			return starknet.Call{}, fmt.Errorf("calldata[%d]: %w", i, err)
		}
	}

	return starknet.UDCDeployCall(classHash, salt, in.Unique, calldata), nil
}
