// Package starknettest provides in-memory test doubles for the Starknet client and signer.
package starknettest

import (
	"context"
	"fmt"
	"sync"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
)

// Method names recorded by FakeClient.
const (
	MethodChainID     = "starknet_chainId"
	MethodBlockNumber = "starknet_blockNumber"
	MethodNonce       = "starknet_getNonce"
	MethodClassHashAt = "starknet_getClassHashAt"
	MethodClass       = "starknet_getClass"
	MethodCall        = "starknet_call"
	MethodEstimateFee = "starknet_estimateFee"
	MethodAddInvoke   = "starknet_addInvokeTransaction"
	MethodWait        = "wait_for_acceptance"
)

// FakeClient is an in-memory starknet.Client. Submitted transactions are accepted by default and
// Universal Deployer calls emit a ContractDeployed event with the computed address.
type FakeClient struct {
	mu sync.Mutex

	ChainIDValue string
	// ChainIDErr is returned by ChainID, e.g. to simulate an unreachable endpoint.
	ChainIDErr error
	// Classes are the declared classes keyed by class hash.
	Classes map[string]*starknet.ContractClass
	// CallFn answers starknet_call. Without it calls return VALID.
	CallFn func(call starknet.FunctionCall) ([]*felt.Felt, error)
	// Estimate is returned by EstimateFee.
	Estimate starknet.FeeEstimate
	// InvokeFn can reject a submission before it is accepted by the node.
	InvokeFn func(tx *starknet.InvokeTxnV3) error
	// ReceiptFn can override the outcome of an accepted submission.
	ReceiptFn func(tx *starknet.InvokeTxnV3) (*starknet.Receipt, error)

	nonces    map[string]uint64
	deployed  map[string]*felt.Felt
	txs       map[string]*starknet.InvokeTxnV3
	submitted []*starknet.InvokeTxnV3
	counts    map[string]int
	block     uint64
}

var _ starknet.Client = (*FakeClient)(nil)

// NewFakeClient returns a FakeClient on the sepolia chain id with a default fee estimate.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		ChainIDValue: starknet.ChainIDSepolia,
		Classes:      map[string]*starknet.ContractClass{},
		Estimate: starknet.FeeEstimate{
			L1GasConsumed:     starknet.FeltFromUint64(100),
			L1GasPrice:        starknet.FeltFromUint64(1000),
			L2GasConsumed:     starknet.FeltFromUint64(200),
			L2GasPrice:        starknet.FeltFromUint64(10),
			L1DataGasConsumed: starknet.FeltFromUint64(50),
			L1DataGasPrice:    starknet.FeltFromUint64(20),
			OverallFee:        starknet.FeltFromUint64(104000),
			Unit:              "FRI",
		},
		nonces:   map[string]uint64{},
		deployed: map[string]*felt.Felt{},
		txs:      map[string]*starknet.InvokeTxnV3{},
		counts:   map[string]int{},
		block:    100,
	}
}

// DeclareClass registers a declared class with the given ABI.
func (c *FakeClient) DeclareClass(classHash *felt.Felt, abi []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Classes[classHash.String()] = &starknet.ContractClass{ABI: abi, ContractClassVersion: "0.1.0"}
}

// Count returns how many times method was called.
func (c *FakeClient) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[method]
}

// TotalCalls returns the number of calls across all methods.
func (c *FakeClient) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.counts {
		total += n
	}

	return total
}

// Submitted returns the transactions accepted by AddInvokeTransaction, in submission order.
func (c *FakeClient) Submitted() []*starknet.InvokeTxnV3 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*starknet.InvokeTxnV3{}, c.submitted...)
}

func (c *FakeClient) record(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[method]++
}

func (c *FakeClient) ChainID(_ context.Context) (string, error) {
	c.record(MethodChainID)
	if c.ChainIDErr != nil {
		return "", c.ChainIDErr
	}

	return c.ChainIDValue, nil
}

func (c *FakeClient) BlockNumber(_ context.Context) (uint64, error) {
	c.record(MethodBlockNumber)
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.block, nil
}

func (c *FakeClient) Nonce(_ context.Context, address *felt.Felt) (*felt.Felt, error) {
	c.record(MethodNonce)
	c.mu.Lock()
	defer c.mu.Unlock()

	return starknet.FeltFromUint64(c.nonces[address.String()]), nil
}

func (c *FakeClient) ClassHashAt(_ context.Context, address *felt.Felt) (*felt.Felt, error) {
	c.record(MethodClassHashAt)
	c.mu.Lock()
	defer c.mu.Unlock()

	classHash, ok := c.deployed[address.String()]
	if !ok {
		return nil, &starknet.RPCError{
			Method: MethodClassHashAt, Code: starknet.CodeContractNotFound, Message: "Contract not found",
		}
	}

	return classHash, nil
}

// Undeploy removes the contract at address, as a restarted devnet would.
func (c *FakeClient) Undeploy(address *felt.Felt) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.deployed, address.String())
}

func (c *FakeClient) Class(_ context.Context, classHash *felt.Felt) (*starknet.ContractClass, error) {
	c.record(MethodClass)
	c.mu.Lock()
	defer c.mu.Unlock()

	class, ok := c.Classes[classHash.String()]
	if !ok {
		return nil, &starknet.RPCError{
			Method: MethodClass, Code: starknet.CodeClassHashNotFound, Message: "Class hash not found",
		}
	}

	return class, nil
}

func (c *FakeClient) Call(_ context.Context, call starknet.FunctionCall) ([]*felt.Felt, error) {
	c.record(MethodCall)
	if c.CallFn != nil {
		return c.CallFn(call)
	}

	return []*felt.Felt{starknet.MustShortString("VALID")}, nil
}

func (c *FakeClient) EstimateFee(_ context.Context, _ *starknet.InvokeTxnV3) (starknet.FeeEstimate, error) {
	c.record(MethodEstimateFee)

	return c.Estimate, nil
}

func (c *FakeClient) AddInvokeTransaction(_ context.Context, tx *starknet.InvokeTxnV3) (*felt.Felt, error) {
	c.record(MethodAddInvoke)
	if c.InvokeFn != nil {
		if err := c.InvokeFn(tx); err != nil {
			return nil, err
		}
	}

	chainID, err := starknet.ChainIDFelt(c.ChainIDValue)
	if err != nil {
		return nil, err
	}
	hash := tx.Hash(chainID)

	c.mu.Lock()
	defer c.mu.Unlock()

	sender := tx.SenderAddress.String()
	if want := c.nonces[sender]; starknet.FeltToBig(tx.Nonce).Uint64() != want {
		return nil, &starknet.RPCError{
			Method: MethodAddInvoke, Code: starknet.CodeInvalidTxNonce,
			Message: fmt.Sprintf("Invalid transaction nonce: want %d", want),
		}
	}
	c.nonces[sender]++
	for _, ev := range DeployEvents(tx) {
		c.deployed[ev.Data[0].String()] = ev.Data[3]
	}
	c.txs[hash.String()] = tx
	c.submitted = append(c.submitted, tx)

	return hash, nil
}

func (c *FakeClient) WaitForAcceptance(_ context.Context, txHash *felt.Felt) (*starknet.Receipt, error) {
	c.record(MethodWait)
	c.mu.Lock()
	tx, ok := c.txs[txHash.String()]
	c.block++
	block := c.block
	c.mu.Unlock()

	if !ok {
		return nil, &starknet.RPCError{
			Method: MethodWait, Code: starknet.CodeTxHashNotFound, Message: "Transaction hash not found",
		}
	}
	if c.ReceiptFn != nil {
		return c.ReceiptFn(tx)
	}

	return &starknet.Receipt{
		TransactionHash: txHash,
		ExecutionStatus: starknet.StatusSucceeded,
		FinalityStatus:  starknet.StatusAcceptedOnL2,
		BlockNumber:     block,
		Events:          DeployEvents(tx),
	}, nil
}

// DeployEvents returns the ContractDeployed events the Universal Deployer would emit for tx.
func DeployEvents(tx *starknet.InvokeTxnV3) []starknet.Event {
	var events []starknet.Event
	for _, call := range DecodeExecuteCalldata(tx.Calldata) {
		if !call.To.Equal(starknet.UniversalDeployerAddress) || len(call.Calldata) < 4 {
			continue
		}
		classHash, salt := call.Calldata[0], call.Calldata[1]
		unique := !call.Calldata[2].IsZero()
		ctorArgs := call.Calldata[4:]
		addr := starknet.UDCDeployedAddress(tx.SenderAddress, classHash, salt, unique, ctorArgs)

		data := []*felt.Felt{addr, tx.SenderAddress, call.Calldata[2], classHash, call.Calldata[3]}
		data = append(data, ctorArgs...)
		data = append(data, salt)
		events = append(events, starknet.Event{
			FromAddress: starknet.UniversalDeployerAddress,
			Keys:        []*felt.Felt{starknet.ContractDeployedSelector},
			Data:        data,
		})
	}

	return events
}

// DecodeExecuteCalldata reverses starknet.ExecuteCalldata.
func DecodeExecuteCalldata(data []*felt.Felt) []starknet.Call {
	if len(data) == 0 {
		return nil
	}

	n := starknet.FeltToBig(data[0]).Uint64()
	calls := make([]starknet.Call, 0, n)
	i := 1
	for range n {
		if i+3 > len(data) {
			break
		}
		to, sel := data[i], data[i+1]
		l := int(starknet.FeltToBig(data[i+2]).Uint64())
		i += 3
		if i+l > len(data) {
			break
		}
		calls = append(calls, starknet.Call{To: to, Selector: sel, Calldata: data[i : i+l]})
		i += l
	}

	return calls
}

// Signer is a deterministic signer returning [hash, hash] signatures.
type Signer struct {
	Err error
}

var _ starknet.Signer = Signer{}

func (s Signer) SignHash(_ context.Context, hash *felt.Felt) ([]*felt.Felt, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	return []*felt.Felt{hash, hash}, nil
}

// NewAccount returns an account at address signed by a deterministic Signer.
func NewAccount(address string) *starknet.Account {
	acc, err := starknet.NewAccount(starknet.MustParseFelt(address), Signer{})
	if err != nil {
		panic(err)
	}

	return acc
}
