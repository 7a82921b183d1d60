package starknet

import (
	"context"
	"encoding/json"

	"github.com/NethermindEth/juno/core/felt"
)

// Client is the subset of the Starknet JSON-RPC API the deployment tooling relies on.
type Client interface {
	// ChainID returns the decoded chain id, e.g. SN_SEPOLIA.
	ChainID(ctx context.Context) (string, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Nonce(ctx context.Context, address *felt.Felt) (*felt.Felt, error)
	ClassHashAt(ctx context.Context, address *felt.Felt) (*felt.Felt, error)
	Class(ctx context.Context, classHash *felt.Felt) (*ContractClass, error)
	Call(ctx context.Context, call FunctionCall) ([]*felt.Felt, error)
	EstimateFee(ctx context.Context, tx *InvokeTxnV3) (FeeEstimate, error)
	AddInvokeTransaction(ctx context.Context, tx *InvokeTxnV3) (*felt.Felt, error)
	// WaitForAcceptance blocks until the transaction is accepted on L2 (or L1) and returns its
	// receipt. Reverted or rejected transactions return a *TxRejectedError.
	WaitForAcceptance(ctx context.Context, txHash *felt.Felt) (*Receipt, error)
}

// FunctionCall is a read-only call to a contract entry point.
type FunctionCall struct {
	ContractAddress    *felt.Felt   `json:"contract_address"`
	EntryPointSelector *felt.Felt   `json:"entry_point_selector"`
	Calldata           []*felt.Felt `json:"calldata"`
}

// ContractClass is a declared Sierra class as returned by starknet_getClass. The ABI is kept raw
// since nodes return it as a JSON encoded string.
type ContractClass struct {
	ABI                  json.RawMessage `json:"abi"`
	ContractClassVersion string          `json:"contract_class_version"`
}

// Finality and execution statuses.
const (
	StatusReceived     = "RECEIVED"
	StatusRejected     = "REJECTED"
	StatusAcceptedOnL2 = "ACCEPTED_ON_L2"
	StatusAcceptedOnL1 = "ACCEPTED_ON_L1"
	StatusSucceeded    = "SUCCEEDED"
	StatusReverted     = "REVERTED"
)

// TxStatus is the result of starknet_getTransactionStatus.
type TxStatus struct {
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
}

// Accepted reports whether the transaction was included in an L2 block.
func (s TxStatus) Accepted() bool {
	return s.FinalityStatus == StatusAcceptedOnL2 || s.FinalityStatus == StatusAcceptedOnL1
}

// Event is an event emitted during transaction execution.
type Event struct {
	FromAddress *felt.Felt   `json:"from_address"`
	Keys        []*felt.Felt `json:"keys"`
	Data        []*felt.Felt `json:"data"`
}

// FeePayment is the fee actually charged for a transaction.
type FeePayment struct {
	Amount *felt.Felt `json:"amount"`
	Unit   string     `json:"unit"`
}

// Receipt is a transaction receipt.
type Receipt struct {
	TransactionHash *felt.Felt `json:"transaction_hash"`
	ActualFee       FeePayment `json:"actual_fee"`
	ExecutionStatus string     `json:"execution_status"`
	FinalityStatus  string     `json:"finality_status"`
	BlockNumber     uint64     `json:"block_number"`
	Events          []Event    `json:"events"`
	RevertReason    string     `json:"revert_reason,omitempty"`
}
