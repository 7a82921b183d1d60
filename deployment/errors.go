package deployment

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
)

// Kind classifies a deployment failure.
type Kind string

const (
	// KindPrecondition is a failed precondition check. It aborts the whole run.
	KindPrecondition Kind = "PreconditionFailure"
	// KindMalformedArgs is a contract whose arguments do not match its constructor.
	KindMalformedArgs Kind = "MalformedArgs"
	// KindNetworkTransient is a transport failure. The request may be retried by the caller.
	KindNetworkTransient Kind = "NetworkTransient"
	// KindContractRejected is a deployment the network refused or reverted.
	KindContractRejected Kind = "ContractRejected"
	// KindExportFailure is a failure writing the manifest. It is fatal for the run.
	KindExportFailure Kind = "ExportFailure"
)

// GlobalScope is the Contract of errors that are not tied to a single contract.
const GlobalScope = "global"

// Error is a classified deployment failure.
type Error struct {
	Kind Kind
	// Contract is the contract identifier, or GlobalScope.
	Contract string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Contract, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Contract, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same request may succeed.
func (e *Error) Retryable() bool { return e.Kind == KindNetworkTransient }

// KindOf returns the Kind of the first *Error in err's chain, or an empty Kind.
func KindOf(err error) Kind {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Kind
	}

	return ""
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

func newError(kind Kind, contract, reason string, err error) *Error {
	return &Error{Kind: kind, Contract: contract, Reason: reason, Err: err}
}

// classify maps a failure of the network interaction for contract onto the error taxonomy.
func classify(contract string, err error) *Error {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr
	}

	if errors.Is(err, starknet.ErrAcceptanceTimeout) {
		return newError(KindNetworkTransient, contract, "transaction not accepted in time", err)
	}
	if errors.Is(err, context.Canceled) || starknet.IsTransient(err) {
		return newError(KindNetworkTransient, contract, "network unavailable", err)
	}

	var rejected *starknet.TxRejectedError
	if errors.As(err, &rejected) {
		return newError(KindContractRejected, contract, "transaction "+rejected.Status, err)
	}

	if starknet.IsRPCErrorCode(err, starknet.CodeClassHashNotFound) {
		return newError(KindContractRejected, contract, "class not declared", err)
	}

	var rpcErr *starknet.RPCError
	if errors.As(err, &rpcErr) {
		return newError(KindContractRejected, contract, rpcErr.Message, err)
	}

	return newError(KindContractRejected, contract, "deployment failed", err)
}
