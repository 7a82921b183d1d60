package starknet

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
)

// Starknet JSON-RPC error codes the tooling reacts to.
const (
	CodeContractNotFound          = 20
	CodeBlockNotFound             = 24
	CodeClassHashNotFound         = 28
	CodeTxHashNotFound            = 29
	CodeContractError             = 40
	CodeTransactionExecutionError = 41
	CodeInvalidTxNonce            = 52
	CodeInsufficientResources     = 53
	CodeInsufficientBalance       = 54
	CodeValidationFailure         = 55
	CodeDuplicateTx               = 59
)

// RPCError is an error response returned by a Starknet node.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("%s: %s (code %d): %v", e.Method, e.Message, e.Code, e.Data)
	}

	return fmt.Sprintf("%s: %s (code %d)", e.Method, e.Message, e.Code)
}

// IsRPCErrorCode reports whether err is an RPCError with the given code.
func IsRPCErrorCode(err error, code int) bool {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code == code
	}

	return false
}

// ErrAcceptanceTimeout is returned when a submitted transaction is still pending, or still unknown
// to the node, after the confirmation window. The transaction may yet be accepted.
var ErrAcceptanceTimeout = errors.New("transaction not accepted in time")

// TransientError wraps failures of the transport (timeouts, unreachable endpoint, 5xx) that may
// succeed when retried with the same inputs.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient network error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transport level failure worth retrying.
func IsTransient(err error) bool {
	var tErr *TransientError
	if errors.As(err, &tErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// TxRejectedError is returned for transactions that were rejected by the sequencer or reverted
// during execution.
type TxRejectedError struct {
	TxHash *felt.Felt
	Status string
	Reason string
}

func (e *TxRejectedError) Error() string {
	return fmt.Sprintf("transaction %s %s: %s", e.TxHash, e.Status, e.Reason)
}
