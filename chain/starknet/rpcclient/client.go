// Package rpcclient implements starknet.Client over the Starknet JSON-RPC API (v0.8).
package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/avast/retry-go/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// blockTagPending targets the pending block, so nonces account for transactions not yet in a block.
const (
	blockTagPending = "pending"
	blockTagLatest  = "latest"
)

// confirmConfig defines the configuration for confirming transactions.
type confirmConfig struct {
	// RetryAttempts sets a fixed number of status polls before giving up.
	RetryAttempts uint
	// RetryDelay is the duration to wait between polls.
	RetryDelay time.Duration
}

// ConfirmRetryOpts returns the retry options for confirming transactions.
func (c *confirmConfig) ConfirmRetryOpts(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(c.RetryAttempts),
		retry.Delay(c.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	}
}

// confirmConfigDefault polls for up to 10 minutes, a Starknet block takes a few seconds.
var confirmConfigDefault = confirmConfig{
	RetryAttempts: 300,
	RetryDelay:    2 * time.Second,
}

// Option configures a Client.
type Option func(*Client)

// WithConfirmRetry sets the number of status polls and the delay between them used by
// WaitForAcceptance.
func WithConfirmRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.confirm = confirmConfig{RetryAttempts: attempts, RetryDelay: delay}
	}
}

// Client is a Starknet JSON-RPC client.
type Client struct {
	rpc     *gethrpc.Client
	lggr    logger.Logger
	confirm confirmConfig
}

var _ starknet.Client = (*Client)(nil)

// Dial connects to the JSON-RPC endpoint at url.
func Dial(ctx context.Context, url string, lggr logger.Logger, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("rpc url is required")
	}

	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, &starknet.TransientError{Err: fmt.Errorf("failed to dial %s: %w", url, err)}
	}

	return New(c, lggr, opts...), nil
}

// New wraps an already connected JSON-RPC client.
func New(c *gethrpc.Client, lggr logger.Logger, opts ...Option) *Client {
	client := &Client{
		rpc:     c,
		lggr:    lggr,
		confirm: confirmConfigDefault,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close closes the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

func (c *Client) ChainID(ctx context.Context) (string, error) {
	var raw string
	if err := c.call(ctx, &raw, "starknet_chainId"); err != nil {
		return "", err
	}

	return starknet.DecodeChainID(raw)
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := c.call(ctx, &n, "starknet_blockNumber")

	return n, err
}

func (c *Client) Nonce(ctx context.Context, address *felt.Felt) (*felt.Felt, error) {
	var nonce felt.Felt
	if err := c.call(ctx, &nonce, "starknet_getNonce", blockTagPending, address); err != nil {
		return nil, err
	}

	return &nonce, nil
}

func (c *Client) ClassHashAt(ctx context.Context, address *felt.Felt) (*felt.Felt, error) {
	var classHash felt.Felt
	if err := c.call(ctx, &classHash, "starknet_getClassHashAt", blockTagLatest, address); err != nil {
		return nil, err
	}

	return &classHash, nil
}

func (c *Client) Class(ctx context.Context, classHash *felt.Felt) (*starknet.ContractClass, error) {
	var class starknet.ContractClass
	if err := c.call(ctx, &class, "starknet_getClass", blockTagLatest, classHash); err != nil {
		return nil, err
	}

	return &class, nil
}

func (c *Client) Call(ctx context.Context, call starknet.FunctionCall) ([]*felt.Felt, error) {
	if call.Calldata == nil {
		call.Calldata = []*felt.Felt{}
	}

	var out []*felt.Felt
	if err := c.call(ctx, &out, "starknet_call", call, blockTagLatest); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *Client) EstimateFee(ctx context.Context, tx *starknet.InvokeTxnV3) (starknet.FeeEstimate, error) {
	var out []starknet.FeeEstimate
	err := c.call(ctx, &out, "starknet_estimateFee",
		[]*starknet.InvokeTxnV3{tx}, []string{"SKIP_VALIDATE"}, blockTagLatest)
	if err != nil {
		return starknet.FeeEstimate{}, err
	}
	if len(out) != 1 {
		return starknet.FeeEstimate{}, fmt.Errorf("starknet_estimateFee: expected 1 estimate, got %d", len(out))
	}

	return out[0], nil
}

func (c *Client) AddInvokeTransaction(ctx context.Context, tx *starknet.InvokeTxnV3) (*felt.Felt, error) {
	var out struct {
		TransactionHash *felt.Felt `json:"transaction_hash"`
	}
	if err := c.call(ctx, &out, "starknet_addInvokeTransaction", tx); err != nil {
		return nil, err
	}
	if out.TransactionHash == nil {
		return nil, errors.New("starknet_addInvokeTransaction: missing transaction hash")
	}

	return out.TransactionHash, nil
}

// TransactionStatus returns the finality and execution status of a transaction.
func (c *Client) TransactionStatus(ctx context.Context, txHash *felt.Felt) (starknet.TxStatus, error) {
	var status starknet.TxStatus
	err := c.call(ctx, &status, "starknet_getTransactionStatus", txHash)

	return status, err
}

// TransactionReceipt returns the receipt of an included transaction.
func (c *Client) TransactionReceipt(ctx context.Context, txHash *felt.Felt) (*starknet.Receipt, error) {
	var receipt starknet.Receipt
	if err := c.call(ctx, &receipt, "starknet_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}

	return &receipt, nil
}

// WaitForAcceptance polls the transaction status until it is accepted, rejected or reverted.
// Unknown hashes and transport failures are retried, since a freshly submitted transaction may
// not have propagated to the node yet. A transaction still pending when the polls run out yields
// a *starknet.TransientError wrapping starknet.ErrAcceptanceTimeout and the last poll's error.
func (c *Client) WaitForAcceptance(ctx context.Context, txHash *felt.Felt) (*starknet.Receipt, error) {
	var (
		terminal bool
		lastErr  error
	)
	err := retry.Do(func() error {
		status, err := c.TransactionStatus(ctx, txHash)
		if err != nil {
			if starknet.IsTransient(err) || starknet.IsRPCErrorCode(err, starknet.CodeTxHashNotFound) {
				lastErr = err
				return err // Retry
			}
			terminal = true

			return retry.Unrecoverable(err)
		}

		switch {
		case status.FinalityStatus == starknet.StatusRejected:
			terminal = true
			return retry.Unrecoverable(&starknet.TxRejectedError{
				TxHash: txHash, Status: starknet.StatusRejected, Reason: status.FailureReason,
			})
		case status.Accepted():
			return nil
		default:
			c.lggr.Debugw("Transaction not yet accepted", "txHash", txHash, "status", status.FinalityStatus)
			lastErr = fmt.Errorf("transaction %s is not yet accepted, status: %s", txHash, status.FinalityStatus)

			return lastErr
		}
	}, c.confirm.ConfirmRetryOpts(ctx)...)
	if err != nil {
		if terminal {
			return nil, fmt.Errorf("error confirming transaction %s: %w", txHash, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("error confirming transaction %s: %w", txHash, ctxErr)
		}
		if lastErr == nil {
			lastErr = err
		}

		return nil, &starknet.TransientError{
			Err: fmt.Errorf("%w: %s: %w", starknet.ErrAcceptanceTimeout, txHash, lastErr),
		}
	}

	receipt, err := c.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt of %s: %w", txHash, err)
	}
	if receipt.ExecutionStatus == starknet.StatusReverted {
		return receipt, &starknet.TxRejectedError{
			TxHash: txHash, Status: starknet.StatusReverted, Reason: receipt.RevertReason,
		}
	}

	return receipt, nil
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return classify(method, err)
	}

	return nil
}

// classify maps transport errors onto the starknet error types. JSON-RPC error responses become
// *starknet.RPCError; connection failures, timeouts, throttling and 5xx responses are transient.
func classify(method string, err error) error {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		out := &starknet.RPCError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
		var dataErr gethrpc.DataError
		if errors.As(err, &dataErr) {
			out.Data = dataErr.ErrorData()
		}

		return out
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) &&
		httpErr.StatusCode < http.StatusInternalServerError && httpErr.StatusCode != http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", method, err)
	}

	return &starknet.TransientError{Err: fmt.Errorf("%s: %w", method, err)}
}
