// Package binding reads from and writes to deployed contracts through their ABI.
package binding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
	"github.com/smartcontractkit/starknet-deployments/manifest"
	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// ErrReadOnly is returned by Invoke on a contract bound without a sender.
var ErrReadOnly = errors.New("contract is bound without a sender")

// Contract is a deployed contract bound to a client.
type Contract struct {
	name    string
	address *felt.Felt
	abi     *abi.ABI
	client  starknet.Client
	sender  *starknet.Sender
	lggr    logger.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithSender allows the contract to send transactions.
func WithSender(s *starknet.Sender) Option {
	return func(c *Contract) {
		c.sender = s
	}
}

// WithLogger sets the logger of the contract.
func WithLogger(lggr logger.Logger) Option {
	return func(c *Contract) {
		c.lggr = lggr
	}
}

// New binds the contract at address with the given ABI.
func New(name string, address *felt.Felt, rawABI json.RawMessage, client starknet.Client, opts ...Option) (*Contract, error) {
	if address == nil {
		return nil, fmt.Errorf("contract %s has no address", name)
	}
	parsed, err := abi.Parse(rawABI)
	if err != nil {
		return nil, fmt.Errorf("invalid abi of %s: %w", name, err)
	}

	c := &Contract{
		name:    name,
		address: address,
		abi:     parsed,
		client:  client,
		lggr:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lggr = c.lggr.Named(name)

	return c, nil
}

// FromEntry binds a contract recorded in the manifest.
func FromEntry(entry manifest.Entry, client starknet.Client, opts ...Option) (*Contract, error) {
	return New(entry.Contract, entry.Address, entry.ABI, client, opts...)
}

// Name returns the contract name.
func (c *Contract) Name() string { return c.name }

// Address returns the contract address.
func (c *Contract) Address() *felt.Felt { return c.address }

// ABI returns the parsed ABI of the contract.
func (c *Contract) ABI() *abi.ABI { return c.abi }

// Call reads function without sending a transaction and decodes its outputs. Integers up to 64
// bits decode to uint64 or int64, see abi.Decode for the other types.
func (c *Contract) Call(ctx context.Context, function string, args ...abi.Arg) ([]any, error) {
	calldata, err := c.abi.EncodeInputs(function, args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s.%s: %w", c.name, function, err)
	}

	data, err := c.client.Call(ctx, starknet.FunctionCall{
		ContractAddress:    c.address,
		EntryPointSelector: starknet.GetSelectorFromName(function),
		Calldata:           calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", c.name, function, err)
	}

	return c.abi.DecodeOutputs(function, data)
}

// Invoke sends a transaction calling the external function and waits until it is accepted.
func (c *Contract) Invoke(ctx context.Context, function string, fee starknet.TxFee, args ...abi.Arg) (*starknet.Receipt, error) {
	if c.sender == nil {
		return nil, ErrReadOnly
	}

	fn, err := c.abi.Function(function)
	if err != nil {
		return nil, err
	}
	if fn.IsView() {
		return nil, fmt.Errorf("%s.%s is a view function, use Call", c.name, function)
	}

	calldata, err := c.abi.EncodeInputs(function, args)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s.%s: %w", c.name, function, err)
	}

	receipt, err := c.sender.SendAndWait(ctx, []starknet.Call{{
		To:       c.address,
		Selector: starknet.GetSelectorFromName(function),
		Calldata: calldata,
	}}, fee)
	if err != nil {
		return nil, fmt.Errorf("invoke %s.%s: %w", c.name, function, err)
	}
	c.lggr.Infow("Transaction accepted", "function", function,
		"txHash", receipt.TransactionHash, "block", receipt.BlockNumber)

	return receipt, nil
}

// Value returns the i-th decoded output as T.
func Value[T any](values []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(values) {
		return zero, fmt.Errorf("output %d out of range, have %d", i, len(values))
	}
	v, ok := values[i].(T)
	if !ok {
		return zero, fmt.Errorf("output %d is %T, not %T", i, values[i], zero)
	}

	return v, nil
}
