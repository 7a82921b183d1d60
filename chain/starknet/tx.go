package starknet

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/crypto"
	"github.com/NethermindEth/juno/core/felt"
)

// DAMode is a data availability mode.
type DAMode string

const (
	DAModeL1 DAMode = "L1"
	DAModeL2 DAMode = "L2"
)

func (m DAMode) value() uint64 {
	if m == DAModeL2 {
		return 1
	}

	return 0
}

var (
	invokePrefix = MustShortString("invoke")
	txVersion3   = FeltFromUint64(3)
	// queryVersion3 is 2^128 + 3, used for transactions that are only simulated or estimated.
	queryVersion3 = new(felt.Felt).SetBigInt(new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(3)))
)

// Call is a single contract call inside an account's multicall.
type Call struct {
	To       *felt.Felt
	Selector *felt.Felt
	Calldata []*felt.Felt
}

// ExecuteCalldata encodes calls in the Cairo 1 account __execute__ format:
// [n_calls, (to, selector, calldata_len, ...calldata)...].
func ExecuteCalldata(calls []Call) []*felt.Felt {
	out := []*felt.Felt{FeltFromUint64(uint64(len(calls)))}
	for _, c := range calls {
		out = append(out, c.To, c.Selector, FeltFromUint64(uint64(len(c.Calldata))))
		out = append(out, c.Calldata...)
	}

	return out
}

// InvokeTxnV3 is a version 3 invoke transaction.
type InvokeTxnV3 struct {
	SenderAddress         *felt.Felt
	Calldata              []*felt.Felt
	Signature             []*felt.Felt
	Nonce                 *felt.Felt
	ResourceBounds        ResourceBoundsMapping
	Tip                   uint64
	PaymasterData         []*felt.Felt
	AccountDeploymentData []*felt.Felt
	NonceDAMode           DAMode
	FeeDAMode             DAMode
	// Query marks a transaction that is only estimated and can never be included.
	Query bool
}

func (tx *InvokeTxnV3) version() *felt.Felt {
	if tx.Query {
		return queryVersion3
	}

	return txVersion3
}

// Hash computes the transaction hash on the chain identified by chainID.
func (tx *InvokeTxnV3) Hash(chainID *felt.Felt) *felt.Felt {
	feeFields := append([]*felt.Felt{FeltFromUint64(tx.Tip)}, tx.ResourceBounds.hashFelts()...)
	daModes := FeltFromUint64(tx.NonceDAMode.value()<<32 | tx.FeeDAMode.value())

	return crypto.PoseidonArray(
		invokePrefix,
		tx.version(),
		tx.SenderAddress,
		crypto.PoseidonArray(feeFields...),
		crypto.PoseidonArray(tx.PaymasterData...),
		chainID,
		tx.Nonce,
		daModes,
		crypto.PoseidonArray(tx.AccountDeploymentData...),
		crypto.PoseidonArray(tx.Calldata...),
	)
}

type invokeTxnV3JSON struct {
	Type                  string                `json:"type"`
	SenderAddress         *felt.Felt            `json:"sender_address"`
	Calldata              []*felt.Felt          `json:"calldata"`
	Version               *felt.Felt            `json:"version"`
	Signature             []*felt.Felt          `json:"signature"`
	Nonce                 *felt.Felt            `json:"nonce"`
	ResourceBounds        ResourceBoundsMapping `json:"resource_bounds"`
	Tip                   string                `json:"tip"`
	PaymasterData         []*felt.Felt          `json:"paymaster_data"`
	AccountDeploymentData []*felt.Felt          `json:"account_deployment_data"`
	NonceDAMode           DAMode                `json:"nonce_data_availability_mode"`
	FeeDAMode             DAMode                `json:"fee_data_availability_mode"`
}

// MarshalJSON renders the transaction in the JSON-RPC BROADCASTED_INVOKE_TXN_V3 shape.
func (tx InvokeTxnV3) MarshalJSON() ([]byte, error) {
	nonceDA, feeDA := tx.NonceDAMode, tx.FeeDAMode
	if nonceDA == "" {
		nonceDA = DAModeL1
	}
	if feeDA == "" {
		feeDA = DAModeL1
	}

	return json.Marshal(invokeTxnV3JSON{
		Type:                  "INVOKE",
		SenderAddress:         tx.SenderAddress,
		Calldata:              nonNil(tx.Calldata),
		Version:               tx.version(),
		Signature:             nonNil(tx.Signature),
		Nonce:                 tx.Nonce,
		ResourceBounds:        tx.ResourceBounds,
		Tip:                   fmt.Sprintf("0x%x", tx.Tip),
		PaymasterData:         nonNil(tx.PaymasterData),
		AccountDeploymentData: nonNil(tx.AccountDeploymentData),
		NonceDAMode:           nonceDA,
		FeeDAMode:             feeDA,
	})
}

func nonNil(fs []*felt.Felt) []*felt.Felt {
	if fs == nil {
		return []*felt.Felt{}
	}

	return fs
}
