package starknet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/smartcontractkit/starknet-deployments/pkg/logger"
)

// Default fee estimate multipliers, in percent.
const (
	DefaultFeeAmountPct uint64 = 150
	DefaultFeePricePct  uint64 = 150
)

// Sender builds, signs and submits V3 invoke transactions from a single account. Nonces are
// allocated sequentially so concurrent callers never race on the same nonce.
type Sender struct {
	client  Client
	account *Account
	chainID *felt.Felt
	lggr    logger.Logger

	amountPct uint64
	pricePct  uint64

	mu    sync.Mutex
	nonce *felt.Felt
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithFeeMultipliers sets the percentages applied to estimated amounts and prices when a resource
// bound is left unset.
func WithFeeMultipliers(amountPct, pricePct uint64) SenderOption {
	return func(s *Sender) {
		s.amountPct = amountPct
		s.pricePct = pricePct
	}
}

// NewSender returns a Sender for account on the chain identified by chainID (e.g. SN_SEPOLIA).
func NewSender(client Client, account *Account, chainID string, lggr logger.Logger, opts ...SenderOption) (*Sender, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if account == nil {
		return nil, errors.New("account is required")
	}

	cid, err := ChainIDFelt(chainID)
	if err != nil {
		return nil, fmt.Errorf("invalid chain id: %w", err)
	}

	s := &Sender{
		client:    client,
		account:   account,
		chainID:   cid,
		lggr:      lggr,
		amountPct: DefaultFeeAmountPct,
		pricePct:  DefaultFeePricePct,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Account returns the sending account.
func (s *Sender) Account() *Account { return s.account }

// Send submits calls as one multicall transaction and returns its hash without waiting for it.
func (s *Sender) Send(ctx context.Context, calls []Call, fee TxFee) (*felt.Felt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.nextNonce(ctx)
	if err != nil {
		return nil, err
	}

	tx := &InvokeTxnV3{
		SenderAddress: s.account.Address(),
		Calldata:      ExecuteCalldata(calls),
		Nonce:         nonce,
		Tip:           fee.Tip,
		NonceDAMode:   DAModeL1,
		FeeDAMode:     DAModeL1,
	}

	if fee.Complete() {
		tx.ResourceBounds = fee.Bounds()
	} else {
		est, eerr := s.estimate(ctx, *tx)
		if eerr != nil {
			return nil, eerr
		}
		tx.ResourceBounds = fee.Resolve(est.ResourceBounds(s.amountPct, s.pricePct))
		s.lggr.Debugw("Resolved resource bounds from estimate",
			"overallFee", est.OverallFee, "unit", est.Unit)
	}

	hash := tx.Hash(s.chainID)
	tx.Signature, err = s.account.Sign(ctx, hash)
	if err != nil {
		return nil, err
	}

	txHash, err := s.client.AddInvokeTransaction(ctx, tx)
	if err != nil {
		// The node state is unknown, re-read the nonce on the next send.
		s.nonce = nil
		return nil, err
	}
	if !txHash.Equal(hash) {
		s.lggr.Warnw("Node returned a different transaction hash than computed locally",
			"computed", hash, "returned", txHash)
	}

	s.nonce = new(felt.Felt).Add(nonce, FeltFromUint64(1))

	return txHash, nil
}

// SendAndWait submits calls and waits for the transaction to be accepted.
func (s *Sender) SendAndWait(ctx context.Context, calls []Call, fee TxFee) (*Receipt, error) {
	txHash, err := s.Send(ctx, calls, fee)
	if err != nil {
		return nil, err
	}

	return s.client.WaitForAcceptance(ctx, txHash)
}

func (s *Sender) nextNonce(ctx context.Context) (*felt.Felt, error) {
	if s.nonce != nil {
		return s.nonce, nil
	}

	nonce, err := s.client.Nonce(ctx, s.account.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	return nonce, nil
}

func (s *Sender) estimate(ctx context.Context, tx InvokeTxnV3) (FeeEstimate, error) {
	tx.Query = true
	tx.Signature = nil

	est, err := s.client.EstimateFee(ctx, &tx)
	if err != nil {
		return FeeEstimate{}, fmt.Errorf("failed to estimate fee: %w", err)
	}

	return est, nil
}
