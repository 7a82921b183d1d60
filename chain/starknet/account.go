package starknet

import (
	"context"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/NethermindEth/starknet.go/account"
)

// Signer produces STARK curve signatures over transaction or message hashes.
type Signer interface {
	SignHash(ctx context.Context, hash *felt.Felt) ([]*felt.Felt, error)
}

// KeystoreSigner signs with a key held by a starknet.go keystore.
type KeystoreSigner struct {
	ks account.Keystore
	id string
}

var _ Signer = (*KeystoreSigner)(nil)

// NewKeystoreSigner returns a signer that signs with the key stored under id.
func NewKeystoreSigner(ks account.Keystore, id string) *KeystoreSigner {
	return &KeystoreSigner{ks: ks, id: id}
}

// SignHash returns the [r, s] signature of hash.
func (s *KeystoreSigner) SignHash(ctx context.Context, hash *felt.Felt) ([]*felt.Felt, error) {
	r, sig, err := s.ks.Sign(ctx, s.id, FeltToBig(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash %s: %w", hash, err)
	}

	rf, err := FeltFromBig(r)
	if err != nil {
		return nil, fmt.Errorf("invalid signature r: %w", err)
	}
	sf, err := FeltFromBig(sig)
	if err != nil {
		return nil, fmt.Errorf("invalid signature s: %w", err)
	}

	return []*felt.Felt{rf, sf}, nil
}

// Account is a deployed account contract together with the signer controlling it. It is
// immutable once constructed.
type Account struct {
	address *felt.Felt
	signer  Signer
}

// NewAccount returns an Account for address signed by signer.
func NewAccount(address *felt.Felt, signer Signer) (*Account, error) {
	if address == nil || address.IsZero() {
		return nil, errors.New("account address is required")
	}
	if signer == nil {
		return nil, errors.New("account signer is required")
	}

	return &Account{address: address, signer: signer}, nil
}

// Address returns the account contract address.
func (a *Account) Address() *felt.Felt { return a.address }

// Sign signs hash with the account's signer.
func (a *Account) Sign(ctx context.Context, hash *felt.Felt) ([]*felt.Felt, error) {
	return a.signer.SignHash(ctx, hash)
}

// validSignatureMagic is the short string 'VALID' returned by SNIP-6 accounts.
var validSignatureMagic = MustShortString("VALID")

// VerifyOnchain asks the account contract to validate a signature over hash via is_valid_signature.
func (a *Account) VerifyOnchain(ctx context.Context, client Client, hash *felt.Felt, signature []*felt.Felt) error {
	calldata := append([]*felt.Felt{hash, FeltFromUint64(uint64(len(signature)))}, signature...)
	out, err := client.Call(ctx, FunctionCall{
		ContractAddress:    a.address,
		EntryPointSelector: GetSelectorFromName("is_valid_signature"),
		Calldata:           calldata,
	})
	if err != nil {
		return fmt.Errorf("is_valid_signature call failed: %w", err)
	}
	if len(out) == 0 {
		return errors.New("is_valid_signature returned no result")
	}
	if out[0].Equal(validSignatureMagic) || out[0].Equal(FeltFromUint64(1)) {
		return nil
	}

	return fmt.Errorf("account rejected signature (is_valid_signature returned %s)", out[0])
}
