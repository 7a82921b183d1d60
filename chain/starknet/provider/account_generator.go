package provider

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/starknet.go/account"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
)

// AccountGenerator produces the deployer account of a chain.
type AccountGenerator interface {
	Generate() (*starknet.Account, error)
}

var (
	_ AccountGenerator = (*accountGenPrivateKey)(nil)
	_ AccountGenerator = (*accountGenSigner)(nil)
)

// accountGenPrivateKey is an account generator that signs with a raw private key held in an
// in-memory keystore.
type accountGenPrivateKey struct {
	// Address is the hex address of the deployed account contract.
	Address string
	// PrivateKey is the hex formatted STARK private key controlling the account.
	PrivateKey string
}

// AccountGenPrivateKey creates a new instance of accountGenPrivateKey with the provided account
// address and private key.
func AccountGenPrivateKey(address, privateKey string) *accountGenPrivateKey {
	return &accountGenPrivateKey{
		Address:    address,
		PrivateKey: privateKey,
	}
}

// Generate parses the address and key, stores the key in a keystore and returns the account.
func (g *accountGenPrivateKey) Generate() (*starknet.Account, error) {
	if g.Address == "" {
		return nil, errors.New("account address is required")
	}
	if g.PrivateKey == "" {
		return nil, errors.New("private key is required")
	}

	addr, err := starknet.ParseFelt(g.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid account address: %w", err)
	}

	key, ok := new(big.Int).SetString(strings.TrimPrefix(strings.TrimPrefix(g.PrivateKey, "0x"), "0X"), 16)
	if !ok || key.Sign() <= 0 {
		// never echo the key itself
		return nil, errors.New("invalid private key: expected a non-zero hex string")
	}
	if _, err = starknet.FeltFromBig(key); err != nil {
		return nil, errors.New("invalid private key: out of range")
	}

	ks := account.NewMemKeystore()
	ks.Put(addr.String(), key)

	return starknet.NewAccount(addr, starknet.NewKeystoreSigner(ks, addr.String()))
}

// accountGenSigner wraps an externally provided signer, e.g. one backed by a remote key service.
type accountGenSigner struct {
	Address string
	Signer  starknet.Signer
}

// AccountGenSigner creates an account generator for address signed by signer.
func AccountGenSigner(address string, signer starknet.Signer) *accountGenSigner {
	return &accountGenSigner{Address: address, Signer: signer}
}

// Generate returns the account.
func (g *accountGenSigner) Generate() (*starknet.Account, error) {
	addr, err := starknet.ParseFelt(g.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid account address: %w", err)
	}

	return starknet.NewAccount(addr, g.Signer)
}
