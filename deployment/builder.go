package deployment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/google/uuid"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
	"github.com/smartcontractkit/starknet-deployments/internal/pointer"
)

// DeployerPlaceholder is replaced by the deployer account address in constructor arguments.
const DeployerPlaceholder = "$deployer"

// Builder validates contract specs against their ABI and turns them into deploy requests. It does
// not access the network.
type Builder struct {
	network  string
	deployer *felt.Felt
	saltFn   func() *felt.Felt
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSaltSource overrides the source of salts for specs that do not set one.
func WithSaltSource(fn func() *felt.Felt) BuilderOption {
	return func(b *Builder) {
		b.saltFn = fn
	}
}

// NewBuilder returns a Builder for deployments to network from the deployer account. deployer may
// be nil, in which case "$deployer" arguments are rejected and no address is precomputed.
func NewBuilder(network string, deployer *felt.Felt, opts ...BuilderOption) *Builder {
	b := &Builder{
		network:  network,
		deployer: deployer,
		saltFn:   RandomSalt,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// RandomSalt returns a salt from 128 random bits.
func RandomSalt() *felt.Felt {
	id := uuid.New()

	return new(felt.Felt).SetBytes(id[:])
}

// Build validates spec and encodes it into a DeployRequest. defaults are the fee options of the
// run, overridden field by field by spec.Fee. Every failure is a KindMalformedArgs *Error naming
// the contract.
func (b *Builder) Build(spec ContractSpec, defaults FeeOptions) (DeployRequest, error) {
	id := spec.ID()
	if id == "" {
		return DeployRequest{}, newError(KindMalformedArgs, GlobalScope, "contract name is required", nil)
	}
	if spec.Artifact.ClassHash == nil || spec.Artifact.ClassHash.IsZero() {
		return DeployRequest{}, newError(KindMalformedArgs, id, "class hash is required", nil)
	}

	contractABI, err := abi.Parse(spec.Artifact.ABI)
	if err != nil {
		return DeployRequest{}, newError(KindMalformedArgs, id, "invalid abi", err)
	}

	args := make([]abi.Arg, len(spec.ConstructorArgs))
	for i, arg := range spec.ConstructorArgs {
		v, rerr := b.resolvePlaceholders(arg.Value)
		if rerr != nil {
			return DeployRequest{}, newError(KindMalformedArgs, id, fmt.Sprintf("argument %q", arg.Name), rerr)
		}
		args[i] = abi.Arg{Name: arg.Name, Value: v}
	}

	calldata, err := contractABI.EncodeConstructor(args)
	if err != nil {
		var argErr *abi.ArgError
		if errors.As(err, &argErr) {
			return DeployRequest{}, newError(KindMalformedArgs, id, "invalid constructor argument "+argErr.Param, err)
		}

		return DeployRequest{}, newError(KindMalformedArgs, id, "invalid constructor arguments", err)
	}

	fee := defaults.Merge(pointer.ValOrDefault(spec.Fee, FeeOptions{}))
	if err = fee.Validate(); err != nil {
		return DeployRequest{}, newError(KindMalformedArgs, id, "invalid fee options", err)
	}

	unique := true
	if spec.Unique != nil {
		unique = *spec.Unique
	}

	salt := cloneFelt(spec.Salt)
	if salt == nil {
		salt = b.saltFn()
	}

	req := DeployRequest{
		contract:    id,
		artifact:    spec.Contract,
		network:     b.network,
		classHash:   cloneFelt(spec.Artifact.ClassHash),
		abi:         spec.Artifact.ABI,
		args:        orderArgs(contractABI.ConstructorInputs(), args),
		calldata:    calldata,
		salt:        salt,
		unique:      unique,
		fee:         fee,
		deployer:    cloneFelt(b.deployer),
		redeploy:    spec.Redeploy,
		fingerprint: fingerprint(b.network, b.deployer, spec.Artifact.ClassHash, spec.Salt, unique, calldata),
	}
	if b.deployer != nil {
		req.expectedAddress = starknet.UDCDeployedAddress(b.deployer, req.classHash, salt, unique, calldata)
	}

	return req, nil
}

// resolvePlaceholders replaces DeployerPlaceholder strings anywhere within v.
func (b *Builder) resolvePlaceholders(v any) (any, error) {
	switch val := v.(type) {
	case string:
		if !strings.EqualFold(val, DeployerPlaceholder) {
			return val, nil
		}
		if b.deployer == nil {
			return nil, errors.New("deployer address is not known")
		}

		return b.deployer.String(), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := b.resolvePlaceholders(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}

		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			r, err := b.resolvePlaceholders(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}

		return out, nil
	default:
		return v, nil
	}
}

// orderArgs returns args in the order of the constructor parameters. Encoding already rejected
// missing and unknown names.
func orderArgs(params []abi.Param, args []abi.Arg) []abi.Arg {
	byName := make(map[string]any, len(args))
	for _, a := range args {
		byName[a.Name] = a.Value
	}

	out := make([]abi.Arg, 0, len(params))
	for _, p := range params {
		out = append(out, abi.Arg{Name: p.Name, Value: byName[p.Name]})
	}

	return out
}
