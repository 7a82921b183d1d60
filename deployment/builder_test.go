package deployment

import (
	"errors"
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
	"github.com/smartcontractkit/starknet-deployments/internal/pointer"
)

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	deployer := starknet.MustParseFelt(deployerAddress)

	tests := []struct {
		name         string
		deployer     *felt.Felt
		give         func() ContractSpec
		wantCalldata []*felt.Felt
		wantErrParam string
		wantReason   string
	}{
		{
			name:     "counter with deployer owner",
			deployer: deployer,
			give:     func() ContractSpec { return counterSpec("CounterContract", 15) },
			wantCalldata: []*felt.Felt{
				starknet.FeltFromUint64(15), deployer,
			},
		},
		{
			name:     "arguments are reordered by the constructor",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.ConstructorArgs = []abi.Arg{
					{Name: "owner", Value: "0x123"},
					{Name: "init_value", Value: "15"},
				}

				return s
			},
			wantCalldata: []*felt.Felt{
				starknet.FeltFromUint64(15), starknet.FeltFromUint64(0x123),
			},
		},
		{
			name:     "missing owner",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.ConstructorArgs = s.ConstructorArgs[:1]

				return s
			},
			wantErrParam: "owner",
			wantReason:   "invalid constructor argument owner",
		},
		{
			name:     "extra argument",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.ConstructorArgs = append(s.ConstructorArgs, abi.Arg{Name: "step", Value: 1})

				return s
			},
			wantErrParam: "step",
			wantReason:   "invalid constructor argument step",
		},
		{
			name:     "value out of range",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.ConstructorArgs[0].Value = uint64(1) << 40

				return s
			},
			wantErrParam: "init_value",
			wantReason:   "invalid constructor argument init_value",
		},
		{
			name:       "deployer placeholder without deployer",
			deployer:   nil,
			give:       func() ContractSpec { return counterSpec("CounterContract", 15) },
			wantReason: `argument "owner"`,
		},
		{
			name:     "missing class hash",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.Artifact.ClassHash = nil

				return s
			},
			wantReason: "class hash is required",
		},
		{
			name:     "invalid abi",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.Artifact.ABI = []byte(`{"not": "an abi"}`)

				return s
			},
			wantReason: "invalid abi",
		},
		{
			name:     "unknown fee resource",
			deployer: deployer,
			give: func() ContractSpec {
				s := counterSpec("CounterContract", 15)
				s.Fee = &FeeOptions{ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
					"storage_gas": {MaxAmount: 1, MaxPricePerUnit: big.NewInt(1)},
				}}

				return s
			},
			wantReason: "invalid fee options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewBuilder(starknet.NetworkSepolia, tt.deployer)
			req, err := b.Build(tt.give(), FeeOptions{})

			if tt.wantReason != "" {
				require.Error(t, err)
				var dErr *Error
				require.ErrorAs(t, err, &dErr)
				assert.Equal(t, KindMalformedArgs, dErr.Kind)
				assert.Equal(t, "CounterContract", dErr.Contract)
				assert.Contains(t, dErr.Reason, tt.wantReason)
				assert.False(t, dErr.Retryable())

				if tt.wantErrParam != "" {
					var argErr *abi.ArgError
					require.ErrorAs(t, err, &argErr)
					assert.Equal(t, tt.wantErrParam, argErr.Param)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "CounterContract", req.Contract())
			assert.Equal(t, starknet.NetworkSepolia, req.Network())
			assert.True(t, req.Unique())
			assert.Equal(t, starknet.FeltStrings(tt.wantCalldata), starknet.FeltStrings(req.Calldata()))
			assert.Equal(t, "init_value", req.Args()[0].Name)
			assert.Equal(t, "owner", req.Args()[1].Name)

			want := starknet.UDCDeployedAddress(tt.deployer, counterClassHash, req.Salt(), true, req.Calldata())
			assert.Equal(t, want.String(), req.ExpectedAddress().String())
		})
	}
}

func TestBuilder_BuildExportName(t *testing.T) {
	t.Parallel()

	b := NewBuilder(starknet.NetworkSepolia, starknet.MustParseFelt(deployerAddress))
	req, err := b.Build(counterSpec("PrimaryCounter", 1), FeeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "PrimaryCounter", req.Contract())
	assert.Equal(t, "CounterContract", req.Artifact())
}

func TestBuilder_Fingerprint(t *testing.T) {
	t.Parallel()

	b := NewBuilder(starknet.NetworkSepolia, starknet.MustParseFelt(deployerAddress))
	build := func(spec ContractSpec) DeployRequest {
		req, err := b.Build(spec, FeeOptions{})
		require.NoError(t, err)

		return req
	}

	first := build(counterSpec("CounterContract", 15))
	second := build(counterSpec("CounterContract", 15))
	assert.NotEqual(t, first.Salt().String(), second.Salt().String(), "salts are random")
	assert.Equal(t, first.Fingerprint(), second.Fingerprint(), "random salts do not change the fingerprint")

	other := build(counterSpec("CounterContract", 16))
	assert.NotEqual(t, first.Fingerprint(), other.Fingerprint())

	salted := counterSpec("CounterContract", 15)
	salted.Salt = starknet.FeltFromUint64(7)
	withSalt := build(salted)
	assert.Equal(t, "0x7", withSalt.Salt().String())
	assert.NotEqual(t, first.Fingerprint(), withSalt.Fingerprint())

	notUnique := counterSpec("CounterContract", 15)
	notUnique.Unique = pointer.To(false)
	assert.NotEqual(t, first.Fingerprint(), build(notUnique).Fingerprint())
}

func TestBuilder_FeeOverrides(t *testing.T) {
	t.Parallel()

	spec := counterSpec("CounterContract", 15)
	spec.Fee = &FeeOptions{
		Tip: pointer.To(uint64(42)),
		ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
			starknet.ResourceL1Gas: {MaxAmount: 10, MaxPricePerUnit: big.NewInt(20)},
		},
	}

	b := NewBuilder(starknet.NetworkSepolia, starknet.MustParseFelt(deployerAddress))
	req, err := b.Build(spec, sepoliaFees())
	require.NoError(t, err)

	fee := req.Fee()
	assert.Equal(t, uint64(42), *fee.Tip)
	assert.Equal(t, uint64(10), fee.ResourceBounds[starknet.ResourceL1Gas].MaxAmount)
	assert.Equal(t, uint64(0x20000), fee.ResourceBounds[starknet.ResourceL1DataGas].MaxAmount)
	assert.Contains(t, fee.ResourceBounds, starknet.ResourceL2Gas)
}

func TestBuilder_SaltSource(t *testing.T) {
	t.Parallel()

	calls := 0
	b := NewBuilder(starknet.NetworkSepolia, starknet.MustParseFelt(deployerAddress), WithSaltSource(func() *felt.Felt {
		calls++
		return starknet.FeltFromUint64(99)
	}))

	req, err := b.Build(counterSpec("CounterContract", 15), FeeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "0x63", req.Salt().String())
}

func TestDeployRequest_Immutable(t *testing.T) {
	t.Parallel()

	b := NewBuilder(starknet.NetworkSepolia, starknet.MustParseFelt(deployerAddress))
	req, err := b.Build(counterSpec("CounterContract", 15), sepoliaFees())
	require.NoError(t, err)

	calldata := req.Calldata()
	calldata[0].SetUint64(1000)
	req.Args()[0] = abi.Arg{Name: "changed"}
	req.ClassHash().SetUint64(1)
	req.Fee().ResourceBounds[starknet.ResourceL1Gas].MaxPricePerUnit.SetInt64(1)

	assert.Equal(t, "0xf", req.Calldata()[0].String())
	assert.Equal(t, "init_value", req.Args()[0].Name)
	assert.Equal(t, counterClassHash.String(), req.ClassHash().String())
	assert.Equal(t, uint64(0x5af3107a4000), req.Fee().ResourceBounds[starknet.ResourceL1Gas].MaxPricePerUnit.Uint64())
}

func TestBuilder_ErrorIsKind(t *testing.T) {
	t.Parallel()

	b := NewBuilder(starknet.NetworkSepolia, nil)
	spec := counterSpec("", 15)
	spec.Contract = ""
	_, err := b.Build(spec, FeeOptions{})
	require.Error(t, err)

	assert.True(t, IsKind(err, KindMalformedArgs))
	var dErr *Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, GlobalScope, dErr.Contract)
}
