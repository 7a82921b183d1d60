package deployment

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/internal/pointer"
)

func TestFeeOptions_Merge(t *testing.T) {
	t.Parallel()

	defaults := FeeOptions{
		Tip: pointer.To(uint64(5)),
		ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
			starknet.ResourceL1Gas:     {MaxAmount: 100, MaxPricePerUnit: big.NewInt(1000)},
			starknet.ResourceL1DataGas: {MaxAmount: 50, MaxPricePerUnit: big.NewInt(20)},
		},
	}

	tests := []struct {
		name     string
		override FeeOptions
		wantTip  *uint64
		want     map[starknet.Resource]uint64
	}{
		{
			name:    "no override keeps defaults",
			wantTip: pointer.To(uint64(5)),
			want: map[starknet.Resource]uint64{
				starknet.ResourceL1Gas: 100, starknet.ResourceL1DataGas: 50,
			},
		},
		{
			name: "override replaces fields individually",
			override: FeeOptions{ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
				starknet.ResourceL1Gas: {MaxAmount: 7, MaxPricePerUnit: big.NewInt(1)},
				starknet.ResourceL2Gas: {MaxAmount: 9, MaxPricePerUnit: big.NewInt(1)},
			}},
			wantTip: pointer.To(uint64(5)),
			want: map[starknet.Resource]uint64{
				starknet.ResourceL1Gas: 7, starknet.ResourceL2Gas: 9, starknet.ResourceL1DataGas: 50,
			},
		},
		{
			name:     "explicit zero tip overrides",
			override: FeeOptions{Tip: pointer.To(uint64(0))},
			wantTip:  pointer.To(uint64(0)),
			want: map[starknet.Resource]uint64{
				starknet.ResourceL1Gas: 100, starknet.ResourceL1DataGas: 50,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := defaults.Merge(tt.override)
			assert.Equal(t, tt.wantTip, got.Tip)
			require.Len(t, got.ResourceBounds, len(tt.want))
			for r, amount := range tt.want {
				assert.Equal(t, amount, got.ResourceBounds[r].MaxAmount, r)
			}
		})
	}

	assert.Equal(t, uint64(100), defaults.ResourceBounds[starknet.ResourceL1Gas].MaxAmount, "defaults are not mutated")
}

func TestFeeOptions_ZeroAmountIsNotClaimed(t *testing.T) {
	t.Parallel()

	opts := FeeOptions{}.Merge(FeeOptions{ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
		starknet.ResourceL2Gas: {MaxAmount: 0, MaxPricePerUnit: big.NewInt(999)},
	}})

	fee := opts.TxFee()
	require.NotNil(t, fee.L2Gas)
	assert.False(t, fee.L2Gas.Claims())
	assert.Zero(t, fee.L2Gas.MaxPricePerUnit.Sign())
	assert.Nil(t, fee.L1Gas, "unset classes stay unset for estimation")
	assert.Nil(t, fee.L1DataGas)
	assert.False(t, fee.Complete())
}

func TestFeeOptions_TxFee(t *testing.T) {
	t.Parallel()

	fee := sepoliaFees().TxFee()
	require.True(t, fee.Complete())
	assert.Equal(t, uint64(10000000000000000), fee.Tip)
	assert.Equal(t, uint64(0x20000), fee.L1Gas.MaxAmount)
	assert.Equal(t, uint64(0x5af3107a4000), fee.L1DataGas.MaxPricePerUnit.Uint64())
}

func TestFeeOptions_Validate(t *testing.T) {
	t.Parallel()

	tooExpensive := new(big.Int).Lsh(big.NewInt(1), 130)

	tests := []struct {
		name    string
		give    FeeOptions
		wantErr string
	}{
		{name: "empty", give: FeeOptions{}},
		{name: "valid", give: sepoliaFees()},
		{
			name: "unknown resource",
			give: FeeOptions{ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
				"storage": {MaxAmount: 1, MaxPricePerUnit: big.NewInt(1)},
			}},
			wantErr: `unknown resource "storage"`,
		},
		{
			name: "price exceeds u128",
			give: FeeOptions{ResourceBounds: map[starknet.Resource]starknet.ResourceBound{
				starknet.ResourceL1Gas: {MaxAmount: 1, MaxPricePerUnit: tooExpensive},
			}},
			wantErr: "exceeds u128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
