package starknet

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceBound_JSON(t *testing.T) {
	t.Parallel()

	b := ResourceBound{MaxAmount: 0x20000, MaxPricePerUnit: big.NewInt(0x5af3107a4000)}
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_amount":"0x20000","max_price_per_unit":"0x5af3107a4000"}`, string(raw))

	var got ResourceBound
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, b.MaxAmount, got.MaxAmount)
	assert.Equal(t, 0, b.MaxPricePerUnit.Cmp(got.MaxPricePerUnit))
}

func TestResourceBound_ZeroAmountDoesNotClaim(t *testing.T) {
	t.Parallel()

	b := ResourceBound{MaxAmount: 0, MaxPricePerUnit: big.NewInt(999)}
	assert.False(t, b.Claims())

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_amount":"0x0","max_price_per_unit":"0x0"}`, string(raw))

	// the hashed encoding of an unclaimed bound only carries the resource name
	m := ResourceBoundsMapping{L2Gas: b}
	felts := m.hashFelts()
	require.Len(t, felts, 3)
	want := new(big.Int).Lsh(new(big.Int).SetBytes([]byte("L2_GAS")), 192)
	assert.Equal(t, 0, want.Cmp(FeltToBig(felts[1])))
}

func TestResourceBound_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ResourceBound{MaxAmount: 1}.Validate())
	require.Error(t, ResourceBound{MaxPricePerUnit: big.NewInt(-1)}.Validate())
	require.Error(t, ResourceBound{MaxPricePerUnit: new(big.Int).Lsh(big.NewInt(1), 128)}.Validate())
}

func TestTxFee_Resolve(t *testing.T) {
	t.Parallel()

	l1 := ResourceBound{MaxAmount: 7, MaxPricePerUnit: big.NewInt(8)}
	fee := TxFee{Tip: 1, L1Gas: &l1}
	assert.False(t, fee.Complete())

	est := ResourceBoundsMapping{
		L1Gas:     ResourceBound{MaxAmount: 1, MaxPricePerUnit: big.NewInt(1)},
		L2Gas:     ResourceBound{MaxAmount: 2, MaxPricePerUnit: big.NewInt(2)},
		L1DataGas: ResourceBound{MaxAmount: 3, MaxPricePerUnit: big.NewInt(3)},
	}
	got := fee.Resolve(est)
	assert.Equal(t, l1, got.L1Gas)
	assert.Equal(t, est.L2Gas, got.L2Gas)
	assert.Equal(t, est.L1DataGas, got.L1DataGas)
}

func TestFeeEstimate_ResourceBounds(t *testing.T) {
	t.Parallel()

	est := FeeEstimate{
		L1GasConsumed:     FeltFromUint64(100),
		L1GasPrice:        FeltFromUint64(10),
		L2GasConsumed:     FeltFromUint64(0),
		L2GasPrice:        FeltFromUint64(4),
		L1DataGasConsumed: FeltFromUint64(20),
		L1DataGasPrice:    FeltFromUint64(2),
	}

	got := est.ResourceBounds(150, 200)
	assert.Equal(t, uint64(150), got.L1Gas.MaxAmount)
	assert.Equal(t, int64(20), got.L1Gas.MaxPricePerUnit.Int64())
	assert.Equal(t, uint64(0), got.L2Gas.MaxAmount)
	assert.False(t, got.L2Gas.Claims())
	assert.Equal(t, uint64(30), got.L1DataGas.MaxAmount)
	assert.Equal(t, int64(4), got.L1DataGas.MaxPricePerUnit.Int64())
}

func TestResource_Valid(t *testing.T) {
	t.Parallel()

	for _, r := range Resources {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Resource("storage").Valid())
}
