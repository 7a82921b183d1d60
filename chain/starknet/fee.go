package starknet

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
)

// Resource is a resource class a V3 transaction bounds its fee by.
type Resource string

const (
	ResourceL1Gas     Resource = "l1_gas"
	ResourceL2Gas     Resource = "l2_gas"
	ResourceL1DataGas Resource = "l1_data_gas"
)

// Resources lists every resource class in the order they are hashed.
var Resources = []Resource{ResourceL1Gas, ResourceL2Gas, ResourceL1DataGas}

// hashName is the short string name of the resource used in the transaction hash.
func (r Resource) hashName() string {
	switch r {
	case ResourceL1Gas:
		return "L1_GAS"
	case ResourceL2Gas:
		return "L2_GAS"
	case ResourceL1DataGas:
		return "L1_DATA"
	default:
		return ""
	}
}

// Valid reports whether r is a known resource class.
func (r Resource) Valid() bool { return r.hashName() != "" }

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// ResourceBound caps the amount of a resource and the price paid per unit of it.
// A zero MaxAmount means the resource is not requested at all.
type ResourceBound struct {
	MaxAmount       uint64
	MaxPricePerUnit *big.Int
}

// Claims reports whether the bound requests any amount of the resource.
func (b ResourceBound) Claims() bool { return b.MaxAmount > 0 }

// Validate checks the price fits in a u128 and is non-negative.
func (b ResourceBound) Validate() error {
	if b.MaxPricePerUnit == nil {
		return nil
	}
	if b.MaxPricePerUnit.Sign() < 0 {
		return errors.New("max price per unit must not be negative")
	}
	if b.MaxPricePerUnit.Cmp(maxUint128) > 0 {
		return errors.New("max price per unit exceeds u128")
	}

	return nil
}

// effective returns the bound as it is put on the wire: unclaimed resources carry no price.
func (b ResourceBound) effective() (uint64, *big.Int) {
	if !b.Claims() || b.MaxPricePerUnit == nil {
		return b.MaxAmount, new(big.Int)
	}

	return b.MaxAmount, b.MaxPricePerUnit
}

type resourceBoundJSON struct {
	MaxAmount       string `json:"max_amount"`
	MaxPricePerUnit string `json:"max_price_per_unit"`
}

// MarshalJSON renders the bound in the JSON-RPC hex representation.
func (b ResourceBound) MarshalJSON() ([]byte, error) {
	amount, price := b.effective()

	return json.Marshal(resourceBoundJSON{
		MaxAmount:       fmt.Sprintf("0x%x", amount),
		MaxPricePerUnit: "0x" + price.Text(16),
	})
}

// UnmarshalJSON parses the JSON-RPC hex representation.
func (b *ResourceBound) UnmarshalJSON(data []byte) error {
	var raw resourceBoundJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	amount, ok := parseBigInt(raw.MaxAmount)
	if !ok || !amount.IsUint64() {
		return fmt.Errorf("invalid max_amount %q", raw.MaxAmount)
	}
	price, ok := parseBigInt(raw.MaxPricePerUnit)
	if !ok {
		return fmt.Errorf("invalid max_price_per_unit %q", raw.MaxPricePerUnit)
	}

	b.MaxAmount = amount.Uint64()
	b.MaxPricePerUnit = price

	return b.Validate()
}

// ResourceBoundsMapping holds a bound for every resource class.
type ResourceBoundsMapping struct {
	L1Gas     ResourceBound `json:"l1_gas"`
	L2Gas     ResourceBound `json:"l2_gas"`
	L1DataGas ResourceBound `json:"l1_data_gas"`
}

// Get returns the bound of resource r.
func (m ResourceBoundsMapping) Get(r Resource) ResourceBound {
	switch r {
	case ResourceL1Gas:
		return m.L1Gas
	case ResourceL2Gas:
		return m.L2Gas
	case ResourceL1DataGas:
		return m.L1DataGas
	default:
		return ResourceBound{}
	}
}

// hashFelts encodes each bound as resource_name(60 bits) | max_amount(64 bits) | max_price(128 bits).
func (m ResourceBoundsMapping) hashFelts() []*felt.Felt {
	out := make([]*felt.Felt, 0, len(Resources))
	for _, r := range Resources {
		amount, price := m.Get(r).effective()

		v := new(big.Int).SetBytes([]byte(r.hashName()))
		v.Lsh(v, 64)
		v.Or(v, new(big.Int).SetUint64(amount))
		v.Lsh(v, 128)
		v.Or(v, price)

		out = append(out, new(felt.Felt).SetBigInt(v))
	}

	return out
}

// TxFee is the fee configuration of a V3 transaction. Nil bounds are filled from a fee estimate
// before the transaction is signed.
type TxFee struct {
	Tip       uint64
	L1Gas     *ResourceBound
	L2Gas     *ResourceBound
	L1DataGas *ResourceBound
}

// Complete reports whether every resource class has an explicit bound.
func (f TxFee) Complete() bool {
	return f.L1Gas != nil && f.L2Gas != nil && f.L1DataGas != nil
}

// Resolve fills the unset bounds of f from est and returns the complete mapping.
func (f TxFee) Resolve(est ResourceBoundsMapping) ResourceBoundsMapping {
	out := est
	if f.L1Gas != nil {
		out.L1Gas = *f.L1Gas
	}
	if f.L2Gas != nil {
		out.L2Gas = *f.L2Gas
	}
	if f.L1DataGas != nil {
		out.L1DataGas = *f.L1DataGas
	}

	return out
}

// Bounds returns the mapping of f assuming it is complete. Unset bounds are zero.
func (f TxFee) Bounds() ResourceBoundsMapping {
	return f.Resolve(ResourceBoundsMapping{})
}

// FeeEstimate is the result of starknet_estimateFee.
type FeeEstimate struct {
	L1GasConsumed     *felt.Felt `json:"l1_gas_consumed"`
	L1GasPrice        *felt.Felt `json:"l1_gas_price"`
	L2GasConsumed     *felt.Felt `json:"l2_gas_consumed"`
	L2GasPrice        *felt.Felt `json:"l2_gas_price"`
	L1DataGasConsumed *felt.Felt `json:"l1_data_gas_consumed"`
	L1DataGasPrice    *felt.Felt `json:"l1_data_gas_price"`
	OverallFee        *felt.Felt `json:"overall_fee"`
	Unit              string     `json:"unit"`
}

// ResourceBounds derives bounds from the estimate, scaling amounts and prices by the given
// percentages (150 means one and a half times the estimate).
func (e FeeEstimate) ResourceBounds(amountPct, pricePct uint64) ResourceBoundsMapping {
	bound := func(consumed, price *felt.Felt) ResourceBound {
		amount := scale(consumed, amountPct)
		if !amount.IsUint64() {
			amount = new(big.Int).SetUint64(^uint64(0))
		}
		p := scale(price, pricePct)
		if p.Cmp(maxUint128) > 0 {
			p = new(big.Int).Set(maxUint128)
		}

		return ResourceBound{MaxAmount: amount.Uint64(), MaxPricePerUnit: p}
	}

	return ResourceBoundsMapping{
		L1Gas:     bound(e.L1GasConsumed, e.L1GasPrice),
		L2Gas:     bound(e.L2GasConsumed, e.L2GasPrice),
		L1DataGas: bound(e.L1DataGasConsumed, e.L1DataGasPrice),
	}
}

func scale(f *felt.Felt, pct uint64) *big.Int {
	if f == nil {
		return new(big.Int)
	}
	v := FeltToBig(f)
	v.Mul(v, new(big.Int).SetUint64(pct))

	return v.Div(v, big.NewInt(100))
}
