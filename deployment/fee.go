package deployment

import (
	"fmt"
	"maps"
	"math/big"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/internal/pointer"
)

// FeeOptions are the caller supplied fee settings of a deployment. Unset fields fall back to the
// defaults of the run, and resource classes left unset everywhere are estimated before signing.
type FeeOptions struct {
	Tip            *uint64                                       `json:"tip,omitempty"`
	ResourceBounds map[starknet.Resource]starknet.ResourceBound `json:"resourceBounds,omitempty"`
}

// Merge returns o with every field set in override replacing the corresponding field of o.
func (o FeeOptions) Merge(override FeeOptions) FeeOptions {
	out := FeeOptions{Tip: o.Tip}
	if override.Tip != nil {
		out.Tip = override.Tip
	}
	if out.Tip != nil {
		out.Tip = pointer.To(*out.Tip)
	}

	if len(o.ResourceBounds) > 0 || len(override.ResourceBounds) > 0 {
		out.ResourceBounds = make(map[starknet.Resource]starknet.ResourceBound, len(starknet.Resources))
		maps.Copy(out.ResourceBounds, o.ResourceBounds)
		maps.Copy(out.ResourceBounds, override.ResourceBounds)
		for r, b := range out.ResourceBounds {
			out.ResourceBounds[r] = normalizeBound(b)
		}
	}

	return out
}

// Validate checks every bound names a known resource class and fits the wire format.
func (o FeeOptions) Validate() error {
	for r, b := range o.ResourceBounds {
		if !r.Valid() {
			return fmt.Errorf("unknown resource %q", r)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("resource %s: %w", r, err)
		}
	}

	return nil
}

// TxFee converts the options into the transaction fee configuration. Resource classes without a
// bound are left nil.
func (o FeeOptions) TxFee() starknet.TxFee {
	fee := starknet.TxFee{Tip: pointer.ValOrDefault(o.Tip, 0)}
	for r, b := range o.ResourceBounds {
		nb := normalizeBound(b)
		switch r {
		case starknet.ResourceL1Gas:
			fee.L1Gas = &nb
		case starknet.ResourceL2Gas:
			fee.L2Gas = &nb
		case starknet.ResourceL1DataGas:
			fee.L1DataGas = &nb
		}
	}

	return fee
}

// normalizeBound copies b. A zero amount does not claim the resource and carries no price.
func normalizeBound(b starknet.ResourceBound) starknet.ResourceBound {
	if !b.Claims() || b.MaxPricePerUnit == nil {
		return starknet.ResourceBound{MaxAmount: b.MaxAmount, MaxPricePerUnit: new(big.Int)}
	}

	return starknet.ResourceBound{MaxAmount: b.MaxAmount, MaxPricePerUnit: new(big.Int).Set(b.MaxPricePerUnit)}
}
