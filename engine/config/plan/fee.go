package plan

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/deployment"
)

// Quantity is an unsigned integer written as a decimal or 0x prefixed hex string. Unquoted YAML
// integers are accepted too.
type Quantity string

// UnmarshalYAML keeps the literal text of any scalar.
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	*q = Quantity(node.Value)

	return nil
}

// Uint64 parses q as a 64 bit unsigned integer.
func (q Quantity) Uint64() (uint64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(string(q), "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", q, err)
	}

	return v, nil
}

// Big parses q as an arbitrary precision unsigned integer.
func (q Quantity) Big() (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(string(q), "_", ""), 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid quantity %q", q)
	}

	return v, nil
}

// Fee holds fee overrides. Resource classes are keyed by their RPC names: l1_gas, l2_gas and
// l1_data_gas.
type Fee struct {
	Tip            *Quantity        `yaml:"tip,omitempty"`
	ResourceBounds map[string]Bound `yaml:"resourceBounds,omitempty"`
}

// Bound is the limit of one resource class.
type Bound struct {
	MaxAmount       Quantity `yaml:"maxAmount"`
	MaxPricePerUnit Quantity `yaml:"maxPricePerUnit"`
}

// Options converts the overrides into deployment fee options.
func (f Fee) Options() (deployment.FeeOptions, error) {
	var opts deployment.FeeOptions

	if f.Tip != nil {
		tip, err := f.Tip.Uint64()
		if err != nil {
			return opts, fmt.Errorf("tip: %w", err)
		}
		opts.Tip = &tip
	}

	if len(f.ResourceBounds) > 0 {
		opts.ResourceBounds = make(map[starknet.Resource]starknet.ResourceBound, len(f.ResourceBounds))
	}
	for name, b := range f.ResourceBounds {
		r := starknet.Resource(name)
		if !r.Valid() {
			return opts, fmt.Errorf("unknown resource %q", name)
		}

		amount, err := b.MaxAmount.Uint64()
		if err != nil {
			return opts, fmt.Errorf("resource %s max amount: %w", name, err)
		}
		price := new(big.Int)
		if b.MaxPricePerUnit != "" {
			if price, err = b.MaxPricePerUnit.Big(); err != nil {
				return opts, fmt.Errorf("resource %s max price per unit: %w", name, err)
			}
		}
		opts.ResourceBounds[r] = starknet.ResourceBound{MaxAmount: amount, MaxPricePerUnit: price}
	}

	return opts, nil
}
