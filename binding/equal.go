package binding

import (
	"math/big"
	"reflect"

	"github.com/NethermindEth/juno/core/felt"
)

// equalValues compares decoded outputs. Felts and big integers compare by value.
func equalValues(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalValue(a[i], b[i]) {
			return false
		}
	}

	return true
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case *felt.Felt:
		y, ok := b.(*felt.Felt)
		return ok && x != nil && y != nil && x.Equal(y)
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x != nil && y != nil && x.Cmp(y) == 0
	case []any:
		y, ok := b.([]any)
		return ok && equalValues(x, y)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, found := y[k]
			if !found || !equalValue(v, w) {
				return false
			}
		}

		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
