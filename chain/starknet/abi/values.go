package abi

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// EnumValue is an enum variant together with its payload. Unit variants carry a nil Value.
type EnumValue struct {
	Variant string
	Value   any
}

// toBigInt converts the numeric Go representations found in config files and call sites.
func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case *felt.Felt:
		if x == nil {
			return nil, fmt.Errorf("nil felt")
		}
		return x.BigInt(new(big.Int)), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%v is not an integer", x)
		}
		b, _ := big.NewFloat(x).Int(nil)
		return b, nil
	case json.Number:
		return parseInteger(x.String())
	case string:
		return parseInteger(x)
	default:
		return nil, fmt.Errorf("expected an integer, got %T", v)
	}
}

// parseInteger parses a decimal or 0x prefixed hex integer with an optional leading minus.
func parseInteger(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	var (
		v  *big.Int
		ok bool
	)
	switch {
	case strings.HasPrefix(digits, "0x"), strings.HasPrefix(digits, "0X"):
		v, ok = new(big.Int).SetString(digits[2:], 16)
	default:
		v, ok = new(big.Int).SetString(digits, 10)
	}
	if !ok || digits == "" {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if neg {
		v.Neg(v)
	}

	return v, nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	default:
		if n, err := toBigInt(v); err == nil && n.IsInt64() && (n.Int64() == 0 || n.Int64() == 1) {
			return n.Int64() == 1, nil
		}
	}

	return false, fmt.Errorf("expected a bool, got %v", v)
}

func toSlice(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case []*felt.Felt:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, nil
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}

func toMap(v any) (map[string]any, error) {
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
}
