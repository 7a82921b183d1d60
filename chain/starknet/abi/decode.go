package abi

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/NethermindEth/juno/core/felt"
)

var errShortData = errors.New("not enough data")

// DecodeOutputs decodes the return data of function.
func (a *ABI) DecodeOutputs(function string, data []*felt.Felt) ([]any, error) {
	fn, err := a.Function(function)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(fn.Outputs))
	rest := data
	for i, o := range fn.Outputs {
		var v any
		v, rest, err = a.Decode(o.Type, rest)
		if err != nil {
			return nil, fmt.Errorf("output %d of %s: %w", i, function, err)
		}
		out = append(out, v)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%s: %d trailing felts", function, len(rest))
	}

	return out, nil
}

// Decode reads a value of the Cairo type typ from the front of data and returns the remaining
// felts. Integers up to 64 bits decode to uint64 or int64, wider integers to *big.Int, felts and
// addresses to *felt.Felt, ByteArray to string, arrays and tuples to []any, structs to
// map[string]any and enums to EnumValue.
func (a *ABI) Decode(typ string, data []*felt.Felt) (any, []*felt.Felt, error) {
	switch typ {
	case TypeUnit:
		return nil, data, nil
	case TypeFelt252:
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		return data[0], data[1:], nil
	case TypeBool:
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		return !data[0].IsZero(), data[1:], nil
	case TypeU256:
		if len(data) < 2 {
			return nil, nil, errShortData
		}
		low, high := toBig(data[0]), toBig(data[1])
		return high.Lsh(high, 128).Or(high, low), data[2:], nil
	case TypeByteArray:
		return decodeByteArray(data)
	}

	if it, ok := intTypes[typ]; ok {
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		n := toBig(data[0])
		if it.signed && n.Cmp(new(big.Int).Rsh(fieldPrime, 1)) > 0 {
			n.Sub(n, fieldPrime)
		}
		lo, hi := it.bounds()
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return nil, nil, fmt.Errorf("%s out of range for %s", n, typ)
		}
		switch {
		case it.bits <= 64 && it.signed:
			return n.Int64(), data[1:], nil
		case it.bits <= 64:
			return n.Uint64(), data[1:], nil
		default:
			return n, data[1:], nil
		}
	}

	if _, ok := addressTypes[typ]; ok {
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		return data[0], data[1:], nil
	}

	if s, ok := a.structs[typ]; ok {
		out := make(map[string]any, len(s.Members))
		rest := data
		for _, m := range s.Members {
			var (
				v   any
				err error
			)
			v, rest, err = a.Decode(m.Type, rest)
			if err != nil {
				return nil, nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
			}
			out[m.Name] = v
		}
		return out, rest, nil
	}

	if e, ok := a.enums[typ]; ok {
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		idx := toBig(data[0])
		if !idx.IsUint64() || idx.Uint64() >= uint64(len(e.Variants)) {
			return nil, nil, fmt.Errorf("%s has no variant %s", e.Name, idx)
		}
		variant := e.Variants[idx.Uint64()]
		v, rest, err := a.Decode(variant.Type, data[1:])
		if err != nil {
			return nil, nil, fmt.Errorf("%s::%s: %w", e.Name, variant.Name, err)
		}
		return EnumValue{Variant: variant.Name, Value: v}, rest, nil
	}

	if base, elem, ok := genericArg(typ); ok && (base == arrayPrefix || base == spanPrefix) {
		if len(data) < 1 {
			return nil, nil, errShortData
		}
		n := toBig(data[0])
		if !n.IsUint64() || n.Uint64() > uint64(len(data)-1) {
			return nil, nil, fmt.Errorf("invalid array length %s", n)
		}
		out := make([]any, 0, n.Uint64())
		rest := data[1:]
		for i := range n.Uint64() {
			var (
				v   any
				err error
			)
			v, rest, err = a.Decode(elem, rest)
			if err != nil {
				return nil, nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, rest, nil
	}

	if elems, ok := tupleElems(typ); ok {
		out := make([]any, 0, len(elems))
		rest := data
		for i, elem := range elems {
			var (
				v   any
				err error
			)
			v, rest, err = a.Decode(elem, rest)
			if err != nil {
				return nil, nil, fmt.Errorf("(%d): %w", i, err)
			}
			out = append(out, v)
		}
		return out, rest, nil
	}

	return nil, nil, fmt.Errorf("unsupported type %s", typ)
}

func decodeByteArray(data []*felt.Felt) (any, []*felt.Felt, error) {
	if len(data) < 1 {
		return nil, nil, errShortData
	}
	full := toBig(data[0])
	if !full.IsUint64() || full.Uint64()+3 > uint64(len(data)) {
		return nil, nil, errShortData
	}
	n := int(full.Uint64())

	var b []byte
	for _, w := range data[1 : 1+n] {
		word, err := padBytes(toBig(w), 31)
		if err != nil {
			return nil, nil, err
		}
		b = append(b, word...)
	}
	pendingLen := toBig(data[2+n])
	if !pendingLen.IsUint64() || pendingLen.Uint64() > 30 {
		return nil, nil, fmt.Errorf("invalid pending word length %s", pendingLen)
	}
	pending, err := padBytes(toBig(data[1+n]), int(pendingLen.Uint64()))
	if err != nil {
		return nil, nil, err
	}

	return string(append(b, pending...)), data[3+n:], nil
}

func padBytes(v *big.Int, size int) ([]byte, error) {
	if v.BitLen() > size*8 {
		return nil, fmt.Errorf("byte array word %s exceeds %d bytes", v, size)
	}
	out := make([]byte, size)
	v.FillBytes(out)

	return out, nil
}

func toBig(f *felt.Felt) *big.Int { return f.BigInt(new(big.Int)) }
