package abi

import (
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/NethermindEth/juno/core/felt"
)

// fieldPrime is the Starknet field prime.
var fieldPrime, _ = new(big.Int).SetString(
	"800000000000011000000000000000000000000000000000000000000000001", 16,
)

var u128Mask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Arg is a named argument value.
type Arg struct {
	Name  string
	Value any
}

// EncodeConstructor validates args against the constructor parameters and encodes them in
// declaration order. Arguments may be given in any order.
func (a *ABI) EncodeConstructor(args []Arg) ([]*felt.Felt, error) {
	return a.encodeParams(a.ConstructorInputs(), args)
}

// EncodeInputs validates args against the inputs of function and encodes them.
func (a *ABI) EncodeInputs(function string, args []Arg) ([]*felt.Felt, error) {
	fn, err := a.Function(function)
	if err != nil {
		return nil, err
	}

	return a.encodeParams(fn.Inputs, args)
}

func (a *ABI) encodeParams(params []Param, args []Arg) ([]*felt.Felt, error) {
	byName := make(map[string]any, len(args))
	for _, arg := range args {
		if _, dup := byName[arg.Name]; dup {
			return nil, argError(arg.Name, "given more than once")
		}
		byName[arg.Name] = arg.Value
	}

	var out []*felt.Felt
	for _, p := range params {
		v, ok := byName[p.Name]
		if !ok {
			return nil, argError(p.Name, "missing argument of type %s", p.Type)
		}
		delete(byName, p.Name)

		encoded, err := a.Encode(p.Type, v)
		if err != nil {
			return nil, argError(p.Name, "%s", err.Error())
		}
		out = append(out, encoded...)
	}

	for _, arg := range args {
		if _, extra := byName[arg.Name]; extra {
			return nil, argError(arg.Name, "unexpected argument")
		}
	}

	if out == nil {
		out = []*felt.Felt{}
	}

	return out, nil
}

// Encode serializes v as a value of the Cairo type typ.
func (a *ABI) Encode(typ string, v any) ([]*felt.Felt, error) {
	switch typ {
	case TypeUnit:
		return nil, nil
	case TypeFelt252:
		f, err := encodeFelt252(v)
		if err != nil {
			return nil, err
		}
		return []*felt.Felt{f}, nil
	case TypeBool:
		b, err := toBool(v)
		if err != nil {
			return nil, err
		}
		if b {
			return []*felt.Felt{new(felt.Felt).SetUint64(1)}, nil
		}
		return []*felt.Felt{new(felt.Felt)}, nil
	case TypeU256:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 || n.BitLen() > 256 {
			return nil, fmt.Errorf("%s does not fit in u256", n)
		}
		low := new(big.Int).And(n, u128Mask)
		high := new(big.Int).Rsh(n, 128)
		return []*felt.Felt{new(felt.Felt).SetBigInt(low), new(felt.Felt).SetBigInt(high)}, nil
	case TypeByteArray:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return encodeByteArray(s), nil
	}

	if it, ok := intTypes[typ]; ok {
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		lo, hi := it.bounds()
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return nil, fmt.Errorf("%s out of range for %s", n, typ)
		}
		if n.Sign() < 0 {
			n.Add(n, fieldPrime)
		}
		return []*felt.Felt{new(felt.Felt).SetBigInt(n)}, nil
	}

	if bits, ok := addressTypes[typ]; ok {
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 || n.BitLen() > int(bits) {
			return nil, fmt.Errorf("%s is not a valid %s", n, typ)
		}
		return []*felt.Felt{new(felt.Felt).SetBigInt(n)}, nil
	}

	if s, ok := a.structs[typ]; ok {
		return a.encodeStruct(s, v)
	}
	if e, ok := a.enums[typ]; ok {
		return a.encodeEnum(e, v)
	}

	if base, elem, ok := genericArg(typ); ok && (base == arrayPrefix || base == spanPrefix) {
		items, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		out := []*felt.Felt{new(felt.Felt).SetUint64(uint64(len(items)))}
		for i, item := range items {
			encoded, err := a.Encode(elem, item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, encoded...)
		}
		return out, nil
	}

	if elems, ok := tupleElems(typ); ok {
		items, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		if len(items) != len(elems) {
			return nil, fmt.Errorf("expected %d tuple elements, got %d", len(elems), len(items))
		}
		var out []*felt.Felt
		for i, elem := range elems {
			encoded, err := a.Encode(elem, items[i])
			if err != nil {
				return nil, fmt.Errorf("(%d): %w", i, err)
			}
			out = append(out, encoded...)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported type %s", typ)
}

func (a *ABI) encodeStruct(s *Struct, v any) ([]*felt.Felt, error) {
	fields, err := toMap(v)
	if err != nil {
		return nil, err
	}
	if len(fields) != len(s.Members) {
		return nil, fmt.Errorf("%s has %d members, got %d", s.Name, len(s.Members), len(fields))
	}

	var out []*felt.Felt
	for _, m := range s.Members {
		fv, ok := fields[m.Name]
		if !ok {
			return nil, fmt.Errorf("%s: missing member %s", s.Name, m.Name)
		}
		encoded, err := a.Encode(m.Type, fv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Name, m.Name, err)
		}
		out = append(out, encoded...)
	}

	return out, nil
}

// encodeEnum accepts an EnumValue, a single entry map {variant: payload}, or the variant name of a
// unit variant.
func (a *ABI) encodeEnum(e *Enum, v any) ([]*felt.Felt, error) {
	var ev EnumValue
	switch x := v.(type) {
	case EnumValue:
		ev = x
	case string:
		ev = EnumValue{Variant: x}
	case nil:
		ev = EnumValue{Variant: "None"}
	default:
		m, err := toMap(v)
		if err != nil {
			return nil, err
		}
		if len(m) != 1 {
			return nil, errors.New("enum values must name exactly one variant")
		}
		for k, payload := range m {
			ev = EnumValue{Variant: k, Value: payload}
		}
	}

	for i, variant := range e.Variants {
		if variant.Name != ev.Variant {
			continue
		}
		payload, err := a.Encode(variant.Type, ev.Value)
		if err != nil {
			return nil, fmt.Errorf("%s::%s: %w", e.Name, variant.Name, err)
		}

		return append([]*felt.Felt{new(felt.Felt).SetUint64(uint64(i))}, payload...), nil
	}

	return nil, fmt.Errorf("%s has no variant %q", e.Name, ev.Variant)
}

// encodeFelt252 accepts integers (reduced into the field when negative) and short strings of at
// most 31 ASCII characters.
func encodeFelt252(v any) (*felt.Felt, error) {
	n, err := toBigInt(v)
	if err != nil {
		s, ok := v.(string)
		if !ok {
			return nil, err
		}
		return encodeShortString(s)
	}

	if n.Sign() < 0 {
		n.Add(n, fieldPrime)
	}
	if n.Sign() < 0 || n.Cmp(fieldPrime) >= 0 {
		return nil, fmt.Errorf("%s is not a valid felt252", n)
	}

	return new(felt.Felt).SetBigInt(n), nil
}

func encodeShortString(s string) (*felt.Felt, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("short string %q exceeds 31 characters", s)
	}
	for i := range len(s) {
		if s[i] > utf8.RuneSelf-1 {
			return nil, fmt.Errorf("short string %q is not ASCII", s)
		}
	}

	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// encodeByteArray serializes s as [num_full_words, ...words, pending_word, pending_word_len] with
// 31 byte words.
func encodeByteArray(s string) []*felt.Felt {
	b := []byte(s)
	full := len(b) / 31

	out := []*felt.Felt{new(felt.Felt).SetUint64(uint64(full))}
	for i := range full {
		out = append(out, new(felt.Felt).SetBytes(b[i*31:(i+1)*31]))
	}
	pending := b[full*31:]

	return append(out, new(felt.Felt).SetBytes(pending), new(felt.Felt).SetUint64(uint64(len(pending))))
}
