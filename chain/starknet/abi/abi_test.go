package abi

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterABI = `[
  {"type": "impl", "name": "CounterImpl", "interface_name": "counter::ICounter"},
  {"type": "interface", "name": "counter::ICounter", "items": [
    {"type": "function", "name": "get_counter", "inputs": [], "outputs": [{"type": "core::integer::u32"}], "state_mutability": "view"},
    {"type": "function", "name": "set_counter", "inputs": [{"name": "value", "type": "core::integer::u32"}], "outputs": [], "state_mutability": "external"}
  ]},
  {"type": "constructor", "name": "constructor", "inputs": [
    {"name": "init_value", "type": "core::integer::u32"},
    {"name": "owner", "type": "core::starknet::contract_address::ContractAddress"}
  ]},
  {"type": "event", "name": "counter::Counter::Event", "kind": "enum", "variants": []}
]`

const kitchenSinkABI = `[
  {"type": "struct", "name": "core::integer::u256", "members": [
    {"name": "low", "type": "core::integer::u128"}, {"name": "high", "type": "core::integer::u128"}
  ]},
  {"type": "struct", "name": "sink::Config", "members": [
    {"name": "admin", "type": "core::starknet::contract_address::ContractAddress"},
    {"name": "limit", "type": "core::integer::u64"}
  ]},
  {"type": "enum", "name": "core::option::Option::<core::felt252>", "variants": [
    {"name": "Some", "type": "core::felt252"}, {"name": "None", "type": "()"}
  ]},
  {"type": "enum", "name": "sink::Mode", "variants": [
    {"name": "Off", "type": "()"}, {"name": "Fixed", "type": "core::integer::u8"}
  ]},
  {"type": "constructor", "name": "constructor", "inputs": [
    {"name": "name", "type": "core::byte_array::ByteArray"},
    {"name": "symbol", "type": "core::felt252"},
    {"name": "supply", "type": "core::integer::u256"},
    {"name": "paused", "type": "core::bool"},
    {"name": "delta", "type": "core::integer::i32"},
    {"name": "holders", "type": "core::array::Array::<core::starknet::contract_address::ContractAddress>"},
    {"name": "config", "type": "sink::Config"},
    {"name": "memo", "type": "core::option::Option::<core::felt252>"},
    {"name": "mode", "type": "sink::Mode"},
    {"name": "pair", "type": "(core::felt252, core::integer::u128)"}
  ]},
  {"type": "function", "name": "describe", "inputs": [], "outputs": [
    {"type": "core::byte_array::ByteArray"}, {"type": "core::integer::u256"}, {"type": "sink::Config"}
  ], "state_mutability": "view"}
]`

func mustParse(t *testing.T, raw string) *ABI {
	t.Helper()

	a, err := Parse([]byte(raw))
	require.NoError(t, err)

	return a
}

func hexes(fs []*felt.Felt) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}

	return out
}

func TestParse(t *testing.T) {
	t.Parallel()

	a := mustParse(t, counterABI)
	require.NotNil(t, a.Constructor)
	assert.Len(t, a.ConstructorInputs(), 2)

	fn, err := a.Function("get_counter")
	require.NoError(t, err)
	assert.True(t, fn.IsView())

	_, err = a.Function("missing")
	require.ErrorIs(t, err, ErrFunctionNotFound)

	// nodes return the abi as a json string
	wrapped, err := json.Marshal(counterABI)
	require.NoError(t, err)
	b := mustParse(t, string(wrapped))
	assert.Len(t, b.ConstructorInputs(), 2)

	_, err = Parse(nil)
	require.Error(t, err)
	_, err = Parse([]byte(`{"not": "a list"}`))
	require.Error(t, err)
}

func TestEncodeConstructor_Counter(t *testing.T) {
	t.Parallel()

	a := mustParse(t, counterABI)

	tests := []struct {
		name      string
		args      []Arg
		want      []string
		wantParam string
	}{
		{
			name: "in declaration order",
			args: []Arg{{Name: "init_value", Value: 15}, {Name: "owner", Value: "0xABC"}},
			want: []string{"0xf", "0xabc"},
		},
		{
			name: "reordered by name",
			args: []Arg{{Name: "owner", Value: "0xabc"}, {Name: "init_value", Value: "15"}},
			want: []string{"0xf", "0xabc"},
		},
		{
			name:      "missing owner",
			args:      []Arg{{Name: "init_value", Value: 15}},
			wantParam: "owner",
		},
		{
			name:      "extra argument",
			args:      []Arg{{Name: "init_value", Value: 15}, {Name: "owner", Value: "0xabc"}, {Name: "admin", Value: 1}},
			wantParam: "admin",
		},
		{
			name:      "duplicate argument",
			args:      []Arg{{Name: "init_value", Value: 15}, {Name: "init_value", Value: 16}},
			wantParam: "init_value",
		},
		{
			name:      "type mismatch",
			args:      []Arg{{Name: "init_value", Value: "fifteen"}, {Name: "owner", Value: "0xabc"}},
			wantParam: "init_value",
		},
		{
			name:      "u32 overflow",
			args:      []Arg{{Name: "init_value", Value: uint64(1) << 32}, {Name: "owner", Value: "0xabc"}},
			wantParam: "init_value",
		},
		{
			name:      "address is not a number",
			args:      []Arg{{Name: "init_value", Value: 1}, {Name: "owner", Value: "alice"}},
			wantParam: "owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := a.EncodeConstructor(tt.args)
			if tt.wantParam != "" {
				var argErr *ArgError
				require.ErrorAs(t, err, &argErr)
				assert.Equal(t, tt.wantParam, argErr.Param)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, hexes(got))
		})
	}
}

func TestEncodeConstructor_NoConstructor(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `[]`)
	got, err := a.EncodeConstructor(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = a.EncodeConstructor([]Arg{{Name: "x", Value: 1}})
	require.Error(t, err)
}

func TestEncode_Types(t *testing.T) {
	t.Parallel()

	a := mustParse(t, kitchenSinkABI)

	tests := []struct {
		typ  string
		give any
		want []string
	}{
		{typ: TypeFelt252, give: "TKN", want: []string{"0x544b4e"}},
		{typ: TypeFelt252, give: -1, want: []string{"0x800000000000011000000000000000000000000000000000000000000000000"}},
		{typ: TypeBool, give: true, want: []string{"0x1"}},
		{typ: TypeBool, give: "false", want: []string{"0x0"}},
		{typ: TypeU256, give: "0x100000000000000000000000000000002", want: []string{"0x2", "0x1"}},
		{typ: "core::integer::i32", give: -2, want: []string{"0x800000000000010ffffffffffffffffffffffffffffffffffffffffffffffff"}},
		{typ: TypeByteArray, give: "hello", want: []string{"0x0", "0x68656c6c6f", "0x5"}},
		{typ: "core::array::Span::<core::integer::u8>", give: []any{1, 2}, want: []string{"0x2", "0x1", "0x2"}},
		{typ: "core::option::Option::<core::felt252>", give: map[string]any{"Some": 7}, want: []string{"0x0", "0x7"}},
		{typ: "core::option::Option::<core::felt252>", give: nil, want: []string{"0x1"}},
		{typ: "sink::Mode", give: "Off", want: []string{"0x0"}},
		{typ: "sink::Config", give: map[string]any{"admin": "0x1", "limit": 9}, want: []string{"0x1", "0x9"}},
		{typ: "(core::felt252, core::integer::u128)", give: []any{"0x5", 6}, want: []string{"0x5", "0x6"}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			t.Parallel()

			got, err := a.Encode(tt.typ, tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hexes(got))
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	t.Parallel()

	a := mustParse(t, kitchenSinkABI)

	tests := []struct {
		typ     string
		give    any
		wantErr string
	}{
		{typ: TypeFelt252, give: "a string that is definitely longer than 31 chars", wantErr: "exceeds 31"},
		{typ: TypeBool, give: "maybe", wantErr: "expected a bool"},
		{typ: TypeU256, give: -1, wantErr: "does not fit"},
		{typ: "core::integer::u8", give: 256, wantErr: "out of range"},
		{typ: "core::integer::u8", give: 1.5, wantErr: "not an integer"},
		{typ: TypeByteArray, give: 5, wantErr: "expected a string"},
		{typ: "sink::Config", give: map[string]any{"admin": "0x1"}, wantErr: "has 2 members"},
		{typ: "sink::Mode", give: "Auto", wantErr: "no variant"},
		{typ: "core::array::Array::<core::integer::u8>", give: []any{1, 300}, wantErr: "[1]"},
		{typ: "(core::felt252, core::integer::u128)", give: []any{1}, wantErr: "tuple elements"},
		{typ: "sink::Unknown", give: 1, wantErr: "unsupported type"},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.wantErr, func(t *testing.T) {
			t.Parallel()

			_, err := a.Encode(tt.typ, tt.give)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	a := mustParse(t, kitchenSinkABI)
	longName := "a ByteArray longer than a single thirty one byte word"

	args := []Arg{
		{Name: "name", Value: longName},
		{Name: "symbol", Value: "0x544b4e"},
		{Name: "supply", Value: "1000000000000000000000000000000000000000"},
		{Name: "paused", Value: true},
		{Name: "delta", Value: -42},
		{Name: "holders", Value: []any{"0x1", "0x2"}},
		{Name: "config", Value: map[string]any{"admin": "0xabc", "limit": 100}},
		{Name: "memo", Value: EnumValue{Variant: "Some", Value: 9}},
		{Name: "mode", Value: map[string]any{"Fixed": 3}},
		{Name: "pair", Value: []any{1, "340282366920938463463374607431768211455"}},
	}

	data, err := a.EncodeConstructor(args)
	require.NoError(t, err)

	rest := data
	decoded := map[string]any{}
	for _, p := range a.ConstructorInputs() {
		var v any
		v, rest, err = a.Decode(p.Type, rest)
		require.NoError(t, err, p.Name)
		decoded[p.Name] = v
	}
	assert.Empty(t, rest)

	supply, _ := new(big.Int).SetString("1000000000000000000000000000000000000000", 10)
	maxU128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	assert.Equal(t, longName, decoded["name"])
	assert.Equal(t, "0x544b4e", decoded["symbol"].(*felt.Felt).String())
	assert.Equal(t, 0, supply.Cmp(decoded["supply"].(*big.Int)))
	assert.Equal(t, true, decoded["paused"])
	assert.Equal(t, int64(-42), decoded["delta"])
	assert.Equal(t, []string{"0x1", "0x2"}, hexes([]*felt.Felt{
		decoded["holders"].([]any)[0].(*felt.Felt), decoded["holders"].([]any)[1].(*felt.Felt),
	}))
	cfg := decoded["config"].(map[string]any)
	assert.Equal(t, "0xabc", cfg["admin"].(*felt.Felt).String())
	assert.Equal(t, uint64(100), cfg["limit"])
	memo := decoded["memo"].(EnumValue)
	assert.Equal(t, "Some", memo.Variant)
	assert.Equal(t, "0x9", memo.Value.(*felt.Felt).String())
	assert.Equal(t, EnumValue{Variant: "Fixed", Value: uint64(3)}, decoded["mode"])
	pair := decoded["pair"].([]any)
	assert.Equal(t, "0x1", pair[0].(*felt.Felt).String())
	assert.Equal(t, 0, maxU128.Cmp(pair[1].(*big.Int)))
}

func TestDecodeOutputs(t *testing.T) {
	t.Parallel()

	a := mustParse(t, counterABI)
	out, err := a.DecodeOutputs("get_counter", []*felt.Felt{new(felt.Felt).SetUint64(16)})
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(16)}, out)

	_, err = a.DecodeOutputs("get_counter", nil)
	require.ErrorContains(t, err, "not enough data")

	_, err = a.DecodeOutputs("get_counter", []*felt.Felt{new(felt.Felt), new(felt.Felt)})
	require.ErrorContains(t, err, "trailing")
}

func TestDecode_ByteArrayRejectsOversizedPendingWord(t *testing.T) {
	t.Parallel()

	a := mustParse(t, `[]`)
	data := []*felt.Felt{new(felt.Felt), new(felt.Felt).SetUint64(0xffff), new(felt.Felt).SetUint64(1)}
	_, _, err := a.Decode(TypeByteArray, data)
	require.Error(t, err)
}
