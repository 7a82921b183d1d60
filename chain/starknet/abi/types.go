package abi

import (
	"math/big"
	"strings"
)

// Core type names.
const (
	TypeFelt252         = "core::felt252"
	TypeBool            = "core::bool"
	TypeContractAddress = "core::starknet::contract_address::ContractAddress"
	TypeClassHash       = "core::starknet::class_hash::ClassHash"
	TypeEthAddress      = "core::starknet::eth_address::EthAddress"
	TypeStorageAddress  = "core::starknet::storage_access::StorageAddress"
	TypeU256            = "core::integer::u256"
	TypeByteArray       = "core::byte_array::ByteArray"
	TypeUnit            = "()"

	arrayPrefix = "core::array::Array"
	spanPrefix  = "core::array::Span"
)

type intType struct {
	bits   uint
	signed bool
}

var intTypes = map[string]intType{
	"core::integer::u8":   {8, false},
	"core::integer::u16":  {16, false},
	"core::integer::u32":  {32, false},
	"core::integer::u64":  {64, false},
	"core::integer::u128": {128, false},
	"core::integer::i8":   {8, true},
	"core::integer::i16":  {16, true},
	"core::integer::i32":  {32, true},
	"core::integer::i64":  {64, true},
	"core::integer::i128": {128, true},
}

func (t intType) bounds() (*big.Int, *big.Int) {
	if !t.signed {
		return new(big.Int), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), t.bits), big.NewInt(1))
	}
	half := new(big.Int).Lsh(big.NewInt(1), t.bits-1)

	return new(big.Int).Neg(half), new(big.Int).Sub(half, big.NewInt(1))
}

var addressTypes = map[string]uint{
	TypeContractAddress: 251,
	TypeClassHash:       251,
	TypeStorageAddress:  251,
	TypeEthAddress:      160,
}

// genericArg splits "core::array::Array::<core::felt252>" into its base and type argument.
func genericArg(typ string) (base, arg string, ok bool) {
	i := strings.Index(typ, "::<")
	if i < 0 || !strings.HasSuffix(typ, ">") {
		return "", "", false
	}

	return typ[:i], typ[i+3 : len(typ)-1], true
}

// tupleElems splits "(core::felt252, core::bool)" into its element types.
func tupleElems(typ string) ([]string, bool) {
	if !strings.HasPrefix(typ, "(") || !strings.HasSuffix(typ, ")") {
		return nil, false
	}
	inner := strings.TrimSpace(typ[1 : len(typ)-1])
	if inner == "" {
		return nil, true
	}

	var (
		out   []string
		depth int
		start int
	)
	for i, r := range inner {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}

	return append(out, strings.TrimSpace(inner[start:])), true
}
