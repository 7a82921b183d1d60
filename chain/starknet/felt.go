package starknet

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// fieldPrime is the Starknet field prime 2^251 + 17*2^192 + 1.
var fieldPrime, _ = new(big.Int).SetString(
	"800000000000011000000000000000000000000000000000000000000000001", 16,
)

// ErrInvalidFelt is returned when a value cannot be represented as a field element.
var ErrInvalidFelt = errors.New("invalid felt")

// ParseFelt parses a hex (0x prefixed) or decimal string into a field element. Values outside of
// the field are rejected rather than silently reduced.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidFelt)
	}

	v, ok := parseBigInt(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFelt, s)
	}

	return FeltFromBig(v)
}

// MustParseFelt is like ParseFelt but panics on error. Intended for constants.
func MustParseFelt(s string) *felt.Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}

	return f
}

// FeltFromBig converts v into a field element, failing if v is negative or not below the prime.
func FeltFromBig(v *big.Int) (*felt.Felt, error) {
	if v.Sign() < 0 || v.Cmp(fieldPrime) >= 0 {
		return nil, fmt.Errorf("%w: %s is out of range", ErrInvalidFelt, v.String())
	}

	return new(felt.Felt).SetBigInt(v), nil
}

// FeltFromUint64 converts v into a field element.
func FeltFromUint64(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// FeltToBig returns the big integer value of f.
func FeltToBig(f *felt.Felt) *big.Int {
	return f.BigInt(new(big.Int))
}

// ShortString encodes an ASCII string of at most 31 characters as a field element.
func ShortString(s string) (*felt.Felt, error) {
	if len(s) > 31 {
		return nil, fmt.Errorf("short string %q exceeds 31 characters", s)
	}
	for i := range len(s) {
		if s[i] > 0x7f {
			return nil, fmt.Errorf("short string %q is not ASCII", s)
		}
	}

	return new(felt.Felt).SetBytes([]byte(s)), nil
}

// MustShortString is like ShortString but panics on error.
func MustShortString(s string) *felt.Felt {
	f, err := ShortString(s)
	if err != nil {
		panic(err)
	}

	return f
}

// DecodeShortString decodes a field element holding an ASCII short string.
func DecodeShortString(f *felt.Felt) string {
	b := FeltToBig(f).Bytes()

	return string(b)
}

// FeltStrings renders felts as hex strings, the representation used on the wire.
func FeltStrings(fs []*felt.Felt) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}

	return out
}

func parseBigInt(s string) (*big.Int, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2 {
			return nil, false
		}

		return new(big.Int).SetString(s[2:], 16)
	}

	return new(big.Int).SetString(s, 10)
}
