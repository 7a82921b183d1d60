package contract

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet/abi"
)

// parseArgs turns name=value pairs into named arguments. Values opening with [ or { are decoded
// as YAML flow collections for arrays, tuples, structs and enums; other values stay strings and
// are converted by the ABI codec.
func parseArgs(raw []string) ([]abi.Arg, error) {
	args := make([]abi.Arg, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid argument %q, expected name=value", r)
		}

		arg := abi.Arg{Name: name, Value: value}
		if trimmed := strings.TrimSpace(value); strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var v any
			if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
				return nil, fmt.Errorf("invalid value of argument %s: %w", name, err)
			}
			arg.Value = v
		}
		args = append(args, arg)
	}

	return args, nil
}
