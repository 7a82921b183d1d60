package contract

import (
	"encoding/json"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/flags"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
)

var (
	callShort = "Read a view function of a deployed contract"

	callLong = text.LongDesc(`
		Calls a function of a contract recorded in the manifest without sending a transaction and
		prints the decoded outputs, one per line.

		Arguments are given by name. Arrays, tuples, structs and enums are written as YAML flow
		collections, e.g. --arg 'recipients=[0x1, 0x2]'.
	`)

	callExample = text.Examples(`
		# Read the counter on sepolia
		starknet-deploy call -n sepolia --contract CounterContract get_counter

		# Read a balance as JSON
		starknet-deploy call --contract Token balance_of --arg account=0x64b4 --json
	`)
)

// NewCallCommand creates the call command.
func NewCallCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:     "call <function>",
		Short:   callShort,
		Long:    callLong,
		Example: callExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, cfg, readTargetFlags(cmd), args[0], flags.MustBool(cmd.Flags().GetBool("json")))
		},
	}

	addTargetFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the outputs as a JSON array")

	return cmd, nil
}

// runCall executes the call command logic.
func runCall(cmd *cobra.Command, cfg Config, f targetFlags, function string, asJSON bool) error {
	args, err := parseArgs(f.args)
	if err != nil {
		return err
	}

	c, env, err := loadContract(cmd, cfg, f, false)
	if err != nil {
		return err
	}
	defer env.Close()

	values, err := c.Call(cmd.Context(), function, args...)
	if err != nil {
		return err
	}

	if asJSON {
		b, merr := json.Marshal(values)
		if merr != nil {
			return fmt.Errorf("failed to encode outputs: %w", merr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))

		return nil
	}

	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
	}

	return nil
}

// formatValue prints felts in hex and everything else in its default format.
func formatValue(v any) string {
	if x, ok := v.(*felt.Felt); ok {
		return x.String()
	}

	return fmt.Sprint(v)
}
