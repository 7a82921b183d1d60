package contract

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/chain/starknet"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
)

var (
	invokeShort = "Send a transaction to a deployed contract"

	invokeLong = text.LongDesc(`
		Invokes an external function of a contract recorded in the manifest from the deployer
		account and waits until the transaction is accepted.

		The resource bounds are estimated by the node. Arguments are given by name as for call.
	`)

	invokeExample = text.Examples(`
		# Increase the counter on sepolia
		starknet-deploy invoke -n sepolia --contract CounterContract increase_counter --arg amount=5
	`)
)

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.deps()

	cmd := &cobra.Command{
		Use:     "invoke <function>",
		Short:   invokeShort,
		Long:    invokeLong,
		Example: invokeExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tip, _ := cmd.Flags().GetUint64("tip")

			return runInvoke(cmd, cfg, readTargetFlags(cmd), args[0], tip)
		},
	}

	addTargetFlags(cmd)
	cmd.Flags().Uint64("tip", 0, "Tip of the transaction in fri per unit of l2 gas")

	return cmd, nil
}

// runInvoke executes the invoke command logic.
func runInvoke(cmd *cobra.Command, cfg Config, f targetFlags, function string, tip uint64) error {
	args, err := parseArgs(f.args)
	if err != nil {
		return err
	}

	c, env, err := loadContract(cmd, cfg, f, true)
	if err != nil {
		return err
	}
	defer env.Close()

	cmd.Printf("📤 Invoking %s.%s on %s\n", c.Name(), function, env.Chain)

	receipt, err := c.Invoke(cmd.Context(), function, starknet.TxFee{Tip: tip}, args...)
	if err != nil {
		return err
	}

	tx := receipt.TransactionHash.String()
	cmd.Printf("✅ Accepted in block %d: %s\n", receipt.BlockNumber, tx)
	if url := env.Network.TxURL(tx); url != "" {
		cmd.Printf("   %s\n", url)
	}

	return nil
}
