package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/starknet-deployments/engine/commands/flags"
	"github.com/smartcontractkit/starknet-deployments/engine/commands/text"
	fmanifest "github.com/smartcontractkit/starknet-deployments/manifest"
)

var (
	showShort = "Show the deployed contracts"

	showLong = text.LongDesc(`
		Lists the contracts recorded in the manifest, per network and sorted by name.

		With --json the entries are printed as JSON, including their ABI.
	`)

	showExample = text.Examples(`
		# List every deployed contract
		starknet-deploy manifest show

		# Print the sepolia deployment of CounterContract as JSON
		starknet-deploy manifest show -n sepolia --contract CounterContract --json
	`)
)

type showFlags struct {
	manifest string
	network  string
	contract string
	artifact string
	json     bool
}

// newShowCmd creates the "show" subcommand.
func newShowCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Short:   showShort,
		Long:    showLong,
		Example: showExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := showFlags{
				manifest: flags.MustString(cmd.Flags().GetString("manifest")),
				network:  flags.MustString(cmd.Flags().GetString("network")),
				contract: flags.MustString(cmd.Flags().GetString("contract")),
				artifact: flags.MustString(cmd.Flags().GetString("artifact")),
				json:     flags.MustBool(cmd.Flags().GetBool("json")),
			}

			return runShow(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Manifest(cmd)
	flags.Network(cmd)

	// Local flags
	cmd.Flags().String("contract", "", "Only show the contract of this name")
	cmd.Flags().String("artifact", "", "Only show contracts deployed from this artifact")
	cmd.Flags().Bool("json", false, "Print the entries as JSON")

	return cmd
}

// runShow executes the show command logic.
func runShow(cmd *cobra.Command, cfg Config, f showFlags) error {
	deps := cfg.deps()

	m, err := deps.ManifestLoader(f.manifest, cfg.Logger)
	if err != nil {
		return err
	}

	networks := m.Networks()
	if f.network != "" {
		networks = []string{f.network}
	}

	var filters []fmanifest.FilterFunc
	if f.contract != "" {
		filters = append(filters, fmanifest.ByContract(f.contract))
	}
	if f.artifact != "" {
		filters = append(filters, fmanifest.ByArtifact(f.artifact))
	}

	selected := make(map[string][]fmanifest.Entry, len(networks))
	count := 0
	for _, network := range networks {
		entries := m.Filter(network, filters...)
		if len(entries) > 0 {
			selected[network] = entries
			count += len(entries)
		}
	}

	if f.contract != "" && count == 0 {
		return fmt.Errorf("contract %s: %w", f.contract, fmanifest.ErrEntryNotFound)
	}

	if f.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(selected)
	}

	if count == 0 {
		cmd.Printf("No contracts in %s\n", f.manifest)

		return nil
	}
	writeEntriesTable(cmd.OutOrStdout(), networks, selected)

	return nil
}

func writeEntriesTable(w io.Writer, networks []string, selected map[string][]fmanifest.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Network", "Contract", "Address", "Class Hash", "Deployed At"})
	table.SetAutoWrapText(false)

	for _, network := range networks {
		for _, e := range selected[network] {
			table.Append([]string{
				network, e.Contract, e.Address.String(), e.ClassHash.String(), e.DeployedAt.Format(time.RFC3339),
			})
		}
	}

	table.Render()
}
