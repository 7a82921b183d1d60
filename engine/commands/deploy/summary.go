package deploy

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/smartcontractkit/starknet-deployments/deployment"
	"github.com/smartcontractkit/starknet-deployments/engine/config/network"
)

// printSummary writes one row per requested contract.
func printSummary(w io.Writer, net network.Network, summary deployment.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Contract", "Status", "Address", "Transaction"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})

	for _, o := range summary.Outcomes {
		switch {
		case o.Succeeded():
			status := "deployed"
			if o.Reused {
				status = "unchanged"
			}
			tx := o.Result.TransactionHash.String()
			if url := net.TxURL(tx); url != "" {
				tx = url
			}
			table.Append([]string{o.Contract, status, o.Result.Address.String(), tx})
		case o.Err != nil:
			table.Append([]string{o.Contract, string(o.Err.Kind), o.Err.Reason, ""})
		default:
			table.Append([]string{o.Contract, "unknown", "", ""})
		}
	}

	table.Render()
}
