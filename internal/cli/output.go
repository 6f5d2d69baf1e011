package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/compose-network/premint/internal/network"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

// render writes v to w as indented JSON or YAML.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "", outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderNetworks prints the registry as a table.
func renderNetworks(w io.Writer, networks []network.Network) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Chain ID", "Backend Name", "Collect Path", "Testnet", "Premint Executor", "Subgraph"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAutoWrapText(false)

	for _, n := range networks {
		table.Append([]string{
			strconv.FormatInt(n.ChainID, 10),
			n.BackendChainName,
			n.CollectPathChainName,
			strconv.FormatBool(n.IsTestnet),
			n.Contracts.PremintExecutor.Hex(),
			n.SubgraphURL,
		})
	}
	table.Render()
}
