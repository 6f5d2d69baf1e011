package cli

import (
	"github.com/compose-network/premint/configs"
	"github.com/compose-network/premint/internal/network"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NetworksCMD prints the known networks, with the configured overrides applied
// to the selected chain.
var NetworksCMD = &cobra.Command{
	Use:   "networks",
	Short: "List the supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		networks := network.DefaultRegistry().Networks()
		if registry, _, err := resolveNetwork(configs.Values); err == nil {
			networks = registry.Networks()
		}

		format := viper.GetString("output")
		if format == outputTable {
			renderNetworks(cmd.OutOrStdout(), networks)
			return nil
		}
		return render(cmd.OutOrStdout(), format, networks)
	},
}
