package cmd

import (
	"krakendca/internal/bootstrap"

	"github.com/spf13/cobra"
)

// pairsCmd represents the pairs command
var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "List tradable asset pairs",
	Long:  `List the pair identifiers kraken knows, with their altnames.`,
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.StartPairs()
	},
}

func init() {
	rootCmd.AddCommand(pairsCmd)
}
