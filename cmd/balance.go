package cmd

import (
	"krakendca/internal/bootstrap"

	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show account balances",
	Long:  `Fetch the available balance per asset from kraken.`,
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.StartBalance()
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
