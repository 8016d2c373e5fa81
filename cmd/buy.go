package cmd

import (
	"krakendca/internal/bootstrap"

	"github.com/spf13/cobra"
)

var (
	buySymbol string
	buyAmount string
	buyUnits  bool
	buyBuffer string
	buyDryRun bool
)

// buyCmd represents the buy command
var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Place a buy limit order",
	Long: `Place a buy limit order for a trading pair. The limit price is the
current ask biased upward by the buffer fraction, so the order is likely to
fill promptly while still bounding cost. Missing symbol or amount are
prompted for interactively.

A dry run only touches public endpoints, so it works without PUBLIC_KEY
and PRIVATE_KEY; a real run fails before any network call when either is
missing.`,
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.StartBuy(bootstrap.BuyOptions{
			Symbol: buySymbol,
			Amount: buyAmount,
			Units:  buyUnits,
			Buffer: buyBuffer,
			DryRun: buyDryRun,
		})
	},
}

func init() {
	rootCmd.AddCommand(buyCmd)

	buyCmd.Flags().StringVarP(&buySymbol, "symbol", "s", "", "kraken trading pair symbol (e.g. XXBTZEUR, SOLEUR)")
	buyCmd.Flags().StringVarP(&buyAmount, "amount", "a", "", "fiat amount to spend, or asset units with --units")
	buyCmd.Flags().BoolVar(&buyUnits, "units", false, "interpret --amount as asset units (volume) instead of a fiat amount")
	buyCmd.Flags().StringVarP(&buyBuffer, "buffer", "b", "0.002", "limit price buffer as a decimal fraction (0.002 = 0.2%)")
	buyCmd.Flags().BoolVar(&buyDryRun, "dry-run", false, "compute the order and log it without placing it")
}
