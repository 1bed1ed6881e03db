package cmd

import (
	"fmt"
	"os"

	"github.com/skatteetaten/orderbook/cmd/orderbook"
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "orderbook",
	Short: "Orderbook, a price-time ordered limit order book",
	Long: `Orderbook keeps bids and offers sorted by price and time of entry.

For now, the following is supported:

- Replaying a recorded order feed (csv or jsonl) and reporting depth per side
- Serving a live book over HTTP with a websocket stream of sorted views
	`,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	RootCmd.AddCommand(orderbook.Replay)
	RootCmd.AddCommand(orderbook.Serve)
}
