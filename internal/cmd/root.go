package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront - single-terminal retail store",
	Long: `Storefront is a single-terminal retail store: customers browse and
search products, manage a cart and place orders; salespeople edit product
price and stock and read sales reports.

All state lives in one MySQL database. Use 'setup' to create the schema,
'seed' to load sample data and 'shell' to start the interactive terminal.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
