// Package cli defines the warehouse command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Product and inventory services with idempotent stock updates",
		Long: `warehouse runs the product service, which applies StockAdded events exactly
once per event id, and the inventory service, which emits them.

Configuration is read from the environment. See each command for details.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewProductServiceCommand())
	cmd.AddCommand(NewInventoryServiceCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewTokenCommand())

	return cmd
}
