package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"warehouse/internal/app"
)

// NewProductServiceCommand runs the product API and the StockAdded consumers.
func NewProductServiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "product-service",
		Short: "Run the product API and StockAdded consumers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), app.NewProductApplication)
		},
	}
}

// NewInventoryServiceCommand runs the inventory API.
func NewInventoryServiceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inventory-service",
		Short: "Run the inventory API that publishes StockAdded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), app.NewInventoryApplication)
		},
	}
}

func serve(ctx context.Context, newApp func(context.Context) (*app.Application, error)) error {
	application, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	return application.Run()
}
