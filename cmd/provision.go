package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
)

// NewProvisionCmd creates the provision command.
func NewProvisionCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the vector and full-text indexes",
		Long:  "Creates the similarity and full-text indexes retrieval depends on.\nSafe to run repeatedly; existing indexes are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg(), logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if err := rt.store.Provision(ctx); err != nil {
				return fmt.Errorf("provisioning failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes provisioned")
			return nil
		},
	}
}
