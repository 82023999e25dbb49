package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
)

// NewCountCmd creates the count command.
func NewCountCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Total stored content elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg(), logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			n, err := rt.store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}
