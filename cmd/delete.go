package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
)

// NewDeleteCmd creates the delete command.
func NewDeleteCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uri>",
		Short: "Cascading delete of a document root",
		Long:  "Deletes the document root at the given uri together with every element\nreachable from it. A uri with no matching root is a no-op, not an error.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cfg(), logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			result, err := rt.store.DeleteRootAndDescendants(ctx, args[0])
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no document at %s\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d elements under %s\n", result.DeletedCount, result.RootURI)
			return nil
		},
	}
}
