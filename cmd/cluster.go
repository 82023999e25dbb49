package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
	"github.com/quillan/neorag/internal/rag"
)

// NewClusterCmd creates the cluster command.
func NewClusterCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	var (
		index      string
		labels     []string
		topK       int
		threshold  float64
		singletons bool
	)

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Near-duplicate clustering report",
		Long:  "Pairs every embedded element with its nearest neighbors at or above the\nsimilarity threshold. Clusters may overlap; the vector index must already exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := openRuntime(ctx, cfg(), logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			clusters, err := rt.store.FindClusters(ctx, rag.ClusterRequest{
				VectorIndex:         index,
				Labels:              labels,
				TopK:                topK,
				SimilarityThreshold: threshold,
				IncludeSingletons:   singletons,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(clusters) == 0 {
				fmt.Fprintln(out, "no clusters")
				return nil
			}
			for _, c := range clusters {
				fmt.Fprintf(out, "%s (%s)\n", c.Anchor.ElementID(), c.Anchor.EmbeddableValue())
				for _, s := range c.Similar {
					fmt.Fprintf(out, "  %.3f %s\n", s.Score, s.Match.ElementID())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "vector index to query (default: the content element index)")
	cmd.Flags().StringSliceVar(&labels, "labels", []string{rag.LabelChunk}, "node labels eligible as anchors and neighbors")
	cmd.Flags().IntVar(&topK, "top-k", 5, "neighbors per anchor")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.9, "minimum similarity for cluster membership")
	cmd.Flags().BoolVar(&singletons, "singletons", false, "include anchors with no qualifying neighbors")
	return cmd
}
