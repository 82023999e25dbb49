package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
	"github.com/quillan/neorag/internal/rag"
)

// NewSearchCmd creates the search command.
func NewSearchCmd(cfg func() *config.Config, logger func() *slog.Logger) *cobra.Command {
	var (
		topK         int
		threshold    float64
		entityLabels []string
		noChunks     bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Faceted similarity and full-text retrieval",
		Long:  "Embeds the query once, then runs similarity and full-text search over the\nrequested facets. Results are deduplicated by id at the best score and ranked.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := cfg()

			rt, err := openRuntime(ctx, c, logger())
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			req := rag.Request{
				Query:               strings.Join(args, " "),
				TopK:                topK,
				SimilarityThreshold: threshold,
			}
			if topK <= 0 {
				req.TopK = c.RAG.DefaultTopK
			}
			if threshold <= 0 {
				req.SimilarityThreshold = c.RAG.SimilarityThreshold
			}
			if !noChunks {
				req.ContentSearch = rag.ContentSearch{Types: []string{rag.LabelChunk}}
			}
			if len(entityLabels) > 0 {
				req.EntitySearch = &rag.EntitySearch{Labels: entityLabels}
			}

			results, err := rt.store.Search(ctx, req)
			if err != nil {
				return err
			}

			if asJSON {
				return printResultsJSON(cmd, results)
			}
			printResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum results (default: configured value)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "minimum similarity score (default: configured value)")
	cmd.Flags().StringSliceVar(&entityLabels, "entities", nil, "entity labels to search (e.g. Person,Organization)")
	cmd.Flags().BoolVar(&noChunks, "no-chunks", false, "skip the chunk facet")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func printResults(cmd *cobra.Command, results rag.FacetResults) {
	out := cmd.OutOrStdout()
	if len(results.Results) == 0 {
		fmt.Fprintln(out, "no results")
		return
	}
	for i, r := range results.Results {
		fmt.Fprintf(out, "%2d. [%.3f] %s\n", i+1, r.Score, r.Match.ElementID())
		fmt.Fprintf(out, "    %s\n", truncate(r.Match.EmbeddableValue(), 160))
	}
}

// truncate shortens s to at most max runes, never splitting a character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func printResultsJSON(cmd *cobra.Command, results rag.FacetResults) error {
	type item struct {
		ID    string   `json:"id"`
		Score float64  `json:"score"`
		Text  string   `json:"text"`
		Kinds []string `json:"kinds"`
	}
	items := make([]item, 0, len(results.Results))
	for _, r := range results.Results {
		items = append(items, item{
			ID:    r.Match.ElementID(),
			Score: r.Score,
			Text:  r.Match.EmbeddableValue(),
			Kinds: r.Match.ElementLabels(),
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"facet": results.FacetName, "results": items})
}
