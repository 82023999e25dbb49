package store

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quillan/neorag/internal/rag"
)

// Search answers a retrieval request that may span multiple facets. The
// query is embedded once; each enabled facet then runs concurrently inside
// its own read scope. One facet's failure never aborts the others: the
// failing facet degrades to an empty set with a logged cause. The combined
// results go through the shared merge contract (dedup by id at max score,
// score-descending order with id tie-break, topK truncation).
func (s *Store) Search(ctx context.Context, req rag.Request) (rag.FacetResults, error) {
	req = req.Normalize()

	queryVector, err := s.EmbeddingFor(ctx, req.Query)
	if err != nil {
		return rag.FacetResults{}, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
	defer cancel()

	var (
		mu  sync.Mutex
		all []rag.SimilarityResult[rag.Retrievable]
	)
	collect := func(results []rag.SimilarityResult[rag.Retrievable]) {
		mu.Lock()
		all = append(all, results...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(searchCtx)

	if req.ContentSearch.Includes(rag.LabelChunk) {
		g.Go(func() error {
			results, err := s.chunkSearch(gctx, req, queryVector)
			if err != nil {
				s.logger.Error("chunk search failed, degrading facet to empty", "error", err)
				return nil
			}
			collect(results)
			return nil
		})
	} else {
		s.logger.Info("no chunk search specified, skipping chunk search")
	}

	if req.EntitySearch != nil {
		g.Go(func() error {
			results, err := s.entitySearch(gctx, req, queryVector)
			if err != nil {
				s.logger.Error("entity search failed, degrading facet to empty", "error", err)
				return nil
			}
			collect(results)
			return nil
		})
	} else {
		s.logger.Info("no entity search specified, skipping entity search")
	}

	_ = g.Wait() // facet errors are contained above

	return rag.FacetResults{
		FacetName: s.opts.Name,
		Results:   rag.MergeResults(all, req.TopK),
	}, nil
}

// Facets exposes this store's search as a registered facet, consumable by
// any orchestrator that queries multiple stores uniformly.
func (s *Store) Facets() []rag.Facet {
	return []rag.Facet{
		{Name: s.opts.Name, Search: s.Search},
	}
}

// chunkSearch combines embedding similarity and full-text matching over
// chunks. The two result sets are concatenated; ranking happens in the
// merge step.
func (s *Store) chunkSearch(ctx context.Context, req rag.Request, queryVector []float32) ([]rag.SimilarityResult[rag.Retrievable], error) {
	similarity, err := s.search.ChunkSimilaritySearch(ctx, "Chunk similarity search",
		"chunk_vector_search", mergeParams(commonParams(req), map[string]any{
			"vectorIndex":    s.opts.ContentElementIndex,
			"queryVector":    queryVector,
			"embeddingModel": s.embedder.ModelID(),
		}))
	if err != nil {
		return nil, err
	}
	s.logger.Info("chunk similarity results", "count", len(similarity), "query", req.Query)

	fullText, err := s.search.ChunkSimilaritySearch(ctx, "Chunk full text search",
		"chunk_fulltext_search", mergeParams(commonParams(req), map[string]any{
			"fulltextIndex": s.opts.ContentElementFullTextIndex,
			"searchText":    `"` + req.Query + `"`,
		}))
	if err != nil {
		return nil, err
	}
	s.logger.Info("chunk full-text results", "count", len(fullText), "query", req.Query)

	return append(similarity, fullText...), nil
}

// entitySearch combines embedding similarity and full-text matching over the
// requested entity labels.
func (s *Store) entitySearch(ctx context.Context, req rag.Request, queryVector []float32) ([]rag.SimilarityResult[rag.Retrievable], error) {
	labels := req.EntitySearch.Labels

	similarity, err := s.search.EntitySimilaritySearch(ctx, "Entity similarity search",
		"entity_vector_search", mergeParams(commonParams(req), map[string]any{
			"index":          s.opts.EntityIndex,
			"queryVector":    queryVector,
			"labels":         labels,
			"embeddingModel": s.embedder.ModelID(),
		}))
	if err != nil {
		return nil, err
	}
	s.logger.Info("entity vector results", "count", len(similarity), "query", req.Query)

	fullText, err := s.search.EntitySimilaritySearch(ctx, "Entity full text search",
		"entity_fulltext_search", mergeParams(commonParams(req), map[string]any{
			"fulltextIndex": s.opts.EntityFullTextIndex,
			"searchText":    req.Query,
			"labels":        labels,
		}))
	if err != nil {
		return nil, err
	}
	s.logger.Info("entity full-text results", "count", len(fullText), "query", req.Query)

	return append(similarity, fullText...), nil
}

func commonParams(req rag.Request) map[string]any {
	return map[string]any{
		"topK":                req.TopK,
		"similarityThreshold": req.SimilarityThreshold,
	}
}

func mergeParams(base, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
