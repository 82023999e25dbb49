package cypher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quillan/neorag/internal/rag"
)

// Search executes named and literal Cypher queries through an injected
// Runner and decodes rows into typed values. It is stateless per call and
// safe for concurrent use.
type Search struct {
	runner Runner
	logger *slog.Logger
}

// New creates the query boundary around a Runner.
func New(runner Runner, logger *slog.Logger) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{runner: runner, logger: logger}
}

// Query executes a registered or literal query and returns its raw rows.
// purpose is a human-readable operation label used only for observability.
func (s *Search) Query(ctx context.Context, purpose, queryRef string, params map[string]any) (QueryResult, error) {
	rows, err := s.run(ctx, purpose, queryRef, params)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Rows: rows}, nil
}

// QueryForInt executes a query expected to return a single numeric column.
// A row with more than one column is rejected rather than picking one
// arbitrarily.
func (s *Search) QueryForInt(ctx context.Context, queryRef string, params map[string]any) (int, error) {
	rows, err := s.run(ctx, "scalar query", queryRef, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows[0]) != 1 {
		return 0, fmt.Errorf("query %q returned %d columns, want one", queryRef, len(rows[0]))
	}
	for _, v := range rows[0] {
		if n, ok := asInt(v); ok {
			return n, nil
		}
		return 0, fmt.Errorf("query %q returned a non-numeric column", queryRef)
	}
	return 0, nil
}

// ChunkSimilaritySearch runs a chunk query whose rows carry a score and
// decodes them. Mapping failures are fatal to the operation.
func (s *Search) ChunkSimilaritySearch(ctx context.Context, purpose, queryRef string, params map[string]any) ([]rag.SimilarityResult[rag.Retrievable], error) {
	return s.similaritySearch(ctx, purpose, queryRef, params, MapChunkSimilarity)
}

// EntitySimilaritySearch runs an entity query whose rows carry a score and
// decodes them into named or bare entity variants.
func (s *Search) EntitySimilaritySearch(ctx context.Context, purpose, queryRef string, params map[string]any) ([]rag.SimilarityResult[rag.Retrievable], error) {
	return s.similaritySearch(ctx, purpose, queryRef, params, MapEntitySimilarity)
}

// QueryForEntities executes a query returning entity rows.
func (s *Search) QueryForEntities(ctx context.Context, purpose, queryRef string, params map[string]any) ([]rag.EntityData, error) {
	rows, err := s.run(ctx, purpose, queryRef, params)
	if err != nil {
		return nil, err
	}
	entities := make([]rag.EntityData, 0, len(rows))
	for _, row := range rows {
		entity, err := MapEntityData(row)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// CreateEntity creates an extracted entity linked to the retrievable it was
// derived from and returns its id. An existing id fails with
// ErrDuplicateIdentity and leaves the store unchanged.
func (s *Search) CreateEntity(ctx context.Context, entity rag.NamedEntityData, basis rag.Retrievable) (string, error) {
	id := entity.ID
	if id == "" {
		id = uuid.NewString()
	}

	if _, found, err := s.LoadEntity(ctx, id); err != nil {
		return "", err
	} else if found {
		return "", fmt.Errorf("%w: entity id %q", ErrDuplicateIdentity, id)
	}

	result, err := s.Query(ctx, "Create entity", "create_entity", map[string]any{
		"id":           id,
		"name":         entity.Name,
		"description":  entity.Description,
		"basisId":      basis.ElementID(),
		"properties":   entity.Properties,
		"entityLabels": entity.Labels,
	})
	if err != nil {
		return "", err
	}
	row, ok := result.Single()
	if !ok {
		return "", fmt.Errorf("create_entity returned no row for id %q", id)
	}
	created, ok := row["id"].(string)
	if !ok {
		return "", fmt.Errorf("create_entity returned no id for %q", id)
	}
	s.logger.Info("created entity", "labels", entity.Labels, "id", created)
	return created, nil
}

// LoadEntity is an identity-based point lookup. Absence is reported through
// the boolean, not an error.
func (s *Search) LoadEntity(ctx context.Context, id string) (rag.EntityData, bool, error) {
	const statement = `
		MATCH (e:Entity {id: $id})
		RETURN e.id AS id, e.name AS name, e.description AS description,
		       labels(e) AS labels, properties(e) AS properties`
	rows, err := s.run(ctx, "Load entity", statement, map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	entity, err := MapEntityData(rows[0])
	if err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// FindClusters groups near-duplicate content by vector proximity: every
// eligible anchor is paired with its topK nearest neighbors scoring at or
// above the similarity threshold. Clusters may overlap — an element can
// appear in the Similar set of several anchors. Anchors with no qualifying
// neighbor are excluded unless the request asks for singletons.
func (s *Search) FindClusters(ctx context.Context, req rag.ClusterRequest) ([]rag.Cluster, error) {
	if len(req.Labels) == 0 {
		return nil, fmt.Errorf("cluster request must specify labels")
	}
	if req.EmbeddingModel == "" {
		return nil, fmt.Errorf("cluster request must specify the embedding model")
	}
	if err := s.requireVectorIndex(ctx, req.VectorIndex); err != nil {
		return nil, err
	}

	result, err := s.Query(ctx, "cluster", "vector_cluster", map[string]any{
		"labels":              req.Labels,
		"vectorIndex":         req.VectorIndex,
		"similarityThreshold": req.SimilarityThreshold,
		"topK":                req.TopK,
		"embeddingModel":      req.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}

	clusters := make([]rag.Cluster, 0, len(result.Rows))
	for _, row := range result.Rows {
		anchorRow, ok := row["anchor"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cluster row has no anchor")
		}
		anchor, err := MapContentElement(anchorRow)
		if err != nil {
			return nil, err
		}

		similar := s.mapSimilar(row["similar"])
		if len(similar) == 0 && !req.IncludeSingletons {
			continue
		}
		clusters = append(clusters, rag.Cluster{Anchor: anchor, Similar: similar})
	}
	return clusters, nil
}

// mapSimilar decodes the neighbor list of a cluster row. Undecodable
// neighbors are logged and skipped rather than failing the whole cluster.
func (s *Search) mapSimilar(raw any) []rag.SimilarityResult[rag.ContentElement] {
	items, _ := raw.([]any)
	similar := make([]rag.SimilarityResult[rag.ContentElement], 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		matchRow, ok := entry["match"].(map[string]any)
		if !ok {
			continue
		}
		score, ok := asFloat(entry["score"])
		if !ok {
			continue
		}
		match, err := MapContentElement(matchRow)
		if err != nil {
			s.logger.Warn("could not map similar item", "row", matchRow, "error", err)
			continue
		}
		similar = append(similar, rag.SimilarityResult[rag.ContentElement]{Match: match, Score: score})
	}
	return similar
}

func (s *Search) requireVectorIndex(ctx context.Context, name string) error {
	rows, err := s.run(ctx, "Check vector index", "SHOW VECTOR INDEXES YIELD name RETURN name", nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row["name"] == name {
			return nil
		}
	}
	return &PreconditionError{Msg: fmt.Sprintf("vector index %q does not exist", name)}
}

func (s *Search) similaritySearch(
	ctx context.Context,
	purpose, queryRef string,
	params map[string]any,
	mapRow func(map[string]any) (rag.SimilarityResult[rag.Retrievable], error),
) ([]rag.SimilarityResult[rag.Retrievable], error) {
	rows, err := s.run(ctx, purpose, queryRef, params)
	if err != nil {
		return nil, err
	}
	results := make([]rag.SimilarityResult[rag.Retrievable], 0, len(rows))
	for _, row := range rows {
		result, err := mapRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Search) run(ctx context.Context, purpose, queryRef string, params map[string]any) ([]map[string]any, error) {
	statement, err := resolveRef(queryRef)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("executing query", "purpose", purpose, "query", queryRef)

	rows, err := s.runner.Run(ctx, statement, params)
	if err != nil {
		return nil, &QueryExecutionError{
			Purpose: purpose,
			Query:   queryRef,
			Timeout: errors.Is(err, context.DeadlineExceeded),
			Err:     err,
		}
	}
	return rows, nil
}
