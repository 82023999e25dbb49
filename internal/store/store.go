// Package store implements the graph-backed content store: persistence and
// embedding of content elements, faceted retrieval, clustering, and
// cascading deletion. All graph access goes through the cypher query
// boundary; all embedding computation goes through the embed provider.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quillan/neorag/internal/cypher"
	"github.com/quillan/neorag/internal/embed"
	"github.com/quillan/neorag/internal/rag"
)

// Options configures index names and retrieval behavior.
type Options struct {
	// Name identifies this store in facet results.
	Name string

	ContentElementIndex         string
	EntityIndex                 string
	ContentElementFullTextIndex string
	EntityFullTextIndex         string

	// EntityNodeName is the label entity indexes are built on.
	EntityNodeName string

	// SearchTimeout bounds each retrieval query.
	SearchTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "neorag"
	}
	if o.ContentElementIndex == "" {
		o.ContentElementIndex = "content_element_embedding"
	}
	if o.EntityIndex == "" {
		o.EntityIndex = "entity_embedding"
	}
	if o.ContentElementFullTextIndex == "" {
		o.ContentElementFullTextIndex = "content_element_text"
	}
	if o.EntityFullTextIndex == "" {
		o.EntityFullTextIndex = "entity_text"
	}
	if o.EntityNodeName == "" {
		o.EntityNodeName = "Entity"
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 10 * time.Second
	}
	return o
}

// Store manages content elements in the backing graph store.
//
// Store is stateless per call except for the embedder handle and the query
// boundary, both safe for concurrent use by multiple in-flight requests.
type Store struct {
	search   *cypher.Search
	embedder embed.Embedder
	opts     Options
	logger   *slog.Logger
}

// New creates a Store around the query boundary and embedding provider.
func New(search *cypher.Search, embedder embed.Embedder, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		search:   search,
		embedder: embedder,
		opts:     opts.withDefaults(),
		logger:   logger,
	}
}

// Name identifies this store in facet results.
func (s *Store) Name() string { return s.opts.Name }

// Provision creates the vector and full-text indexes retrieval depends on.
// Safe to repeat; existing indexes are left untouched.
func (s *Store) Provision(ctx context.Context) error {
	s.logger.Info("provisioning indexes",
		"contentElementIndex", s.opts.ContentElementIndex,
		"entityIndex", s.opts.EntityIndex)

	dimensions := s.embedder.Dimensions()
	if err := s.createVectorIndex(ctx, s.opts.ContentElementIndex, rag.LabelChunk, dimensions); err != nil {
		return err
	}
	if err := s.createVectorIndex(ctx, s.opts.EntityIndex, s.opts.EntityNodeName, dimensions); err != nil {
		return err
	}
	if err := s.createFullTextIndex(ctx, s.opts.ContentElementFullTextIndex, rag.LabelChunk, []string{"text"}); err != nil {
		return err
	}
	if err := s.createFullTextIndex(ctx, s.opts.EntityFullTextIndex, s.opts.EntityNodeName, []string{"name", "description"}); err != nil {
		return err
	}

	s.logger.Info("provisioning complete")
	return nil
}

// Save persists a content element by identity. Repeated saves of the same id
// update the single existing record.
func (s *Store) Save(ctx context.Context, element rag.ContentElement) (rag.ContentElement, error) {
	_, err := s.search.Query(ctx, "Save element", "save_content_element", map[string]any{
		"id":         element.ElementID(),
		"labels":     element.ElementLabels(),
		"properties": element.PersistentProperties(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("saved element", "id", element.ElementID(), "labels", element.ElementLabels())
	return element, nil
}

// EmbeddingFor delegates to the embedding provider.
func (s *Store) EmbeddingFor(ctx context.Context, text string) ([]float32, error) {
	return s.embedder.Embed(ctx, text)
}

// OnNewRetrievables embeds a batch of newly observed retrievables and
// upserts each embedding by identity. Failed items are collected, so a
// partial batch never reports success while silently skipping embeddings;
// the returned error names every item that failed.
func (s *Store) OnNewRetrievables(ctx context.Context, retrievables []rag.Retrievable) error {
	var errs []error
	for _, r := range retrievables {
		if err := s.embedRetrievable(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("embed %s: %w", r.ElementID(), err))
		}
	}
	return errors.Join(errs...)
}

// embedRetrievable computes the embedding over the canonical text and
// upserts it. The embedding, its model tag, and embeddedAt are applied in
// one statement so no reader observes a vector without its model tag.
func (s *Store) embedRetrievable(ctx context.Context, r rag.Retrievable) error {
	vector, err := s.EmbeddingFor(ctx, r.EmbeddableValue())
	if err != nil {
		return err
	}

	labels := r.ElementLabels()
	if len(labels) == 0 {
		return fmt.Errorf("retrievable %s has no labels", r.ElementID())
	}

	// The merge key is the primary label, so chunks and entities each upsert
	// into their own node space.
	const upsert = `
		MERGE (n:$($primaryLabel) {id: $id})
		SET n:$($labels)
		SET n.embedding = $embedding,
		    n.embeddingModel = $embeddingModel,
		    n.embeddedAt = timestamp()
		RETURN count(n) AS nodesUpdated`

	result, err := s.search.Query(ctx, "embedding", upsert, map[string]any{
		"id":             r.ElementID(),
		"primaryLabel":   labels[0],
		"labels":         labels,
		"embedding":      vector,
		"embeddingModel": s.embedder.ModelID(),
	})
	if err != nil {
		return err
	}

	if updated := result.NumberOrZero("nodesUpdated"); updated == 0 {
		// id mismatch or store lag: anomalous, but not fatal
		s.logger.Warn("expected to set embedding properties, but set 0", "id", r.ElementID())
	}
	return nil
}

// DeleteRootAndDescendants locates a document root by uri and deletes it and
// every element reachable from it in one atomic operation. Returns nil when
// no root matches — nothing to delete is not an error.
func (s *Store) DeleteRootAndDescendants(ctx context.Context, uri string) (*rag.DeletionResult, error) {
	s.logger.Info("deleting document", "uri", uri)

	result, err := s.search.Query(ctx, "Delete document and descendants",
		"delete_document_and_descendants", map[string]any{"uri": uri})
	if err != nil {
		return nil, err
	}

	deleted := result.NumberOrZero("deletedCount")
	if deleted == 0 {
		s.logger.Warn("no document found", "uri", uri)
		return nil, nil
	}

	s.logger.Info("deleted elements", "count", deleted, "uri", uri)
	return &rag.DeletionResult{RootURI: uri, DeletedCount: deleted}, nil
}

// DeleteDescendants removes every element reachable from the given root
// while keeping the root itself. Re-ingestion uses this to replace a
// document's chunk set: chunks are immutable, so a shorter or edited
// re-ingest must not leave the previous version's chunks behind.
func (s *Store) DeleteDescendants(ctx context.Context, rootID string) (int, error) {
	result, err := s.search.Query(ctx, "Delete descendants",
		"delete_descendants", map[string]any{"id": rootID})
	if err != nil {
		return 0, err
	}
	deleted := result.NumberOrZero("deletedCount")
	if deleted > 0 {
		s.logger.Info("deleted descendants", "count", deleted, "rootId", rootID)
	}
	return deleted, nil
}

// Count returns the total number of stored content elements.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.search.QueryForInt(ctx, "MATCH (c:ContentElement) RETURN count(c) AS count", nil)
}

// FindByID returns the content element with the given id, or found=false.
func (s *Store) FindByID(ctx context.Context, id string) (rag.ContentElement, bool, error) {
	statement := contentElementQuery("WHERE c.id = $id")
	result, err := s.search.Query(ctx, "Find by id", statement, map[string]any{"id": id})
	if err != nil {
		return nil, false, err
	}
	if len(result.Rows) == 0 {
		return nil, false, nil
	}
	element, err := cypher.MapContentElement(result.Rows[0])
	if err != nil {
		return nil, false, err
	}
	return element, true, nil
}

// FindContentRootByURI returns the document root with the given uri, or
// found=false.
func (s *Store) FindContentRootByURI(ctx context.Context, uri string) (rag.MaterializedDocument, bool, error) {
	statement := contentElementQuery(
		"WHERE c.uri = $uri AND ('Document' IN labels(c) OR 'ContentRoot' IN labels(c))")
	result, err := s.search.Query(ctx, "Find root by uri", statement, map[string]any{"uri": uri})
	if err != nil {
		return rag.MaterializedDocument{}, false, err
	}
	if len(result.Rows) == 0 {
		return rag.MaterializedDocument{}, false, nil
	}
	element, err := cypher.MapContentElement(result.Rows[0])
	if err != nil {
		return rag.MaterializedDocument{}, false, err
	}
	root, ok := element.(rag.MaterializedDocument)
	if !ok {
		return rag.MaterializedDocument{}, false, fmt.Errorf("element at uri %q is not a document root", uri)
	}
	return root, true, nil
}

// FindAllChunksByID returns the chunks matching the given ids. Missing ids
// are simply absent from the result.
func (s *Store) FindAllChunksByID(ctx context.Context, ids []string) ([]rag.Chunk, error) {
	statement := contentElementQuery("WHERE 'Chunk' IN labels(c) AND c.id IN $ids")
	result, err := s.search.Query(ctx, "Find chunks by id", statement, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	return chunksFromRows(result.Rows)
}

// FindChunksForEntity returns the chunks an extracted entity was derived
// from.
func (s *Store) FindChunksForEntity(ctx context.Context, entityID string) ([]rag.Chunk, error) {
	const statement = `
		MATCH (e:Entity {id: $entityId})<-[:HAS_ENTITY]-(c:Chunk)
		RETURN c.id AS id, c.text AS text, c.parentId AS parentId,
		       c.metadata_source AS metadata_source, labels(c) AS labels`
	result, err := s.search.Query(ctx, "Find chunks for entity", statement,
		map[string]any{"entityId": entityID})
	if err != nil {
		return nil, err
	}
	return chunksFromRows(result.Rows)
}

// FindClusters delegates to the query boundary's clustering query.
func (s *Store) FindClusters(ctx context.Context, req rag.ClusterRequest) ([]rag.Cluster, error) {
	if req.VectorIndex == "" {
		req.VectorIndex = s.opts.ContentElementIndex
	}
	if req.EmbeddingModel == "" {
		req.EmbeddingModel = s.embedder.ModelID()
	}
	return s.search.FindClusters(ctx, req)
}

func (s *Store) createVectorIndex(ctx context.Context, name, label string, dimensions int) error {
	statement := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (n:%s) ON (n.embedding)
		OPTIONS {indexConfig: {
		  `+"`vector.dimensions`"+`: %d,
		  `+"`vector.similarity_function`"+`: 'cosine'
		}}`, quoteIdent(name), label, dimensions)
	_, err := s.search.Query(ctx, "Create vector index", statement, nil)
	return err
}

func (s *Store) createFullTextIndex(ctx context.Context, name, label string, properties []string) error {
	qualified := make([]string, len(properties))
	for i, p := range properties {
		qualified[i] = "n." + p
	}
	statement := fmt.Sprintf(`
		CREATE FULLTEXT INDEX %s IF NOT EXISTS
		FOR (n:%s) ON EACH [%s]`,
		quoteIdent(name), label, strings.Join(qualified, ", "))
	_, err := s.search.Query(ctx, "Create fulltext index", statement, nil)
	if err == nil {
		s.logger.Info("created full-text index", "name", name, "label", label, "properties", properties)
	}
	return err
}

// contentElementQuery builds the canonical content-element projection with
// the given WHERE clause.
func contentElementQuery(whereClause string) string {
	return `
		MATCH (c:ContentElement)
		` + whereClause + `
		RETURN c.id AS id, c.uri AS uri, c.title AS title, c.text AS text,
		       c.parentId AS parentId, c.ingestionTimestamp AS ingestionDate,
		       c.metadata_source AS metadata_source, labels(c) AS labels`
}

func chunksFromRows(rows []map[string]any) ([]rag.Chunk, error) {
	chunks := make([]rag.Chunk, 0, len(rows))
	for _, row := range rows {
		element, err := cypher.MapContentElement(row)
		if err != nil {
			return nil, err
		}
		chunk, ok := element.(rag.Chunk)
		if !ok {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}
