package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillan/neorag/internal/cypher"
	"github.com/quillan/neorag/internal/log"
	"github.com/quillan/neorag/internal/rag"
	"github.com/quillan/neorag/internal/testutil"
)

// unit returns an 8-dimensional unit vector along the given axis.
func unit(axis int) []float32 {
	v := make([]float32, 8)
	v[axis] = 1
	return v
}

// ingestCorpus saves three documents with two chunks each and embeds every
// element. Chunk vectors are pinned so that exactly one near-duplicate pair
// (a1, a2) exists; the rest are mutually orthogonal.
func ingestCorpus(t *testing.T, s *Store, embedder *testutil.FakeEmbedder) {
	t.Helper()
	ctx := context.Background()

	embedder.Fixed["alpha one"] = []float32{0.996, 0.089, 0, 0, 0, 0, 0, 0}
	embedder.Fixed["alpha two"] = unit(0)
	embedder.Fixed["beta one"] = unit(1)
	embedder.Fixed["beta two"] = unit(2)
	embedder.Fixed["gamma one"] = unit(3)
	embedder.Fixed["gamma two"] = unit(4)

	texts := map[string][2]string{
		"alpha": {"alpha one", "alpha two"},
		"beta":  {"beta one", "beta two"},
		"gamma": {"gamma one", "gamma two"},
	}

	for _, name := range []string{"alpha", "beta", "gamma"} {
		doc := rag.MaterializedDocument{
			ID:    "doc-" + name,
			Title: name,
			URI:   "https://example.com/" + name,
		}
		_, err := s.Save(ctx, doc)
		require.NoError(t, err)

		batch := []rag.Retrievable{doc}
		for i, text := range texts[name] {
			chunk := rag.Chunk{
				ID:       fmt.Sprintf("%s-%d", name, i+1),
				Text:     text,
				ParentID: doc.ID,
				Metadata: map[string]string{"source": "test"},
			}
			_, err := s.Save(ctx, chunk)
			require.NoError(t, err)
			batch = append(batch, chunk)
		}
		require.NoError(t, s.OnNewRetrievables(ctx, batch))
	}
}

func TestStoreAgainstNeo4j(t *testing.T) {
	setup := testutil.SetupNeo4j(t)
	ctx := context.Background()

	runner := cypher.NewNeo4jRunner(setup.Driver, "")
	boundary := cypher.New(runner, log.NewNop())
	embedder := testutil.NewFakeEmbedder()
	s := New(boundary, embedder, Options{}, log.NewNop())

	require.NoError(t, s.Provision(ctx))
	// repeat provisioning must be a no-op
	require.NoError(t, s.Provision(ctx))

	ingestCorpus(t, s, embedder)

	_, err := boundary.Query(ctx, "await indexes", "CALL db.awaitIndexes()", nil)
	require.NoError(t, err)

	t.Run("count", func(t *testing.T) {
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, n, "3 documents and 6 chunks")
	})

	t.Run("find by id", func(t *testing.T) {
		element, found, err := s.FindByID(ctx, "alpha-1")
		require.NoError(t, err)
		require.True(t, found)
		chunk, ok := element.(rag.Chunk)
		require.True(t, ok)
		assert.Equal(t, "alpha one", chunk.Text)
		assert.Equal(t, "doc-alpha", chunk.ParentID)
		assert.Equal(t, "test", chunk.Metadata["source"])
	})

	t.Run("find root by uri", func(t *testing.T) {
		root, found, err := s.FindContentRootByURI(ctx, "https://example.com/beta")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "doc-beta", root.ID)
		assert.Equal(t, "beta", root.Title)
	})

	t.Run("resave does not duplicate", func(t *testing.T) {
		_, err := s.Save(ctx, rag.Chunk{ID: "alpha-1", Text: "alpha one", ParentID: "doc-alpha"})
		require.NoError(t, err)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9, n)
	})

	t.Run("vector search ranks the near duplicate first", func(t *testing.T) {
		embedder.Fixed["find alpha"] = unit(0)
		results, err := s.Search(ctx, rag.Request{
			Query:         "find alpha",
			ContentSearch: rag.ContentSearch{Types: []string{rag.LabelChunk}},
		})
		require.NoError(t, err)

		require.NotEmpty(t, results.Results)
		assert.Equal(t, "alpha-2", results.Results[0].Match.ElementID(), "exact vector match ranks first")
		ids := make([]string, 0, len(results.Results))
		for _, r := range results.Results {
			ids = append(ids, r.Match.ElementID())
		}
		assert.Contains(t, ids, "alpha-1", "near duplicate clears the similarity threshold")
		assert.NotContains(t, ids, "beta-1", "orthogonal vectors fall below the threshold")
	})

	t.Run("full text search finds exact words", func(t *testing.T) {
		embedder.Fixed["gamma two"] = unit(4)
		results, err := s.Search(ctx, rag.Request{
			Query:         "gamma two",
			ContentSearch: rag.ContentSearch{Types: []string{rag.LabelChunk}},
		})
		require.NoError(t, err)

		ids := make([]string, 0, len(results.Results))
		for _, r := range results.Results {
			ids = append(ids, r.Match.ElementID())
		}
		assert.Contains(t, ids, "gamma-2")
	})

	t.Run("entities", func(t *testing.T) {
		basis, found, err := s.FindByID(ctx, "alpha-1")
		require.NoError(t, err)
		require.True(t, found)

		entity := rag.NamedEntityData{
			ID:          "ent-jesse",
			Name:        "Jesse",
			Description: "a guide through the corpus",
			Labels:      []string{"Entity", "Person"},
		}
		id, err := boundary.CreateEntity(ctx, entity, basis)
		require.NoError(t, err)
		assert.Equal(t, "ent-jesse", id)

		_, err = boundary.CreateEntity(ctx, entity, basis)
		assert.ErrorIs(t, err, cypher.ErrDuplicateIdentity)

		embedder.Fixed[entity.EmbeddableValue()] = unit(5)
		require.NoError(t, s.OnNewRetrievables(ctx, []rag.Retrievable{entity}))

		chunks, err := s.FindChunksForEntity(ctx, "ent-jesse")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "alpha-1", chunks[0].ID)

		embedder.Fixed["who is jesse"] = unit(5)
		results, err := s.Search(ctx, rag.Request{
			Query:        "who is jesse",
			EntitySearch: &rag.EntitySearch{Labels: []string{"Person"}},
		})
		require.NoError(t, err)
		require.NotEmpty(t, results.Results)
		assert.Equal(t, "ent-jesse", results.Results[0].Match.ElementID())
	})

	t.Run("clusters", func(t *testing.T) {
		clusters, err := s.FindClusters(ctx, rag.ClusterRequest{
			Labels:              []string{rag.LabelChunk},
			TopK:                5,
			SimilarityThreshold: 0.9,
		})
		require.NoError(t, err)

		// only the alpha pair is near-identical; each member anchors the other
		require.Len(t, clusters, 2)
		members := map[string]string{}
		for _, c := range clusters {
			require.Len(t, c.Similar, 1)
			members[c.Anchor.ElementID()] = c.Similar[0].Match.ElementID()
			assert.GreaterOrEqual(t, c.Similar[0].Score, 0.9)
		}
		assert.Equal(t, "alpha-1", members["alpha-2"])
		assert.Equal(t, "alpha-2", members["alpha-1"])
	})

	t.Run("clusters with singletons", func(t *testing.T) {
		clusters, err := s.FindClusters(ctx, rag.ClusterRequest{
			Labels:              []string{rag.LabelChunk},
			TopK:                5,
			SimilarityThreshold: 0.9,
			IncludeSingletons:   true,
		})
		require.NoError(t, err)
		assert.Len(t, clusters, 6, "every embedded chunk anchors a cluster")
	})

	t.Run("missing cluster index is a precondition failure", func(t *testing.T) {
		_, err := s.FindClusters(ctx, rag.ClusterRequest{
			VectorIndex: "no_such_index",
			Labels:      []string{rag.LabelChunk},
			TopK:        5,
		})
		var precondition *cypher.PreconditionError
		assert.ErrorAs(t, err, &precondition)
	})

	t.Run("cascading delete", func(t *testing.T) {
		result, err := s.DeleteRootAndDescendants(ctx, "https://example.com/alpha")
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 3, result.DeletedCount, "the root and both chunks")

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 6, n)

		_, found, err := s.FindByID(ctx, "alpha-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete of absent root is a no-op", func(t *testing.T) {
		result, err := s.DeleteRootAndDescendants(ctx, "https://example.com/alpha")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("re-ingest replaces the chunk set", func(t *testing.T) {
		deleted, err := s.DeleteDescendants(ctx, "doc-gamma")
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)

		_, found, err := s.FindByID(ctx, "gamma-1")
		require.NoError(t, err)
		assert.False(t, found, "previous version's chunks are gone")

		root, found, err := s.FindContentRootByURI(ctx, "https://example.com/gamma")
		require.NoError(t, err)
		require.True(t, found, "the root survives")

		replacement := rag.Chunk{ID: "gamma-3", Text: "gamma three", ParentID: root.ID}
		_, err = s.Save(ctx, replacement)
		require.NoError(t, err)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, n, "2 roots, 2 beta chunks, 1 replacement chunk")
	})
}
