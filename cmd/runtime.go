package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/quillan/neorag/internal/config"
	"github.com/quillan/neorag/internal/cypher"
	"github.com/quillan/neorag/internal/embed"
	"github.com/quillan/neorag/internal/store"
)

// runtime bundles the connected dependencies a command needs.
type runtime struct {
	driver neo4j.DriverWithContext
	store  *store.Store
}

// openRuntime connects the graph driver and assembles the store. The caller
// must invoke close when done.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI,
		neo4j.BasicAuth(cfg.Neo4j.Username, cfg.Neo4j.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j not reachable at %s: %w", cfg.Neo4j.URI, err)
	}

	embedder, err := embed.NewOpenAI(embed.OpenAIConfig{
		APIKey: cfg.OpenAI.APIKey,
		Model:  embed.ModelFromName(cfg.OpenAI.EmbeddingModel),
	})
	if err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	runner := cypher.NewNeo4jRunner(driver, cfg.Neo4j.Database)
	boundary := cypher.New(runner, logger)
	s := store.New(boundary, embedder, store.Options{
		Name:                        cfg.RAG.Name,
		ContentElementIndex:         cfg.RAG.ContentElementIndex,
		EntityIndex:                 cfg.RAG.EntityIndex,
		ContentElementFullTextIndex: cfg.RAG.ContentElementFullTextIndex,
		EntityFullTextIndex:         cfg.RAG.EntityFullTextIndex,
		EntityNodeName:              cfg.RAG.EntityNodeName,
		SearchTimeout:               cfg.RAG.SearchTimeout,
	}, logger)

	return &runtime{driver: driver, store: s}, nil
}

func (r *runtime) close(ctx context.Context) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	_ = r.driver.Close(closeCtx)
}
