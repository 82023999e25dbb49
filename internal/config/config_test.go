package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Neo4j: Neo4j{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Password: "secret",
		},
		OpenAI: OpenAI{
			APIKey:         "sk-test",
			EmbeddingModel: "text-embedding-3-small",
		},
		RAG: RAG{
			Name:                "neorag",
			DefaultTopK:         8,
			SimilarityThreshold: 0.7,
			SearchTimeout:       10 * time.Second,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NEORAG_OPENAI_API_KEY", "sk-test")
	t.Setenv("HOME", t.TempDir()) // no user config file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.Username)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, "neorag", cfg.RAG.Name)
	assert.Equal(t, "content_element_embedding", cfg.RAG.ContentElementIndex)
	assert.Equal(t, "entity_embedding", cfg.RAG.EntityIndex)
	assert.Equal(t, 8, cfg.RAG.DefaultTopK)
	assert.Equal(t, 0.7, cfg.RAG.SimilarityThreshold)
	assert.Equal(t, 10*time.Second, cfg.RAG.SearchTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("NEORAG_OPENAI_API_KEY", "sk-test")
	t.Setenv("NEORAG_NEO4J_URI", "bolt://db.internal:7687")
	t.Setenv("NEORAG_RAG_DEFAULT_TOP_K", "20")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt://db.internal:7687", cfg.Neo4j.URI)
	assert.Equal(t, 20, cfg.RAG.DefaultTopK)
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("NEORAG_OPENAI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateNeo4jURI(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.URI = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidNeo4jURI)

	cfg.Neo4j.URI = "localhost:7687"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidNeo4jURI)
}

func TestValidateTopKRange(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.DefaultTopK = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTopK)

	cfg.RAG.DefaultTopK = 1001
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidTopK)
}

func TestValidateThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.RAG.SimilarityThreshold = -0.1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidThreshold)

	cfg.RAG.SimilarityThreshold = 1.1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidThreshold)

	cfg.RAG.SimilarityThreshold = 0
	assert.NoError(t, cfg.Validate(), "zero threshold disables filtering and is valid")
}

func TestMarshalJSONMasksSecrets(t *testing.T) {
	data, err := json.Marshal(validConfig())
	require.NoError(t, err)

	text := string(data)
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "sk-test")
	assert.Contains(t, text, `"password":"***"`)
	assert.Contains(t, text, `"api_key":"***"`)
}

func TestMarshalJSONLeavesEmptySecretsEmpty(t *testing.T) {
	cfg := validConfig()
	cfg.Neo4j.Password = ""
	cfg.OpenAI.APIKey = ""

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "***")
}
