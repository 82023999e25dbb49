// Package config provides application configuration with multi-source
// priority: environment variables override the config file, which overrides
// defaults.
//
// Sensitive values (passwords, API keys) are masked in MarshalJSON and must
// never be logged.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates the embedding provider API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidNeo4jURI indicates the graph store URI is empty or malformed.
	ErrInvalidNeo4jURI = errors.New("invalid neo4j URI")

	// ErrInvalidTopK indicates default_top_k is out of range.
	ErrInvalidTopK = errors.New("invalid default top K")

	// ErrInvalidThreshold indicates similarity_threshold is out of [0, 1].
	ErrInvalidThreshold = errors.New("invalid similarity threshold")
)

// Neo4j holds connection settings for the backing graph store.
type Neo4j struct {
	URI      string `mapstructure:"uri" json:"uri"`
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"password"`
	Database string `mapstructure:"database" json:"database"`
}

// OpenAI holds embedding-provider settings.
type OpenAI struct {
	APIKey         string `mapstructure:"api_key" json:"api_key"`
	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model"`
}

// RAG holds the retrieval engine settings: index names and search defaults.
type RAG struct {
	Name                        string        `mapstructure:"name" json:"name"`
	ContentElementIndex         string        `mapstructure:"content_element_index" json:"content_element_index"`
	EntityIndex                 string        `mapstructure:"entity_index" json:"entity_index"`
	ContentElementFullTextIndex string        `mapstructure:"content_element_fulltext_index" json:"content_element_fulltext_index"`
	EntityFullTextIndex         string        `mapstructure:"entity_fulltext_index" json:"entity_fulltext_index"`
	EntityNodeName              string        `mapstructure:"entity_node_name" json:"entity_node_name"`
	DefaultTopK                 int           `mapstructure:"default_top_k" json:"default_top_k"`
	SimilarityThreshold         float64       `mapstructure:"similarity_threshold" json:"similarity_threshold"`
	SearchTimeout               time.Duration `mapstructure:"search_timeout" json:"search_timeout"`
}

// Config is the root application configuration.
type Config struct {
	Neo4j  Neo4j  `mapstructure:"neo4j" json:"neo4j"`
	OpenAI OpenAI `mapstructure:"openai" json:"openai"`
	RAG    RAG    `mapstructure:"rag" json:"rag"`

	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load reads configuration from defaults, an optional config file
// (~/.neorag/config.yaml), and NEORAG_* environment variables, in ascending
// priority.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".neorag"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("NEORAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file: defaults + env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("%w: neo4j.uri must be set", ErrInvalidNeo4jURI)
	}
	if !strings.Contains(c.Neo4j.URI, "://") {
		return fmt.Errorf("%w: %q has no scheme", ErrInvalidNeo4jURI, c.Neo4j.URI)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: openai.api_key must be set", ErrMissingAPIKey)
	}
	if c.RAG.DefaultTopK < 1 || c.RAG.DefaultTopK > 1000 {
		return fmt.Errorf("%w: %d, must be in [1, 1000]", ErrInvalidTopK, c.RAG.DefaultTopK)
	}
	if c.RAG.SimilarityThreshold < 0 || c.RAG.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: %g, must be in [0, 1]", ErrInvalidThreshold, c.RAG.SimilarityThreshold)
	}
	return nil
}

// MarshalJSON masks sensitive fields. When adding new secrets to Config,
// update this method.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config
	masked := alias(*c)
	if masked.Neo4j.Password != "" {
		masked.Neo4j.Password = "***"
	}
	if masked.OpenAI.APIKey != "" {
		masked.OpenAI.APIKey = "***"
	}
	return json.Marshal(masked)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	// registered empty so env overrides reach Unmarshal
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")

	v.SetDefault("rag.name", "neorag")
	v.SetDefault("rag.content_element_index", "content_element_embedding")
	v.SetDefault("rag.entity_index", "entity_embedding")
	v.SetDefault("rag.content_element_fulltext_index", "content_element_text")
	v.SetDefault("rag.entity_fulltext_index", "entity_text")
	v.SetDefault("rag.entity_node_name", "Entity")
	v.SetDefault("rag.default_top_k", 8)
	v.SetDefault("rag.similarity_threshold", 0.7)
	v.SetDefault("rag.search_timeout", 10*time.Second)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}
