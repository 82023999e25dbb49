package embed

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the default OpenAI embedding model.
	DefaultModel = openai.SmallEmbedding3

	defaultMaxRetries     = 3
	defaultRetryDelay     = 500 * time.Millisecond
	defaultAttemptTimeout = 30 * time.Second
)

// knownDimensions maps OpenAI embedding models to their vector sizes.
var knownDimensions = map[openai.EmbeddingModel]int{
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	openai.AdaEmbeddingV2:  1536,
}

// ModelFromName converts a configured model name into the client's model
// type. Unknown names are passed through; Dimensions falls back to the
// default size for them.
func ModelFromName(name string) openai.EmbeddingModel {
	return openai.EmbeddingModel(name)
}

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	APIKey  string
	Model   openai.EmbeddingModel
	BaseURL string // optional, for proxies and tests

	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIEmbedder computes embeddings through the OpenAI API with bounded
// retries. Safe for concurrent use.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAI creates an OpenAI-backed embedder.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func (e *OpenAIEmbedder) ModelID() string { return string(e.model) }

func (e *OpenAIEmbedder) Dimensions() int {
	if d, ok := knownDimensions[e.model]; ok {
		return d
	}
	return knownDimensions[DefaultModel]
}

// Embed returns the embedding for text, retrying transient failures with
// linear backoff. Each attempt carries its own timeout.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * e.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, defaultAttemptTimeout)
		resp, err := e.client.CreateEmbeddings(attemptCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: e.model,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			lastErr = fmt.Errorf("attempt %d: empty embedding returned", attempt+1)
			continue
		}
		return resp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", e.maxRetries+1, lastErr)
}
