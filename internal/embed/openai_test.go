package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func writeEmbedding(w http.ResponseWriter, vector []float32) {
	resp := openai.EmbeddingResponse{
		Data: []openai.Embedding{{Embedding: vector}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestEmbedder(t *testing.T, baseURL string) *OpenAIEmbedder {
	t.Helper()
	e, err := NewOpenAI(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return e
}

func TestNewOpenAIRequiresAPIKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}

func TestOpenAIDefaults(t *testing.T) {
	e, err := NewOpenAI(OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, string(openai.SmallEmbedding3), e.ModelID())
	assert.Equal(t, 1536, e.Dimensions())
}

func TestDimensionsPerModel(t *testing.T) {
	large, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: openai.LargeEmbedding3})
	require.NoError(t, err)
	assert.Equal(t, 3072, large.Dimensions())

	unknown, err := NewOpenAI(OpenAIConfig{APIKey: "k", Model: "custom-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, unknown.Dimensions(), "unknown models fall back to the default size")
}

func TestEmbed(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req openai.EmbeddingRequestStrings
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)
		assert.Equal(t, "some text", req.Input[0])
		writeEmbedding(w, []float32{0.1, 0.2, 0.3})
	})

	e := newTestEmbedder(t, server.URL)
	vector, err := e.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestEmbedRetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "temporarily overloaded", http.StatusInternalServerError)
			return
		}
		writeEmbedding(w, []float32{0.5})
	})

	e := newTestEmbedder(t, server.URL)
	vector, err := e.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5}, vector)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestEmbedGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	e := newTestEmbedder(t, server.URL)
	_, err := e.Embed(context.Background(), "doomed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestEmbedEmptyResponseIsRetriedThenFails(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbedding(w, nil)
	})

	e := newTestEmbedder(t, server.URL)
	_, err := e.Embed(context.Background(), "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestEmbedHonorsContextCancellation(t *testing.T) {
	server := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEmbedder(t, server.URL)
	_, err := e.Embed(ctx, "cancelled")
	assert.Error(t, err)
}
