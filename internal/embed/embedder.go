// Package embed defines the embedding-provider boundary and its OpenAI
// implementation.
package embed

import "context"

// Embedder computes vector embeddings for text.
//
// Implementations must be safe for concurrent use and deterministic for
// identical (text, model) pairs within a model version: the same input must
// produce the same vector. Vectors from different model identifiers live in
// incompatible spaces and must never be mixed in one similarity computation,
// which is why every stored embedding is tagged with ModelID.
type Embedder interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelID returns the stable identifier of the embedding model, used to
	// tag stored vectors.
	ModelID() string

	// Dimensions returns the vector dimensionality of the model, used when
	// provisioning vector indexes.
	Dimensions() int
}
