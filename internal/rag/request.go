package rag

import "context"

// Default retrieval parameters, applied by Request.Normalize.
const (
	DefaultTopK                = 8
	DefaultSimilarityThreshold = 0.7
)

// ContentSearch selects which content-element kinds a retrieval request
// covers. Types holds kind labels such as LabelChunk.
type ContentSearch struct {
	Types []string
}

// Includes reports whether the given kind label is requested.
func (s ContentSearch) Includes(kind string) bool {
	for _, t := range s.Types {
		if t == kind {
			return true
		}
	}
	return false
}

// EntitySearch configures the entity facet of a retrieval request. A nil
// EntitySearch on a Request skips entity search entirely.
type EntitySearch struct {
	// Labels restricts matching to entities carrying at least one of these
	// labels. Must be non-empty.
	Labels []string
}

// Request is a retrieval request that may span multiple facets.
type Request struct {
	Query               string
	TopK                int
	SimilarityThreshold float64
	ContentSearch       ContentSearch
	EntitySearch        *EntitySearch
}

// Normalize returns a copy with defaults applied to unset fields.
func (r Request) Normalize() Request {
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.SimilarityThreshold <= 0 {
		r.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return r
}

// ClusterRequest configures near-duplicate clustering over a vector index.
type ClusterRequest struct {
	// VectorIndex names the index used for neighbor retrieval. The index
	// must already exist; a missing index is a precondition failure, not an
	// empty result.
	VectorIndex string

	// Labels selects which node labels are eligible as anchors and
	// neighbors. Must be non-empty.
	Labels []string

	// TopK bounds the number of neighbors retrieved per anchor.
	TopK int

	// SimilarityThreshold is the minimum score for a neighbor to join an
	// anchor's cluster.
	SimilarityThreshold float64

	// EmbeddingModel restricts anchors and neighbors to vectors produced by
	// this model; vectors from different models are never compared.
	EmbeddingModel string

	// IncludeSingletons keeps anchors with zero qualifying neighbors as
	// single-element clusters. When false (the default), such anchors are
	// excluded from the result.
	IncludeSingletons bool
}

// SearchFunc is the search strategy a facet contributes.
type SearchFunc func(ctx context.Context, req Request) (FacetResults, error)

// Facet is an independently pluggable (name, search function) pair,
// consumable by any orchestrator that queries multiple stores uniformly.
type Facet struct {
	Name   string
	Search SearchFunc
}

// FacetProvider exposes the facets a store contributes to retrieval.
type FacetProvider interface {
	Facets() []Facet
}

// FacetResults is the merged, ranked output of a facet search.
type FacetResults struct {
	FacetName string
	Results   []SimilarityResult[Retrievable]
}
