// Package rag defines the content model and retrieval contracts for the
// graph-backed RAG store.
//
// The model is built around two capabilities:
//   - Retrievable: anything with a stable identity that can be embedded and
//     ranked by similarity (chunks, documents, extracted entities).
//   - ContentElement: a retrievable content unit persisted in the graph,
//     carrying open metadata and a label set used for polymorphic mapping.
//
// Retrieval spans independently pluggable "facets" (chunk search, entity
// search, ...). Each facet produces SimilarityResult values; MergeResults
// defines the single ranking contract all facets share.
package rag
