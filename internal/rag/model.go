package rag

import (
	"time"
)

// Kind labels used for polymorphic mapping and backing-store indexing.
// Every content element carries LabelContentElement plus exactly one kind label.
const (
	LabelContentElement = "ContentElement"
	LabelChunk          = "Chunk"
	LabelDocument       = "Document"
	LabelContentRoot    = "ContentRoot"
)

// MetadataSource is the metadata key every content element must carry.
const MetadataSource = "source"

// Retrievable is any unit with a stable, globally unique identity that can be
// embedded and ranked by similarity.
type Retrievable interface {
	// ElementID returns the stable identity. The backing store is addressed
	// by this id, never by an internal row or slot number.
	ElementID() string

	// ElementLabels returns the type tags for the element. The label set is
	// never empty and contains exactly one kind label.
	ElementLabels() []string

	// EmbeddableValue returns the canonical text representation used for
	// embedding computation.
	EmbeddableValue() string
}

// ContentElement is a retrievable content unit persisted in the graph.
type ContentElement interface {
	Retrievable

	// ElementMetadata returns the open string-keyed metadata map. It always
	// includes the "source" key.
	ElementMetadata() map[string]string

	// PersistentProperties returns the flat property map stored on the
	// backing record. Metadata keys are namespaced with a "metadata_" prefix.
	PersistentProperties() map[string]any
}

// Chunk is the leaf-level retrievable unit. Chunks are immutable once
// created; edits create new chunks rather than mutating existing ones.
type Chunk struct {
	ID       string
	Text     string
	ParentID string
	Metadata map[string]string
}

func (c Chunk) ElementID() string       { return c.ID }
func (c Chunk) ElementLabels() []string { return []string{LabelContentElement, LabelChunk} }
func (c Chunk) EmbeddableValue() string { return c.Text }

func (c Chunk) ElementMetadata() map[string]string { return withSource(c.Metadata) }

func (c Chunk) PersistentProperties() map[string]any {
	props := map[string]any{
		"id":       c.ID,
		"text":     c.Text,
		"parentId": c.ParentID,
	}
	addMetadataProperties(props, c.Metadata)
	return props
}

// MaterializedDocument is a content root: the ingested form of an external
// document. Children are populated lazily by dedicated lookups, not by the
// root query.
//
// IngestionTimestamp's zero value means the ingestion time is unknown.
// Mapping never substitutes a synthetic "now" for an absent timestamp.
type MaterializedDocument struct {
	ID                 string
	Title              string
	URI                string
	IngestionTimestamp time.Time
	Children           []ContentElement
	Metadata           map[string]string
}

func (d MaterializedDocument) ElementID() string { return d.ID }

func (d MaterializedDocument) ElementLabels() []string {
	return []string{LabelContentElement, LabelContentRoot, LabelDocument}
}

func (d MaterializedDocument) EmbeddableValue() string { return d.Title }

func (d MaterializedDocument) ElementMetadata() map[string]string { return withSource(d.Metadata) }

func (d MaterializedDocument) PersistentProperties() map[string]any {
	props := map[string]any{
		"id":    d.ID,
		"title": d.Title,
		"uri":   d.URI,
	}
	if !d.IngestionTimestamp.IsZero() {
		props["ingestionTimestamp"] = d.IngestionTimestamp.UnixMilli()
	}
	addMetadataProperties(props, d.Metadata)
	return props
}

// SimilarityResult pairs a matched item with its similarity score in the
// embedding's native metric (cosine in the default configuration). Scores are
// always comparable and sort descending.
type SimilarityResult[T Retrievable] struct {
	Match T
	Score float64
}

// Cluster groups an anchor item with the set of items whose similarity to the
// anchor meets the configured threshold.
type Cluster struct {
	Anchor  ContentElement
	Similar []SimilarityResult[ContentElement]
}

// DeletionResult reports a completed cascading delete.
type DeletionResult struct {
	RootURI      string
	DeletedCount int
}

func withSource(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	if out[MetadataSource] == "" {
		out[MetadataSource] = "unknown"
	}
	return out
}

func addMetadataProperties(props map[string]any, metadata map[string]string) {
	for k, v := range withSource(metadata) {
		props["metadata_"+k] = v
	}
}
