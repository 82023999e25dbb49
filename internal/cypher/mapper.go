package cypher

import (
	"fmt"
	"time"

	"github.com/quillan/neorag/internal/rag"
)

// MapContentElement decodes a raw row into the content-element variant its
// label set names. A row without labels is a data-integrity violation and
// fails hard; a label set matching no known kind fails with
// UnmappableRowError.
func MapContentElement(row map[string]any) (rag.ContentElement, error) {
	labels, ok := labelsOf(row)
	if !ok {
		return nil, fmt.Errorf("%w: row id=%v", ErrMissingLabels, row["id"])
	}

	switch {
	case containsLabel(labels, rag.LabelChunk):
		return mapChunk(row)
	case containsLabel(labels, rag.LabelDocument):
		return mapDocument(row)
	default:
		return nil, &UnmappableRowError{Labels: labels}
	}
}

// MapChunkSimilarity decodes a chunk search row carrying a required numeric
// score alongside the chunk payload.
func MapChunkSimilarity(row map[string]any) (rag.SimilarityResult[rag.Retrievable], error) {
	score, ok := asFloat(row["score"])
	if !ok {
		return rag.SimilarityResult[rag.Retrievable]{}, fmt.Errorf("chunk similarity row id=%v has no score", row["id"])
	}
	chunk, err := mapChunk(row)
	if err != nil {
		return rag.SimilarityResult[rag.Retrievable]{}, err
	}
	return rag.SimilarityResult[rag.Retrievable]{Match: chunk, Score: score}, nil
}

// MapEntityData decodes an entity row into the named variant, defaulting an
// absent description to empty.
func MapEntityData(row map[string]any) (rag.EntityData, error) {
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("entity row has no id")
	}
	labels, _ := labelsOf(row)
	return rag.NamedEntityData{
		ID:          id,
		Name:        stringOr(row, "name", ""),
		Description: stringOr(row, "description", ""),
		Labels:      labels,
		Properties:  propertiesOf(row),
	}, nil
}

// MapEntitySimilarity decodes an entity search row, choosing between the
// named and bare entity variant based on presence of name and description.
func MapEntitySimilarity(row map[string]any) (rag.SimilarityResult[rag.Retrievable], error) {
	score, ok := asFloat(row["score"])
	if !ok {
		return rag.SimilarityResult[rag.Retrievable]{}, fmt.Errorf("entity similarity row id=%v has no score", row["id"])
	}
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return rag.SimilarityResult[rag.Retrievable]{}, fmt.Errorf("entity similarity row has no id")
	}

	labels, _ := labelsOf(row)
	properties := propertiesOf(row)

	name, hasName := row["name"].(string)
	description, hasDescription := row["description"].(string)

	var match rag.Retrievable
	if hasName && hasDescription {
		match = rag.NamedEntityData{
			ID:          id,
			Name:        name,
			Description: description,
			Labels:      labels,
			Properties:  properties,
		}
	} else {
		match = rag.BareEntityData{ID: id, Labels: labels, Properties: properties}
	}
	return rag.SimilarityResult[rag.Retrievable]{Match: match, Score: score}, nil
}

func mapChunk(row map[string]any) (rag.Chunk, error) {
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return rag.Chunk{}, fmt.Errorf("chunk row has no id")
	}
	text, ok := row["text"].(string)
	if !ok {
		return rag.Chunk{}, fmt.Errorf("chunk row id=%s has no text", id)
	}
	return rag.Chunk{
		ID:       id,
		Text:     text,
		ParentID: stringOr(row, "parentId", "unknown"),
		Metadata: metadataOf(row),
	}, nil
}

func mapDocument(row map[string]any) (rag.MaterializedDocument, error) {
	id, ok := row["id"].(string)
	if !ok || id == "" {
		return rag.MaterializedDocument{}, fmt.Errorf("document row has no id")
	}
	uri, ok := row["uri"].(string)
	if !ok {
		return rag.MaterializedDocument{}, fmt.Errorf("document row id=%s has no uri", id)
	}
	return rag.MaterializedDocument{
		ID:                 id,
		Title:              stringOr(row, "title", id),
		URI:                uri,
		IngestionTimestamp: ingestionTime(row["ingestionDate"]),
		Metadata:           metadataOf(row),
	}, nil
}

// ingestionTime accepts the temporal forms the backing store may hand back:
// a native timestamp, epoch milliseconds, or an ISO-8601 string. Anything
// absent or unrecognized maps to the zero time, surfacing absence to callers
// instead of synthesizing "now".
func ingestionTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.UnixMilli(t)
	case int:
		return time.UnixMilli(int64(t))
	case float64:
		return time.UnixMilli(int64(t))
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

func labelsOf(row map[string]any) ([]string, bool) {
	switch raw := row["labels"].(type) {
	case []string:
		if len(raw) == 0 {
			return nil, false
		}
		return raw, true
	case []any:
		if len(raw) == 0 {
			return nil, false
		}
		labels := make([]string, 0, len(raw))
		for _, l := range raw {
			labels = append(labels, fmt.Sprint(l))
		}
		return labels, true
	default:
		return nil, false
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// metadataOf reassembles namespaced metadata_* row fields into the metadata
// map, defaulting source to "unknown".
func metadataOf(row map[string]any) map[string]string {
	metadata := map[string]string{rag.MetadataSource: "unknown"}
	for key, value := range row {
		if len(key) <= len("metadata_") || key[:len("metadata_")] != "metadata_" {
			continue
		}
		if s, ok := value.(string); ok {
			metadata[key[len("metadata_"):]] = s
		}
	}
	return metadata
}

func propertiesOf(row map[string]any) map[string]any {
	props, _ := row["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return props
}

func stringOr(row map[string]any, key, fallback string) string {
	if s, ok := row[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
