package rag

import "strings"

// EntityData is an extracted or derived graph entity, distinct from raw
// content. Entities participate in entity-level similarity and full-text
// search alongside chunks.
type EntityData interface {
	Retrievable

	// EntityProperties returns the entity's open property map.
	EntityProperties() map[string]any
}

// NamedEntityData is an entity with a human-readable name and description.
type NamedEntityData struct {
	ID          string
	Name        string
	Description string
	Labels      []string
	Properties  map[string]any
}

func (e NamedEntityData) ElementID() string       { return e.ID }
func (e NamedEntityData) ElementLabels() []string { return e.Labels }

func (e NamedEntityData) EmbeddableValue() string {
	return strings.TrimSpace(e.Name + ": " + e.Description)
}

func (e NamedEntityData) EntityProperties() map[string]any { return e.Properties }

// BareEntityData is the label/property-only degenerate entity form, used when
// name and description are absent.
type BareEntityData struct {
	ID         string
	Labels     []string
	Properties map[string]any
}

func (e BareEntityData) ElementID() string                { return e.ID }
func (e BareEntityData) ElementLabels() []string          { return e.Labels }
func (e BareEntityData) EmbeddableValue() string          { return e.ID }
func (e BareEntityData) EntityProperties() map[string]any { return e.Properties }
