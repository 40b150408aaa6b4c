package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/conformitas/veridoc/pkg/ai"
	"github.com/conformitas/veridoc/pkg/kgraph"
	"github.com/conformitas/veridoc/pkg/logger"
)

type extractedEntity struct {
	Type        string `json:"type" jsonschema_description:"Entity type from the closed set"`
	Name        string `json:"name" jsonschema_description:"Full entity name as written in the window"`
	Description string `json:"description,omitempty" jsonschema_description:"One or two sentences grounded in the window text"`
}

type extractedRelationship struct {
	Type   string `json:"type" jsonschema_description:"Relationship type from the closed set"`
	Source string `json:"source" jsonschema_description:"Name of the source entity, as listed for the same window"`
	Target string `json:"target" jsonschema_description:"Name of the target entity, as listed for the same window"`
}

type extractedWindow struct {
	WindowIndex   int                     `json:"window_index" jsonschema_description:"Zero-based index of the window this result belongs to"`
	Entities      []extractedEntity       `json:"entities"`
	Relationships []extractedRelationship `json:"relationships"`
}

type extractionResult struct {
	Windows []extractedWindow `json:"windows"`
}

// BatchResult carries the canonicalized output of one extraction batch, ready
// for persistence.
type BatchResult struct {
	Entities      []kgraph.Entity
	Relationships []kgraph.Relationship

	// ChunkLinks maps window chunk ids to the entity ids found in that window.
	ChunkLinks map[string][]string
}

func enumList[T ~string](values []T) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, string(v))
	}
	return strings.Join(parts, ", ")
}

func batchPrompt(windows []Window) string {
	var b strings.Builder
	for i, w := range windows {
		fmt.Fprintf(&b, "## Window %d (%s", i, w.Section)
		if w.Part != "" {
			fmt.Fprintf(&b, ", Part %s", w.Part)
		}
		b.WriteString(")\n")
		b.WriteString(w.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// ExtractBatch runs structured entity/relationship extraction over a small
// batch of windows and canonicalizes the result. Entities with types outside
// the closed enum, relationships with invalid types, and relationships whose
// endpoints do not name an entity from the same window are dropped with a
// log line rather than failing the batch.
func ExtractBatch(ctx context.Context, client ai.Client, windows []Window) (BatchResult, error) {
	result := BatchResult{ChunkLinks: make(map[string][]string)}
	if len(windows) == 0 {
		return result, nil
	}

	systemPrompt := fmt.Sprintf(ai.ExtractPrompt,
		enumList(kgraph.EntityTypes), enumList(kgraph.RelationshipTypes))

	var extracted extractionResult
	err := ai.ExtractStructured(ctx, client,
		"knowledge_graph_extraction",
		"Entities and relationships extracted per text window",
		batchPrompt(windows),
		&extracted,
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return result, err
	}

	seenEntities := make(map[string]struct{})
	seenRelationships := make(map[string]struct{})

	for _, win := range extracted.Windows {
		if win.WindowIndex < 0 || win.WindowIndex >= len(windows) {
			logger.Warn("extraction returned out-of-range window index", "index", win.WindowIndex)
			continue
		}
		window := windows[win.WindowIndex]

		// Entity names as the model wrote them, for endpoint resolution.
		nameToID := make(map[string]string, len(win.Entities))
		windowEntityIDs := make([]string, 0, len(win.Entities))

		for _, e := range win.Entities {
			entityType := kgraph.EntityType(strings.ToUpper(strings.TrimSpace(e.Type)))
			if !kgraph.ValidEntityType(entityType) {
				logger.Warn("dropping entity with invalid type", "type", e.Type, "name", e.Name)
				continue
			}
			name := strings.TrimSpace(e.Name)
			if name == "" {
				continue
			}

			id := kgraph.CanonicalEntityID(entityType, name)
			nameToID[kgraph.NormalizeName(name)] = id
			windowEntityIDs = append(windowEntityIDs, id)

			if _, ok := seenEntities[id]; ok {
				continue
			}
			seenEntities[id] = struct{}{}
			result.Entities = append(result.Entities, kgraph.Entity{
				ID:          id,
				Type:        entityType,
				Name:        name,
				Description: strings.TrimSpace(e.Description),
			})
		}

		for _, r := range win.Relationships {
			relType := kgraph.RelationshipType(strings.ToUpper(strings.TrimSpace(r.Type)))
			if !kgraph.ValidRelationshipType(relType) {
				logger.Warn("dropping relationship with invalid type", "type", r.Type)
				continue
			}
			sourceID, sourceOK := nameToID[kgraph.NormalizeName(r.Source)]
			targetID, targetOK := nameToID[kgraph.NormalizeName(r.Target)]
			if !sourceOK || !targetOK {
				logger.Warn("dropping relationship with unresolved endpoint",
					"source", r.Source, "target", r.Target)
				continue
			}

			id := kgraph.CanonicalRelationshipID(sourceID, relType, targetID)
			if _, ok := seenRelationships[id]; ok {
				continue
			}
			seenRelationships[id] = struct{}{}
			result.Relationships = append(result.Relationships, kgraph.Relationship{
				ID:       id,
				Type:     relType,
				SourceID: sourceID,
				TargetID: targetID,
				ChunkIDs: window.ChunkIDs,
			})
		}

		if len(windowEntityIDs) > 0 {
			for _, chunkID := range window.ChunkIDs {
				result.ChunkLinks[chunkID] = append(result.ChunkLinks[chunkID], windowEntityIDs...)
			}
		}
	}

	return result, nil
}
