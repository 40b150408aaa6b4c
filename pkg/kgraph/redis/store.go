package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/conformitas/veridoc/pkg/kgraph"
)

// Key layout:
//
//	kg:entity:<id>      hash  {id, type, name, description}
//	kg:name:<norm>      set   entity ids sharing the normalized name
//	kg:chunk:<chunkID>  set   entity ids mentioned in the chunk
//	kg:rel:<id>         hash  {id, type, source, target, chunks}
//	kg:adj:<entityID>   set   relationship ids touching the entity
//	kg:ingest:checkpoint hash ingest progress counters
const (
	entityKeyPrefix = "kg:entity:"
	nameKeyPrefix   = "kg:name:"
	chunkKeyPrefix  = "kg:chunk:"
	relKeyPrefix    = "kg:rel:"
	adjKeyPrefix    = "kg:adj:"
	checkpointKey   = "kg:ingest:checkpoint"
)

// GraphStore implements kgraph.Store on a Redis keyspace. All identity comes
// from canonical keys, so repeated upserts of the same facts converge instead
// of duplicating.
type GraphStore struct {
	client *goredis.Client
}

// NewGraphStore creates a graph store backed by the given Redis client.
func NewGraphStore(client *goredis.Client) *GraphStore {
	return &GraphStore{client: client}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kgraph.ErrUnavailable, err)
}

// UpsertEntities writes entity records and name index entries in one pipeline.
func (s *GraphStore) UpsertEntities(ctx context.Context, entities []kgraph.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, e := range entities {
			pipe.HSet(ctx, entityKeyPrefix+e.ID, map[string]any{
				"id":          e.ID,
				"type":        string(e.Type),
				"name":        e.Name,
				"description": e.Description,
			})
			pipe.SAdd(ctx, nameKeyPrefix+kgraph.NormalizeName(e.Name), e.ID)
		}
		return nil
	})
	if err != nil {
		return unavailable("failed to upsert entities", err)
	}
	return nil
}

// UpsertRelationships writes relationship records and registers each edge in
// the adjacency sets of both endpoints.
func (s *GraphStore) UpsertRelationships(ctx context.Context, relationships []kgraph.Relationship) error {
	if len(relationships) == 0 {
		return nil
	}

	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, r := range relationships {
			chunks, err := json.Marshal(r.ChunkIDs)
			if err != nil {
				return err
			}
			pipe.HSet(ctx, relKeyPrefix+r.ID, map[string]any{
				"id":     r.ID,
				"type":   string(r.Type),
				"source": r.SourceID,
				"target": r.TargetID,
				"chunks": string(chunks),
			})
			pipe.SAdd(ctx, adjKeyPrefix+r.SourceID, r.ID)
			pipe.SAdd(ctx, adjKeyPrefix+r.TargetID, r.ID)
		}
		return nil
	})
	if err != nil {
		return unavailable("failed to upsert relationships", err)
	}
	return nil
}

// LinkChunks records chunk membership for every (chunk, entity) pair.
func (s *GraphStore) LinkChunks(ctx context.Context, chunkIDs []string, entityIDs []string) error {
	if len(chunkIDs) == 0 || len(entityIDs) == 0 {
		return nil
	}

	members := make([]any, 0, len(entityIDs))
	for _, id := range entityIDs {
		members = append(members, id)
	}

	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, chunkID := range chunkIDs {
			pipe.SAdd(ctx, chunkKeyPrefix+chunkID, members...)
		}
		return nil
	})
	if err != nil {
		return unavailable("failed to link chunks", err)
	}
	return nil
}

// EntitiesForChunks returns the union of entity ids linked to the chunks, in
// a stable first-seen order.
func (s *GraphStore) EntitiesForChunks(ctx context.Context, chunkIDs []string) ([]string, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.StringSliceCmd, 0, len(chunkIDs))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, chunkID := range chunkIDs {
			cmds = append(cmds, pipe.SMembers(ctx, chunkKeyPrefix+chunkID))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("failed to read chunk memberships", err)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, cmd := range cmds {
		ids, err := cmd.Result()
		if err != nil {
			return nil, unavailable("failed to read chunk memberships", err)
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// AdjacentRelationshipIDs returns the union of relationship ids adjacent to
// the given entities.
func (s *GraphStore) AdjacentRelationshipIDs(ctx context.Context, entityIDs []string) ([]string, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.StringSliceCmd, 0, len(entityIDs))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range entityIDs {
			cmds = append(cmds, pipe.SMembers(ctx, adjKeyPrefix+id))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("failed to read adjacency sets", err)
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, cmd := range cmds {
		ids, err := cmd.Result()
		if err != nil {
			return nil, unavailable("failed to read adjacency sets", err)
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// Relationships returns the records for the given ids. Ids with no record yet
// are skipped.
func (s *GraphStore) Relationships(ctx context.Context, relationshipIDs []string) ([]kgraph.Relationship, error) {
	if len(relationshipIDs) == 0 {
		return nil, nil
	}

	cmds := make([]*goredis.MapStringStringCmd, 0, len(relationshipIDs))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range relationshipIDs {
			cmds = append(cmds, pipe.HGetAll(ctx, relKeyPrefix+id))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("failed to read relationship records", err)
	}

	out := make([]kgraph.Relationship, 0, len(relationshipIDs))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil {
			return nil, unavailable("failed to read relationship records", err)
		}
		if len(fields) == 0 {
			continue
		}

		rel := kgraph.Relationship{
			ID:       fields["id"],
			Type:     kgraph.RelationshipType(fields["type"]),
			SourceID: fields["source"],
			TargetID: fields["target"],
		}
		if raw := fields["chunks"]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &rel.ChunkIDs); err != nil {
				continue
			}
		}
		out = append(out, rel)
	}
	return out, nil
}

// Traverse expands the graph breadth-first from the seed entities.
func (s *GraphStore) Traverse(ctx context.Context, entityIDs []string, maxHops, maxChunks int) ([]string, error) {
	return kgraph.TraverseFrom(ctx, s, entityIDs, maxHops, maxChunks)
}

// LoadCheckpoint returns the saved ingest checkpoint, or a zero checkpoint
// when none has been written yet.
func (s *GraphStore) LoadCheckpoint(ctx context.Context) (kgraph.IngestCheckpoint, error) {
	fields, err := s.client.HGetAll(ctx, checkpointKey).Result()
	if err != nil {
		return kgraph.IngestCheckpoint{}, unavailable("failed to load ingest checkpoint", err)
	}

	atoi := func(key string) int {
		n, _ := strconv.Atoi(fields[key])
		return n
	}
	return kgraph.IngestCheckpoint{
		WindowOffset:   atoi("window_offset"),
		Windows:        atoi("windows"),
		Entities:       atoi("entities"),
		Relationships:  atoi("relationships"),
		SkippedBatches: atoi("skipped_batches"),
	}, nil
}

// SaveCheckpoint persists the ingest checkpoint.
func (s *GraphStore) SaveCheckpoint(ctx context.Context, cp kgraph.IngestCheckpoint) error {
	err := s.client.HSet(ctx, checkpointKey, map[string]any{
		"window_offset":   cp.WindowOffset,
		"windows":         cp.Windows,
		"entities":        cp.Entities,
		"relationships":   cp.Relationships,
		"skipped_batches": cp.SkippedBatches,
	}).Err()
	if err != nil {
		return unavailable("failed to save ingest checkpoint", err)
	}
	return nil
}
