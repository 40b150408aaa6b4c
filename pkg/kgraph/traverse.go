package kgraph

import "context"

// Adjacency is the narrow read surface traversal needs from a store: the
// relationship ids adjacent to a set of entities, and the relationship
// records for a set of ids. Implementations batch both reads.
type Adjacency interface {
	// AdjacentRelationshipIDs returns the union of relationship ids adjacent
	// to the given entities, in a stable order.
	AdjacentRelationshipIDs(ctx context.Context, entityIDs []string) ([]string, error)

	// Relationships returns the records for the given ids. Missing records
	// (partial or late writes) are omitted from the result, not errors.
	Relationships(ctx context.Context, relationshipIDs []string) ([]Relationship, error)
}

// TraverseFrom expands the graph from the seed entities breadth-first. Each
// hop batch-reads the adjacency sets of the current frontier and then the
// relationship records, appending provenance chunk ids to the result until
// maxChunks is reached and collecting unvisited endpoints as the next
// frontier. It stops early once the chunk budget is met or no new
// relationships or entities are discovered.
//
// The returned chunk ids are unique and preserve insertion order.
func TraverseFrom(ctx context.Context, adj Adjacency, seeds []string, maxHops, maxChunks int) ([]string, error) {
	if maxHops <= 0 || maxChunks <= 0 || len(seeds) == 0 {
		return nil, nil
	}

	visitedEntities := make(map[string]struct{}, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := visitedEntities[id]; ok {
			continue
		}
		visitedEntities[id] = struct{}{}
		frontier = append(frontier, id)
	}

	seenRelationships := make(map[string]struct{})
	seenChunks := make(map[string]struct{})
	chunks := make([]string, 0, maxChunks)

	for hop := 0; hop < maxHops && len(frontier) > 0 && len(chunks) < maxChunks; hop++ {
		relIDs, err := adj.AdjacentRelationshipIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}

		newRelIDs := make([]string, 0, len(relIDs))
		for _, id := range relIDs {
			if _, ok := seenRelationships[id]; ok {
				continue
			}
			seenRelationships[id] = struct{}{}
			newRelIDs = append(newRelIDs, id)
		}
		if len(newRelIDs) == 0 {
			break
		}

		records, err := adj.Relationships(ctx, newRelIDs)
		if err != nil {
			return nil, err
		}

		next := make([]string, 0)
		for _, rel := range records {
			for _, chunkID := range rel.ChunkIDs {
				if len(chunks) >= maxChunks {
					break
				}
				if _, ok := seenChunks[chunkID]; ok {
					continue
				}
				seenChunks[chunkID] = struct{}{}
				chunks = append(chunks, chunkID)
			}

			for _, endpoint := range []string{rel.SourceID, rel.TargetID} {
				if _, ok := visitedEntities[endpoint]; ok {
					continue
				}
				visitedEntities[endpoint] = struct{}{}
				next = append(next, endpoint)
			}
		}

		frontier = next
	}

	return chunks, nil
}
