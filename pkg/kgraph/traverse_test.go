package kgraph

import (
	"context"
	"reflect"
	"testing"
)

// fakeAdjacency serves traversal reads from in-memory maps. Relationship ids
// listed in adjacency but absent from records simulate partial writes.
type fakeAdjacency struct {
	adjacency map[string][]string
	records   map[string]Relationship

	adjacencyCalls int
}

func (f *fakeAdjacency) AdjacentRelationshipIDs(_ context.Context, entityIDs []string) ([]string, error) {
	f.adjacencyCalls++
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, id := range entityIDs {
		for _, relID := range f.adjacency[id] {
			if _, ok := seen[relID]; ok {
				continue
			}
			seen[relID] = struct{}{}
			out = append(out, relID)
		}
	}
	return out, nil
}

func (f *fakeAdjacency) Relationships(_ context.Context, relationshipIDs []string) ([]Relationship, error) {
	out := make([]Relationship, 0, len(relationshipIDs))
	for _, id := range relationshipIDs {
		if rel, ok := f.records[id]; ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

func chainAdjacency() *fakeAdjacency {
	// e1 -r1-> e2 -r2-> e3 -r3-> e4
	return &fakeAdjacency{
		adjacency: map[string][]string{
			"e1": {"r1"},
			"e2": {"r1", "r2"},
			"e3": {"r2", "r3"},
			"e4": {"r3"},
		},
		records: map[string]Relationship{
			"r1": {ID: "r1", SourceID: "e1", TargetID: "e2", ChunkIDs: []string{"c1", "c2"}},
			"r2": {ID: "r2", SourceID: "e2", TargetID: "e3", ChunkIDs: []string{"c3"}},
			"r3": {ID: "r3", SourceID: "e3", TargetID: "e4", ChunkIDs: []string{"c4"}},
		},
	}
}

func TestTraverseFromZeroHops(t *testing.T) {
	adj := chainAdjacency()
	got, err := TraverseFrom(context.Background(), adj, []string{"e1"}, 0, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("TraverseFrom() with maxHops=0 = %v, want empty", got)
	}
	if adj.adjacencyCalls != 0 {
		t.Errorf("adjacency reads = %d, want 0", adj.adjacencyCalls)
	}
}

func TestTraverseFromSingleHop(t *testing.T) {
	got, err := TraverseFrom(context.Background(), chainAdjacency(), []string{"e1"}, 1, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	want := []string{"c1", "c2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TraverseFrom() = %v, want %v", got, want)
	}
}

func TestTraverseFromMultiHopInsertionOrder(t *testing.T) {
	got, err := TraverseFrom(context.Background(), chainAdjacency(), []string{"e1"}, 3, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	want := []string{"c1", "c2", "c3", "c4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TraverseFrom() = %v, want %v", got, want)
	}
}

func TestTraverseFromChunkBudget(t *testing.T) {
	got, err := TraverseFrom(context.Background(), chainAdjacency(), []string{"e1"}, 3, 3)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	want := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TraverseFrom() = %v, want %v", got, want)
	}
}

func TestTraverseFromSkipsMissingRecords(t *testing.T) {
	adj := chainAdjacency()
	delete(adj.records, "r1")

	got, err := TraverseFrom(context.Background(), adj, []string{"e1", "e2"}, 2, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	// r1 is adjacent but has no record; traversal proceeds through r2.
	want := []string{"c3", "c4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TraverseFrom() = %v, want %v", got, want)
	}
}

func TestTraverseFromStopsWhenNothingNewFound(t *testing.T) {
	adj := &fakeAdjacency{
		adjacency: map[string][]string{
			"e1": {"r1"},
			"e2": {"r1"},
		},
		records: map[string]Relationship{
			"r1": {ID: "r1", SourceID: "e1", TargetID: "e2", ChunkIDs: []string{"c1"}},
		},
	}

	got, err := TraverseFrom(context.Background(), adj, []string{"e1"}, 5, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("TraverseFrom() = %v, want [c1]", got)
	}
	// Hop 2 finds r1 again (already seen) and stops; no third hop issued.
	if adj.adjacencyCalls > 2 {
		t.Errorf("adjacency reads = %d, want <= 2", adj.adjacencyCalls)
	}
}

func TestTraverseFromDeduplicatesChunks(t *testing.T) {
	adj := &fakeAdjacency{
		adjacency: map[string][]string{
			"e1": {"r1", "r2"},
		},
		records: map[string]Relationship{
			"r1": {ID: "r1", SourceID: "e1", TargetID: "e2", ChunkIDs: []string{"c1"}},
			"r2": {ID: "r2", SourceID: "e1", TargetID: "e3", ChunkIDs: []string{"c1", "c2"}},
		},
	}

	got, err := TraverseFrom(context.Background(), adj, []string{"e1"}, 1, 10)
	if err != nil {
		t.Fatalf("TraverseFrom() error = %v", err)
	}
	want := []string{"c1", "c2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TraverseFrom() = %v, want %v", got, want)
	}
}
