package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/conformitas/veridoc/pkg/corpus"
	"github.com/conformitas/veridoc/pkg/kgraph"
)

type fakeIndex struct {
	chunks []corpus.Chunk
}

func (f *fakeIndex) Query(context.Context, []float32, int) ([]corpus.ScoredChunk, error) {
	return nil, nil
}

func (f *fakeIndex) FetchByIDs(context.Context, []string) ([]corpus.Chunk, error) {
	return nil, nil
}

func (f *fakeIndex) ListOrdered(_ context.Context, offset, limit int) ([]corpus.Chunk, error) {
	if offset >= len(f.chunks) {
		return nil, nil
	}
	end := min(offset+limit, len(f.chunks))
	return f.chunks[offset:end], nil
}

func (f *fakeIndex) Count(context.Context) (int, error) { return len(f.chunks), nil }

type fakeStore struct {
	mu            sync.Mutex
	entities      map[string]kgraph.Entity
	relationships map[string]kgraph.Relationship
	chunkLinks    map[string]map[string]struct{}
	checkpoint    kgraph.IngestCheckpoint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities:      make(map[string]kgraph.Entity),
		relationships: make(map[string]kgraph.Relationship),
		chunkLinks:    make(map[string]map[string]struct{}),
	}
}

func (s *fakeStore) UpsertEntities(_ context.Context, entities []kgraph.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.entities[e.ID] = e
	}
	return nil
}

func (s *fakeStore) UpsertRelationships(_ context.Context, relationships []kgraph.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range relationships {
		s.relationships[r.ID] = r
	}
	return nil
}

func (s *fakeStore) LinkChunks(_ context.Context, chunkIDs []string, entityIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunkID := range chunkIDs {
		if s.chunkLinks[chunkID] == nil {
			s.chunkLinks[chunkID] = make(map[string]struct{})
		}
		for _, entityID := range entityIDs {
			s.chunkLinks[chunkID][entityID] = struct{}{}
		}
	}
	return nil
}

func (s *fakeStore) EntitiesForChunks(context.Context, []string) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) Traverse(context.Context, []string, int, int) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) LoadCheckpoint(context.Context) (kgraph.IngestCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint, nil
}

func (s *fakeStore) SaveCheckpoint(_ context.Context, cp kgraph.IngestCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoint = cp
	return nil
}

func pipelineConfig() Config {
	return Config{
		TokenBudget: 100,
		BatchSize:   1,
		WaveWidth:   2,
		CountTokens: wordCounter,
	}
}

func TestPipelineRunPersistsExtraction(t *testing.T) {
	index := &fakeIndex{chunks: []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "adhesive bonding content."),
	}}
	store := newFakeStore()
	client := &fakeExtractor{result: twoEntityResult()}

	cp, err := NewPipeline(client, index, store, pipelineConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(store.entities) != 2 || len(store.relationships) != 1 {
		t.Errorf("store holds %d entities, %d relationships; want 2, 1",
			len(store.entities), len(store.relationships))
	}
	if cp.Entities != 2 || cp.Relationships != 1 || cp.SkippedBatches != 0 {
		t.Errorf("checkpoint = %+v", cp)
	}
	if cp.WindowOffset != 1 {
		t.Errorf("checkpoint offset = %d, want 1", cp.WindowOffset)
	}
	if len(store.chunkLinks["c1"]) != 2 {
		t.Errorf("chunk c1 links = %v, want both entities", store.chunkLinks["c1"])
	}
}

func TestPipelineRerunDoesNotGrowStore(t *testing.T) {
	index := &fakeIndex{chunks: []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "adhesive bonding content."),
		chunk("c2", "S2", "1", "2.1", "more adhesive bonding content."),
	}}
	store := newFakeStore()
	client := &fakeExtractor{result: twoEntityResult()}
	cfg := pipelineConfig()

	if _, err := NewPipeline(client, index, store, cfg).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	entitiesAfterFirst := len(store.entities)
	relsAfterFirst := len(store.relationships)

	// Force full reprocessing despite the checkpoint.
	store.checkpoint.WindowOffset = 0

	if _, err := NewPipeline(client, index, store, cfg).Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if len(store.entities) != entitiesAfterFirst {
		t.Errorf("entity count grew on rerun: %d -> %d", entitiesAfterFirst, len(store.entities))
	}
	if len(store.relationships) != relsAfterFirst {
		t.Errorf("relationship count grew on rerun: %d -> %d", relsAfterFirst, len(store.relationships))
	}
}

func TestPipelineResumesFromCheckpoint(t *testing.T) {
	index := &fakeIndex{chunks: []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "first window."),
		chunk("c2", "S2", "1", "2.1", "second window."),
	}}
	store := newFakeStore()
	store.checkpoint.WindowOffset = 1
	client := &fakeExtractor{result: twoEntityResult()}

	if _, err := NewPipeline(client, index, store, pipelineConfig()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// One batch per window with BatchSize 1; only the second window remains.
	if got := client.calls.Load(); got != 1 {
		t.Errorf("extraction calls = %d, want 1", got)
	}
}

func TestPipelineSkipsFailedBatches(t *testing.T) {
	index := &fakeIndex{chunks: []corpus.Chunk{
		chunk("c1", "S1", "1", "1.1", "window content."),
	}}
	store := newFakeStore()
	client := &fakeExtractor{broken: true}

	cp, err := NewPipeline(client, index, store, pipelineConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want skipped batch instead", err)
	}
	if cp.SkippedBatches != 1 {
		t.Errorf("skipped batches = %d, want 1", cp.SkippedBatches)
	}
	if len(store.entities) != 0 {
		t.Errorf("store holds %d entities after failed batch, want 0", len(store.entities))
	}
}
