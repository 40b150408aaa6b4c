package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/conformitas/veridoc/pkg/ai"
)

// fakeExtractor returns a canned extraction result through the schema path,
// or fails both strategies when broken.
type fakeExtractor struct {
	result extractionResult
	broken bool
	calls  atomic.Int32
}

func (f *fakeExtractor) GenerateCompletion(context.Context, string, ...ai.GenerateOption) (string, error) {
	if f.broken {
		return "", errors.New("model unavailable")
	}
	return "", nil
}

func (f *fakeExtractor) GenerateCompletionWithFormat(_ context.Context, _, _, _ string, out any, _ ...ai.GenerateOption) error {
	f.calls.Add(1)
	if f.broken {
		return errors.New("model unavailable")
	}
	*out.(*extractionResult) = f.result
	return nil
}

func (f *fakeExtractor) GenerateChatStream(context.Context, []ai.ChatMessage, ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	return nil, nil
}

func (f *fakeExtractor) GenerateEmbedding(context.Context, []byte) ([]float32, error) {
	return nil, nil
}

func (f *fakeExtractor) ResetMetrics()               {}
func (f *fakeExtractor) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func twoEntityResult() extractionResult {
	return extractionResult{Windows: []extractedWindow{{
		WindowIndex: 0,
		Entities: []extractedEntity{
			{Type: "STANDARD", Name: "DIN EN 17460-1"},
			{Type: "MATERIAL", Name: "Sikaflex 265"},
		},
		Relationships: []extractedRelationship{
			{Type: "APPLIES_TO", Source: "DIN EN 17460-1", Target: "Sikaflex 265"},
		},
	}}}
}

func extractionWindow() Window {
	return Window{ID: "w1", Section: "S1", ChunkIDs: []string{"c1", "c2"}, Text: "window text"}
}

func TestExtractBatchCanonicalizes(t *testing.T) {
	client := &fakeExtractor{result: twoEntityResult()}

	got, err := ExtractBatch(context.Background(), client, []Window{extractionWindow()})
	if err != nil {
		t.Fatalf("ExtractBatch() error = %v", err)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(got.Entities))
	}
	if got.Entities[0].ID != "STANDARD:din-en-17460-1" {
		t.Errorf("entity id = %q", got.Entities[0].ID)
	}
	if len(got.Relationships) != 1 {
		t.Fatalf("relationships = %d, want 1", len(got.Relationships))
	}
	rel := got.Relationships[0]
	if rel.ID != "STANDARD:din-en-17460-1|APPLIES_TO|MATERIAL:sikaflex-265" {
		t.Errorf("relationship id = %q", rel.ID)
	}
	if len(rel.ChunkIDs) != 2 {
		t.Errorf("relationship provenance = %v, want window chunk ids", rel.ChunkIDs)
	}
	for _, chunkID := range []string{"c1", "c2"} {
		if len(got.ChunkLinks[chunkID]) != 2 {
			t.Errorf("chunk %s links = %v, want both entity ids", chunkID, got.ChunkLinks[chunkID])
		}
	}
}

func TestExtractBatchDropsInvalidTypes(t *testing.T) {
	client := &fakeExtractor{result: extractionResult{Windows: []extractedWindow{{
		WindowIndex: 0,
		Entities: []extractedEntity{
			{Type: "PERSON", Name: "J. Smith"},
			{Type: "STANDARD", Name: "DIN EN 17460-1"},
		},
		Relationships: []extractedRelationship{
			{Type: "KNOWS", Source: "DIN EN 17460-1", Target: "DIN EN 17460-1"},
		},
	}}}}

	got, err := ExtractBatch(context.Background(), client, []Window{extractionWindow()})
	if err != nil {
		t.Fatalf("ExtractBatch() error = %v", err)
	}
	if len(got.Entities) != 1 {
		t.Errorf("entities = %d, want only the valid one", len(got.Entities))
	}
	if len(got.Relationships) != 0 {
		t.Errorf("relationships = %d, want invalid type dropped", len(got.Relationships))
	}
}

func TestExtractBatchDropsUnresolvedEndpoints(t *testing.T) {
	client := &fakeExtractor{result: extractionResult{Windows: []extractedWindow{{
		WindowIndex: 0,
		Entities: []extractedEntity{
			{Type: "STANDARD", Name: "DIN EN 17460-1"},
		},
		Relationships: []extractedRelationship{
			{Type: "REFERENCES", Source: "DIN EN 17460-1", Target: "Unlisted Entity"},
		},
	}}}}

	got, err := ExtractBatch(context.Background(), client, []Window{extractionWindow()})
	if err != nil {
		t.Fatalf("ExtractBatch() error = %v", err)
	}
	if len(got.Relationships) != 0 {
		t.Errorf("relationships = %d, want unresolved endpoint dropped", len(got.Relationships))
	}
}

func TestExtractBatchIgnoresOutOfRangeWindowIndex(t *testing.T) {
	client := &fakeExtractor{result: extractionResult{Windows: []extractedWindow{{
		WindowIndex: 7,
		Entities:    []extractedEntity{{Type: "STANDARD", Name: "DIN EN 17460-1"}},
	}}}}

	got, err := ExtractBatch(context.Background(), client, []Window{extractionWindow()})
	if err != nil {
		t.Fatalf("ExtractBatch() error = %v", err)
	}
	if len(got.Entities) != 0 {
		t.Errorf("entities = %d, want out-of-range window ignored", len(got.Entities))
	}
}

func TestExtractBatchPropagatesStructuredFailure(t *testing.T) {
	client := &fakeExtractor{broken: true}

	_, err := ExtractBatch(context.Background(), client, []Window{extractionWindow()})
	if !errors.Is(err, ai.ErrStructuredOutput) {
		t.Errorf("ExtractBatch() error = %v, want ErrStructuredOutput", err)
	}
}
