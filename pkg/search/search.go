package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/conformitas/veridoc/pkg/ai"
	"github.com/conformitas/veridoc/pkg/corpus"
	"github.com/conformitas/veridoc/pkg/kgraph"
	"github.com/conformitas/veridoc/pkg/logger"
)

// Origin tells whether an evidence reference came straight from similarity
// search or from graph expansion.
type Origin string

const (
	OriginVector Origin = "vector"
	OriginGraph  Origin = "graph"
)

// GraphOriginScore is the fixed synthetic score assigned to graph-origin
// evidence. Graph hits are not similarity-scored; the value sits below the
// typical similarity range so vector hits outrank them in practice.
const GraphOriginScore = 0.5

// Evidence is a single ranked retrieval result handed to the verdict
// generator as grounding.
type Evidence struct {
	Reference string
	Section   string
	Part      string
	Clause    string
	Title     string
	Content   string
	Score     float64
	Origin    Origin
	ChunkID   string
}

// Engine runs hybrid retrieval: similarity search over the corpus index,
// expanded through the knowledge graph when it is reachable.
type Engine struct {
	ai    ai.Client
	index corpus.Index
	graph kgraph.Store
}

// NewEngine creates a hybrid search engine.
func NewEngine(aiClient ai.Client, index corpus.Index, graph kgraph.Store) *Engine {
	return &Engine{ai: aiClient, index: index, graph: graph}
}

func evidenceFromChunk(c corpus.Chunk, score float64, origin Origin) Evidence {
	return Evidence{
		Reference: c.Reference(),
		Section:   c.Section,
		Part:      c.Part,
		Clause:    c.Clause,
		Title:     c.Title,
		Content:   c.Content,
		Score:     score,
		Origin:    origin,
		ChunkID:   c.ID,
	}
}

// SearchVector embeds the query and returns the topK most similar chunks as
// vector-origin evidence.
func (e *Engine) SearchVector(ctx context.Context, query string, topK int) ([]Evidence, error) {
	embedding, err := e.ai.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.index.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus index: %w", err)
	}

	out := make([]Evidence, 0, len(hits))
	for _, hit := range hits {
		out = append(out, evidenceFromChunk(hit.Chunk, hit.Score, OriginVector))
	}
	return out, nil
}

// HybridSearch runs a vector search and expands it through the knowledge
// graph. Vector results always come first; graph-origin results are appended
// with the fixed synthetic score and exclude chunks the vector search already
// returned. An unreachable or empty graph degrades to vector-only results
// instead of failing the query.
func (e *Engine) HybridSearch(ctx context.Context, query string, topK, maxHops, maxGraphChunks int) ([]Evidence, error) {
	vector, err := e.SearchVector(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 || maxGraphChunks <= 0 {
		return vector, nil
	}

	returned := make(map[string]struct{}, len(vector))
	chunkIDs := make([]string, 0, len(vector))
	for _, ev := range vector {
		returned[ev.ChunkID] = struct{}{}
		chunkIDs = append(chunkIDs, ev.ChunkID)
	}

	entityIDs, err := e.graph.EntitiesForChunks(ctx, chunkIDs)
	if err != nil {
		if errors.Is(err, kgraph.ErrUnavailable) {
			logger.Warn("graph store unavailable, degrading to vector-only results", "error", err)
			return vector, nil
		}
		return nil, err
	}
	if len(entityIDs) == 0 {
		return vector, nil
	}

	graphChunkIDs, err := e.graph.Traverse(ctx, entityIDs, maxHops, maxGraphChunks+len(returned))
	if err != nil {
		if errors.Is(err, kgraph.ErrUnavailable) {
			logger.Warn("graph traversal unavailable, degrading to vector-only results", "error", err)
			return vector, nil
		}
		return nil, err
	}

	fresh := make([]string, 0, maxGraphChunks)
	for _, id := range graphChunkIDs {
		if _, ok := returned[id]; ok {
			continue
		}
		fresh = append(fresh, id)
		if len(fresh) >= maxGraphChunks {
			break
		}
	}
	if len(fresh) == 0 {
		return vector, nil
	}

	chunks, err := e.index.FetchByIDs(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graph chunks: %w", err)
	}

	out := vector
	for _, c := range chunks {
		out = append(out, evidenceFromChunk(c, GraphOriginScore, OriginGraph))
	}
	return out, nil
}
