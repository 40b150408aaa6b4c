package corpus

import (
	"context"
	"fmt"
	"strings"
)

// Chunk is the smallest addressable unit of the reference corpus, tagged
// with its section/part/clause provenance. Chunks are produced by the
// offline corpus build and are read-only at runtime.
type Chunk struct {
	ID            string
	Section       string
	Part          string
	Clause        string
	Title         string
	Content       string
	PageStart     int
	PageEnd       int
	TokenEstimate int
}

// ScoredChunk is a chunk returned from a similarity query together with its
// similarity score.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Reference renders the human-readable reference string for a chunk, e.g.
// "DIN EN 17460-1, Part 1, Clause 4.2.3 (pp. 12-13)". There is deliberately
// no dereferenceable URL.
func (c Chunk) Reference() string {
	var b strings.Builder
	b.WriteString(c.Section)
	if c.Part != "" {
		fmt.Fprintf(&b, ", Part %s", c.Part)
	}
	if c.Clause != "" {
		fmt.Fprintf(&b, ", Clause %s", c.Clause)
	}
	if c.Title != "" {
		fmt.Fprintf(&b, " %q", c.Title)
	}
	if c.PageStart > 0 {
		if c.PageEnd > c.PageStart {
			fmt.Fprintf(&b, " (pp. %d-%d)", c.PageStart, c.PageEnd)
		} else {
			fmt.Fprintf(&b, " (p. %d)", c.PageStart)
		}
	}
	return b.String()
}

// Index is the retrieval index over corpus chunks. The index is pre-built by
// the offline corpus pipeline; at runtime it only serves similarity queries,
// id lookups, and ordered listing for graph construction.
type Index interface {
	// Query returns up to topK chunks most similar to the embedding,
	// best match first, with similarity scores in [0, 1].
	Query(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error)

	// FetchByIDs returns the chunks for the given ids, preserving the order
	// of ids. Unknown ids are silently dropped.
	FetchByIDs(ctx context.Context, ids []string) ([]Chunk, error)

	// ListOrdered returns a page of chunks ordered by (section, part, clause).
	ListOrdered(ctx context.Context, offset, limit int) ([]Chunk, error)

	// Count returns the total number of chunks in the corpus.
	Count(ctx context.Context) (int, error)
}
