package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/conformitas/veridoc/pkg/corpus"
)

// ChunkIndex implements corpus.Index on a pgvector-enabled Postgres table.
type ChunkIndex struct {
	conn *pgxpool.Pool
}

// NewChunkIndex creates a chunk index backed by the given connection pool.
func NewChunkIndex(conn *pgxpool.Pool) *ChunkIndex {
	return &ChunkIndex{conn: conn}
}

const chunkColumns = `id, section, part, clause, title, content, page_start, page_end, token_estimate`

func scanChunk(row pgx.Row) (corpus.Chunk, error) {
	var c corpus.Chunk
	err := row.Scan(
		&c.ID, &c.Section, &c.Part, &c.Clause, &c.Title,
		&c.Content, &c.PageStart, &c.PageEnd, &c.TokenEstimate,
	)
	return c, err
}

// Query returns the topK most similar chunks by cosine similarity.
func (s *ChunkIndex) Query(ctx context.Context, embedding []float32, topK int) ([]corpus.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1) AS score
		FROM corpus_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`, chunkColumns), pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus chunks: %w", err)
	}
	defer rows.Close()

	out := make([]corpus.ScoredChunk, 0, topK)
	for rows.Next() {
		var sc corpus.ScoredChunk
		err := rows.Scan(
			&sc.ID, &sc.Section, &sc.Part, &sc.Clause, &sc.Title,
			&sc.Content, &sc.PageStart, &sc.PageEnd, &sc.TokenEstimate,
			&sc.Score,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// FetchByIDs returns the chunks for the given ids in input order.
func (s *ChunkIndex) FetchByIDs(ctx context.Context, ids []string) ([]corpus.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM corpus_chunks WHERE id = ANY($1)
	`, chunkColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch corpus chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]corpus.Chunk, len(ids))
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]corpus.Chunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListOrdered returns a page of chunks ordered by (section, part, clause).
func (s *ChunkIndex) ListOrdered(ctx context.Context, offset, limit int) ([]corpus.Chunk, error) {
	rows, err := s.conn.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM corpus_chunks
		ORDER BY section, part, clause
		OFFSET $1 LIMIT $2
	`, chunkColumns), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus chunks: %w", err)
	}
	defer rows.Close()

	out := make([]corpus.Chunk, 0, limit)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the total number of chunks in the corpus.
func (s *ChunkIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM corpus_chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count corpus chunks: %w", err)
	}
	return count, nil
}
