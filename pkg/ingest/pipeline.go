package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conformitas/veridoc/pkg/ai"
	"github.com/conformitas/veridoc/pkg/corpus"
	"github.com/conformitas/veridoc/pkg/kgraph"
	"github.com/conformitas/veridoc/pkg/logger"
)

// Config controls a graph construction run.
type Config struct {
	// TokenBudget caps the merged window size in tokens.
	TokenBudget int
	// BatchSize is the number of windows per extraction call.
	BatchSize int
	// WaveWidth is the number of extraction batches processed concurrently.
	WaveWidth int
	// WaveDelay throttles the model call rate between waves.
	WaveDelay time.Duration
	// StartOffset skips windows below this index, overriding the checkpoint
	// when larger.
	StartOffset int
	// PageSize is the corpus listing page size.
	PageSize int
	// CountTokens overrides the default o200k_base token counter.
	CountTokens TokenCounter
}

func (c Config) withDefaults() Config {
	if c.TokenBudget <= 0 {
		c.TokenBudget = 2000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 4
	}
	if c.WaveWidth <= 0 {
		c.WaveWidth = 3
	}
	if c.PageSize <= 0 {
		c.PageSize = 500
	}
	return c
}

// Pipeline is the offline graph construction job. It windows the corpus,
// extracts entities and relationships in parallel waves, and persists them
// under canonical idempotent keys so reruns converge instead of duplicating.
type Pipeline struct {
	ai    ai.Client
	index corpus.Index
	store kgraph.Store
	cfg   Config
}

// NewPipeline creates a graph construction pipeline.
func NewPipeline(aiClient ai.Client, index corpus.Index, store kgraph.Store, cfg Config) *Pipeline {
	return &Pipeline{ai: aiClient, index: index, store: store, cfg: cfg.withDefaults()}
}

func (p *Pipeline) loadChunks(ctx context.Context) ([]corpus.Chunk, error) {
	chunks := make([]corpus.Chunk, 0)
	for offset := 0; ; offset += p.cfg.PageSize {
		page, err := p.index.ListOrdered(ctx, offset, p.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list corpus chunks: %w", err)
		}
		chunks = append(chunks, page...)
		if len(page) < p.cfg.PageSize {
			return chunks, nil
		}
	}
}

func (p *Pipeline) persistBatch(ctx context.Context, batch BatchResult) error {
	if len(batch.Entities) == 0 && len(batch.Relationships) == 0 {
		return nil
	}
	if err := p.store.UpsertEntities(ctx, batch.Entities); err != nil {
		return err
	}
	if err := p.store.UpsertRelationships(ctx, batch.Relationships); err != nil {
		return err
	}
	for chunkID, entityIDs := range batch.ChunkLinks {
		if err := p.store.LinkChunks(ctx, []string{chunkID}, entityIDs); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a full graph construction pass and returns the final
// checkpoint. Extraction failures skip the affected batch and are counted,
// not fatal; the run resumes from the stored checkpoint unless StartOffset
// points past it. Writes use idempotent keys, so at-least-once reprocessing
// after a crash is safe.
func (p *Pipeline) Run(ctx context.Context) (kgraph.IngestCheckpoint, error) {
	chunks, err := p.loadChunks(ctx)
	if err != nil {
		return kgraph.IngestCheckpoint{}, err
	}

	countTokens := p.cfg.CountTokens
	if countTokens == nil {
		countTokens, err = EncodingTokenCounter()
		if err != nil {
			return kgraph.IngestCheckpoint{}, err
		}
	}
	windows, err := BuildWindows(chunks, p.cfg.TokenBudget, countTokens)
	if err != nil {
		return kgraph.IngestCheckpoint{}, err
	}

	cp, err := p.store.LoadCheckpoint(ctx)
	if err != nil {
		return kgraph.IngestCheckpoint{}, err
	}
	cp.Windows = len(windows)

	start := cp.WindowOffset
	if p.cfg.StartOffset > start {
		start = p.cfg.StartOffset
	}
	if start >= len(windows) {
		logger.Info("graph construction already complete", "windows", len(windows))
		return cp, nil
	}

	logger.Info("starting graph construction",
		"chunks", len(chunks), "windows", len(windows), "offset", start)

	batches := make([][]Window, 0)
	for i := start; i < len(windows); i += p.cfg.BatchSize {
		end := min(i+p.cfg.BatchSize, len(windows))
		batches = append(batches, windows[i:end])
	}

	var mu sync.Mutex
	waveSize := p.cfg.WaveWidth
	for waveStart := 0; waveStart < len(batches); waveStart += waveSize {
		waveEnd := min(waveStart+waveSize, len(batches))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(waveSize)
		for _, batch := range batches[waveStart:waveEnd] {
			g.Go(func() error {
				result, err := ExtractBatch(gctx, p.ai, batch)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.Error("extraction batch failed, skipping",
						"windows", len(batch), "error", err)
					mu.Lock()
					cp.SkippedBatches++
					mu.Unlock()
					return nil
				}

				if err := p.persistBatch(gctx, result); err != nil {
					return err
				}

				mu.Lock()
				cp.Entities += len(result.Entities)
				cp.Relationships += len(result.Relationships)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return cp, err
		}

		processed := 0
		for _, batch := range batches[:waveEnd] {
			processed += len(batch)
		}
		cp.WindowOffset = start + processed
		if err := p.store.SaveCheckpoint(ctx, cp); err != nil {
			return cp, err
		}
		logger.Info("graph construction wave complete",
			"offset", cp.WindowOffset, "entities", cp.Entities,
			"relationships", cp.Relationships, "skipped", cp.SkippedBatches)

		if waveEnd < len(batches) && p.cfg.WaveDelay > 0 {
			select {
			case <-ctx.Done():
				return cp, ctx.Err()
			case <-time.After(p.cfg.WaveDelay):
			}
		}
	}

	return cp, nil
}
