package queue

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conformitas/veridoc/internal/util"
	"github.com/conformitas/veridoc/pkg/ai"
	corpuspgx "github.com/conformitas/veridoc/pkg/corpus/pgx"
	"github.com/conformitas/veridoc/pkg/ingest"
	kgredis "github.com/conformitas/veridoc/pkg/kgraph/redis"
	"github.com/conformitas/veridoc/pkg/logger"
)

type IngestJobMsg struct {
	Message     string `json:"message"`
	StartOffset int    `json:"start_offset"`
}

// ProcessIngestMessage runs a graph construction pass over the corpus. The
// job is safe to redeliver because graph writes use idempotent keys and the
// pipeline resumes from its stored checkpoint.
func ProcessIngestMessage(
	ctx context.Context,
	aiClient ai.Client,
	conn *pgxpool.Pool,
	rdb *goredis.Client,
	msg string,
) error {
	data := new(IngestJobMsg)
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		return err
	}

	cfg := ingest.Config{
		TokenBudget: int(util.GetEnvNumeric("INGEST_TOKEN_BUDGET", 2000)),
		BatchSize:   int(util.GetEnvNumeric("INGEST_BATCH_SIZE", 4)),
		WaveWidth:   int(util.GetEnvNumeric("INGEST_WAVE_WIDTH", 3)),
		WaveDelay:   time.Duration(util.GetEnvNumeric("INGEST_WAVE_DELAY_MS", 0)) * time.Millisecond,
		StartOffset: data.StartOffset,
	}

	pipeline := ingest.NewPipeline(
		aiClient,
		corpuspgx.NewChunkIndex(conn),
		kgredis.NewGraphStore(rdb),
		cfg,
	)

	cp, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("[Queue] Graph construction finished",
		"windows", cp.Windows,
		"offset", cp.WindowOffset,
		"entities", cp.Entities,
		"relationships", cp.Relationships,
		"skipped_batches", cp.SkippedBatches,
	)
	return nil
}
