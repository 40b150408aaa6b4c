package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/conformitas/veridoc/pkg/ai"
	"github.com/conformitas/veridoc/pkg/logger"
	"github.com/conformitas/veridoc/pkg/search"
)

// Searcher is the retrieval surface the pipeline fans out over.
type Searcher interface {
	HybridSearch(ctx context.Context, query string, topK, maxHops, maxGraphChunks int) ([]search.Evidence, error)
}

// Config bounds the retrieval and evidence budgets of a review.
type Config struct {
	TopK           int
	MaxHops        int
	MaxGraphChunks int
	MaxEvidence    int
	MaxGraphOrigin int
	FanOut         int
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.MaxHops <= 0 {
		c.MaxHops = 2
	}
	if c.MaxGraphChunks <= 0 {
		c.MaxGraphChunks = 4
	}
	if c.MaxEvidence <= 0 {
		c.MaxEvidence = 6
	}
	if c.MaxGraphOrigin <= 0 {
		c.MaxGraphOrigin = 4
	}
	if c.FanOut <= 0 {
		c.FanOut = 4
	}
	return c
}

// Document is one uploaded file submitted for review.
type Document struct {
	Name string
	Data []byte
}

// Pipeline runs the review state machine. Every stage emits a progress
// event; every failure path resolves to a conservative verdict.
type Pipeline struct {
	extractor Extractor
	analyzer  Analyzer
	searcher  Searcher
	ai        ai.Client
	cfg       Config
}

// NewPipeline creates a review pipeline.
func NewPipeline(extractor Extractor, analyzer Analyzer, searcher Searcher, aiClient ai.Client, cfg Config) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		analyzer:  analyzer,
		searcher:  searcher,
		ai:        aiClient,
		cfg:       cfg.withDefaults(),
	}
}

func emitStage(emit func(Event), stage Stage) {
	emit(Event{Type: "stage", Stage: stage})
}

// terminate writes a short explanatory body for a review that ends before a
// grounded report exists, falling back to the fixed template when even that
// generation fails.
func (p *Pipeline) terminate(ctx context.Context, emit func(Event), verdict Verdict, reason string) Result {
	body, err := p.ai.GenerateCompletion(ctx, fmt.Sprintf(ai.NoEvidencePrompt, reason))
	if err != nil || strings.TrimSpace(body) == "" {
		body = fallbackReport(reason)
	} else {
		body = fmt.Sprintf("## Verdict\n%s\n\n%s", verdict, body)
	}

	emit(Event{Type: "content", Content: body})
	emit(Event{Type: "verdict", Content: string(verdict)})
	return Result{Verdict: verdict, Report: body}
}

// retrieve fans the queries out over the searcher with bounded concurrency.
// Each query fails independently into an empty slot; results are joined in
// query order before filtering and ranking.
func (p *Pipeline) retrieve(ctx context.Context, queries []string) []search.Evidence {
	slots := make([][]search.Evidence, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FanOut)
	for i, query := range queries {
		g.Go(func() error {
			refs, err := p.searcher.HybridSearch(gctx, query, p.cfg.TopK, p.cfg.MaxHops, p.cfg.MaxGraphChunks)
			if err != nil {
				logger.Warn("retrieval query failed", "query", query, "error", err)
				return nil
			}
			slots[i] = refs
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	joined := make([]search.Evidence, 0)
	for _, slot := range slots {
		joined = append(joined, slot...)
	}

	filtered := search.Filter(joined)
	return search.RankAndSelect(filtered, p.cfg.MaxEvidence, p.cfg.MaxGraphOrigin)
}

func evidenceBlock(evidence []search.Evidence) string {
	var b strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, ev.Reference, strings.TrimSpace(ev.Content))
	}
	return b.String()
}

func reasonsBlock(reasons []string) string {
	if len(reasons) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, r := range reasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

// draft streams report generation, forwarding content tokens to emit, and
// returns the accumulated text.
func (p *Pipeline) draft(ctx context.Context, emit func(Event), docText string, evidence []search.Evidence, reasons []string) (string, error) {
	systemPrompt := fmt.Sprintf(ai.ReportPrompt, evidenceBlock(evidence), reasonsBlock(reasons))

	stream, err := p.ai.GenerateChatStream(ctx,
		[]ai.ChatMessage{{Role: "user", Message: docText}},
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return "", err
	}

	var report strings.Builder
	for event := range stream {
		if event.Type != "content" {
			continue
		}
		report.WriteString(event.Content)
		emit(Event{Type: "content", Content: event.Content})
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if strings.TrimSpace(report.String()) == "" {
		return "", errors.New("generation produced no output")
	}
	return report.String(), nil
}

// Run executes one review end to end. Stages run in strict order and every
// failure resolves fail-closed: extraction failure and empty evidence end in
// NEEDS-REVISION, an out-of-scope document ends in REJECTED with zero
// citations, and a firing critical reason overrides whatever generation
// concluded. APPROVED can only enter through parseVerdict.
func (p *Pipeline) Run(ctx context.Context, documents []Document, emit func(Event)) (Result, error) {
	emitStage(emit, StageUploaded)
	if len(documents) == 0 {
		return Result{}, errors.New("no document submitted")
	}
	if len(documents) > 1 {
		logger.Warn("multiple documents submitted, reviewing the first",
			"count", len(documents), "chosen", documents[0].Name)
	}
	doc := documents[0]

	emitStage(emit, StageExtracting)
	extraction, err := p.extractor.Extract(ctx, doc.Data, doc.Name)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Error("extraction failed", "document", doc.Name, "error", err)
		return p.terminate(ctx, emit, VerdictNeedsRevision,
			"the document text could not be extracted"), nil
	}

	emitStage(emit, StageAnalyzing)
	analysis, err := p.analyzer.Analyze(ctx, extraction.Text)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Warn("analysis failed, continuing without it", "error", err)
		analysis = nil
	}

	emitStage(emit, StageScopeGate)
	decision := EvaluateScope(analysis, extraction.Text)
	if decision.OutOfScope {
		logger.Info("document rejected as out of scope",
			"out_score", decision.OutScore, "in_score", decision.InScore,
			"signals", decision.MatchedLabels)
		return p.terminate(ctx, emit, VerdictRejected,
			"the document does not belong to the rail vehicle adhesive bonding domain"), nil
	}

	emitStage(emit, StageRetrieving)
	queries := BuildQueries(analysis)
	evidence := p.retrieve(ctx, queries)
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if len(evidence) == 0 {
		logger.Warn("no evidence retrieved", "queries", len(queries))
		return p.terminate(ctx, emit, VerdictNeedsRevision,
			"no corpus evidence could be retrieved for this document"), nil
	}

	emitStage(emit, StageDrafting)
	reasons := CriticalReasons(analysis)
	report, err := p.draft(ctx, emit, extraction.Text, evidence, reasons)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Error("report generation failed, using fallback", "error", err)
		report = fallbackReport("report generation failed")
		emit(Event{Type: "content", Content: report})
	}

	verdict := parseVerdict(report)
	if len(reasons) > 0 {
		verdict = VerdictNeedsRevision
	}

	result := Result{
		Verdict:         verdict,
		Report:          report,
		CriticalReasons: reasons,
	}

	if !isOutOfScopeReport(report) {
		citations := FormatCitations(evidence)
		result.Report = report + "\n\n" + citations
		result.Citations = ParseCitations(citations)
		for _, ref := range result.Citations {
			emit(Event{Type: "citation", Content: ref})
		}
	}

	emit(Event{Type: "verdict", Content: string(verdict)})
	return result, nil
}
