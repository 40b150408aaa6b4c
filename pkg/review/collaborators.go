package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conformitas/veridoc/pkg/ai"
	"github.com/conformitas/veridoc/pkg/logger"
)

// Extraction is the raw text of an uploaded document as returned by the
// external extraction service.
type Extraction struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

// Extractor turns uploaded document bytes into text. The extraction routine
// itself runs outside this system.
type Extractor interface {
	Extract(ctx context.Context, document []byte, filename string) (Extraction, error)
}

// Analyzer produces the structured analysis of extracted document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*DocumentAnalysis, error)
}

// HTTPExtractor calls the external extraction service over HTTP.
type HTTPExtractor struct {
	url    string
	client *http.Client
}

// NewHTTPExtractor creates an extractor against the given service URL.
func NewHTTPExtractor(url string, timeout time.Duration) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPExtractor{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Extract posts the document bytes and decodes the extraction response.
func (e *HTTPExtractor) Extract(ctx context.Context, document []byte, filename string) (Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(document))
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	res, err := e.client.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Extraction{}, fmt.Errorf("extraction service returned %d: %s", res.StatusCode, bytes.TrimSpace(body))
	}

	var out Extraction
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Extraction{}, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if out.Text == "" {
		return Extraction{}, errors.New("extraction service returned empty text")
	}
	return out, nil
}

// AIAnalyzer implements Analyzer over the structured-extraction AI surface.
type AIAnalyzer struct {
	client ai.Client
}

// NewAIAnalyzer creates an analyzer backed by the given AI client.
func NewAIAnalyzer(client ai.Client) *AIAnalyzer {
	return &AIAnalyzer{client: client}
}

// Analyze runs the structured analysis call. A nil result with nil error is
// never returned; callers treat an error as a degraded, analysis-less review.
func (a *AIAnalyzer) Analyze(ctx context.Context, text string) (*DocumentAnalysis, error) {
	var analysis DocumentAnalysis
	err := ai.ExtractStructured(ctx, a.client,
		"document_analysis",
		"Structured compliance analysis of one submitted document",
		text,
		&analysis,
		ai.WithSystemPrompts(ai.AnalysisPrompt),
	)
	if err != nil {
		return nil, err
	}

	if len(analysis.SuggestedQueries) > 5 {
		logger.Debug("truncating suggested queries", "count", len(analysis.SuggestedQueries))
		analysis.SuggestedQueries = analysis.SuggestedQueries[:5]
	}
	return &analysis, nil
}
