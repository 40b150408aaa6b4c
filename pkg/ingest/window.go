package ingest

import (
	"fmt"
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"

	"github.com/conformitas/veridoc/pkg/corpus"
)

// overlapSentences is how many trailing sentences of the previous window are
// prepended to the next one as continuity context.
const overlapSentences = 2

// Window is a group of adjacent chunks from the same section and part, merged
// up to a token budget for one extraction call.
type Window struct {
	ID       string
	Section  string
	Part     string
	ChunkIDs []string
	Text     string
}

// TokenCounter reports the token length of a text.
type TokenCounter func(text string) int

// EncodingTokenCounter returns a counter over the o200k_base encoding.
func EncodingTokenCounter() (TokenCounter, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// sentenceTail returns the last n sentences of text, cheaply approximated by
// splitting on sentence-ending punctuation.
func sentenceTail(text string, n int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || n <= 0 {
		return ""
	}

	ends := make([]int, 0)
	for i, r := range trimmed {
		if r == '.' || r == '!' || r == '?' {
			ends = append(ends, i)
		}
	}
	if len(ends) <= n {
		return trimmed
	}
	start := ends[len(ends)-1-n] + 1
	return strings.TrimSpace(trimmed[start:])
}

// BuildWindows sorts chunks by (section, part, clause) and merges adjacent
// chunks sharing section and part into windows up to tokenBudget tokens. Each
// window after the first in a section/part run carries a short sentence
// overlap from the tail of its predecessor; the overlap resets whenever the
// section or part changes.
func BuildWindows(chunks []corpus.Chunk, tokenBudget int, countTokens TokenCounter) ([]Window, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	sorted := make([]corpus.Chunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Section != sorted[j].Section {
			return sorted[i].Section < sorted[j].Section
		}
		if sorted[i].Part != sorted[j].Part {
			return sorted[i].Part < sorted[j].Part
		}
		return sorted[i].Clause < sorted[j].Clause
	})

	windows := make([]Window, 0)
	var current *Window
	var currentTokens int
	var previousTail string

	flush := func() error {
		if current == nil {
			return nil
		}
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate window id: %w", err)
		}
		current.ID = id
		windows = append(windows, *current)
		previousTail = sentenceTail(current.Text, overlapSentences)
		current = nil
		currentTokens = 0
		return nil
	}

	for _, chunk := range sorted {
		chunkTokens := countTokens(chunk.Content)

		if current != nil {
			sameGroup := current.Section == chunk.Section && current.Part == chunk.Part
			if !sameGroup || currentTokens+chunkTokens > tokenBudget {
				if err := flush(); err != nil {
					return nil, err
				}
				if !sameGroup {
					previousTail = ""
				}
			}
		}

		if current == nil {
			w := Window{Section: chunk.Section, Part: chunk.Part}
			if previousTail != "" {
				w.Text = previousTail + "\n\n"
				currentTokens = countTokens(previousTail)
			}
			current = &w
		}

		if current.Text != "" && !strings.HasSuffix(current.Text, "\n\n") {
			current.Text += "\n\n"
		}
		current.Text += chunk.Content
		current.ChunkIDs = append(current.ChunkIDs, chunk.ID)
		currentTokens += chunkTokens
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return windows, nil
}
