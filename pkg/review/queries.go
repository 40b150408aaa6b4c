package review

import "strings"

// maxQueries caps the retrieval fan-out per review.
const maxQueries = 8

// baselineQueries are always run regardless of what the analysis suggests,
// so every review checks the core requirements.
var baselineQueries = []string{
	"adhesive bonding class requirements for rail vehicles",
	"bonding personnel qualification and certification requirements",
	"surface preparation and pretreatment requirements for bonded joints",
	"quality assurance and test requirements for adhesive bonds",
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// BuildQueries merges analysis-suggested queries with the fixed baseline,
// deduplicates them case-insensitively, and caps the total. Suggested
// queries come first so document-specific retrieval survives the cap.
func BuildQueries(analysis *DocumentAnalysis) []string {
	candidates := make([]string, 0, maxQueries)
	if analysis != nil {
		candidates = append(candidates, analysis.SuggestedQueries...)
	}
	candidates = append(candidates, baselineQueries...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxQueries)
	for _, q := range candidates {
		norm := normalizeQuery(q)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, strings.TrimSpace(q))
		if len(out) >= maxQueries {
			break
		}
	}
	return out
}
