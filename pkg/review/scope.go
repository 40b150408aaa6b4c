package review

import (
	"regexp"
	"strings"
)

// scopeSignal is one weighted pattern in the scope classifier. Signals are
// data, not code, so thresholds and patterns stay independently testable.
type scopeSignal struct {
	label   string
	pattern *regexp.Regexp
	weight  int
}

// rawTextPrefixLimit bounds how much raw extracted text the classifier reads.
const rawTextPrefixLimit = 4000

// Thresholds for declaring a document out of scope by score.
const (
	outOfScopeScoreThreshold = 6
	outOfScopeMargin         = 2
)

var outOfScopeSignals = []scopeSignal{
	{label: "employment document", pattern: regexp.MustCompile(`(?i)\b(employment|employee|confidentiality agreement|non-disclosure|nda)\b`), weight: 4},
	{label: "legal contract", pattern: regexp.MustCompile(`(?i)\b(contract of sale|lease|terms and conditions|privacy policy)\b`), weight: 4},
	{label: "financial document", pattern: regexp.MustCompile(`(?i)\b(invoice|balance sheet|payroll|quarterly report)\b`), weight: 3},
	{label: "marketing material", pattern: regexp.MustCompile(`(?i)\b(brochure|newsletter|press release)\b`), weight: 2},
	{label: "medical content", pattern: regexp.MustCompile(`(?i)\b(patient|diagnosis|prescription)\b`), weight: 3},
}

var inScopeSignals = []scopeSignal{
	{label: "bonding terminology", pattern: regexp.MustCompile(`(?i)\b(adhesive|bonding|bonded joint|klebe?n?|verklebung)\b`), weight: 3},
	{label: "domain standard", pattern: regexp.MustCompile(`(?i)\b(din\s*6701|din\s*en\s*17460|en\s*45545)\b`), weight: 4},
	{label: "rail vehicle context", pattern: regexp.MustCompile(`(?i)\b(rail vehicle|rolling stock|carbody|schienenfahrzeug)\b`), weight: 3},
	{label: "surface preparation", pattern: regexp.MustCompile(`(?i)\b(surface (preparation|treatment)|primer|pre-?treatment)\b`), weight: 2},
	{label: "bonding certification", pattern: regexp.MustCompile(`(?i)\b(bonding (certificate|supervisor)|eas|klebfachingenieur)\b`), weight: 3},
}

// nonDomainTitlePattern matches titles that clearly belong to another domain.
var nonDomainTitlePattern = regexp.MustCompile(`(?i)\b(agreement|contract|invoice|policy|payroll|newsletter|minutes)\b`)

// ScopeDecision is the scope gate output.
type ScopeDecision struct {
	OutOfScope    bool
	OutScore      int
	InScore       int
	MatchedLabels []string
}

func scoreSignals(signals []scopeSignal, text string) (int, []string) {
	score := 0
	labels := make([]string, 0)
	for _, s := range signals {
		if s.pattern.MatchString(text) {
			score += s.weight
			labels = append(labels, s.label)
		}
	}
	return score, labels
}

// hasStructuralEvidence reports whether the analysis carries any of the
// domain artifacts a bonding document would have.
func hasStructuralEvidence(analysis *DocumentAnalysis) bool {
	if analysis == nil {
		return false
	}
	if len(analysis.Materials) > 0 || len(analysis.TestResults) > 0 ||
		len(analysis.Certificates) > 0 || len(analysis.StandardsCited) > 0 ||
		len(analysis.DRSItems) > 0 {
		return true
	}
	return analysis.DocumentType != "" && analysis.DocumentType != "other"
}

// EvaluateScope classifies whether the document belongs to the reviewable
// domain. It scores weighted signals against the analysis fields and a
// bounded prefix of raw text. A document is out of scope when its title is
// clearly non-domain and no structural evidence exists, or when the
// out-of-scope score exceeds the threshold and the in-scope score by the
// fixed margin.
func EvaluateScope(analysis *DocumentAnalysis, rawText string) ScopeDecision {
	var parts []string
	if analysis != nil {
		parts = append(parts, analysis.Title)
		parts = append(parts, analysis.Materials...)
		parts = append(parts, analysis.StandardsCited...)
		parts = append(parts, analysis.Certificates...)
		parts = append(parts, analysis.TestResults...)
	}
	if len(rawText) > rawTextPrefixLimit {
		rawText = rawText[:rawTextPrefixLimit]
	}
	parts = append(parts, rawText)
	text := strings.Join(parts, "\n")

	outScore, outLabels := scoreSignals(outOfScopeSignals, text)
	inScore, inLabels := scoreSignals(inScopeSignals, text)

	decision := ScopeDecision{
		OutScore:      outScore,
		InScore:       inScore,
		MatchedLabels: append(outLabels, inLabels...),
	}

	if analysis != nil && nonDomainTitlePattern.MatchString(analysis.Title) && !hasStructuralEvidence(analysis) {
		decision.OutOfScope = true
		return decision
	}
	if outScore > outOfScopeScoreThreshold && outScore-inScore > outOfScopeMargin {
		decision.OutOfScope = true
	}
	return decision
}
