package review

import (
	"fmt"
	"regexp"
	"strings"
)

// supersededStandards lists superseded standard series and their successors.
// DIN 6701 parts 1-4 were withdrawn in favor of DIN EN 17460-1.
var supersededStandards = []struct {
	pattern   *regexp.Regexp
	successor string
}{
	{pattern: regexp.MustCompile(`(?i)\bdin\s*6701(-[1-4])?\b`), successor: "DIN EN 17460-1"},
}

// safetyCriticalPattern marks scopes where a bonding certificate is
// mandatory (bonding class A1/A2 work and explicitly safety-critical parts).
var safetyCriticalPattern = regexp.MustCompile(`(?i)\b(safety[- ]critical|class\s*a[12]\b|klebklasse\s*a[12])\b`)

// certificateEvidencePattern recognizes a named bonding certificate.
var certificateEvidencePattern = regexp.MustCompile(`(?i)\b(din\s*6701-2|din\s*en\s*17460|bonding certificate|klebzertifikat)\b`)

func joinedAnalysisText(analysis *DocumentAnalysis) string {
	parts := []string{analysis.Title, analysis.DocumentType}
	parts = append(parts, analysis.StandardsCited...)
	parts = append(parts, analysis.Flags...)
	parts = append(parts, analysis.DRSItems...)
	return strings.Join(parts, "\n")
}

// CriticalReasons runs the deterministic rules that force a verdict. Any
// returned reason mandates NEEDS-REVISION regardless of what generation
// concludes.
func CriticalReasons(analysis *DocumentAnalysis) []string {
	if analysis == nil {
		return nil
	}

	reasons := make([]string, 0)
	standards := strings.Join(analysis.StandardsCited, "\n")

	for _, rule := range supersededStandards {
		if !rule.pattern.MatchString(standards) {
			continue
		}
		if strings.Contains(strings.ToLower(standards), strings.ToLower(rule.successor)) {
			continue
		}
		reasons = append(reasons, fmt.Sprintf(
			"The document cites a superseded standard (%s) without confirming the current version %s.",
			strings.TrimSpace(rule.pattern.FindString(standards)), rule.successor))
	}

	text := joinedAnalysisText(analysis)
	if safetyCriticalPattern.MatchString(text) {
		certificates := strings.Join(analysis.Certificates, "\n")
		if !certificateEvidencePattern.MatchString(certificates) {
			reasons = append(reasons,
				"The document covers a safety-critical bonding scope but names no matching bonding certificate.")
		}
	}

	return reasons
}
