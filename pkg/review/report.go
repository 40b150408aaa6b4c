package review

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/conformitas/veridoc/pkg/search"
)

const citationsHeading = "## Citations"

// FormatCitations renders the citation section for the final evidence list.
// Citations are always produced from evidence, never by the text model.
func FormatCitations(evidence []search.Evidence) string {
	if len(evidence) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(citationsHeading)
	b.WriteString("\n\n")
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, ev.Reference)
	}
	return b.String()
}

var citationLinePattern = regexp.MustCompile(`^\[(\d+)\]\s+(.+)$`)

// ParseCitations extracts the ordered reference strings from a report's
// citation section. A report without one yields nil.
func ParseCitations(report string) []string {
	idx := strings.Index(report, citationsHeading)
	if idx == -1 {
		return nil
	}

	var refs []string
	for _, line := range strings.Split(report[idx+len(citationsHeading):], "\n") {
		m := citationLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		refs = append(refs, m[2])
	}
	return refs
}

// parseVerdict reads the verdict from the "## Verdict" section of a
// generated report. Anything unparseable defaults to NEEDS-REVISION; the
// model can only grant APPROVED by writing it explicitly.
func parseVerdict(report string) Verdict {
	idx := strings.Index(report, "## Verdict")
	if idx == -1 {
		return VerdictNeedsRevision
	}
	section := report[idx:]
	if end := strings.Index(section[2:], "##"); end != -1 {
		section = section[:end+2]
	}

	upper := strings.ToUpper(section)
	switch {
	case strings.Contains(upper, string(VerdictNeedsRevision)):
		return VerdictNeedsRevision
	case strings.Contains(upper, string(VerdictRejected)):
		return VerdictRejected
	case strings.Contains(upper, string(VerdictApproved)):
		return VerdictApproved
	default:
		return VerdictNeedsRevision
	}
}

var outOfScopeReportPattern = regexp.MustCompile(`(?i)(out of scope|outside the scope|not a bonding|cannot be reviewed against)`)

// isOutOfScopeReport reports whether generated text itself declares the
// document out of scope. Such reports get no citation section appended.
func isOutOfScopeReport(report string) bool {
	return outOfScopeReportPattern.MatchString(report)
}

// fallbackReport is the fixed template used when generation itself fails.
func fallbackReport(reason string) string {
	return fmt.Sprintf(`## Verdict
NEEDS-REVISION — the review could not be completed automatically.

## Overview
The automated review of this document did not finish: %s.

## Summary
No compliance assessment was produced. The document has not been approved and
has not been rejected on content grounds.

## Detailed Analysis
The reviewing service failed before a grounded analysis could be written. No
statement in this report makes any claim about the document content.

## Recommendations
Resubmit the document. If the problem persists, contact the review team with
the document reference.
`, reason)
}
