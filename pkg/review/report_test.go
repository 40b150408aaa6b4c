package review

import (
	"reflect"
	"testing"

	"github.com/conformitas/veridoc/pkg/search"
)

func sampleEvidence() []search.Evidence {
	return []search.Evidence{
		{Reference: "DIN EN 17460-1, Clause 4.2.3 \"Bonding classes\" (p. 12)"},
		{Reference: "DIN EN 17460-1, Part 1, Clause 8.1 \"Personnel\" (pp. 30-31)"},
		{Reference: "DIN 6701-2, Clause 5 \"Certification\" (p. 8)"},
	}
}

func TestCitationRoundTrip(t *testing.T) {
	evidence := sampleEvidence()
	formatted := FormatCitations(evidence)

	got := ParseCitations(formatted)
	want := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		want = append(want, ev.Reference)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCitations(FormatCitations()) = %v, want %v", got, want)
	}
}

func TestFormatCitationsEmpty(t *testing.T) {
	if got := FormatCitations(nil); got != "" {
		t.Errorf("FormatCitations(nil) = %q, want empty", got)
	}
}

func TestParseCitationsNoSection(t *testing.T) {
	if got := ParseCitations("## Verdict\nAPPROVED\n"); got != nil {
		t.Errorf("ParseCitations() = %v, want nil for a report without citations", got)
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		report string
		want   Verdict
	}{
		{
			name:   "approved",
			report: "## Verdict\nAPPROVED\nThe document satisfies all cited requirements.\n## Overview\n...",
			want:   VerdictApproved,
		},
		{
			name:   "needs revision",
			report: "## Verdict\nNEEDS-REVISION\nMissing test evidence.\n## Overview\n...",
			want:   VerdictNeedsRevision,
		},
		{
			name:   "rejected",
			report: "## Verdict\nREJECTED\nOut of scope.\n## Overview\n...",
			want:   VerdictRejected,
		},
		{
			name:   "missing section defaults conservative",
			report: "The document looks fine to me.",
			want:   VerdictNeedsRevision,
		},
		{
			name:   "unparseable section defaults conservative",
			report: "## Verdict\nLooks good!\n## Overview\n...",
			want:   VerdictNeedsRevision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseVerdict(tt.report); got != tt.want {
				t.Errorf("parseVerdict() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsOutOfScopeReport(t *testing.T) {
	if !isOutOfScopeReport("This document is out of scope for the bonding review.") {
		t.Error("isOutOfScopeReport() = false for an out-of-scope rejection")
	}
	if isOutOfScopeReport("## Verdict\nAPPROVED\nAll requirements are met.") {
		t.Error("isOutOfScopeReport() = true for a normal report")
	}
}

func TestFallbackReportIsConservative(t *testing.T) {
	report := fallbackReport("generation failed")
	if parseVerdict(report) != VerdictNeedsRevision {
		t.Errorf("fallback report verdict = %q, want NEEDS-REVISION", parseVerdict(report))
	}
}
