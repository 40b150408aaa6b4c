package search

import (
	"regexp"
	"strings"
)

// minContentLength is the shortest content an evidence reference may carry.
// Anything below it is a heading fragment or stray line, not citable text.
const minContentLength = 40

// tocArtifactPattern matches table-of-contents leftovers: a dot leader
// trailed by a page number, e.g. "Adhesive classes ......... 12".
var tocArtifactPattern = regexp.MustCompile(`\.{3,}\s*\d+\s*$`)

// genericHeadings are section titles too unspecific to cite when they were
// reached through graph expansion rather than similarity-matched.
var genericHeadings = map[string]struct{}{
	"scope":                 {},
	"general":               {},
	"introduction":          {},
	"normative references":  {},
	"terms and definitions": {},
	"bibliography":          {},
	"annex":                 {},
	"foreword":              {},
}

// boilerplateLabels are form-field labels that survive corpus extraction but
// carry no normative content.
var boilerplateLabels = []string{
	"name:",
	"date:",
	"signature",
	"page intentionally",
	"revision history",
	"document number",
}

func isGenericHeading(title string) bool {
	_, ok := genericHeadings[strings.ToLower(strings.TrimSpace(title))]
	return ok
}

func isBoilerplateLabel(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, label := range boilerplateLabels {
		if strings.Contains(t, label) {
			return true
		}
	}
	return false
}

// Filter drops references that would pollute the evidence list: entries with
// no clause identifier, too-short content, table-of-contents artifacts,
// generic headings reached only through graph expansion, and boilerplate
// form-field labels.
func Filter(refs []Evidence) []Evidence {
	out := make([]Evidence, 0, len(refs))
	for _, ref := range refs {
		switch {
		case strings.TrimSpace(ref.Clause) == "":
			continue
		case len(strings.TrimSpace(ref.Content)) < minContentLength:
			continue
		case tocArtifactPattern.MatchString(ref.Title):
			continue
		case ref.Origin == OriginGraph && isGenericHeading(ref.Title):
			continue
		case isBoilerplateLabel(ref.Title):
			continue
		}
		out = append(out, ref)
	}
	return out
}
