package search

import "sort"

// clauseKey is the dedup key for evidence: two references to the same clause
// of the same part are the same citation regardless of how they were found.
func clauseKey(ref Evidence) string {
	return ref.Section + "|" + ref.Part + "|" + ref.Clause
}

// preferred reports whether a beats b for the same clause key: vector origin
// wins over graph origin, then higher score wins.
func preferred(a, b Evidence) bool {
	if a.Origin != b.Origin {
		return a.Origin == OriginVector
	}
	return a.Score > b.Score
}

// RankAndSelect deduplicates references by (section, part, clause), orders
// them vector-origin first then by score descending, and selects up to
// maxTotal entries while separately capping graph-origin entries at maxGraph.
func RankAndSelect(refs []Evidence, maxTotal, maxGraph int) []Evidence {
	best := make(map[string]Evidence, len(refs))
	order := make([]string, 0, len(refs))
	for _, ref := range refs {
		key := clauseKey(ref)
		current, ok := best[key]
		if !ok {
			best[key] = ref
			order = append(order, key)
			continue
		}
		if preferred(ref, current) {
			best[key] = ref
		}
	}

	deduped := make([]Evidence, 0, len(order))
	for _, key := range order {
		deduped = append(deduped, best[key])
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return preferred(deduped[i], deduped[j])
	})

	out := make([]Evidence, 0, maxTotal)
	graphCount := 0
	for _, ref := range deduped {
		if len(out) >= maxTotal {
			break
		}
		if ref.Origin == OriginGraph {
			if graphCount >= maxGraph {
				continue
			}
			graphCount++
		}
		out = append(out, ref)
	}
	return out
}
