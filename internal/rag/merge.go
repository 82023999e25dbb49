package rag

import "sort"

// MergeResults is the ranking contract shared by all facets: deduplicate by
// the matched item's id keeping the highest score per id, sort by score
// descending with ties broken by id ascending, and truncate to topK.
//
// The same inputs always produce the same ordering. A topK <= 0 means no
// truncation.
func MergeResults(results []SimilarityResult[Retrievable], topK int) []SimilarityResult[Retrievable] {
	best := make(map[string]SimilarityResult[Retrievable], len(results))
	for _, r := range results {
		id := r.Match.ElementID()
		if prev, ok := best[id]; ok && prev.Score >= r.Score {
			continue
		}
		best[id] = r
	}

	merged := make([]SimilarityResult[Retrievable], 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Match.ElementID() < merged[j].Match.ElementID()
	})

	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}
