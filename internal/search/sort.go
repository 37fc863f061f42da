package search

import "sort"

// SortResults sorts results by score (descending), then by name (ascending).
func SortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Doc.Name < results[j].Doc.Name
		}
		return results[i].Score > results[j].Score
	})
}
