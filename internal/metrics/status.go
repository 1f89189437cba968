package metrics

import "sort"

// StatusCount is one status label's completed-request count.
type StatusCount struct {
	Status string
	Count  int
}

// FlattenStatusCounts converts a status->count map into a slice sorted by
// descending count, then by status for stability.
func FlattenStatusCounts(counts map[string]int) []StatusCount {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		rows = append(rows, StatusCount{Status: status, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Status < rows[j].Status
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
