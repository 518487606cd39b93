// Package rankfusion merges ranked result lists with weighted reciprocal
// rank fusion.
package rankfusion

import (
	"fmt"
	"sort"
)

// rrfK dampens the contribution of lower-ranked items. 60 is the constant
// from the original RRF paper and works well without tuning.
const rrfK = 60

// Fuse merges ranked lists into a single list of at most limit items.
//
// Each item contributes weight/(60+rank) per list it appears in, with rank
// starting at 1. Scores accumulate across lists for items sharing the same
// key. Ties preserve first-appearance order, and the first occurrence of a
// key supplies the returned payload.
//
// A nil weights slice weighs every list at 1.0; otherwise weights must have
// exactly one entry per list.
func Fuse[T any, K comparable](lists [][]T, limit int, weights []float64, key func(T) K) ([]T, error) {
	if key == nil {
		return nil, fmt.Errorf("rankfusion: key function is required")
	}
	if weights == nil {
		weights = make([]float64, len(lists))
		for i := range weights {
			weights[i] = 1.0
		}
	}
	if len(weights) != len(lists) {
		return nil, fmt.Errorf("rankfusion: %d weights for %d lists", len(weights), len(lists))
	}

	type entry struct {
		item  T
		score float64
		order int
	}

	entries := make(map[K]*entry)
	ordered := make([]K, 0)

	for li, list := range lists {
		weight := weights[li]
		for rank, item := range list {
			k := key(item)
			e, ok := entries[k]
			if !ok {
				e = &entry{item: item, order: len(ordered)}
				entries[k] = e
				ordered = append(ordered, k)
			}
			e.score += weight / float64(rrfK+rank+1)
		}
	}

	results := make([]*entry, 0, len(ordered))
	for _, k := range ordered {
		results = append(results, entries[k])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	fused := make([]T, len(results))
	for i, e := range results {
		fused[i] = e.item
	}
	return fused, nil
}
