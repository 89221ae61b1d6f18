// Package ranking orders scored candidates and extracts the top K.
//
// The order is total: score descending, then record identifier ascending,
// then input position ascending. Any strategy therefore produces the same
// output as a full stable sort, regardless of input order or of how scoring
// was scheduled.
package ranking

import (
	"container/heap"
	"slices"

	"github.com/okian/reelsim/internal/domain/model"
)

// DefaultK is the result size used when the caller does not ask for one.
const DefaultK = 10

// heapThreshold is the candidates-per-slot ratio above which a bounded heap
// beats sorting everything.
const heapThreshold = 8

// Less reports whether a ranks ahead of b.
func Less(a, b *model.ScoredCandidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Record.ID != b.Record.ID {
		return a.Record.ID < b.Record.ID
	}
	return a.Index < b.Index
}

func compare(a, b model.ScoredCandidate) int {
	switch {
	case Less(&a, &b):
		return -1
	case Less(&b, &a):
		return 1
	default:
		return 0
	}
}

// SelectTopK returns the best min(k, len(scored)) candidates in rank order.
// k <= 0 selects DefaultK. The input is not modified.
func SelectTopK(scored []model.ScoredCandidate, k int) model.RankedResult {
	if k <= 0 {
		k = DefaultK
	}
	if len(scored) > k*heapThreshold {
		return HeapSelect(scored, k)
	}
	return SortSelect(scored, k)
}

// SortSelect sorts a copy of the full candidate set and truncates it.
func SortSelect(scored []model.ScoredCandidate, k int) model.RankedResult {
	if k <= 0 {
		k = DefaultK
	}
	sorted := slices.Clone(scored)
	slices.SortStableFunc(sorted, compare)
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return toResult(sorted)
}

// HeapSelect keeps the k best candidates in a bounded heap whose root is the
// worst of the kept set, then drains it in rank order.
func HeapSelect(scored []model.ScoredCandidate, k int) model.RankedResult {
	if k <= 0 {
		k = DefaultK
	}
	h := make(worstFirst, 0, min(k, len(scored)))
	for i := range scored {
		c := scored[i]
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if Less(&c, &h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]model.ScoredCandidate, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(model.ScoredCandidate)
	}
	return toResult(out)
}

func toResult(sorted []model.ScoredCandidate) model.RankedResult {
	result := make(model.RankedResult, len(sorted))
	for i, c := range sorted {
		result[i] = model.Match{
			Record:    c.Record,
			Score:     c.Score,
			Breakdown: c.Breakdown,
		}
	}
	return result
}

// worstFirst is a heap.Interface with the lowest-ranked candidate at the root.
type worstFirst []model.ScoredCandidate

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return Less(&h[j], &h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x any) {
	*h = append(*h, x.(model.ScoredCandidate))
}

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
