// Package aggregate sums vote weight per judgement for one post.
package aggregate

import (
	"aitaflow/domain/judgement"
	"aitaflow/domain/thread"
)

// DefaultMinWeight is the score a response must exceed to count.
const DefaultMinWeight = 25

// Weights maps each judgement seen among relevant responses to its summed
// score. Judgements that never appeared are absent and read as zero.
type Weights map[judgement.Judgement]int

// Aggregate keeps judged, non-automated responses scoring strictly above
// minWeight and sums their scores per judgement.
func Aggregate(responses []thread.Response, minWeight int) Weights {
	weights := Weights{}
	for _, r := range responses {
		if !r.Relevant(minWeight) {
			continue
		}
		weights[r.Judgement] += r.Score
	}
	return weights
}

// Get returns the summed weight for j, zero when j never appeared.
func (w Weights) Get(j judgement.Judgement) int {
	return w[j]
}

// Total sums every category.
func (w Weights) Total() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// Columns returns one value per judgement in the fixed order.
func (w Weights) Columns() []int {
	out := make([]int, judgement.Count)
	for _, j := range judgement.All() {
		out[j.Index()] = w[j]
	}
	return out
}

// ByCode keys the weights by short code, the shape downstream tables use.
func (w Weights) ByCode() map[string]int {
	out := make(map[string]int, len(w))
	for j, v := range w {
		out[j.String()] = v
	}
	return out
}
