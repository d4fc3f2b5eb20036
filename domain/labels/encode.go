package labels

import (
	"fmt"

	"aitaflow/domain/judgement"
)

// DefaultThreshold is the share a judgement needs to be switched on in the
// multilabel encoding.
const DefaultThreshold = 0.2

// Set bundles every encoding of one distribution.
type Set struct {
	Multiclass []int     `json:"multiclass"`
	Multilabel []int     `json:"multilabel"`
	Regression []float64 `json:"regression"`
	TwoClass   []int     `json:"twoclass_multilabel"`
}

// Encode derives all four label vectors from d.
func Encode(d Distribution, threshold float64) Set {
	multiclass := Multiclass(d)
	twoClass, _ := TwoClassMultilabel(multiclass) // multiclass always has judgement.Count entries
	return Set{
		Multiclass: multiclass,
		Multilabel: Multilabel(d, threshold),
		Regression: Regression(d),
		TwoClass:   twoClass,
	}
}

// Multiclass is the one-hot vector of d.Top(). An all-zero distribution
// still selects the first judgement.
func Multiclass(d Distribution) []int {
	out := make([]int, judgement.Count)
	out[d.Top().Index()] = 1
	return out
}

// Multilabel switches on every judgement whose share is at least threshold.
func Multilabel(d Distribution, threshold float64) []int {
	out := make([]int, judgement.Count)
	for _, j := range judgement.All() {
		if d[j.Index()] >= threshold {
			out[j.Index()] = 1
		}
	}
	return out
}

// Regression returns the raw shares in judgement order.
func Regression(d Distribution) []float64 {
	out := make([]float64, judgement.Count)
	for _, j := range judgement.All() {
		out[j.Index()] = d[j.Index()]
	}
	return out
}

// TwoClassMultilabel folds a multiclass vector into two classes: poster at
// fault (YTA, ESH) and poster not at fault (NTA, NAH).
func TwoClassMultilabel(v []int) ([]int, error) {
	if len(v) != judgement.Count {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVectorLength, len(v), judgement.Count)
	}
	return []int{
		v[judgement.YTA.Index()] + v[judgement.ESH.Index()],
		v[judgement.NTA.Index()] + v[judgement.NAH.Index()],
	}, nil
}
