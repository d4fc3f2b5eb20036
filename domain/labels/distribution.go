// Package labels turns aggregated judgement weights into a distribution and
// the training-label encodings derived from it.
package labels

import (
	"encoding/json"
	"errors"
	"fmt"

	"aitaflow/domain/aggregate"
	"aitaflow/domain/judgement"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrIncompleteDistribution means a distribution lacked a judgement entry.
	ErrIncompleteDistribution = errors.New("distribution is missing a judgement")
	// ErrVectorLength means a label vector had the wrong number of entries.
	ErrVectorLength = errors.New("label vector has wrong length")
)

// Distribution holds one fraction per judgement, indexed by Judgement.Index.
// Iterating it visits judgements in their fixed order.
type Distribution [judgement.Count]float64

// BuildDistribution divides each category's weight by total. The caller
// supplies total; a non-positive total yields the all-zero distribution.
func BuildDistribution(w aggregate.Weights, total float64) Distribution {
	var d Distribution
	if total <= 0 {
		return d
	}
	for _, j := range judgement.All() {
		d[j.Index()] = float64(w.Get(j)) / total
	}
	return d
}

// DistributionFromMap converts a code-keyed mapping. Every judgement must be
// present; a missing key is reported rather than read as zero.
func DistributionFromMap(m map[string]float64) (Distribution, error) {
	var d Distribution
	for _, j := range judgement.All() {
		v, ok := m[j.String()]
		if !ok {
			return d, fmt.Errorf("%w: %s", ErrIncompleteDistribution, j)
		}
		d[j.Index()] = v
	}
	return d, nil
}

// DistributionFromSlice converts a vector in judgement order.
func DistributionFromSlice(values []float64) (Distribution, error) {
	var d Distribution
	if len(values) != judgement.Count {
		return d, fmt.Errorf("%w: got %d, want %d", ErrVectorLength, len(values), judgement.Count)
	}
	copy(d[:], values)
	return d, nil
}

// Get returns the fraction for j.
func (d Distribution) Get(j judgement.Judgement) float64 {
	return d[j.Index()]
}

// Sum is 1 for a non-degenerate distribution and 0 otherwise.
func (d Distribution) Sum() float64 {
	return floats.Sum(d[:])
}

// IsZero reports the degenerate, no-relevant-responses case.
func (d Distribution) IsZero() bool {
	return d == Distribution{}
}

// Top is the judgement with the largest share; ties go to the earliest
// judgement in iteration order.
func (d Distribution) Top() judgement.Judgement {
	return judgement.All()[floats.MaxIdx(d[:])]
}

// Map returns the distribution keyed by short code.
func (d Distribution) Map() map[string]float64 {
	out := make(map[string]float64, judgement.Count)
	for _, j := range judgement.All() {
		out[j.String()] = d[j.Index()]
	}
	return out
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	parsed, err := DistributionFromMap(m)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
