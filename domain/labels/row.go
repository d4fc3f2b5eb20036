package labels

import (
	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/thread"
)

// Row is one post joined with its aggregated judgements and every label.
type Row struct {
	RunID core.RunID `json:"run_id"`
	thread.Post
	Weights      aggregate.Weights   `json:"weights"`
	Total        int                 `json:"total"`
	Judgement    judgement.Judgement `json:"judgement"`
	Distribution Distribution        `json:"distribution"`
	Labels       Set                 `json:"labels"`
}

// NewRow labels a post. The total is the sum over all judgement columns,
// with missing categories counted as zero.
func NewRow(runID core.RunID, post thread.Post, weights aggregate.Weights, threshold float64) Row {
	if weights == nil {
		weights = aggregate.Weights{}
	}
	total := weights.Total()
	dist := BuildDistribution(weights, float64(total))
	return Row{
		RunID:        runID,
		Post:         post,
		Weights:      weights,
		Total:        total,
		Judgement:    dist.Top(),
		Distribution: dist,
		Labels:       Encode(dist, threshold),
	}
}
