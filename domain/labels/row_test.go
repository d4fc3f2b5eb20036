package labels

import (
	"encoding/json"
	"testing"

	"aitaflow/domain/aggregate"
	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow(t *testing.T) {
	post := thread.Post{ID: "fui7gp", Title: "AITA for labelling data?", Score: 1200}
	row := NewRow("run-1", post, scenarioWeights(), DefaultThreshold)

	assert.Equal(t, core.RunID("run-1"), row.RunID)
	assert.Equal(t, core.PostID("fui7gp"), row.ID)
	assert.Equal(t, 34, row.Total)
	assert.Equal(t, judgement.YTA, row.Judgement)
	assert.InDelta(t, 1.0, row.Distribution.Sum(), 1e-9)
	assert.Equal(t, []int{1, 0, 0, 0}, row.Labels.Multiclass)
	assert.Equal(t, []int{1, 0}, row.Labels.TwoClass)
}

func TestNewRowWithoutResponses(t *testing.T) {
	row := NewRow("run-1", thread.Post{ID: "empty"}, nil, DefaultThreshold)

	assert.Equal(t, 0, row.Total)
	assert.True(t, row.Distribution.IsZero())
	assert.Equal(t, []int{0, 0, 0, 0}, row.Labels.Multilabel)
	assert.Equal(t, []float64{0, 0, 0, 0}, row.Labels.Regression)
	assert.Equal(t, []int{1, 0, 0, 0}, row.Labels.Multiclass)
	assert.NotNil(t, row.Weights)
}

func TestRowJSON(t *testing.T) {
	row := NewRow("run-1", thread.Post{ID: "abc", Title: "t"}, aggregate.Weights{judgement.NTA: 40}, DefaultThreshold)
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["id"])
	assert.Equal(t, "NTA", decoded["judgement"])
	assert.Equal(t, map[string]interface{}{"NTA": float64(40)}, decoded["weights"])
}
