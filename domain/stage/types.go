package stage

import (
	"time"
)

// StageName represents a named stage in the pipeline
type StageName string

// Predefined stage names, in execution order
const (
	StageGetSubmissions    StageName = "get_submissions"
	StageGetComments       StageName = "get_comments"
	StageAggregateComments StageName = "aggregate_comments"
	StagePersist           StageName = "persist"
	StageExport            StageName = "export"
)

// StageResult represents the output of a stage execution
type StageResult struct {
	StageName StageName      `json:"stage_name"`
	Success   bool           `json:"success"`
	Items     int            `json:"items"`
	Metrics   map[string]int `json:"metrics,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  int64          `json:"duration_ms"` // milliseconds
}

// Timer measures one stage
type Timer struct {
	name  StageName
	start time.Time
}

// Start begins timing a stage
func Start(name StageName) Timer {
	return Timer{name: name, start: time.Now()}
}

// Done closes the stage with its item count and outcome
func (t Timer) Done(items int, err error) StageResult {
	result := StageResult{
		StageName: t.name,
		Success:   err == nil,
		Items:     items,
		Duration:  time.Since(t.start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// WithMetric attaches a named counter
func (r StageResult) WithMetric(name string, value int) StageResult {
	if r.Metrics == nil {
		r.Metrics = map[string]int{}
	}
	r.Metrics[name] = value
	return r
}
