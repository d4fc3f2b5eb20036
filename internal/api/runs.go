package api

import (
	"net/http"
	"time"

	"aitaflow/app"
	"aitaflow/domain/core"
	"aitaflow/domain/stage"

	"github.com/gin-gonic/gin"
)

// Run states
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// RunStatus is the in-memory record of a run started through the API
type RunStatus struct {
	RunID      core.RunID          `json:"run_id"`
	Status     string              `json:"status"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Rows       int                 `json:"rows"`
	Stages     []stage.StageResult `json:"stages,omitempty"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

type startRunRequest struct {
	Subreddit string `json:"subreddit"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) handleStartRun(c *gin.Context) {
	var req startRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}

	opts := s.defaults
	opts.RunID = core.NewRunID()
	opts.ExportPath = ""
	if req.Subreddit != "" {
		opts.Subreddit = req.Subreddit
	}
	if req.StartDate != "" {
		opts.StartDate = req.StartDate
	}
	if req.EndDate != "" {
		opts.EndDate = req.EndDate
	}

	status := &RunStatus{
		RunID:     opts.RunID,
		Status:    RunRunning,
		StartDate: opts.StartDate,
		EndDate:   opts.EndDate,
		StartedAt: time.Now().UTC(),
	}
	s.runsMu.Lock()
	s.runs[opts.RunID] = status
	s.runsMu.Unlock()

	go s.execute(opts)

	c.JSON(http.StatusAccepted, gin.H{"run_id": opts.RunID, "status": RunRunning})
}

func (s *Server) execute(opts app.Options) {
	result, err := s.runner.Run(s.baseCtx, opts)

	finished := time.Now().UTC()
	event := RunEvent{RunID: opts.RunID, EventType: EventDone}

	s.runsMu.Lock()
	status := s.runs[opts.RunID]
	status.FinishedAt = &finished
	if result != nil {
		status.Stages = result.Stages
		status.Rows = len(result.Rows)
	}
	if err != nil {
		status.Status = RunFailed
		status.Error = err.Error()
		event.EventType = EventFailed
		event.Error = err.Error()
	} else {
		status.Status = RunDone
	}
	event.Rows = status.Rows
	s.runsMu.Unlock()

	if err != nil {
		s.logger.Error("run %s failed: %v", opts.RunID, err)
	}
	if s.hub != nil {
		s.hub.Broadcast(event)
	}
}

func (s *Server) handleGetRun(c *gin.Context) {
	runID, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.runsMu.RLock()
	status, ok := s.runs[runID]
	var snapshot RunStatus
	if ok {
		snapshot = *status
	}
	s.runsMu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleRunEvents(c *gin.Context) {
	if s.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run events are not configured"})
		return
	}
	runID, err := core.ParseRunID(c.Query("run_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id parameter required"})
		return
	}

	s.runsMu.RLock()
	status, ok := s.runs[runID]
	var snapshot RunStatus
	if ok {
		snapshot = *status
	}
	s.runsMu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if snapshot.Status != RunRunning {
		s.hub.WriteFinal(c, finalEvent(snapshot))
		return
	}
	s.hub.Stream(c, runID)
}

func finalEvent(status RunStatus) RunEvent {
	event := RunEvent{RunID: status.RunID, EventType: EventDone, Rows: status.Rows, Error: status.Error}
	if status.Status == RunFailed {
		event.EventType = EventFailed
	}
	if status.FinishedAt != nil {
		event.Timestamp = *status.FinishedAt
	}
	return event
}
