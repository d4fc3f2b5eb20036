package api

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"aitaflow/domain/core"
	"aitaflow/domain/stage"
	"aitaflow/internal"

	"github.com/gin-gonic/gin"
)

// Run event types
const (
	EventStage  = "stage"
	EventDone   = "done"
	EventFailed = "failed"
)

// RunEvent is one progress update of a pipeline run
type RunEvent struct {
	RunID     core.RunID         `json:"run_id"`
	EventType string             `json:"event_type"`
	Stage     *stage.StageResult `json:"stage,omitempty"`
	Rows      int                `json:"rows,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// historyLimit bounds the events replayed to a late subscriber
const historyLimit = 32

type subscriber struct {
	runID   core.RunID
	channel chan RunEvent
}

// RunHub fans run events out to Server-Sent Events clients
type RunHub struct {
	clients    map[core.RunID]map[chan RunEvent]bool
	history    map[core.RunID][]RunEvent
	clientsMu  sync.RWMutex
	register   chan subscriber
	unregister chan subscriber
	broadcast  chan RunEvent
	done       chan struct{}
	closeOnce  sync.Once
	keepAlive  time.Duration
	logger     *internal.Logger
}

// NewRunHub starts a hub; Close stops it
func NewRunHub(logger *internal.Logger) *RunHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &RunHub{
		clients:    make(map[core.RunID]map[chan RunEvent]bool),
		history:    make(map[core.RunID][]RunEvent),
		register:   make(chan subscriber),
		unregister: make(chan subscriber),
		broadcast:  make(chan RunEvent, 100),
		done:       make(chan struct{}),
		keepAlive:  30 * time.Second,
		logger:     logger.With("sse"),
	}
	go hub.run()
	return hub
}

func (h *RunHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.runID] == nil {
				h.clients[client.runID] = make(map[chan RunEvent]bool)
			}
			h.clients[client.runID][client.channel] = true
			for _, event := range h.history[client.runID] {
				select {
				case client.channel <- event:
				default:
					h.logger.Warn("client channel full for run %s, skipping replayed %s event", client.runID, event.EventType)
				}
			}
			h.logger.Debug("client registered for run %s (total clients: %d)", client.runID, len(h.clients[client.runID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.runID]; exists {
				delete(clients, client.channel)
				if len(clients) == 0 {
					delete(h.clients, client.runID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.Lock()
			if len(h.history[event.RunID]) < historyLimit || event.EventType != EventStage {
				h.history[event.RunID] = append(h.history[event.RunID], event)
			}
			h.clientsMu.Unlock()

			h.clientsMu.RLock()
			for clientChan := range h.clients[event.RunID] {
				select {
				case clientChan <- event:
				default:
					h.logger.Warn("client channel full for run %s, skipping %s event", event.RunID, event.EventType)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Close stops the hub loop
func (h *RunHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Subscribe registers a listener for one run and replays the events the run
// has already broadcast. The returned cancel function must be called once the
// listener is gone.
func (h *RunHub) Subscribe(runID core.RunID) (<-chan RunEvent, func()) {
	ch := make(chan RunEvent, historyLimit+10)
	sub := subscriber{runID: runID, channel: ch}
	select {
	case h.register <- sub:
	case <-h.done:
		close(ch)
		return ch, func() {}
	}
	return ch, func() {
		select {
		case h.unregister <- sub:
		case <-h.done:
		}
	}
}

// Broadcast queues an event for every listener of its run
func (h *RunHub) Broadcast(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping %s event for run %s", event.EventType, event.RunID)
	}
}

// ObserveStage forwards a finished pipeline stage
func (h *RunHub) ObserveStage(runID core.RunID, result stage.StageResult) {
	h.Broadcast(RunEvent{RunID: runID, EventType: EventStage, Stage: &result})
}

// ClientCount returns the number of listeners of a run
func (h *RunHub) ClientCount(runID core.RunID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[runID])
}

// Stream writes the events of one run until a done or failed event is sent
// or the client goes away
func (h *RunHub) Stream(c *gin.Context, runID core.RunID) {
	events, cancel := h.Subscribe(runID)
	defer cancel()

	writeSSEHeaders(c)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if !h.send(c, event) {
				return true
			}
			return event.EventType == EventStage

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// WriteFinal sends a single event and ends the stream
func (h *RunHub) WriteFinal(c *gin.Context, event RunEvent) {
	writeSSEHeaders(c)
	h.send(c, event)
	c.Writer.Flush()
}

func (h *RunHub) send(c *gin.Context, event RunEvent) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event: %v", err)
		return false
	}
	c.SSEvent("run", string(payload))
	return true
}

func writeSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
}
