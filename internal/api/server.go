// Package api exposes classification, labelling and stored posts over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"

	"aitaflow/app"
	"aitaflow/domain/core"
	"aitaflow/internal"
	"aitaflow/ports"

	"github.com/gin-gonic/gin"
)

// Runner executes a pipeline run
type Runner interface {
	Run(ctx context.Context, opts app.Options) (*app.Result, error)
}

// Server is the JSON API. Every route lives under /api so the engine can be
// mounted into a larger router unchanged.
type Server struct {
	engine   *gin.Engine
	repo     ports.LabelRepository
	runner   Runner
	defaults app.Options
	hub      *RunHub
	logger   *internal.Logger

	// background runs outlive the request that started them
	baseCtx context.Context
	runs    map[core.RunID]*RunStatus
	runsMu  sync.RWMutex
}

// Option configures optional server dependencies
type Option func(*Server)

// WithRepository enables the /api/posts routes
func WithRepository(repo ports.LabelRepository) Option {
	return func(s *Server) { s.repo = repo }
}

// WithRunner enables the /api/runs routes; defaults fill unset request fields
func WithRunner(runner Runner, defaults app.Options, hub *RunHub) Option {
	return func(s *Server) {
		s.runner = runner
		s.defaults = defaults
		s.hub = hub
	}
}

func WithLogger(logger *internal.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer builds the engine and its routes. ctx bounds background runs.
func NewServer(ctx context.Context, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:  gin.New(),
		logger:  internal.DefaultLogger,
		baseCtx: ctx,
		runs:    make(map[core.RunID]*RunStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("api")

	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)
	api.POST("/classify", s.handleClassify)
	api.POST("/labels", s.handleLabels)
	api.POST("/labels/twoclass", s.handleTwoClass)

	posts := api.Group("/posts", s.requireRepository)
	posts.GET("", s.handleListPosts)
	posts.GET("/:id", s.handleGetPost)

	runs := api.Group("/runs", s.requireRunner)
	runs.POST("", s.handleStartRun)
	runs.GET("/events", s.handleRunEvents)
	runs.GET("/:id", s.handleGetRun)
}

// Handler returns the engine as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}

func (s *Server) requireRepository(c *gin.Context) {
	if s.repo == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "label storage is not configured"})
		return
	}
	c.Next()
}

func (s *Server) requireRunner(c *gin.Context) {
	if s.runner == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline is not configured"})
		return
	}
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"storage": s.repo != nil,
		"runner":  s.runner != nil,
	})
}
