package api

import (
	"net/http"
	"strconv"

	"aitaflow/domain/core"
	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type classifyRequest struct {
	Body string `json:"body"`
}

type classifyResponse struct {
	Judgement *judgement.Judgement `json:"judgement"`
	Automated bool                 `json:"automated"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resp := classifyResponse{Automated: judgement.IsAutomated(req.Body)}
	if j, ok := judgement.Classify(req.Body); ok {
		resp.Judgement = &j
	}
	c.JSON(http.StatusOK, resp)
}

type labelsRequest struct {
	Distribution map[string]float64 `json:"distribution"`
	Threshold    *float64           `json:"threshold"`
}

type labelsResponse struct {
	Judgement    judgement.Judgement `json:"judgement"`
	Distribution labels.Distribution `json:"distribution"`
	Labels       labels.Set          `json:"labels"`
}

func (s *Server) handleLabels(c *gin.Context) {
	var req labelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	dist, err := labels.DistributionFromMap(req.Distribution)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	threshold := labels.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	c.JSON(http.StatusOK, labelsResponse{
		Judgement:    dist.Top(),
		Distribution: dist,
		Labels:       labels.Encode(dist, threshold),
	})
}

type twoClassRequest struct {
	Vector []int `json:"vector"`
}

func (s *Server) handleTwoClass(c *gin.Context) {
	var req twoClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	out, err := labels.TwoClassMultilabel(req.Vector)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"twoclass_multilabel": out})
}

func (s *Server) handleListPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	rows, err := s.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.Error("failed to list posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  rows,
		"count":  len(rows),
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleGetPost(c *gin.Context) {
	postID, err := core.ParsePostID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := s.repo.GetByPostID(c.Request.Context(), postID)
	switch {
	case core.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case err != nil:
		s.logger.Error("failed to load post %s: %v", postID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve post"})
		return
	}
	c.JSON(http.StatusOK, row)
}
