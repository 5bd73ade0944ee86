package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/jobs"
	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/review"
)

type skipRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) runPipeline(c *gin.Context) {
	report, err := s.runner.Run(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		if pe, ok := pipeline.AsPrecondition(err); ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pe.Message, "code": pe.Code})
			return
		}
		s.logger.Error("pipeline run failed", zap.Error(err))
		body := gin.H{"error": err.Error()}
		if report != nil {
			body["steps"] = report.Steps
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) listMatches(c *gin.Context) {
	var status jobs.Status
	if raw := c.Query("status"); raw != "" {
		parsed, err := jobs.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status = parsed
	}

	items, err := s.review.List(c.Request.Context(), c.GetString(userKey), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": items})
}

func (s *Server) getMatch(c *gin.Context) {
	item, err := s.review.Get(c.Request.Context(), c.GetString(userKey), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) approveMatch(c *gin.Context) {
	var edits review.Edits
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&edits); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
			return
		}
	}

	m, err := s.review.Approve(c.Request.Context(), c.GetString(userKey), c.Param("id"), edits)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matchId": m.ID, "status": m.Status})
}

func (s *Server) skipMatch(c *gin.Context) {
	var req skipRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
			return
		}
	}

	m, err := s.review.Skip(c.Request.Context(), c.GetString(userKey), c.Param("id"), req.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matchId": m.ID, "status": m.Status})
}

// fail maps domain errors to status codes.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found or unauthorized"})
	case errors.Is(err, jobs.ErrForbiddenTransition), errors.Is(err, jobs.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
