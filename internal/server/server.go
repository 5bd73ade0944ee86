// Package server exposes the pipeline and review actions over HTTP.
// Identity comes from the X-User-ID header set by the upstream gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-triage/internal/logger"
	"github.com/spigell/job-triage/internal/pipeline"
	"github.com/spigell/job-triage/internal/review"
)

const (
	HeaderUserID = "X-User-ID"

	userKey         = "user_id"
	shutdownTimeout = 10 * time.Second
)

// Runner runs the pipeline for one user.
type Runner interface {
	Run(ctx context.Context, userID string) (*pipeline.Report, error)
}

type Server struct {
	router *gin.Engine
	runner Runner
	review *review.Service
	logger *zap.Logger
}

func New(runner Runner, rev *review.Service, log *zap.Logger) *Server {
	s := &Server{
		router: gin.New(),
		runner: runner,
		review: rev,
		logger: logger.OrNop(log),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	s.router.GET("/health", s.health)

	v1 := s.router.Group("/v1", s.requireUser())
	{
		v1.POST("/pipeline/run", s.runPipeline)

		v1.GET("/matches", s.listMatches)
		v1.GET("/matches/:id", s.getMatch)
		v1.POST("/matches/:id/approve", s.approveMatch)
		v1.POST("/matches/:id/skip", s.skipMatch)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String(logger.FieldUserID, c.GetString(userKey)),
		)
	}
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}
