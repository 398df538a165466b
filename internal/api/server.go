// Package api exposes the pipeline's ops surface: health, metrics, manual
// triggers and job-run visibility.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/models"
	"github.com/foundersignal/pipeline/internal/pipeline"
)

const defaultJobListLimit = 20

// CollectionTrigger runs manual collections.
type CollectionTrigger interface {
	RunManualCollection(ctx context.Context, sourceNames []string) []pipeline.SourceOutcome
	SourceNames() []string
}

// JobLister lists recent job runs.
type JobLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.JobRun, error)
}

// Counter reports a table's row count.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server is the ops HTTP server.
type Server struct {
	engine   *gin.Engine
	http     *http.Server
	trigger  CollectionTrigger
	jobs     JobLister
	startups Counter
	evidence Counter
	stories  Counter
	logger   logger.Logger
}

// Deps wires the server's collaborators.
type Deps struct {
	Addr     string
	Trigger  CollectionTrigger
	Jobs     JobLister
	Startups Counter
	Evidence Counter
	Stories  Counter
	Registry *prometheus.Registry
	Logger   logger.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(deps.Logger))

	s := &Server{
		engine:   engine,
		trigger:  deps.Trigger,
		jobs:     deps.Jobs,
		startups: deps.Startups,
		evidence: deps.Evidence,
		stories:  deps.Stories,
		logger:   deps.Logger,
	}

	engine.GET("/health", s.handleHealth)
	if deps.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	v1 := engine.Group("/api/v1")
	v1.POST("/collections/trigger", s.handleTrigger)
	v1.GET("/jobs", s.handleJobs)
	v1.GET("/stats", s.handleStats)

	s.http = &http.Server{
		Addr:              deps.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("ops server listening", logger.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type triggerRequest struct {
	Sources []string `json:"sources"`
}

func (s *Server) handleTrigger(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	outcomes := s.trigger.RunManualCollection(c.Request.Context(), req.Sources)
	c.JSON(http.StatusOK, gin.H{
		"results":   outcomes,
		"available": s.trigger.SourceNames(),
	})
}

func (s *Server) handleJobs(c *gin.Context) {
	limit := defaultJobListLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, ok := parsePositive(raw); ok {
			limit = parsed
		}
	}

	jobs, err := s.jobs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list job runs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list job runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := gin.H{}

	for name, counter := range map[string]Counter{
		"startups":         s.startups,
		"evidence_records": s.evidence,
		"stories":          s.stories,
	} {
		if counter == nil {
			continue
		}
		n, err := counter.Count(ctx)
		if err != nil {
			s.logger.Error("failed to count", logger.String("table", name), logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to gather stats"})
			return
		}
		stats[name] = n
	}
	c.JSON(http.StatusOK, stats)
}

func parsePositive(raw string) (int, bool) {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return 0, false
		}
	}
	return n, n > 0
}

// requestLogger logs one line per request with status and latency.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)))
	}
}
