// Package server exposes the job submission boundary over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"viralreel/internal/config"
	"viralreel/internal/jobstore"
	"viralreel/internal/model"
)

// Runner is the piece of the pipeline the HTTP layer needs.
type Runner interface {
	Run(ctx context.Context, topic string) (model.GenerationJob, error)
}

// ScriptSource generates a scene list without running the full pipeline.
type ScriptSource interface {
	Generate(ctx context.Context, topic string) ([]model.Scene, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg      *config.Config
	pipeline Runner
	script   ScriptSource
	store    *jobstore.Store
	log      zerolog.Logger
}

// New creates the HTTP server wiring.
func New(cfg *config.Config, pipeline Runner, script ScriptSource, store *jobstore.Store, log zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		script:   script,
		store:    store,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/generate-script", s.handleGenerateScript)
	r.POST("/create-video", s.handleCreateVideo)
	r.GET("/jobs", s.handleListJobs)
	r.GET("/jobs/:id", s.handleJobStatus)
	r.Static("/static/videos", s.cfg.VideosDir)

	return r
}

type topicRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "ViralReel server is running",
	})
}

// handleGenerateScript returns the scene breakdown for a topic without
// synthesizing any media.
func (s *Server) handleGenerateScript(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	scenes, err := s.script.Generate(c.Request.Context(), req.Topic)
	if err != nil {
		s.log.Error().Err(err).Msg("script generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Script generation failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenes": scenes})
}

// handleCreateVideo runs the whole pipeline for a topic and responds with
// the final video reference, or a structured error when a fatal stage
// failed. Generation takes minutes; clients are expected to wait.
func (s *Server) handleCreateVideo(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	job, err := s.pipeline.Run(c.Request.Context(), req.Topic)
	if err != nil {
		status := http.StatusInternalServerError
		if model.IsKind(err, model.ErrInputInvalid) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
			"kind":  string(model.KindOf(err)),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"video_id":     job.ID,
		"video_url":    job.ResultURL,
		"scenes_count": job.SceneCount,
		"message":      "Video created successfully!",
	})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	job, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.store.List()})
}
