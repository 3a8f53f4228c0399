package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionCounter exposes the live session count for metrics.
type SessionCounter interface {
	Count() int
}

// Pinger checks backend reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server answers container health probes and a small metrics endpoint.
type Server struct {
	engine    *gin.Engine
	logger    *zap.Logger
	sessions  SessionCounter
	backend   Pinger
	startTime time.Time
	port      int
}

func NewServer(port int, sessions SessionCounter, backend Pinger, debug bool, logger *zap.Logger) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:    gin.New(),
		logger:    logger,
		sessions:  sessions,
		backend:   backend,
		startTime: time.Now(),
		port:      port,
	}

	s.engine.Use(gin.Recovery())
	s.engine.GET("/health", s.health)
	s.engine.GET("/live", s.live)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", s.metrics)

	return s
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "print3d-bot",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

func (s *Server) live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		s.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"api_status": "unreachable",
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"api_status": "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_sessions": s.sessions.Count(),
		"uptime_seconds":  int(time.Since(s.startTime).Seconds()),
	})
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Health server listening", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
