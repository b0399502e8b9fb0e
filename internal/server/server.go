// Package server exposes the generation pipeline as a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/project"
)

// UserHeader carries the authenticated user id, set by the fronting auth proxy.
const UserHeader = "X-User-ID"

// Service is the pipeline surface the API needs.
type Service interface {
	Generate(ctx context.Context, user string, req game.Request, public bool) (*project.Project, error)
	Explore(ctx context.Context, user string) (*project.Project, error)
	Seed() game.Request
	Load(ctx context.Context, slug string) (*project.Project, error)
	Browse(ctx context.Context, query string, page int) ([]*project.Project, error)
	Dashboard(ctx context.Context, user string) ([]*project.Project, error)
	ToggleFavorite(ctx context.Context, user, slug string) (bool, error)
	Favorites(ctx context.Context, user string) ([]*project.Project, error)
}

// Config holds server settings.
type Config struct {
	Address string

	// GenerationDeadline bounds each generate/explore request (0 = none)
	GenerationDeadline time.Duration
}

// Server is the HTTP front of the pipeline.
type Server struct {
	config  Config
	service Service
	logger  *zap.Logger
	router  *gin.Engine
}

// New builds the router.
func New(cfg Config, service Service, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{config: cfg, service: service, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/seed", s.seed)
		api.POST("/generate", s.generate)
		api.POST("/explore", s.explore)
		api.GET("/projects", s.browse)
		api.GET("/projects/:slug", s.getProject)
		api.POST("/projects/:slug/favorite", s.toggleFavorite)
		api.GET("/projects/:slug/export", s.exportProject)
		api.GET("/projects/:slug/images/:kind", s.projectImage)
		api.GET("/me/projects", s.dashboard)
		api.GET("/me/favorites", s.favorites)
	}

	s.router = router
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.config.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// RequestLogger logs each request after it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if user := c.GetHeader(UserHeader); user != "" {
			fields = append(fields, zap.String("user", user))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("client error", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
