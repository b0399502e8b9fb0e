package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/project"
)

const (
	msgAuthRequired = "Authentification requise."
	msgBadPayload   = "Payload JSON invalide"
	msgForbidden    = "Accès refusé"
	msgNotFound     = "Projet introuvable"
	msgInternal     = "Erreur interne"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	Mood       string `json:"mood"`
	Keywords   string `json:"keywords"`
	References string `json:"references"`
	Public     bool   `json:"public"`
}

// GenerateResponse reports a finished generation.
type GenerateResponse struct {
	Status     string      `json:"status"`
	Slug       string      `json:"slug"`
	ProjectURL string      `json:"project_url"`
	Source     game.Source `json:"source"`
	Game       game.Game   `json:"game"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "gamebible",
	})
}

func (s *Server) seed(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Seed())
}

func (s *Server) generate(c *gin.Context) {
	user := c.GetHeader(UserHeader)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return
	}

	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgBadPayload})
		return
	}

	req := game.Request{
		Title:      body.Title,
		Genre:      body.Genre,
		Mood:       body.Mood,
		Keywords:   body.Keywords,
		References: body.References,
	}

	ctx, cancel := s.generationContext(c)
	defer cancel()

	proj, err := s.service.Generate(ctx, user, req, body.Public)
	s.respondGenerated(c, proj, err)
}

func (s *Server) explore(c *gin.Context) {
	user := c.GetHeader(UserHeader)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return
	}

	ctx, cancel := s.generationContext(c)
	defer cancel()

	proj, err := s.service.Explore(ctx, user)
	s.respondGenerated(c, proj, err)
}

func (s *Server) generationContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.config.GenerationDeadline <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), s.config.GenerationDeadline)
}

func (s *Server) respondGenerated(c *gin.Context, proj *project.Project, err error) {
	var quotaErr *orchestrator.QuotaError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenerateResponse{
			Status:     "ok",
			Slug:       proj.Slug,
			ProjectURL: "/api/projects/" + proj.Slug,
			Source:     proj.Generation.Source,
			Game:       proj.Game,
		})
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": quotaErr.Message})
	case errors.Is(err, game.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// loadVisible fetches the project named in the path and enforces visibility.
// It writes the error response itself and returns nil in that case.
func (s *Server) loadVisible(c *gin.Context) *project.Project {
	proj, err := s.service.Load(c.Request.Context(), c.Param("slug"))
	switch {
	case errors.Is(err, project.ErrNotFound), errors.Is(err, project.ErrInvalidSlug):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return nil
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return nil
	}

	if !proj.VisibleTo(c.GetHeader(UserHeader)) {
		c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
		return nil
	}
	return proj
}

func (s *Server) getProject(c *gin.Context) {
	proj := s.loadVisible(c)
	if proj == nil {
		return
	}
	c.JSON(http.StatusOK, proj)
}

func (s *Server) exportProject(c *gin.Context) {
	format, err := project.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proj := s.loadVisible(c)
	if proj == nil {
		return
	}

	var buf bytes.Buffer
	if err := project.Export(proj, format, &buf); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	ext := "json"
	if format == project.FormatMarkdown {
		ext = "md"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, proj.Slug, ext))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) projectImage(c *gin.Context) {
	proj := s.loadVisible(c)
	if proj == nil {
		return
	}

	var data []byte
	switch c.Param("kind") {
	case "character":
		data = proj.CharacterPNG
	case "environment":
		data = proj.EnvironmentPNG
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "image inconnue"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "image absente"})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
