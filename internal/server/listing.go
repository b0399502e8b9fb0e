package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yates-Labs/gamebible/internal/project"
)

// ProjectSummary is one entry of a project listing.
type ProjectSummary struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Genre      string    `json:"genre"`
	Mood       string    `json:"mood,omitempty"`
	Owner      string    `json:"owner"`
	Public     bool      `json:"public"`
	CreatedAt  time.Time `json:"created_at"`
	ProjectURL string    `json:"project_url"`
}

// ListResponse wraps a project listing.
type ListResponse struct {
	Projects []ProjectSummary `json:"projects"`
	Query    string           `json:"query,omitempty"`
	Page     int              `json:"page,omitempty"`
}

func summarize(projects []*project.Project) []ProjectSummary {
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectSummary{
			Slug:       p.Slug,
			Title:      p.Request.Title,
			Genre:      p.Request.Genre,
			Mood:       p.Request.Mood,
			Owner:      p.Owner,
			Public:     p.Public,
			CreatedAt:  p.CreatedAt,
			ProjectURL: "/api/projects/" + p.Slug,
		})
	}
	return out
}

func (s *Server) browse(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page invalide"})
			return
		}
		page = n
	}

	query := c.Query("q")
	projects, err := s.service.Browse(c.Request.Context(), query, page)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Projects: summarize(projects), Query: query, Page: page})
}

func (s *Server) dashboard(c *gin.Context) {
	user := c.GetHeader(UserHeader)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return
	}
	projects, err := s.service.Dashboard(c.Request.Context(), user)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Projects: summarize(projects)})
}

func (s *Server) favorites(c *gin.Context) {
	user := c.GetHeader(UserHeader)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return
	}
	projects, err := s.service.Favorites(c.Request.Context(), user)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Projects: summarize(projects)})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	user := c.GetHeader(UserHeader)
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthRequired})
		return
	}
	proj := s.loadVisible(c)
	if proj == nil {
		return
	}

	favorite, err := s.service.ToggleFavorite(c.Request.Context(), user, proj.Slug)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": proj.Slug, "favorite": favorite})
}

func (s *Server) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
