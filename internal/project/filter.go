package project

import (
	"slices"
	"strings"
)

// PageSize is the number of projects per listing page.
const PageSize = 12

// Filter selects projects for List. Zero fields do not constrain.
type Filter struct {
	Owner      string
	PublicOnly bool

	// Viewer keeps only projects VisibleTo the viewer
	Viewer string

	// Slugs, when non-nil, keeps only the named projects
	Slugs []string

	// Query matches title, genre, keywords or mood, ignoring case
	Query string

	// Page is 1-based; 0 returns every match
	Page int
}

// Match reports whether p passes every constraint in f.
func (f Filter) Match(p *Project) bool {
	if f.Owner != "" && p.Owner != f.Owner {
		return false
	}
	if f.PublicOnly && !p.Public {
		return false
	}
	if f.Viewer != "" && !p.VisibleTo(f.Viewer) {
		return false
	}
	if f.Slugs != nil && !slices.Contains(f.Slugs, p.Slug) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		for _, field := range []string{p.Request.Title, p.Request.Genre, p.Request.Keywords, p.Request.Mood} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

func (f Filter) page(projects []*Project) []*Project {
	if f.Page <= 0 {
		return projects
	}
	start := (f.Page - 1) * PageSize
	if start >= len(projects) {
		return []*Project{}
	}
	return projects[start:min(start+PageSize, len(projects))]
}
