// Package project persists generated game bibles together with their concept
// images and renders them for export.
package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/Yates-Labs/gamebible/internal/game"
)

// SchemaVersion is the current version of the stored project layout.
const SchemaVersion = "v1"

// GenerationMetadata records how a project's content was produced.
type GenerationMetadata struct {
	Source     game.Source    `json:"source"`
	Model      string         `json:"model,omitempty"`
	Candidates []CandidateRun `json:"candidates,omitempty"`
	ImageModel string         `json:"image_model,omitempty"`
	LatencyMS  int64          `json:"latency_ms"`
}

// CandidateRun is one text model tried during generation.
type CandidateRun struct {
	Model      string `json:"model"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Project is a generated concept owned by one user.
type Project struct {
	ID        uuid.UUID    `json:"id"`
	Slug      string       `json:"slug"`
	Owner     string       `json:"owner"`
	Request   game.Request `json:"request"`
	Game      game.Game    `json:"game"`
	Public    bool         `json:"public"`
	CreatedAt time.Time    `json:"created_at"`
	Version   string       `json:"version"`

	Generation GenerationMetadata `json:"generation"`

	// PNG payloads, stored beside the JSON document
	CharacterPNG   []byte `json:"-"`
	EnvironmentPNG []byte `json:"-"`
}

// New creates a project for owner with a fresh id and slug.
func New(owner string, req game.Request, public bool, now time.Time) *Project {
	return &Project{
		ID:        uuid.New(),
		Slug:      Slug(req.Title, now),
		Owner:     owner,
		Request:   req,
		Public:    public,
		CreatedAt: now.UTC(),
		Version:   SchemaVersion,
	}
}

// VisibleTo reports whether user may read p.
func (p *Project) VisibleTo(user string) bool {
	return p.Public || (user != "" && user == p.Owner)
}
