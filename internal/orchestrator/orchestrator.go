// Package orchestrator runs a full project generation: quota check, bible
// text, two concept images, persistence. Upstream failures degrade inside the
// game and imagegen packages; only a quota denial or a storage failure stops
// a run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/imagegen"
	"github.com/Yates-Labs/gamebible/internal/metrics"
	"github.com/Yates-Labs/gamebible/internal/project"
	"github.com/Yates-Labs/gamebible/internal/quota"
)

var ErrQuotaExceeded = errors.New("generation quota exceeded")

// QuotaError carries the user-facing denial message.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string { return e.Message }

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// GameBuilder is satisfied by game.Parser.
type GameBuilder interface {
	Build(ctx context.Context, req game.Request) game.Outcome
}

// ImageGenerator is satisfied by imagegen.Client.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) *image.RGBA
}

// Pipeline wires the generation components together.
type Pipeline struct {
	builder    GameBuilder
	images     ImageGenerator
	imageModel string
	limiter    quota.Limiter
	store      project.Store
	seeder     *game.Seeder
	logger     *zap.Logger
	now        func() time.Time
}

// Deps holds the components a Pipeline runs over.
type Deps struct {
	Builder    GameBuilder
	Images     ImageGenerator
	ImageModel string
	Limiter    quota.Limiter
	Store      project.Store
	Seeder     *game.Seeder
	Logger     *zap.Logger
}

// NewPipeline validates deps and returns a pipeline.
func NewPipeline(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Builder == nil:
		return nil, errors.New("pipeline: game builder is required")
	case deps.Images == nil:
		return nil, errors.New("pipeline: image generator is required")
	case deps.Limiter == nil:
		return nil, errors.New("pipeline: quota limiter is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: project store is required")
	}
	if deps.Seeder == nil {
		deps.Seeder = game.NewSeeder(nil)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{
		builder:    deps.Builder,
		images:     deps.Images,
		imageModel: deps.ImageModel,
		limiter:    deps.Limiter,
		store:      deps.Store,
		seeder:     deps.Seeder,
		logger:     deps.Logger,
		now:        time.Now,
	}, nil
}

// CharacterPrompt is the concept-art prompt for the character image.
func CharacterPrompt(mood string) string {
	return fmt.Sprintf("Concept art character, %s, game style, full body, clean background", moodOrDefault(mood))
}

// EnvironmentPrompt is the concept-art prompt for the environment image.
func EnvironmentPrompt(mood string) string {
	return fmt.Sprintf("Concept art environment, %s, game scene, wide composition, highly detailed", moodOrDefault(mood))
}

func moodOrDefault(mood string) string {
	if mood == "" {
		return "stylized"
	}
	return mood
}

// Seed returns a random concept request.
func (p *Pipeline) Seed() game.Request {
	return p.seeder.RandomSeed()
}

// Generate creates, fills and saves a project for user.
func (p *Pipeline) Generate(ctx context.Context, user string, req game.Request, public bool) (*project.Project, error) {
	return p.run(ctx, "generate", user, req, public)
}

// Explore generates a private project from a random seed.
func (p *Pipeline) Explore(ctx context.Context, user string) (*project.Project, error) {
	return p.run(ctx, "explore", user, p.Seed(), false)
}

// Load reads a stored project.
func (p *Pipeline) Load(ctx context.Context, slug string) (*project.Project, error) {
	return p.store.Load(ctx, slug)
}

// Browse lists public projects matching query, newest first. page is 1-based;
// 0 returns every match.
func (p *Pipeline) Browse(ctx context.Context, query string, page int) ([]*project.Project, error) {
	return p.store.List(ctx, project.Filter{PublicOnly: true, Query: query, Page: page})
}

// Dashboard lists every project owned by user.
func (p *Pipeline) Dashboard(ctx context.Context, user string) ([]*project.Project, error) {
	if user == "" {
		return []*project.Project{}, nil
	}
	return p.store.List(ctx, project.Filter{Owner: user})
}

// ToggleFavorite flips slug in user's favorites.
func (p *Pipeline) ToggleFavorite(ctx context.Context, user, slug string) (bool, error) {
	return p.store.ToggleFavorite(ctx, user, slug)
}

// Favorites lists the projects user favorited and can still read.
func (p *Pipeline) Favorites(ctx context.Context, user string) ([]*project.Project, error) {
	slugs, err := p.store.Favorites(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(slugs) == 0 {
		return []*project.Project{}, nil
	}
	return p.store.List(ctx, project.Filter{Viewer: user, Slugs: slugs})
}

func (p *Pipeline) run(ctx context.Context, flow, user string, req game.Request, public bool) (*project.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	decision, err := p.limiter.CheckAndIncrement(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("check quota: %w", err)
	}
	if !decision.Allowed {
		metrics.QuotaDecisions.WithLabelValues("denied").Inc()
		p.logger.Info("generation denied", zap.String("user", user), zap.String("reason", decision.Message))
		return nil, &QuotaError{Message: decision.Message}
	}
	metrics.QuotaDecisions.WithLabelValues("allowed").Inc()

	start := p.now()
	log := p.logger.With(zap.String("flow", flow), zap.String("user", user), zap.String("title", req.Title))
	proj := project.New(user, req, public, start)

	log.Info("generating game bible")
	outcome := p.builder.Build(ctx, req)
	proj.Game = outcome.Game
	proj.Generation = project.GenerationMetadata{
		Source:     outcome.Source,
		Model:      outcome.Backend,
		Candidates: candidateRuns(outcome),
		ImageModel: p.imageModel,
	}

	// images are generated one at a time
	log.Info("generating concept images")
	if proj.CharacterPNG, err = imagegen.EncodePNG(p.images.Generate(ctx, CharacterPrompt(req.Mood))); err != nil {
		log.Warn("character image encode failed", zap.Error(err))
	}
	if proj.EnvironmentPNG, err = imagegen.EncodePNG(p.images.Generate(ctx, EnvironmentPrompt(req.Mood))); err != nil {
		log.Warn("environment image encode failed", zap.Error(err))
	}

	elapsed := p.now().Sub(start)
	proj.Generation.LatencyMS = elapsed.Milliseconds()
	metrics.GenerationDuration.WithLabelValues(flow).Observe(elapsed.Seconds())

	// the caller's deadline may have expired while upstream calls degraded
	if err := p.store.Save(context.WithoutCancel(ctx), proj); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}

	log.Info("project generated",
		zap.String("slug", proj.Slug),
		zap.String("source", string(outcome.Source)),
		zap.Duration("elapsed", elapsed))
	return proj, nil
}

func candidateRuns(o game.Outcome) []project.CandidateRun {
	runs := make([]project.CandidateRun, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		run := project.CandidateRun{Model: a.Backend, DurationMS: a.Duration.Milliseconds()}
		if a.Err != nil {
			run.Error = a.Err.Error()
		}
		runs = append(runs, run)
	}
	return runs
}
