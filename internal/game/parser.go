package game

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/metrics"
	"github.com/Yates-Labs/gamebible/internal/narrative"
)

// TextGenerator is satisfied by narrative.Cascade.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (narrative.Result, error)
}

// Outcome is a built game plus how it was obtained.
type Outcome struct {
	Game     Game
	Source   Source
	Backend  string
	Attempts []narrative.Attempt

	// Conformance is set for model output only
	Conformance Conformance
}

// ParserConfig tunes prompt construction.
type ParserConfig struct {
	// Language is the output language requested from the model
	Language string

	// MaxTokens bounds new tokens per model call (0 = cascade default)
	MaxTokens int
}

// Parser builds games from requests.
type Parser struct {
	text   TextGenerator
	config ParserConfig
	logger *zap.Logger
}

// NewParser creates a parser over a text generator.
func NewParser(text TextGenerator, config ParserConfig, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	return &Parser{text: text, config: config, logger: logger}
}

// BuildGame returns a game for req. It never fails.
func (p *Parser) BuildGame(ctx context.Context, req Request) Game {
	return p.Build(ctx, req).Game
}

// Build is BuildGame with diagnostics.
func (p *Parser) Build(ctx context.Context, req Request) (out Outcome) {
	log := p.logger.With(zap.String("title", req.Title))

	defer func() {
		if r := recover(); r != nil {
			log.Error("game build panicked, using fallback", zap.Any("panic", r))
			out = Outcome{Game: Fallback(), Source: SourceFallback, Attempts: out.Attempts}
		}
		metrics.TextGenerations.WithLabelValues(string(out.Source)).Inc()
	}()

	if p.text == nil {
		log.Error("no text generator configured, using fallback")
		return Outcome{Game: Fallback(), Source: SourceFallback}
	}

	res, err := p.text.Generate(ctx, BuildPrompt(req, p.config.Language), p.config.MaxTokens)
	out.Attempts = res.Attempts
	if err != nil {
		if !errors.Is(err, narrative.ErrCascadeExhausted) {
			log.Error("unexpected text generation error", zap.Error(err))
		} else {
			log.Warn("text cascade exhausted, using fallback", zap.Error(err))
		}
		out.Game, out.Source = Fallback(), SourceFallback
		return out
	}
	out.Backend = res.Backend

	g, cleaned, err := ExtractGame(res.Text)
	if err != nil {
		log.Warn("model text is not a JSON object, using placeholder",
			zap.String("model", res.Backend),
			zap.Error(err))
		out.Game, out.Source = Placeholder(cleaned), SourcePlaceholder
		return out
	}

	conf, err := CheckConformance(g)
	if err != nil {
		log.Warn("conformance check failed", zap.Error(err))
	} else if !conf.Valid() {
		log.Warn("model game does not match the bible schema",
			zap.Strings("missing", conf.Missing),
			zap.Strings("errors", conf.Errors))
		fillMissing(g, conf.Missing)
	}

	out.Game, out.Source, out.Conformance = g, SourceModel, conf
	return out
}
