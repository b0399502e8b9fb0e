package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/config"
	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/imagegen"
	"github.com/Yates-Labs/gamebible/internal/narrative"
	"github.com/Yates-Labs/gamebible/internal/project"
	"github.com/Yates-Labs/gamebible/internal/quota"
	"github.com/Yates-Labs/gamebible/internal/upstream"
)

// Runtime is a pipeline plus the resources that must be released with it.
type Runtime struct {
	Pipeline *Pipeline
	Cascade  *narrative.Cascade
	closers  []func() error
}

// Close releases the quota store connection, if any.
func (r *Runtime) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewRuntime builds every component from cfg.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	client := upstream.NewClient(cfg.Upstream, upstream.WithLogger(logger.Named("upstream")))

	cascade, err := NewCascade(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	parser := game.NewParser(cascade, game.ParserConfig{
		Language:  cfg.Text.Language,
		MaxTokens: cfg.Text.MaxTokens,
	}, logger.Named("game"))

	images := imagegen.NewClient(client, cfg.Image.Model, logger.Named("imagegen"))

	store, err := project.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Cascade: cascade}

	var limiter quota.Limiter
	if cfg.Quota.Redis.Address != "" {
		rdb := quota.NewRedisClient(cfg.Quota.Redis)
		redisLimiter := quota.NewRedisLimiter(rdb, cfg.Quota.DailyLimit)
		if err := redisLimiter.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, rdb.Close)
		limiter = redisLimiter
		logger.Info("quota store: redis", zap.String("address", cfg.Quota.Redis.Address))
	} else {
		limiter = quota.NewMemoryLimiter(cfg.Quota.DailyLimit)
		logger.Info("quota store: in-memory")
	}

	rt.Pipeline, err = NewPipeline(Deps{
		Builder:    parser,
		Images:     images,
		ImageModel: cfg.Image.Model,
		Limiter:    limiter,
		Store:      store,
		Logger:     logger.Named("pipeline"),
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// NewCascade builds the text candidates in configured order, with the OpenAI
// backend last when a key is present.
func NewCascade(cfg *config.Config, caller narrative.Caller, logger *zap.Logger) (*narrative.Cascade, error) {
	backends := make([]narrative.Backend, 0, len(cfg.Text.Models)+1)
	for _, model := range cfg.Text.Models {
		b, err := narrative.NewHFBackend(caller, narrative.LLMConfig{
			Model:       model,
			Temperature: float32(cfg.Text.Temperature),
			TopP:        float32(cfg.Text.TopP),
			MaxTokens:   cfg.Text.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("text model %q: %w", model, err)
		}
		backends = append(backends, b)
	}

	if cfg.OpenAI.APIKey != "" {
		b, err := narrative.NewOpenAILLM(narrative.LLMConfig{
			Model:       cfg.OpenAI.Model,
			Temperature: float32(cfg.Text.Temperature),
			MaxTokens:   cfg.Text.MaxTokens,
			APIKey:      cfg.OpenAI.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		backends = append(backends, b)
	}

	return narrative.NewCascade(backends, cfg.Text.MaxTokens, logger.Named("cascade"))
}
