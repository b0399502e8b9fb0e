package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Attempt is the outcome of one candidate in a cascade run.
type Attempt struct {
	Backend  string
	Text     string
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the candidate produced text.
func (a Attempt) Succeeded() bool { return a.Err == nil }

// Result is the outcome of a full cascade run. Text and Backend are set only
// when some candidate succeeded.
type Result struct {
	Text     string
	Backend  string
	Attempts []Attempt
}

// Cascade tries backends in fixed priority order and stops at the first success.
type Cascade struct {
	backends  []Backend
	maxTokens int
	logger    *zap.Logger
}

// NewCascade creates a cascade over backends, most preferred first.
func NewCascade(backends []Backend, maxTokens int, logger *zap.Logger) (*Cascade, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: at least one backend is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTokens <= 0 {
		maxTokens = DefaultLLMConfig().MaxTokens
	}
	return &Cascade{backends: backends, maxTokens: maxTokens, logger: logger}, nil
}

// Backends returns the candidate names in order.
func (c *Cascade) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Generate runs the cascade. maxTokens of 0 uses the cascade default. When every
// candidate fails the error wraps ErrCascadeExhausted and each candidate error.
func (c *Cascade) Generate(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	var (
		res  Result
		errs = []error{ErrCascadeExhausted}
	)
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		text, err := b.Generate(ctx, prompt, maxTokens)
		attempt := Attempt{Backend: b.Name(), Text: text, Err: err, Duration: time.Since(start)}
		res.Attempts = append(res.Attempts, attempt)

		if err != nil {
			c.logger.Warn("text model failed",
				zap.String("model", b.Name()),
				zap.Duration("duration", attempt.Duration),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		c.logger.Info("text model succeeded",
			zap.String("model", b.Name()),
			zap.Duration("duration", attempt.Duration),
			zap.Int("chars", len(text)))
		res.Text = text
		res.Backend = b.Name()
		return res, nil
	}

	c.logger.Error("all text models failed", zap.Int("candidates", len(c.backends)))
	return res, errors.Join(errs...)
}
