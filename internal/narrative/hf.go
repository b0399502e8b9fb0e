package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yates-Labs/gamebible/internal/upstream"
)

// Caller is the subset of the upstream client used by HFBackend.
type Caller interface {
	Call(ctx context.Context, model string, payload any, stream bool) (*upstream.Response, error)
}

// HFBackend generates text with one hosted inference model.
type HFBackend struct {
	caller Caller
	config LLMConfig
}

// NewHFBackend creates a backend for config.Model.
func NewHFBackend(caller Caller, config LLMConfig) (*HFBackend, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: upstream caller is required", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	return &HFBackend{caller: caller, config: config}, nil
}

func (h *HFBackend) Name() string { return h.config.Model }

// Generate posts the prompt to the model and normalizes whatever shape comes back.
func (h *HFBackend) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = h.config.MaxTokens
	}

	resp, err := h.caller.Call(ctx, h.config.Model, h.payload(prompt, maxTokens), false)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	shape, err := NormalizeText(resp.Body)
	if err != nil {
		return "", err
	}
	return shape.Text, nil
}

func (h *HFBackend) payload(prompt string, maxTokens int) map[string]any {
	return map[string]any{
		"inputs": strings.TrimSpace(prompt),
		"parameters": map[string]any{
			"max_new_tokens":   maxTokens,
			"temperature":      h.config.Temperature,
			"return_full_text": false,
			"do_sample":        true,
			"top_p":            h.config.TopP,
		},
		"options": map[string]any{"wait_for_model": true},
	}
}
