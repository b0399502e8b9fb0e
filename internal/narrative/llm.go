// Package narrative produces raw game-design text from language models. It defines
// a provider-agnostic Backend interface with implementations for the hosted
// inference API, OpenAI, and deterministic mocks for testing. A Cascade tries
// backends in priority order and returns the first text any of them produces.
package narrative

import (
	"context"
	"errors"
)

var (
	ErrLLMFailed            = errors.New("LLM request failed")
	ErrInvalidConfig        = errors.New("invalid LLM configuration")
	ErrUnrecognizedResponse = errors.New("unrecognized model response")
	ErrCascadeExhausted     = errors.New("all text models failed")
)

// Backend defines the interface for one text generation candidate.
// Implementations must be stateless and thread-safe.
type Backend interface {
	// Name identifies the candidate in logs and results.
	Name() string

	// Generate produces text from a prompt, bounded by maxTokens new tokens.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// LLMConfig holds common sampling options for text backends.
type LLMConfig struct {
	// Model specifies the model identifier (e.g., "mistralai/Mistral-7B-Instruct-v0.2")
	Model string

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float32

	// TopP is the nucleus sampling cutoff
	TopP float32

	// MaxTokens limits the response length when the caller passes 0
	MaxTokens int

	// APIKey is the authentication key for providers that need one here
	APIKey string
}

// DefaultLLMConfig returns the sampling defaults for game bible generation.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   800,
	}
}
