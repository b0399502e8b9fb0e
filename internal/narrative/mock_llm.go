package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MockLLM is a deterministic Backend for testing.
type MockLLM struct {
	// ModelName is returned by Name; defaults to "mock"
	ModelName string

	// Response is the fixed text returned by Generate.
	// If empty, a default JSON game bible is generated from the prompt.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	mu         sync.Mutex
	lastPrompt string
	calls      int
}

// NewMockLLM creates a mock backend with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock backend that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

func (m *MockLLM) Name() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

// Generate returns the configured response or builds a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.lastPrompt = prompt
	m.calls++
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return generateMockResponse(prompt), nil
}

// LastPrompt returns the most recent prompt passed to Generate.
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// Calls returns how many times Generate ran.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// generateMockResponse echoes the title line of the prompt into a minimal bible.
func generateMockResponse(prompt string) string {
	title := "Sans titre"
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "titre="); ok {
			if unquoted, err := strconv.Unquote(rest); err == nil {
				rest = unquoted
			}
			title = strings.TrimSpace(rest)
			break
		}
	}

	bible := map[string]any{
		"universe": "Univers de " + title,
		"scenario": map[string]string{"act1": "Début", "act2": "Milieu", "act3": "Fin"},
		"twist":    "Rien n'est ce qu'il semble",
		"characters": []map[string]string{{
			"name": "Héros", "class": "Rôdeur", "role": "Protagoniste",
			"background": "Orphelin", "gameplay": "Furtivité",
		}},
		"locations": []map[string]string{{"name": "Port", "description": "Un port brumeux"}},
		"pitch":     fmt.Sprintf("%s, une aventure inédite.", title),
	}
	data, _ := json.Marshal(bible)
	return string(data)
}
