package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONExtractionError reports text that does not hold a JSON object.
type JSONExtractionError struct {
	Text string
	Err  error
}

func (e *JSONExtractionError) Error() string {
	return fmt.Sprintf("extract JSON: %v", e.Err)
}

func (e *JSONExtractionError) Unwrap() error { return e.Err }

// cleanText strips surrounding whitespace and markdown backticks.
func cleanText(text string) string {
	return strings.Trim(strings.TrimSpace(text), "`")
}

// candidateJSON returns the span from the first '{' to the last '}', or the
// whole text when there is no such span.
func candidateJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

// ExtractGame parses the JSON object embedded in model text. The returned
// string is the cleaned text, also when parsing fails.
func ExtractGame(text string) (Game, string, error) {
	cleaned := cleanText(text)

	var value any
	if err := json.Unmarshal([]byte(candidateJSON(cleaned)), &value); err != nil {
		return nil, cleaned, &JSONExtractionError{Text: cleaned, Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, cleaned, &JSONExtractionError{Text: cleaned, Err: fmt.Errorf("top-level value is %T, not an object", value)}
	}
	return Game(obj), cleaned, nil
}
