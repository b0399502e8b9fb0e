package game

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// bibleSchema lists the keys every game must carry. Nested shapes are left open
// since models are free to elaborate.
const bibleSchema = `{
  "type": "object",
  "required": ["universe", "scenario", "twist", "characters", "locations", "pitch"],
  "properties": {
    "scenario":   {"type": "object"},
    "characters": {"type": "array"},
    "locations":  {"type": "array"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(bibleSchema)

// Conformance is the result of checking a Game against the bible schema.
type Conformance struct {
	Missing []string
	Errors  []string
}

// Valid reports whether nothing was flagged.
func (c Conformance) Valid() bool {
	return len(c.Missing) == 0 && len(c.Errors) == 0
}

// CheckConformance validates g and collects missing required keys separately
// from other violations.
func CheckConformance(g Game) (Conformance, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(map[string]any(g)))
	if err != nil {
		return Conformance{}, fmt.Errorf("validate game: %w", err)
	}

	var c Conformance
	for _, e := range result.Errors() {
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				c.Missing = append(c.Missing, prop)
				continue
			}
		}
		c.Errors = append(c.Errors, e.String())
	}
	return c, nil
}

// fillMissing copies the placeholder value for each missing key into g.
// Existing keys are never overwritten.
func fillMissing(g Game, missing []string) {
	defaults := placeholderBible.Game()
	for _, key := range missing {
		if _, ok := g[key]; ok {
			continue
		}
		if v, ok := defaults[key]; ok {
			g[key] = v
		}
	}
}
