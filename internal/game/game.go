// Package game turns a concept request into a game bible. The Parser builds the
// design prompt, runs the text cascade, and extracts a JSON object from whatever
// text comes back. It never fails: a hand-authored fallback covers a dead
// cascade and a placeholder covers text that is not JSON.
package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRequest = errors.New("invalid generation request")

// Request is the concept a user submits.
type Request struct {
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	Mood       string `json:"mood"`
	Keywords   string `json:"keywords"`
	References string `json:"references"`
}

// Validate requires a title and a genre; the other fields may be empty.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Genre) == "" {
		return fmt.Errorf("%w: genre is required", ErrInvalidRequest)
	}
	return nil
}

// Game is a generated bible as decoded from the model. Models may add keys
// beyond the known ones; they are kept.
type Game map[string]any

// Clone returns a deep copy of g.
func (g Game) Clone() Game {
	out, _ := cloneValue(map[string]any(g)).(map[string]any)
	return Game(out)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	}
	return v
}

// Bible is the typed view of a Game, used to author fixed payloads and to render.
type Bible struct {
	Universe   string      `json:"universe"`
	Scenario   Scenario    `json:"scenario"`
	Twist      string      `json:"twist"`
	Characters []Character `json:"characters"`
	Locations  []Location  `json:"locations"`
	Pitch      string      `json:"pitch"`
	RawText    string      `json:"raw_text,omitempty"`
}

type Scenario struct {
	Act1 string `json:"act1"`
	Act2 string `json:"act2"`
	Act3 string `json:"act3"`
}

type Character struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Role       string `json:"role"`
	Background string `json:"background"`
	Gameplay   string `json:"gameplay"`
}

type Location struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Game converts b to its untyped form.
func (b Bible) Game() Game {
	data, err := json.Marshal(b)
	if err != nil {
		panic(err)
	}
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		panic(err)
	}
	return g
}

// Bible decodes the known fields of g. Fields with unexpected types are left zero.
func (g Game) Bible() Bible {
	var b Bible
	data, err := json.Marshal(g)
	if err != nil {
		return b
	}
	if err := json.Unmarshal(data, &b); err == nil {
		return b
	}

	// A model answered with an odd type somewhere; decode field by field.
	for key, target := range map[string]any{
		"universe": &b.Universe, "scenario": &b.Scenario, "twist": &b.Twist,
		"characters": &b.Characters, "locations": &b.Locations, "pitch": &b.Pitch,
		"raw_text": &b.RawText,
	} {
		raw, err := json.Marshal(g[key])
		if err != nil {
			continue
		}
		_ = json.Unmarshal(raw, target)
	}
	return b
}

// Source names the path that produced a Game.
type Source string

const (
	SourceModel       Source = "model"
	SourcePlaceholder Source = "placeholder"
	SourceFallback    Source = "fallback"
)
