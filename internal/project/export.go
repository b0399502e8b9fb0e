package project

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Yates-Labs/gamebible/internal/game"
)

// ExportFormat represents supported export formats
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

// ParseFormat accepts json, markdown or md, case-insensitively.
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported export format: %s (supported: json, markdown)", s)
}

// ContentType returns the MIME type of f.
func (f ExportFormat) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "application/json"
}

// ProjectExport is the public rendering of a project.
type ProjectExport struct {
	Slug       string       `json:"slug"`
	Title      string       `json:"title"`
	Genre      string       `json:"genre"`
	Mood       string       `json:"mood,omitempty"`
	Keywords   string       `json:"keywords,omitempty"`
	References string       `json:"references,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	Source     game.Source  `json:"source"`
	Game       game.Game    `json:"game"`
	Images     ExportImages `json:"images"`
}

// ExportImages names the image files stored with the project.
type ExportImages struct {
	Character   string `json:"character,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Export writes p to writer in format.
func Export(p *Project, format ExportFormat, writer io.Writer) error {
	switch format {
	case FormatJSON:
		return exportJSON(buildExport(p), writer)
	case FormatMarkdown:
		return exportMarkdown(p, writer)
	}
	return fmt.Errorf("unsupported export format: %s", format)
}

func buildExport(p *Project) ProjectExport {
	e := ProjectExport{
		Slug:       p.Slug,
		Title:      p.Request.Title,
		Genre:      p.Request.Genre,
		Mood:       p.Request.Mood,
		Keywords:   p.Request.Keywords,
		References: p.Request.References,
		CreatedAt:  p.CreatedAt,
		Source:     p.Generation.Source,
		Game:       p.Game,
	}
	if len(p.CharacterPNG) > 0 {
		e.Images.Character = characterFile
	}
	if len(p.EnvironmentPNG) > 0 {
		e.Images.Environment = environmentFile
	}
	return e
}

func exportJSON(e ProjectExport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(e)
}

func exportMarkdown(p *Project, writer io.Writer) error {
	bible := p.Game.Bible()
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Request.Title)
	fmt.Fprintf(&b, "*%s*", p.Request.Genre)
	if p.Request.Mood != "" {
		fmt.Fprintf(&b, " · %s", p.Request.Mood)
	}
	b.WriteString("\n\n")

	if bible.Pitch != "" {
		fmt.Fprintf(&b, "> %s\n\n", bible.Pitch)
	}

	section(&b, "Univers", bible.Universe)

	b.WriteString("## Scénario\n\n")
	for i, act := range []string{bible.Scenario.Act1, bible.Scenario.Act2, bible.Scenario.Act3} {
		if act != "" {
			fmt.Fprintf(&b, "**Acte %d.** %s\n\n", i+1, act)
		}
	}

	section(&b, "Twist", bible.Twist)

	if len(bible.Characters) > 0 {
		b.WriteString("## Personnages\n\n")
		for _, c := range bible.Characters {
			fmt.Fprintf(&b, "### %s\n\n", c.Name)
			fmt.Fprintf(&b, "- Classe : %s\n- Rôle : %s\n- Histoire : %s\n- Gameplay : %s\n\n",
				c.Class, c.Role, c.Background, c.Gameplay)
		}
	}

	if len(bible.Locations) > 0 {
		b.WriteString("## Lieux\n\n")
		for _, l := range bible.Locations {
			fmt.Fprintf(&b, "- **%s** : %s\n", l.Name, l.Description)
		}
		b.WriteString("\n")
	}

	if len(p.CharacterPNG) > 0 || len(p.EnvironmentPNG) > 0 {
		b.WriteString("## Concept art\n\n")
		if len(p.CharacterPNG) > 0 {
			fmt.Fprintf(&b, "![Personnage](%s)\n", characterFile)
		}
		if len(p.EnvironmentPNG) > 0 {
			fmt.Fprintf(&b, "![Environnement](%s)\n", environmentFile)
		}
	}

	_, err := io.WriteString(writer, b.String())
	return err
}

func section(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, body)
}
