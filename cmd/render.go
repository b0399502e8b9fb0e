package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/project"
)

var (
	headerColor  = lipgloss.Color("#F780FF") // Bright pink
	accentColor  = lipgloss.Color("#8BE9FD") // Cyan
	bodyColor    = lipgloss.Color("#E9E9F4") // Light purple/white
	mutedColor   = lipgloss.Color("#6272A4") // Muted purple
	errorColor   = lipgloss.Color("#FF5555") // Red
	successColor = lipgloss.Color("#50FA7B") // Green
	warnColor    = lipgloss.Color("#FFB86C") // Orange
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(headerColor).Bold(true).Underline(true)
	accentStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	bodyStyle    = lipgloss.NewStyle().Foreground(bodyColor).Width(90)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
)

// renderProject formats a project for the terminal.
func renderProject(p *project.Project) string {
	b := p.Game.Bible()
	var out strings.Builder

	out.WriteString("\n" + titleStyle.Render(p.Request.Title) + "\n")
	meta := p.Request.Genre
	if p.Request.Mood != "" {
		meta += " · " + p.Request.Mood
	}
	out.WriteString(mutedStyle.Render(meta) + "\n\n")

	section := func(title, body string) {
		if body == "" {
			return
		}
		out.WriteString(headerStyle.Render(title) + "\n")
		out.WriteString(bodyStyle.Render(body) + "\n\n")
	}

	section("Pitch", b.Pitch)
	section("Univers", b.Universe)

	acts := []string{}
	for i, act := range []string{b.Scenario.Act1, b.Scenario.Act2, b.Scenario.Act3} {
		if act != "" {
			acts = append(acts, fmt.Sprintf("%s %s", accentStyle.Render(fmt.Sprintf("Acte %d.", i+1)), act))
		}
	}
	section("Scénario", strings.Join(acts, "\n"))
	section("Twist", b.Twist)

	if len(b.Characters) > 0 {
		out.WriteString(headerStyle.Render("Personnages") + "\n")
		for _, c := range b.Characters {
			out.WriteString(accentStyle.Render(c.Name) + mutedStyle.Render(fmt.Sprintf(" (%s, %s)", c.Class, c.Role)) + "\n")
			out.WriteString(bodyStyle.Render(c.Background) + "\n")
			out.WriteString(mutedStyle.Render("Gameplay : "+c.Gameplay) + "\n\n")
		}
	}

	if len(b.Locations) > 0 {
		out.WriteString(headerStyle.Render("Lieux") + "\n")
		for _, l := range b.Locations {
			out.WriteString(accentStyle.Render(l.Name) + " " + bodyStyle.Render(l.Description) + "\n")
		}
		out.WriteString("\n")
	}

	return out.String()
}

// renderSource explains where the text came from.
func renderSource(p *project.Project) string {
	switch p.Generation.Source {
	case game.SourceModel:
		return successStyle.Render(fmt.Sprintf("✓ Generated by %s", p.Generation.Model))
	case game.SourcePlaceholder:
		return warnStyle.Render(fmt.Sprintf("⚠ %s answered with non-JSON text; placeholder bible stored with raw_text", p.Generation.Model))
	default:
		return warnStyle.Render("⚠ No text model answered; fallback bible used")
	}
}

// writeExport writes p to filename in format, or to stdout when filename is "-".
func writeExport(p *project.Project, format project.ExportFormat, filename string) error {
	if filename == "-" {
		return project.Export(p, format, os.Stdout)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := project.Export(p, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Exported %s to %s", p.Slug, filename)))
	return nil
}
