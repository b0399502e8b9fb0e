package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/project"
)

var (
	listQuery     string
	listPage      int
	listMine      bool
	listFavorites bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects",
	Long: `List stored projects, newest first.

Without flags, public projects are listed. --query filters on title, genre,
keywords and mood, ignoring case.

Examples:
  gamebible list
  gamebible list --query cyberpunk --page 2
  gamebible list --mine
  gamebible list --favorites --user alice`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Search public projects")
	listCmd.Flags().IntVar(&listPage, "page", 0, "Page of results, 12 per page (0 = all)")
	listCmd.Flags().BoolVar(&listMine, "mine", false, "List the user's own projects")
	listCmd.Flags().BoolVar(&listFavorites, "favorites", false, "List the user's favorites")
	listCmd.Flags().StringVar(&userID, "user", defaultUser(), "User for --mine and --favorites")
	listCmd.MarkFlagsMutuallyExclusive("mine", "favorites")
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := orchestrator.NewRuntime(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	var projects []*project.Project
	switch {
	case listMine:
		projects, err = rt.Pipeline.Dashboard(cmd.Context(), userID)
	case listFavorites:
		projects, err = rt.Pipeline.Favorites(cmd.Context(), userID)
	default:
		projects, err = rt.Pipeline.Browse(cmd.Context(), listQuery, listPage)
	}
	if err != nil {
		return err
	}

	fmt.Print(renderList(projects))
	return nil
}

func renderList(projects []*project.Project) string {
	if len(projects) == 0 {
		return mutedStyle.Render("No projects.") + "\n"
	}
	var out strings.Builder
	for _, p := range projects {
		line := accentStyle.Render(p.Request.Title) + "  " + p.Request.Genre
		if p.Request.Mood != "" {
			line += " · " + p.Request.Mood
		}
		if !p.Public {
			line += "  " + warnStyle.Render("private")
		}
		out.WriteString(line + "\n")
		out.WriteString(mutedStyle.Render(fmt.Sprintf("  %s  %s  %s", p.Slug, p.Owner, p.CreatedAt.Format("2006-01-02 15:04"))) + "\n")
	}
	return out.String()
}
