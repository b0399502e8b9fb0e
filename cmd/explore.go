package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/project"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Generate a private game bible from a random concept",
	Long: `Draw a random concept (genre, mood, two keywords, a reference game and a
Proto-NNNN title) and generate a private project from it.

Examples:
  gamebible explore
  gamebible explore --export json --out proto.json`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	addOutputFlags(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	return runPipeline(cmd.Context(), func(ctx context.Context, p *orchestrator.Pipeline) (*project.Project, error) {
		return p.Explore(ctx, userID)
	})
}
