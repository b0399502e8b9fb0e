package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/gamebible/internal/game"
	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/project"
)

var (
	genTitle      string
	genGenre      string
	genMood       string
	genKeywords   string
	genReferences string
	genPublic     bool
	userID        string
	exportFormat  string
	exportFile    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a game bible from a concept",
	Long: `Generate a game bible and two concept images from a concept description.

The project is saved under the storage directory (default: ./generated) as
project.json, character.png and environment.png.

Environment variables:
  HUGGINGFACE_API_TOKEN  - token for the hosted inference API
  HF_IMG_MODEL           - image model (default: stabilityai/stable-diffusion-2-1)
  OPENAI_API_KEY         - optional; adds an OpenAI model as last text candidate
  REDIS_ADDRESS          - optional; shares the daily quota through Redis

Examples:
  gamebible generate --title "Neon Abyss" --genre Rogue-lite --mood cyberpunk
  gamebible generate --title "Échos" --genre RPG --keywords "multivers, vengeance" --export markdown --out echos.md`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&genTitle, "title", "", "Game title (required)")
	generateCmd.Flags().StringVar(&genGenre, "genre", "", "Genre, e.g. RPG, FPS, Metroidvania (required)")
	generateCmd.Flags().StringVar(&genMood, "mood", "", "Mood, e.g. cyberpunk, post-apo, onirique")
	generateCmd.Flags().StringVar(&genKeywords, "keywords", "", "Comma-separated keywords")
	generateCmd.Flags().StringVar(&genReferences, "references", "", "Reference games")
	generateCmd.Flags().BoolVar(&genPublic, "public", false, "Make the project publicly visible")
	addOutputFlags(generateCmd)
	_ = generateCmd.MarkFlagRequired("title")
	_ = generateCmd.MarkFlagRequired("genre")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userID, "user", defaultUser(), "User the generation is counted against")
	cmd.Flags().StringVar(&exportFormat, "export", "", "Also export the project: json or markdown")
	cmd.Flags().StringVar(&exportFile, "out", "-", "Export destination file (- for stdout)")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req := game.Request{
		Title:      genTitle,
		Genre:      genGenre,
		Mood:       genMood,
		Keywords:   genKeywords,
		References: genReferences,
	}
	return runPipeline(cmd.Context(), func(ctx context.Context, p *orchestrator.Pipeline) (*project.Project, error) {
		return p.Generate(ctx, userID, req, genPublic)
	})
}

// runPipeline builds the runtime, runs fn under an interrupt-aware context, and
// prints the outcome.
func runPipeline(parent context.Context, fn func(context.Context, *orchestrator.Pipeline) (*project.Project, error)) error {
	var format project.ExportFormat
	if exportFormat != "" {
		f, err := project.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = f
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	rt, err := orchestrator.NewRuntime(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	fmt.Println(mutedStyle.Render("→ Generating game bible and concept art (this can take a few minutes)..."))

	proj, err := fn(ctx, rt.Pipeline)
	if err != nil {
		var quotaErr *orchestrator.QuotaError
		if errors.As(err, &quotaErr) {
			return errors.New(quotaErr.Message)
		}
		return err
	}

	fmt.Print(renderProject(proj))
	fmt.Println(renderSource(proj))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("Saved as %s in %s", proj.Slug, cfg.Storage.Dir)))

	if format != "" {
		return writeExport(proj, format, exportFile)
	}
	return nil
}
