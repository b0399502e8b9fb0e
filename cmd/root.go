package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yates-Labs/gamebible/internal/config"
	"github.com/Yates-Labs/gamebible/internal/logger"
)

var (
	cfg *config.Config
	log *zap.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "gamebible",
	Short: "Gamebible - AI game bible generator",
	Long: `Gamebible turns a short video-game concept into a game bible.

From a title, genre, mood, keywords and references it generates a universe,
a three-act scenario, a twist, characters, locations and a marketing pitch,
plus character and environment concept art. Text models are tried in order
and a hand-written bible is used when none of them answers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		cfg = loaded
		log = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
