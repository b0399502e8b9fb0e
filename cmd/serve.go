package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/gamebible/internal/orchestrator"
	"github.com/Yates-Labs/gamebible/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation pipeline as a JSON API",
	Long: `Start the JSON API.

Routes:
  POST /api/generate                  generate a project (body: title, genre, mood, keywords, references, public)
  POST /api/explore                   generate a private project from a random concept
  GET  /api/seed                      draw a random concept
  GET  /api/projects/:slug            read a project
  GET  /api/projects/:slug/export     export as ?format=json|markdown
  GET  /api/projects/:slug/images/:k  character or environment PNG
  GET  /healthz, /metrics

The caller's identity is read from the X-User-ID header.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := orchestrator.NewRuntime(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := cfg.Server.Address
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := server.New(server.Config{
			Address:            addr,
			GenerationDeadline: cfg.Server.GenerationDeadline,
		}, rt.Pipeline, log.Named("http"))
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.address)")
}
