package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxdocs/voxdocs-go/internal/logging"
	"github.com/voxdocs/voxdocs-go/internal/server"
	"github.com/voxdocs/voxdocs-go/internal/transcript"
)

// NewServeCmd constructs the `voxdocs serve` command, which starts the HTTP
// server exposing document upload, Q&A, token, and transcript endpoints.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the VoxDocs HTTP server",
		Long: `Start the VoxDocs HTTP server.

The server exposes the document pipeline (upload, list, delete, ask) plus
LiveKit room token issuance and transcript capture for the voice frontend.

Examples:
  voxdocs serve
  voxdocs serve --port 8080
  VOXDOCS_STORE_BACKEND=local voxdocs serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting",
				slog.String("embedding_provider", os.Getenv("EMBEDDING_PROVIDER")),
				slog.String("store_backend", getEnvOrDefault("VOXDOCS_STORE_BACKEND", "qdrant")),
			)

			deps, err := buildServices(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer deps.close()

			transcripts, err := transcript.NewWriter(getEnvOrDefault("VOXDOCS_DATA_DIR", defaultDataDir()))
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			host, port := resolveListenAddr(cmd)
			cfg := &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   deps.pingers,
				APIKey:    os.Getenv("VOXDOCS_API_KEY"),
				RateLimit: getEnvFloat("VOXDOCS_RATE_LIMIT", 0),
				RateBurst: getEnvInt("VOXDOCS_RATE_BURST", 0),
			}

			// An absent minter must be a nil interface, not a typed nil
			// pointer, so the token endpoint can detect it.
			var srv *server.Server
			if minter := buildMinter(log); minter != nil {
				srv, err = server.New(deps.svc, minter, transcripts, cfg)
			} else {
				srv, err = server.New(deps.svc, nil, transcripts, cfg)
			}
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().String("host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntP("port", "p", 5001, "TCP port to listen on")

	return cmd
}

// resolveListenAddr returns the bind address for serve. Explicit flags win;
// otherwise VOXDOCS_HOST and VOXDOCS_PORT (set directly or via the server
// section of the config file) override the flag defaults.
func resolveListenAddr(cmd *cobra.Command) (string, int) {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("host") {
		host = getEnvOrDefault("VOXDOCS_HOST", host)
	}
	if !cmd.Flags().Changed("port") {
		port = getEnvInt("VOXDOCS_PORT", port)
	}
	return host, port
}
