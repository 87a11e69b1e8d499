// Package commands defines all Cobra CLI commands for the voxdocs binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/voxdocs/voxdocs-go/internal/audit"
	"github.com/voxdocs/voxdocs-go/internal/config"
	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "voxdocs",
		Short: "VoxDocs — document Q&A backend for voice-driven meeting assistants",
		Long: `VoxDocs ingests PDF documents, indexes them in a vector store, and answers
questions with ranked excerpts ready for a voice agent to speak.

It also issues LiveKit room access tokens and records per-room transcripts,
serving as the complete backend for a voice meeting assistant.

The embedding backend is selected via the EMBEDDING_PROVIDER environment
variable or a YAML config file (~/.voxdocs/config.yaml).
See 'voxdocs --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is a development convenience; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.voxdocs/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewDocsCmd(),
		NewVersionCmd(),
	)

	return root
}
