package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// NewIngestCmd constructs the `voxdocs ingest` command, which ingests local
// PDF files into the vector store without going through the HTTP server.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf> [file.pdf ...]",
		Short: "Ingest local PDF files into the document store",
		Long: `Extract, chunk, embed, and index one or more local PDF files.

Each file is copied into the data directory and registered under a fresh
document id, exactly as an HTTP upload would be. The source files are left
in place.

Required environment variables depend on the configured backends:
  EMBEDDING_PROVIDER    Embedding backend: openai, azure, ollama (default: openai)
  OPENAI_API_KEY        Required for the openai backend
  QDRANT_HOST           Qdrant server hostname (default: localhost)
  VOXDOCS_STORE_BACKEND Vector store: qdrant or local (default: qdrant)
  VOXDOCS_DATA_DIR      Data directory (default: ~/.voxdocs/data)

Examples:
  voxdocs ingest minutes.pdf
  VOXDOCS_STORE_BACKEND=local voxdocs ingest q3-report.pdf roadmap.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			deps, err := buildServices(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer deps.close()

			for _, path := range args {
				// Ingest consumes its input file; stage a copy so the
				// user's original stays put.
				staged, err := stageCopy(path)
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", path, err)
				}

				docID, err := deps.svc.Ingest(ctx, staged, filepath.Base(path))
				if err != nil {
					_ = os.Remove(staged)
					return fmt.Errorf("ingest: %s: %w", path, err)
				}

				log.Info("ingested", slog.String("file", path), slog.String("doc_id", docID))
				fmt.Printf("%s  %s\n", docID, path)
			}
			return nil
		},
	}

	return cmd
}

// stageCopy copies path into a temp file and returns the temp path.
func stageCopy(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "voxdocs-ingest-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
