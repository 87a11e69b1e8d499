package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// NewDocsCmd constructs the `voxdocs docs` command group for document
// lifecycle management.
func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage indexed documents",
	}

	cmd.AddCommand(newDocsListCmd(), newDocsDeleteCmd())

	return cmd
}

// newDocsListCmd constructs `voxdocs docs list`.
func newDocsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List indexed documents, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			deps, err := buildServices(ctx, log)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			defer deps.close()

			documents, err := deps.svc.List(ctx)
			if err != nil {
				return fmt.Errorf("docs list: %w", err)
			}
			if len(documents) == 0 {
				fmt.Println("no documents indexed")
				return nil
			}

			fmt.Printf("%-10s %-24s %7s  %s\n", "DOC ID", "UPLOADED", "CHUNKS", "FILENAME")
			for _, d := range documents {
				fmt.Printf("%-10s %-24s %7d  %s\n",
					d.DocID,
					d.UploadedAt.Format(time.RFC3339),
					d.ChunkCount,
					d.Filename,
				)
			}
			return nil
		},
	}
}

// newDocsDeleteCmd constructs `voxdocs docs delete`.
func newDocsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <doc-id>",
		Short: "Delete a document, its chunks, and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			deps, err := buildServices(ctx, log)
			if err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}
			defer deps.close()

			docID := args[0]
			if err := deps.svc.Delete(ctx, docID); err != nil {
				return fmt.Errorf("docs delete: %w", err)
			}

			fmt.Printf("deleted %s\n", docID)
			return nil
		},
	}
}
