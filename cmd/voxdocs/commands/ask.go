package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxdocs/voxdocs-go/internal/logging"
)

// NewAskCmd constructs the `voxdocs ask` command, which answers a question
// from the indexed documents and prints the excerpt list.
func NewAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Embed the question, search the vector store, and print the ranked
excerpt list the voice agent would speak.

Examples:
  voxdocs ask "what was decided about the budget?"
  voxdocs ask --top-k 3 "who owns the rollout plan?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			deps, err := buildServices(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer deps.close()

			question := strings.Join(args, " ")
			fmt.Println(deps.svc.Answer(ctx, question, topK))
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of excerpts to return (default 5)")

	return cmd
}
