package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docqa/internal/config"
	"github.com/Aman-CERP/docqa/internal/engine"
	"github.com/Aman-CERP/docqa/internal/output"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

func newQueryCmd() *cobra.Command {
	var (
		k       int
		window  int
		format  string
		snapArg string
	)

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Retrieve context for a question",
		Long: `Retrieve the best-matching sentence, with its neighbours, from each of the
top k chunks. Duplicate contexts are reported once.

Output formats:
  text    ranked list with similarity scores (default)
  json    array of {header, context, similarity, chunk_id}
  prompt  "Header: ...\nContext: ..." blocks for a language model`,
		Example: `  docqa query "What are keyed tables?"
  docqa query -k 3 --format prompt "How do namespaces avoid collisions?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = cfg.Retrieval.TopK
			}
			if cmd.Flags().Changed("window") {
				cfg.Retrieval.Window = window
			}
			if snapArg != "" {
				cfg.Snapshot.Path = snapArg
			}

			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cmd, cfg, strings.Join(args, " "), k, f)
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "Number of chunks to search (default: retrieval.top_k)")
	cmd.Flags().IntVar(&window, "window", 0, "Sentences kept on each side of the best sentence (default: retrieval.window)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, prompt")
	cmd.Flags().StringVar(&snapArg, "snapshot", "", "Snapshot path (default: snapshot.path from config)")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, cfg *config.Config, query string, k int, format output.Format) error {
	eng, err := openEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}

	results, err := eng.AnswerContext(ctx, query, k)
	if err != nil {
		return err
	}
	return output.New(cmd.OutOrStdout()).Results(query, results, format)
}

// openEngine loads the configured snapshot and wraps it in an engine.
func openEngine(ctx context.Context, cfg *config.Config, recorder engine.Recorder) (*engine.Engine, error) {
	snap, err := snapshot.Load(ctx, cfg.Snapshot.Path, loadOptions(cfg))
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(snap, engineOptions(cfg, recorder))
	if err != nil {
		return nil, fmt.Errorf("invalid retrieval configuration: %w", err)
	}
	return eng, nil
}
