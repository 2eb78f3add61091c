package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docqa/internal/ui"
)

func newReplCmd() *cobra.Command {
	var (
		k       int
		plain   bool
		noColor bool
		snapArg string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Long: `Load the snapshot once and answer questions until you quit.

On a terminal this opens a full-screen interface; with piped input it reads
one question per line. Type :help for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = cfg.Retrieval.TopK
			}
			if snapArg != "" {
				cfg.Snapshot.Path = snapArg
			}

			eng, err := openEngine(ctx, cfg, nil)
			if err != nil {
				return err
			}
			info := eng.Snapshot().Info()

			uiCfg := ui.NewConfig(cmd.InOrStdin(), cmd.OutOrStdout(),
				ui.WithK(k),
				ui.WithForcePlain(plain),
				ui.WithNoColor(noColor),
				ui.WithSummary(fmt.Sprintf("%s: %d chunks, %d terms", cfg.Snapshot.Path, info.Chunks, info.Vocabulary)))
			return ui.Run(ctx, eng, uiCfg)
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "Initial number of chunks per question (default: retrieval.top_k)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Line mode even on a terminal")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")
	cmd.Flags().StringVar(&snapArg, "snapshot", "", "Snapshot path (default: snapshot.path from config)")

	return cmd
}
