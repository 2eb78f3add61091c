package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docqa/internal/output"
	"github.com/Aman-CERP/docqa/internal/snapshot"
)

func newInfoCmd() *cobra.Command {
	var (
		jsonOutput bool
		snapArg    string
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show snapshot metadata",
		Long:  `Load and verify the snapshot, then print its chunk count, vocabulary size, index backend, corpus digest and build time.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Snapshot.Path
			if snapArg != "" {
				path = snapArg
			}

			snap, err := snapshot.Load(cmd.Context(), path, loadOptions(cfg))
			if err != nil {
				return err
			}
			info := snap.Info()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			output.New(cmd.OutOrStdout()).SnapshotInfo(path, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&snapArg, "snapshot", "", "Snapshot path (default: snapshot.path from config)")

	return cmd
}
