package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docqa/internal/ingest"
	"github.com/Aman-CERP/docqa/internal/output"
	"github.com/Aman-CERP/docqa/internal/profiling"
	"github.com/Aman-CERP/docqa/internal/snapshot"
	"github.com/Aman-CERP/docqa/internal/store"
)

func newBuildCmd() *cobra.Command {
	var (
		format  string
		outPath string
		backend string
		exclude []string
	)

	cmd := &cobra.Command{
		Use:   "build <inputs...>",
		Short: "Ingest documents and write a snapshot",
		Long: `Ingest documents and write the retrieval snapshot.

Inputs may be files, directories (walked recursively, honouring
.docqaignore) or '-' for standard input. Files are read as plain text,
markdown or JSON Lines ({"header": ..., "body": ...} per line) by extension
unless --format forces one.

The snapshot is written to a temporary file and renamed into place, so a
running 'docqa serve' only ever sees complete snapshots.`,
		Example: `  # Build from a docs directory
  docqa build docs/

  # Build from pre-chunked JSON Lines with the HNSW index
  docqa build chunks.jsonl --backend hnsw

  # Read markdown from stdin
  cat guide.md | docqa build - --format markdown`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, cmd, args, format, outPath, backend, exclude)
		},
	}

	cmd.Flags().StringVar(&format, "format", "auto", "Input format: auto, text, markdown, jsonl")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Snapshot path (default: snapshot.path from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "Index backend: flat, hnsw (default: index.backend from config)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Extra ignore patterns, gitignore syntax")

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, inputs []string, format, outPath, backend string, exclude []string) error {
	start := time.Now()
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := ingestOptions(cfg)
	if opts.Format, err = ingest.ParseFormat(format); err != nil {
		return err
	}
	opts.Exclude = append(opts.Exclude, exclude...)
	opts.Stdin = cmd.InOrStdin()

	sopts := snapshotOptions(cfg)
	if backend != "" {
		if sopts.Index.Backend, err = store.ParseBackend(backend); err != nil {
			return err
		}
	}

	if outPath == "" {
		outPath = cfg.Snapshot.Path
	}

	c, err := ingest.Ingest(ctx, inputs, opts)
	if err != nil {
		return err
	}
	out.Statusf("📂", "Ingested %d chunks from %d input(s)", c.Len(), len(inputs))

	snap, err := snapshot.Build(c, sopts)
	if err != nil {
		return err
	}
	if err := snapshot.Save(ctx, outPath, snap, cfg.Snapshot.LockTimeout); err != nil {
		return err
	}

	info := snap.Info()
	out.Successf("Snapshot written to %s", outPath)
	out.Status("", fmt.Sprintf("%d chunks, %d terms, %s index, %s",
		info.Chunks, info.Vocabulary, info.Backend, time.Since(start).Round(time.Millisecond)))
	if fi, err := os.Stat(outPath); err == nil {
		out.Status("", "Size: "+profiling.FormatBytes(uint64(fi.Size())))
	}
	return nil
}
