package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/calclineage/internal/catalog"
	"github.com/leapstack-labs/calclineage/internal/config"
	"github.com/leapstack-labs/calclineage/internal/processor"
	"github.com/leapstack-labs/calclineage/internal/source"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one lineage extraction batch",
		Long: `Read catalog snapshot files from the input directory, resolve the
lineage of every calculation view, and write the resulting records as
JSONL files to the output directory.`,
		Example: `  # Process the snapshot in the current directory
  calclineage run

  # Large snapshot with a disk-backed membership index
  calclineage run --input snapshot/ --index-backend sqlite --index-path /tmp/idx.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(".", cmd.Flags())
			if err != nil {
				return err
			}
			return runBatch(cmd, cfg)
		},
	}

	cmd.Flags().Int("workers", 0, "Concurrent view resolvers (0 = number of CPUs)")
	cmd.Flags().String("input", ".", "Directory holding snapshot JSONL files")
	cmd.Flags().String("output", "lineage", "Directory lineage records are written to")
	cmd.Flags().String("index-backend", "memory", "Membership index backend (memory|sqlite)")
	cmd.Flags().String("index-path", "calclineage-index.db", "SQLite index file (sqlite backend only)")
	cmd.Flags().String("log-level", "info", "Log level (debug|info|warn|error)")

	return cmd
}

func runBatch(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg)

	var backend catalog.Backend
	switch cfg.Index.Backend {
	case config.BackendSQLite:
		sb, err := catalog.OpenSQLiteBackend(cfg.Index.Path)
		if err != nil {
			return fmt.Errorf("failed to open index database: %w", err)
		}
		defer func() { _ = sb.Close() }()
		backend = sb
	default:
		backend = catalog.NewMemoryBackend()
	}

	proc := processor.New(
		&source.FileSource{Dir: cfg.Input},
		backend,
		logger,
		processor.Config{Workers: cfg.Workers},
	)
	result, err := proc.Run(cmd.Context())
	if err != nil {
		return err
	}

	sink := &source.FileSink{Dir: cfg.Output}
	persist := []struct {
		rt      source.RecordType
		records []source.Record
	}{
		{source.RecViewLineage, result.ViewLineage},
		{source.RecColumnLineage, result.ColumnLineage},
		{source.RecColumnDetails, result.ColumnDetails},
	}
	for _, p := range persist {
		if err := sink.Persist(cmd.Context(), p.rt, p.records); err != nil {
			return fmt.Errorf("failed to persist %s: %w", p.rt, err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(),
		"Processed %d views (%d skipped), run %s\n",
		result.ViewsProcessed, result.ViewsSkipped, result.RunID)
	return nil
}
