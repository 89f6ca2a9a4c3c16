package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/domain/models"
	"github.com/mamadbah2/scantrak/internal/export"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		output string
		format string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export submitted records",
		Long: `Export every submitted record, newest first.

The format defaults to the extension of --output; without an output file the
records are written to stdout as JSON lines.`,
		Example: `  scantrakctl export --output records.parquet
  scantrakctl export --format yaml --since 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}

			env, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			records, err := env.repo.List(cmd.Context())
			if err != nil {
				return err
			}
			if since > 0 {
				records = newerThan(records, time.Now().Add(-since))
			}

			if output == "" {
				if err := export.Write(cmd.OutOrStdout(), f, records); err != nil {
					return err
				}
			} else if err := writeFile(output, f, records); err != nil {
				return err
			}

			env.logger.Info("records exported", zap.Int("count", len(records)), zap.String("format", string(f)), zap.String("output", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout when empty)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "yaml, parquet or jsonl")
	cmd.Flags().DurationVar(&since, "since", 0, "only export records newer than this")

	return cmd
}

// writeFile exports records to path. Close errors are returned.
func writeFile(path string, format export.Format, records []models.SubmittedRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := export.Write(file, format, records); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func resolveFormat(format, output string) (export.Format, error) {
	switch {
	case format != "":
		return export.ParseFormat(format)
	case output != "":
		return export.ParseFormat(filepath.Ext(output))
	default:
		return export.FormatJSONL, nil
	}
}

func newerThan(records []models.SubmittedRecord, cutoff time.Time) []models.SubmittedRecord {
	out := records[:0]
	for _, r := range records {
		if !r.SubmittedAt().Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}
