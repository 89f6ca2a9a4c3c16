package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/scantrak/internal/export"
	"github.com/mamadbah2/scantrak/internal/service/reporting"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarize a Parquet export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat file: %w", err)
			}

			rows, err := export.ReadParquet(file, info.Size())
			if err != nil {
				return err
			}

			lister := make(staticRecords, len(rows))
			for i, row := range rows {
				lister[i] = row.Record()
			}

			since, until := lister.bounds()
			svc := reporting.NewService(lister, nil, nil)
			text, err := svc.Digest(cmd.Context(), since, until)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) in %s\n%s\n", len(rows), args[0], text)
			return nil
		},
	}
}
