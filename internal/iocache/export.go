package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/internal/parquet"
)

// ExportRuns writes every stored run and row of store to
// <outputFile>.runs.parquet and <outputFile>.rows.parquet.
func ExportRuns(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled. Set --runs-backend to export runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no churn runs found to export")
	}

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve churn runs: %w", err)
	}
	rows, err := store.GetAllRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve churn rows: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write churn runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	rowsFile := outputFile + ".rows.parquet"
	if err := parquet.WriteChurnRowsParquet(parquet.ConvertChurnRowRecords(rows), rowsFile); err != nil {
		return fmt.Errorf("failed to write churn rows: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d rows to: %s\n", len(rows), rowsFile)
	return nil
}
