// Package parquet exports churn runs and churn rows to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/tagchurn/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one recorded churn run. It maps to the tagchurn_runs table.
type Run struct {
	RunID           int64      `parquet:"run_id,snappy"`
	StartTime       time.Time  `parquet:"start_time,snappy"`
	EndTime         *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs   *int32     `parquet:"run_duration_ms,optional,snappy"`
	CommitsSeen     int32      `parquet:"commits_seen,snappy"`
	CommitsFiltered int32      `parquet:"commits_filtered,snappy"`
	CommitsEmitted  int32      `parquet:"commits_emitted,snappy"`
	TotalRows       int32      `parquet:"total_rows,snappy"`

	// ConfigParams is the JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ChurnRow is the churn of one tag in one commit. It maps to the
// tagchurn_churn_rows table; rows written straight from a churn command
// carry a zero RunID.
type ChurnRow struct {
	RunID   int64  `parquet:"run_id,snappy"`
	Seq     int32  `parquet:"seq,snappy"`
	Commit  string `parquet:"commit,dict,snappy"`
	Path    string `parquet:"path,dict,snappy"`
	Label   string `parquet:"label,snappy"`
	Churn   int32  `parquet:"churn,snappy"`
	Added   int32  `parquet:"added,snappy"`
	Removed int32  `parquet:"removed,snappy"`
}

// ConvertRunRecords converts stored runs to Parquet records.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	out := make([]Run, len(records))
	for i, r := range records {
		out[i] = Run{
			RunID:           r.RunID,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
			RunDurationMs:   r.RunDurationMs,
			CommitsSeen:     r.CommitsSeen,
			CommitsFiltered: r.CommitsFiltered,
			CommitsEmitted:  r.CommitsEmitted,
			TotalRows:       r.TotalRows,
			ConfigParams:    r.ConfigParams,
		}
	}
	return out
}

// ConvertChurnRowRecords converts stored rows to Parquet records.
func ConvertChurnRowRecords(records []schema.ChurnRowRecord) []ChurnRow {
	out := make([]ChurnRow, len(records))
	for i, r := range records {
		out[i] = ChurnRow(r)
	}
	return out
}

// ConvertChurnRows converts the rows of a churn command, numbering them in order.
func ConvertChurnRows(rows []schema.ChurnRow) []ChurnRow {
	out := make([]ChurnRow, len(rows))
	for i, r := range rows {
		out[i] = ChurnRow{
			Seq:     int32(i),
			Commit:  r.Commit,
			Path:    r.Path,
			Label:   r.Label,
			Churn:   int32(r.Churn),
			Added:   int32(r.Added),
			Removed: int32(r.Removed),
		}
	}
	return out
}

// WriteRunsParquet writes runs to a Parquet file at outputPath.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteChurnRowsParquet writes rows to a Parquet file at outputPath.
func WriteChurnRowsParquet(data []ChurnRow, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteChurnRows streams rows as Parquet to w.
func WriteChurnRows(w io.Writer, data []ChurnRow) error {
	return write(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// write infers the schema from T's struct tags.
func write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
