// Package outwriter has output and writer logic for churn rows.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// RowWriter receives churn rows in log order as the aggregator releases them.
// Streaming formats write immediately; the others buffer until Finish.
type RowWriter interface {
	WriteRows(rows []schema.ChurnRow) error
	Finish(summary schema.ChurnSummary, duration time.Duration) error
}

// NewRowWriter returns the writer for cfg.Output on top of w.
func NewRowWriter(w io.Writer, cfg *contract.Config) (RowWriter, error) {
	switch cfg.Output {
	case schema.TSVOut, "":
		return newTSVWriter(w, cfg.Split), nil
	case schema.CSVOut:
		return newCSVWriter(w), nil
	case schema.JSONOut:
		return &jsonWriter{w: w, rows: []schema.ChurnRow{}}, nil
	case schema.ParquetOut:
		return &parquetWriter{w: w}, nil
	case schema.TextOut:
		return newTableWriter(w, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported output mode %q", cfg.Output)
	}
}

// Open selects the destination named by cfg.OutputFile (stdout when empty)
// and returns a RowWriter on it together with the function closing it. The
// close function may be called more than once and prints nothing, so a
// deferred close on a failed run stays silent.
func Open(cfg *contract.Config) (RowWriter, func() error, error) {
	file, err := contract.SelectOutputFile(cfg.OutputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	closer := func() error { return nil }
	if file != os.Stdout {
		closer = sync.OnceValue(file.Close)
	}

	w, err := NewRowWriter(file, cfg)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	return w, closer, nil
}
