package outwriter

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/tagchurn/internal/parquet"
	"github.com/huangsam/tagchurn/schema"
)

// tsvWriter prints "hash<TAB>churn<TAB>label" lines, the default output.
type tsvWriter struct {
	w     *bufio.Writer
	split bool
}

func newTSVWriter(w io.Writer, split bool) *tsvWriter {
	return &tsvWriter{w: bufio.NewWriter(w), split: split}
}

func (t *tsvWriter) WriteRows(rows []schema.ChurnRow) error {
	for _, r := range rows {
		var err error
		if t.split {
			_, err = fmt.Fprintf(t.w, "%s\t%d\t%d\t%d\t%s\n", r.Commit, r.Churn, r.Added, r.Removed, r.Label)
		} else {
			_, err = fmt.Fprintf(t.w, "%s\t%d\t%s\n", r.Commit, r.Churn, r.Label)
		}
		if err != nil {
			return err
		}
	}
	// Flush per batch so piped consumers see rows as commits complete
	return t.w.Flush()
}

func (t *tsvWriter) Finish(schema.ChurnSummary, time.Duration) error {
	return t.w.Flush()
}

var csvHeader = []string{"commit", "churn", "added", "removed", "tag", "path"}

type csvWriter struct {
	cw     *csv.Writer
	header bool
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{cw: csv.NewWriter(w)}
}

func (c *csvWriter) writeHeader() error {
	if c.header {
		return nil
	}
	c.header = true
	if err := c.cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	return nil
}

func (c *csvWriter) WriteRows(rows []schema.ChurnRow) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Commit,
			strconv.Itoa(r.Churn),
			strconv.Itoa(r.Added),
			strconv.Itoa(r.Removed),
			r.Label,
			r.Path,
		}
		if err := c.cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	c.cw.Flush()
	return c.cw.Error()
}

func (c *csvWriter) Finish(schema.ChurnSummary, time.Duration) error {
	if err := c.writeHeader(); err != nil {
		return err
	}
	c.cw.Flush()
	return c.cw.Error()
}

type jsonWriter struct {
	w    io.Writer
	rows []schema.ChurnRow
}

func (j *jsonWriter) WriteRows(rows []schema.ChurnRow) error {
	j.rows = append(j.rows, rows...)
	return nil
}

func (j *jsonWriter) Finish(schema.ChurnSummary, time.Duration) error {
	return writeJSON(j.w, j.rows)
}

type parquetWriter struct {
	w    io.Writer
	rows []schema.ChurnRow
}

func (p *parquetWriter) WriteRows(rows []schema.ChurnRow) error {
	p.rows = append(p.rows, rows...)
	return nil
}

func (p *parquetWriter) Finish(schema.ChurnSummary, time.Duration) error {
	if err := parquet.WriteChurnRows(p.w, parquet.ConvertChurnRows(p.rows)); err != nil {
		return fmt.Errorf("error writing parquet output: %w", err)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
