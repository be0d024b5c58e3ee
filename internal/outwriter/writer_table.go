package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/tagchurn/core/tagfmt"
	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

const shortHashLen = 10

// tableWriter renders rows as a human-readable table once the run finishes.
type tableWriter struct {
	w          io.Writer
	cfg        *contract.Config
	labelWidth int
	data       [][]string
}

func newTableWriter(w io.Writer, cfg *contract.Config) *tableWriter {
	return &tableWriter{w: w, cfg: cfg, labelWidth: GetMaxTableLabelWidth(cfg)}
}

func (t *tableWriter) WriteRows(rows []schema.ChurnRow) error {
	for _, r := range rows {
		row := []string{shortHash(r.Commit), t.churnCell(r.Churn)}
		if t.cfg.Split {
			row = append(row, strconv.Itoa(r.Added), strconv.Itoa(r.Removed))
		}
		row = append(row, t.labelCell(r.Label))
		t.data = append(t.data, row)
	}
	return nil
}

func (t *tableWriter) churnCell(churn int) string {
	if t.cfg.UseColors {
		return contract.GetColorChurn(churn)
	}
	return strconv.Itoa(churn)
}

func (t *tableWriter) labelCell(label string) string {
	// Cut from the left so the tag name itself stays visible
	label = contract.TruncatePath(label, t.labelWidth)
	if t.cfg.UseColors && strings.Contains(label, tagfmt.UntaggedName) {
		return contract.UntaggedColor.Sprint(label)
	}
	return label
}

func (t *tableWriter) Finish(summary schema.ChurnSummary, duration time.Duration) error {
	table := tablewriter.NewWriter(t.w)

	headers := []string{"Commit", "Churn"}
	if t.cfg.Split {
		headers = append(headers, "Added", "Removed")
	}
	headers = append(headers, "Tag")
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = columnAlignment(len(headers))
	})

	if err := table.Bulk(t.data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.w, "Showing %s rows from %s commits (total churn: %s, filtered commits: %s)\n",
		humanize.Comma(int64(summary.Rows)),
		humanize.Comma(int64(summary.CommitsEmitted)),
		humanize.Comma(int64(summary.TotalChurn)),
		humanize.Comma(int64(summary.CommitsFiltered))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(t.w, "Churn completed in %v with %d workers. Cache backend: %s\n",
		duration.Round(time.Millisecond), t.cfg.Workers, t.cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// columnAlignment right-aligns the numeric columns and left-aligns the label.
func columnAlignment(n int) []tw.Align {
	align := make([]tw.Align, n)
	align[0] = tw.AlignLeft
	for i := 1; i < n-1; i++ {
		align[i] = tw.AlignRight
	}
	align[n-1] = tw.AlignLeft
	return align
}

func shortHash(h string) string {
	if len(h) > shortHashLen {
		return h[:shortHashLen]
	}
	return h
}
