// Package gitlog splits patch-format git log output into commit records.
package gitlog

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/tagchurn/schema"
)

var diffHeader = []byte("diff --git ")

// Parse splits raw log output produced with a marker-prefixed "%H %P" header
// into CommitRecords in log order. Each file's "diff --git" block is kept
// verbatim for the hunk extractor.
func Parse(raw []byte, marker string) ([]schema.CommitRecord, error) {
	m := []byte(marker)
	var commits []schema.CommitRecord

	for _, chunk := range splitOn(raw, m) {
		header, body, _ := bytes.Cut(chunk, []byte("\n"))
		fields := strings.Fields(string(header))
		if len(fields) == 0 {
			return nil, fmt.Errorf("commit %d: empty header", len(commits))
		}

		rec := schema.CommitRecord{Seq: len(commits), Hash: fields[0]}
		if len(fields) > 1 {
			rec.Parent = fields[1]
		}
		for _, block := range splitOn(body, diffHeader) {
			fc, err := parseFileBlock(append(append([]byte{}, diffHeader...), block...))
			if err != nil {
				return nil, fmt.Errorf("commit %s: %w", rec.Hash, err)
			}
			rec.Files = append(rec.Files, fc)
		}
		commits = append(commits, rec)
	}
	return commits, nil
}

// splitOn returns the pieces following each line that starts with sep, with
// sep itself removed. Text before the first separator is discarded.
func splitOn(raw, sep []byte) [][]byte {
	var starts []int
	for i := 0; i < len(raw); {
		if bytes.HasPrefix(raw[i:], sep) {
			starts = append(starts, i)
		}
		nl := bytes.IndexByte(raw[i:], '\n')
		if nl < 0 {
			break
		}
		i += nl + 1
	}

	pieces := make([][]byte, 0, len(starts))
	for n, s := range starts {
		end := len(raw)
		if n+1 < len(starts) {
			end = starts[n+1]
		}
		pieces = append(pieces, raw[s+len(sep):end])
	}
	return pieces
}

func parseFileBlock(block []byte) (schema.FileChange, error) {
	header, rest, _ := bytes.Cut(block, []byte("\n"))
	path, err := pathFromHeader(string(header))
	if err != nil {
		return schema.FileChange{}, err
	}

	status := schema.FileModified
	for _, line := range bytes.SplitN(rest, []byte("\n"), 4) {
		switch {
		case bytes.HasPrefix(line, []byte("new file mode")):
			status = schema.FileAdded
		case bytes.HasPrefix(line, []byte("deleted file mode")):
			status = schema.FileDeleted
		}
	}
	return schema.FileChange{Path: path, Status: status, Diff: block}, nil
}

// pathFromHeader reads X from "diff --git a/X b/X". Without renames both sides
// are the same path, so the header splits evenly in half.
func pathFromHeader(header string) (string, error) {
	names := strings.TrimPrefix(header, string(diffHeader))
	if strings.HasPrefix(names, `"`) {
		return unquoted(names)
	}
	if len(names)%2 == 1 {
		half := len(names) / 2
		a, b := names[:half], names[half+1:]
		if strings.HasPrefix(a, "a/") && strings.HasPrefix(b, "b/") && a[2:] == b[2:] {
			return a[2:], nil
		}
	}
	if i := strings.Index(names, " b/"); strings.HasPrefix(names, "a/") && i > 0 {
		return names[2:i], nil
	}
	return "", fmt.Errorf("unrecognized diff header %q", header)
}

// unquoted handles headers git quotes because of unusual characters.
func unquoted(names string) (string, error) {
	if len(names)%2 == 0 {
		return "", fmt.Errorf("unbalanced quoted header %q", names)
	}
	a, err := strconv.Unquote(names[:len(names)/2])
	if err != nil || !strings.HasPrefix(a, "a/") {
		return "", fmt.Errorf("unexpected quoted path in %q", names)
	}
	return a[2:], nil
}
