// Package hunk turns a single file's unified diff into line-level change events.
package hunk

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/huangsam/tagchurn/schema"
)

var (
	// ErrBinary is returned for diffs of binary files, which have no line events.
	ErrBinary = errors.New("binary diff")

	// ErrUnparseable is returned when the diff text cannot be parsed.
	ErrUnparseable = errors.New("unparseable diff")
)

// Extract parses one file's diff block and returns its change events in hunk order.
// Added lines are numbered against the post-image and removed lines against the pre-image.
func Extract(diffText []byte) ([]schema.ChangeEvent, error) {
	if len(bytes.TrimSpace(diffText)) == 0 {
		return nil, nil
	}

	if !bytes.Contains(diffText, []byte("\n@@")) && isBinary(diffText) {
		return nil, ErrBinary
	}

	fd, err := godiff.ParseFileDiff(diffText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var events []schema.ChangeEvent
	for _, h := range fd.Hunks {
		events = appendHunk(events, h)
	}
	return events, nil
}

// Count returns how many lines were added and removed in events.
func Count(events []schema.ChangeEvent) (added, removed int) {
	for _, ev := range events {
		switch ev.Kind {
		case schema.Added:
			added++
		case schema.Removed:
			removed++
		}
	}
	return added, removed
}

func isBinary(raw []byte) bool {
	return bytes.Contains(raw, []byte("\nBinary files ")) || bytes.Contains(raw, []byte("\nGIT binary patch"))
}

// appendHunk walks the hunk body with one counter per side.
func appendHunk(events []schema.ChangeEvent, h *godiff.Hunk) []schema.ChangeEvent {
	oldLine := int(h.OrigStartLine)
	newLine := int(h.NewStartLine)

	body := strings.TrimSuffix(string(h.Body), "\n")
	if body == "" {
		return events
	}

	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			// A blank context line whose leading space was stripped
			oldLine++
			newLine++
			continue
		}
		switch line[0] {
		case '+':
			events = append(events, schema.ChangeEvent{Line: newLine, Kind: schema.Added})
			newLine++
		case '-':
			events = append(events, schema.ChangeEvent{Line: oldLine, Kind: schema.Removed})
			oldLine++
		case ' ':
			oldLine++
			newLine++
		case '\\':
			// No newline at end of file
		}
	}
	return events
}
