package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// ctagsBaseArgs puts universal-ctags in interactive JSON mode with line, end,
// long kind and scope fields.
var ctagsBaseArgs = []string{"--_interactive", "--fields=+nKeZ"}

// CTags runs universal-ctags once per file revision.
type CTags struct {
	path string
	args []string
}

// NewCTags resolves the ctags binary. A missing binary is ErrAnalyzerUnavailable.
func NewCTags(binary string, extraArgs []string) (*CTags, error) {
	if binary == "" {
		binary = contract.DefaultCTagsPath
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ctags %q: %w: %v", binary, contract.ErrAnalyzerUnavailable, err)
	}
	return &CTags{path: resolved, args: append(append([]string{}, ctagsBaseArgs...), extraArgs...)}, nil
}

// Name identifies the analyzer and its arguments.
func (c *CTags) Name() string {
	return "ctags " + strings.Join(c.args, " ")
}

// ctagsRequest is the interactive generate-tags command.
type ctagsRequest struct {
	Command  string `json:"command"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// ctagsRecord is one line of interactive output.
type ctagsRecord struct {
	Type      string `json:"_type"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Scope     string `json:"scope"`
	ScopeKind string `json:"scopeKind"`
	Line      int    `json:"line"`
	End       int    `json:"end"`
	Error     string `json:"error"`
}

// Tags implements contract.TagAnalyzer.
func (c *CTags) Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error) {
	header, err := json.Marshal(ctagsRequest{Command: "generate-tags", Filename: path, Size: len(content)})
	if err != nil {
		return nil, err
	}
	var stdin bytes.Buffer
	stdin.Grow(len(header) + 1 + len(content))
	stdin.Write(header)
	stdin.WriteByte('\n')
	stdin.Write(content)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = &stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("ctags: %w: %v", contract.ErrAnalyzerUnavailable, err)
		}
		return nil, fmt.Errorf("ctags %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseCTags(&stdout, schema.LineCount(content))
}

// parseCTags keeps the tag records of an interactive session. Tags without
// an end line extend to lineCount.
func parseCTags(r io.Reader, lineCount int) ([]schema.Tag, error) {
	var tags []schema.Tag
	dec := json.NewDecoder(r)
	for {
		var rec ctagsRecord
		if err := dec.Decode(&rec); err == io.EOF {
			return tags, nil
		} else if err != nil {
			return nil, fmt.Errorf("malformed ctags output: %w", err)
		}

		switch rec.Type {
		case "tag":
			tags = append(tags, rec.tag(lineCount))
		case "error":
			return nil, fmt.Errorf("ctags: %s", rec.Error)
		}
	}
}

func (rec ctagsRecord) tag(lineCount int) schema.Tag {
	end := rec.End
	if end == 0 {
		end = max(lineCount, rec.Line)
	}
	return schema.Tag{
		Name:      rec.Name,
		Kind:      rec.Kind,
		Scope:     splitScope(rec.Scope),
		ScopeKind: rec.ScopeKind,
		StartLine: rec.Line,
		EndLine:   end,
	}
}

// splitScope splits a ctags scope on "." and "::" into names, outer to inner.
func splitScope(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ReplaceAll(scope, "::", "."), func(r rune) bool { return r == '.' })
}
