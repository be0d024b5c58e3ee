//go:build !cgo

package tagger

import (
	"context"
	"fmt"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// TreeSitter is unavailable in builds without cgo.
type TreeSitter struct{}

// NewTreeSitter reports that tree-sitter needs cgo.
func NewTreeSitter() (*TreeSitter, error) {
	return nil, fmt.Errorf("tree-sitter requires a cgo build: %w", contract.ErrAnalyzerUnavailable)
}

// Name identifies the analyzer.
func (*TreeSitter) Name() string { return "treesitter" }

// Tags implements contract.TagAnalyzer.
func (*TreeSitter) Tags(context.Context, string, []byte) ([]schema.Tag, error) {
	return nil, contract.ErrAnalyzerUnavailable
}
