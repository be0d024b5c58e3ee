// Package tagger extracts structural tags from file contents.
package tagger

import (
	"errors"
	"fmt"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
)

// ErrUnsupportedLanguage is returned for files whose language an analyzer
// cannot parse. Callers treat it as a per-file warning.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// New returns the analyzer selected by cfg.
func New(cfg *contract.Config) (contract.TagAnalyzer, error) {
	switch cfg.Analyzer {
	case schema.CTagsAnalyzer, "":
		return NewCTags(cfg.CTagsPath, cfg.CTagsArgs)
	case schema.TreeSitterAnalyzer:
		return NewTreeSitter()
	default:
		return nil, fmt.Errorf("unknown analyzer %q", cfg.Analyzer)
	}
}
