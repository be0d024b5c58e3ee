// Package tagfmt renders tags as row labels.
package tagfmt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/tagchurn/schema"
)

// UntaggedName is the name of the synthetic tag that collects lines outside any tag.
const UntaggedName = "<untagged>"

// UntaggedKind is the kind of the synthetic untagged tag.
const UntaggedKind = "file"

// Renderer turns a tag into its label.
type Renderer func(schema.Tag) string

// ParseFormat validates a format name. An empty name selects the human format.
func ParseFormat(name string) (schema.TagFormat, error) {
	if name == "" {
		return schema.HumanFormat, nil
	}
	f := schema.TagFormat(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := schema.ValidTagFormats[f]; !ok {
		return "", fmt.Errorf("invalid tag format '%s'. must be human, short or json", name)
	}
	return f, nil
}

// Untagged returns the synthetic tag for path.
func Untagged(path string) schema.Tag {
	return schema.Tag{Name: UntaggedName, Kind: UntaggedKind, Path: path}
}

// Render formats tag according to format.
func Render(tag schema.Tag, format schema.TagFormat) (string, error) {
	switch format {
	case schema.HumanFormat, "":
		return tag.Path + " > " + short(tag), nil
	case schema.ShortFormat:
		return short(tag), nil
	case schema.JSONFormat:
		return renderJSON(tag)
	default:
		return "", fmt.Errorf("unknown tag format %q", format)
	}
}

// NewRenderer returns a Renderer bound to format. Unknown formats are rejected here
// so the returned Renderer never fails.
func NewRenderer(format schema.TagFormat) (Renderer, error) {
	if _, err := Render(schema.Tag{}, format); err != nil {
		return nil, err
	}
	return func(t schema.Tag) string {
		s, err := Render(t, format)
		if err != nil {
			// Only reachable if json.Marshal fails on a plain struct of strings
			return short(t)
		}
		return s
	}, nil
}

func short(tag schema.Tag) string {
	return fmt.Sprintf("%s (%s)", tag.QualifiedName(), tag.Kind)
}

// jsonLabel has its fields in alphabetical order so the encoding has sorted keys.
type jsonLabel struct {
	Kind      string `json:"kind,omitempty"`
	Name      string `json:"name,omitempty"`
	Path      string `json:"path,omitempty"`
	Scope     string `json:"scope,omitempty"`
	ScopeKind string `json:"scopeKind,omitempty"`
}

func renderJSON(tag schema.Tag) (string, error) {
	b, err := json.Marshal(jsonLabel{
		Kind:      tag.Kind,
		Name:      tag.Name,
		Path:      tag.Path,
		Scope:     strings.Join(tag.Scope, "."),
		ScopeKind: tag.ScopeKind,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
