//go:build cgo

package tagger

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/huangsam/tagchurn/schema"
)

// nodeRule turns a syntax node into a tag of kind. The name comes from the
// nameField child, or the first identifier child when nameField is empty.
type nodeRule struct {
	kind      string
	nameField string
}

var (
	jsRules = map[string]nodeRule{
		"function_declaration":           {"function", "name"},
		"generator_function_declaration": {"function", "name"},
		"class_declaration":              {"class", "name"},
		"method_definition":              {"method", "name"},
	}
	tsRules = merge(jsRules, map[string]nodeRule{
		"abstract_class_declaration": {"class", "name"},
		"interface_declaration":      {"interface", "name"},
		"type_alias_declaration":     {"type", "name"},
		"enum_declaration":           {"enum", "name"},
		"internal_module":            {"namespace", "name"},
	})

	languageRules = map[string]map[string]nodeRule{
		langGo: {
			"function_declaration": {"function", "name"},
			"method_declaration":   {"method", "name"},
			"type_spec":            {"type", "name"},
		},
		langPython: {
			"function_definition": {"function", "name"},
			"class_definition":    {"class", "name"},
		},
		langJavaScript: jsRules,
		langTypeScript: tsRules,
		langTSX:        tsRules,
		langRust: {
			"function_item": {"function", "name"},
			"struct_item":   {"struct", "name"},
			"enum_item":     {"enum", "name"},
			"union_item":    {"union", "name"},
			"trait_item":    {"trait", "name"},
			"mod_item":      {"module", "name"},
			"impl_item":     {"impl", "type"},
		},
		langJava: {
			"class_declaration":       {"class", "name"},
			"interface_declaration":   {"interface", "name"},
			"enum_declaration":        {"enum", "name"},
			"record_declaration":      {"record", "name"},
			"method_declaration":      {"method", "name"},
			"constructor_declaration": {"constructor", "name"},
		},
		langKotlin: {
			"class_declaration":    {"class", ""},
			"object_declaration":   {"object", ""},
			"function_declaration": {"function", ""},
		},
	}

	// containerKinds turn nested functions into methods.
	containerKinds = map[string]bool{
		"class": true, "interface": true, "object": true, "struct": true, "trait": true, "impl": true,
	}

	identifierTypes = map[string]bool{
		"identifier": true, "type_identifier": true, "simple_identifier": true,
		"property_identifier": true, "field_identifier": true,
	}
)

func merge(base, extra map[string]nodeRule) map[string]nodeRule {
	out := make(map[string]nodeRule, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func grammar(lang string) *sitter.Language {
	switch lang {
	case langGo:
		return golang.GetLanguage()
	case langPython:
		return python.GetLanguage()
	case langJavaScript:
		return javascript.GetLanguage()
	case langTypeScript:
		return typescript.GetLanguage()
	case langTSX:
		return tsx.GetLanguage()
	case langRust:
		return rust.GetLanguage()
	case langJava:
		return java.GetLanguage()
	case langKotlin:
		return kotlin.GetLanguage()
	default:
		return nil
	}
}

// TreeSitter tags files by walking their tree-sitter syntax trees.
type TreeSitter struct{}

// NewTreeSitter returns the tree-sitter analyzer.
func NewTreeSitter() (*TreeSitter, error) {
	return &TreeSitter{}, nil
}

// Name identifies the analyzer.
func (*TreeSitter) Name() string { return "treesitter" }

// Tags implements contract.TagAnalyzer. Parsers are not shared, so
// concurrent calls are safe.
func (*TreeSitter) Tags(ctx context.Context, path string, content []byte) ([]schema.Tag, error) {
	lang := detectLanguage(path, content)
	rules, ok := languageRules[lang]
	if !ok {
		return nil, fmt.Errorf("%s (%q): %w", path, lang, ErrUnsupportedLanguage)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar(lang))
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := walker{lang: lang, rules: rules, source: content}
	w.walk(tree.RootNode(), nil, "")
	return w.tags, nil
}

type walker struct {
	lang   string
	rules  map[string]nodeRule
	source []byte
	tags   []schema.Tag
}

func (w *walker) walk(n *sitter.Node, scope []string, scopeKind string) {
	childScope, childKind := scope, scopeKind
	if rule, ok := w.rules[n.Type()]; ok {
		if tag, ok := w.tag(n, rule, scope, scopeKind); ok {
			w.tags = append(w.tags, tag)
			childScope = append(append([]string{}, tag.Scope...), tag.Name)
			childKind = tag.Kind
		}
	}
	for i := range int(n.NamedChildCount()) {
		w.walk(n.NamedChild(i), childScope, childKind)
	}
}

func (w *walker) tag(n *sitter.Node, rule nodeRule, scope []string, scopeKind string) (schema.Tag, bool) {
	name := w.name(n, rule.nameField)
	if name == "" {
		return schema.Tag{}, false
	}

	kind := rule.kind
	switch {
	case kind == "function" && containerKinds[scopeKind]:
		kind = "method"
	case w.lang == langGo && kind == "method":
		if recv := w.receiverType(n); recv != "" {
			scope, scopeKind = []string{recv}, "type"
		}
	case w.lang == langGo && kind == "type":
		kind = goTypeKind(n)
	}

	start, end := n.StartPoint(), n.EndPoint()
	endLine := int(end.Row) + 1
	if end.Column == 0 && end.Row > start.Row {
		endLine--
	}
	return schema.Tag{
		Name:      name,
		Kind:      kind,
		Scope:     scope,
		ScopeKind: scopeKind,
		StartLine: int(start.Row) + 1,
		EndLine:   endLine,
	}, true
}

func (w *walker) name(n *sitter.Node, field string) string {
	if field != "" {
		if c := n.ChildByFieldName(field); c != nil {
			if c.Type() == "generic_type" || c.Type() == "scoped_type_identifier" {
				if inner := w.firstIdentifier(c); inner != "" {
					return inner
				}
			}
			return c.Content(w.source)
		}
		return ""
	}
	return w.firstIdentifier(n)
}

func (w *walker) firstIdentifier(n *sitter.Node) string {
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		if identifierTypes[c.Type()] {
			return c.Content(w.source)
		}
	}
	return ""
}

// receiverType returns T for methods declared on T or *T.
func (w *walker) receiverType(n *sitter.Node) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var found string
	var visit func(*sitter.Node)
	visit = func(c *sitter.Node) {
		if found != "" {
			return
		}
		if c.Type() == "type_identifier" {
			found = c.Content(w.source)
			return
		}
		for i := range int(c.NamedChildCount()) {
			visit(c.NamedChild(i))
		}
	}
	visit(recv)
	return found
}

func goTypeKind(n *sitter.Node) string {
	t := n.ChildByFieldName("type")
	if t == nil {
		return "type"
	}
	switch t.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	default:
		return "type"
	}
}
