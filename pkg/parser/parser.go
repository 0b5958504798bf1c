// Package parser wraps tree-sitter for parsing Python source files.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SourceExt is the file extension the engine treats as analyzable source.
const SourceExt = ".py"

// IsSource reports whether the path has the recognized source extension.
func IsSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), SourceExt)
}

// Parser wraps a tree-sitter parser configured for Python.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and the source it was built from.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	Path   string
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile reads and parses a source file.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(ctx, source, path)
}

// Parse parses source bytes.
func (p *Parser) Parse(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return &ParseResult{Tree: tree, Source: source, Path: path}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// RootNode returns the root of the parsed tree.
func (r *ParseResult) RootNode() *sitter.Node {
	return r.Tree.RootNode()
}

// HasSyntaxError reports whether the tree contains error or missing nodes.
func (r *ParseResult) HasSyntaxError() bool {
	return r.Tree.RootNode().HasError()
}

// TypedNodeVisitor visits nodes with the node type pre-cached to avoid
// repeated CGO calls.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// WalkTyped traverses the tree in document order, calling visitor for each
// node. Returning false stops descent into that node's children.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type in document order.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	WalkTyped(root, source, func(n *sitter.Node, nt string, _ []byte) bool {
		if nt == nodeType {
			results = append(results, n)
		}
		return true
	})
	return results
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// FunctionNode represents a parsed function definition.
type FunctionNode struct {
	Name      string
	StartLine uint32
	EndLine   uint32
	Params    int
	Async     bool
	Body      *sitter.Node
}

// ExtractFunction extracts details from a function_definition node.
func ExtractFunction(node *sitter.Node, source []byte) FunctionNode {
	fn := FunctionNode{
		StartLine: node.StartPoint().Row + 1,
		EndLine:   node.EndPoint().Row + 1,
	}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fn.Name = GetNodeText(nameNode, source)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Params = countParameters(params)
	}
	fn.Body = node.ChildByFieldName("body")

	// The async keyword is an anonymous token preceding "def".
	for i := range int(node.ChildCount()) {
		t := node.Child(i).Type()
		if t == "async" {
			fn.Async = true
		}
		if t == "def" {
			break
		}
	}

	return fn
}

// countParameters counts positional parameters, mirroring how Python's own
// AST reports argument counts: *args, **kwargs, and anything after the "*"
// boundary (keyword-only parameters) are excluded.
func countParameters(params *sitter.Node) int {
	count := 0
	for i := range int(params.NamedChildCount()) {
		switch params.NamedChild(i).Type() {
		case "identifier", "typed_parameter", "default_parameter", "typed_default_parameter":
			count++
		case "list_splat_pattern", "keyword_separator":
			return count
		}
	}
	return count
}

// ClassNode represents a parsed class definition.
type ClassNode struct {
	Name      string
	StartLine uint32
	Methods   int
}

// ExtractClass extracts details from a class_definition node. Methods counts
// only direct children of the class body, decorated or not.
func ExtractClass(node *sitter.Node, source []byte) ClassNode {
	cls := ClassNode{
		StartLine: node.StartPoint().Row + 1,
	}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		cls.Name = GetNodeText(nameNode, source)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := range int(body.NamedChildCount()) {
		child := body.NamedChild(i)
		switch child.Type() {
		case "function_definition":
			cls.Methods++
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil && def.Type() == "function_definition" {
				cls.Methods++
			}
		}
	}

	return cls
}

// ImportNames returns the dotted names referenced by an import node.
// Plain imports yield the module path; from-imports yield "<module>.<name>".
func ImportNames(node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "import_statement":
		var names []string
		for i := range int(node.NamedChildCount()) {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				names = append(names, GetNodeText(child, source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					names = append(names, GetNodeText(name, source))
				}
			}
		}
		return names

	case "import_from_statement":
		moduleNode := node.ChildByFieldName("module_name")
		module := GetNodeText(moduleNode, source)

		var names []string
		for i := range int(node.NamedChildCount()) {
			child := node.NamedChild(i)
			if moduleNode != nil && child.StartByte() == moduleNode.StartByte() {
				continue
			}
			switch child.Type() {
			case "dotted_name":
				names = append(names, joinModule(module, GetNodeText(child, source)))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					names = append(names, joinModule(module, GetNodeText(name, source)))
				}
			case "wildcard_import":
				names = append(names, joinModule(module, "*"))
			}
		}
		return names
	}

	return nil
}

// joinModule joins a from-import module with an imported name. Relative
// modules like "." or "..pkg." already end in a dot and take the name
// without another separator.
func joinModule(module, name string) string {
	if module == "" {
		return name
	}
	if strings.HasSuffix(module, ".") {
		return module + name
	}
	return module + "." + name
}

// IntegerValue parses an integer literal node. The second return value is
// false when the node is not a parseable integer.
func IntegerValue(node *sitter.Node, source []byte) (int64, bool) {
	if node == nil || node.Type() != "integer" {
		return 0, false
	}
	text := strings.ReplaceAll(GetNodeText(node, source), "_", "")
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
