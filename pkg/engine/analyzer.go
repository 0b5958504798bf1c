package engine

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"selfmod/pkg/models"
	"selfmod/pkg/parser"
)

// fileFacts holds everything a single full-tree walk collects. Nested
// definitions appear flat, alongside top-level ones, in document order.
type fileFacts struct {
	functions  []models.FunctionInfo
	classes    []models.ClassInfo
	imports    []string
	issues     []string
	complexity int
}

// collectFacts walks the parsed tree once, recording functions, classes,
// imports, issues, and the complexity score. The walk is read-only.
func collectFacts(res *parser.ParseResult, longFunctionLines, fallbackSpan int) fileFacts {
	var facts fileFacts

	parser.WalkTyped(res.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "function_definition":
			fn := parser.ExtractFunction(node, source)
			facts.functions = append(facts.functions, models.FunctionInfo{
				Name:    fn.Name,
				Line:    fn.StartLine,
				Args:    fn.Params,
				IsAsync: fn.Async,
			})
			facts.complexity++

			span := functionSpan(fn, fallbackSpan)
			if span > longFunctionLines {
				facts.issues = append(facts.issues, longFunctionIssue(fn.Name, span))
			}

		case "class_definition":
			cls := parser.ExtractClass(node, source)
			facts.classes = append(facts.classes, models.ClassInfo{
				Name:    cls.Name,
				Line:    cls.StartLine,
				Methods: cls.Methods,
			})

		case "import_statement", "import_from_statement":
			facts.imports = append(facts.imports, parser.ImportNames(node, source)...)

		case "if_statement", "elif_clause", "for_statement", "while_statement":
			facts.complexity++
		}
		return true
	})

	return facts
}

// functionSpan estimates the line span of a function, assuming a fixed span
// when end-line metadata is unavailable.
func functionSpan(fn parser.FunctionNode, fallbackSpan int) int {
	if fn.EndLine < fn.StartLine {
		return fallbackSpan
	}
	return int(fn.EndLine - fn.StartLine)
}

func longFunctionIssue(name string, span int) string {
	return fmt.Sprintf("Function '%s' is too long (%d lines)", name, span)
}
