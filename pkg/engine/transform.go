package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"selfmod/pkg/parser"
)

// edit is a single text insertion at a byte offset of the current source.
type edit struct {
	offset uint32
	text   string
}

// applyEdits splices insertions into source. Edits are applied back to front
// so earlier offsets stay valid.
func applyEdits(source []byte, edits []edit) []byte {
	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].offset > sorted[j].offset })

	out := source
	for _, e := range sorted {
		head := out[:e.offset]
		tail := out[e.offset:]
		buf := make([]byte, 0, len(out)+len(e.text))
		buf = append(buf, head...)
		buf = append(buf, e.text...)
		buf = append(buf, tail...)
		out = buf
	}
	return out
}

// insertLeadingStatements computes one insertion per qualifying function:
// stmt(name) becomes the function's first statement. Functions whose names
// start with an underscore are skipped. Returns the edits and one change
// description per insertion.
func insertLeadingStatements(res *parser.ParseResult, stmt func(name string) string, change func(name string) string) ([]edit, []string, error) {
	var edits []edit
	var changes []string
	var failed string

	parser.WalkTyped(res.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if failed != "" {
			return false
		}
		if nodeType != "function_definition" {
			return true
		}

		fn := parser.ExtractFunction(node, source)
		if strings.HasPrefix(fn.Name, "_") {
			return true
		}

		if fn.Body == nil || fn.Body.NamedChildCount() == 0 {
			failed = fn.Name
			return false
		}

		first := fn.Body.NamedChild(0)
		text := stmt(fn.Name)
		if first.StartPoint().Row == node.StartPoint().Row {
			// Inline body on the def line: splice with a statement separator.
			text += "; "
		} else {
			text += "\n" + leadingWhitespace(source, first.StartByte())
		}

		edits = append(edits, edit{offset: first.StartByte(), text: text})
		changes = append(changes, change(fn.Name))
		return true
	})

	if failed != "" {
		return nil, nil, fmt.Errorf("%w: no insertion point in function %q", ErrUnsupportedRegeneration, failed)
	}
	return edits, changes, nil
}

// leadingWhitespace returns the exact whitespace between the start of the
// line and offset, preserving tabs vs spaces.
func leadingWhitespace(source []byte, offset uint32) string {
	lineStart := offset
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	indent := source[lineStart:offset]
	for _, b := range indent {
		if b != ' ' && b != '\t' {
			// First statement does not sit at the start of its line; fall
			// back to no indentation rather than copying code text.
			return ""
		}
	}
	return string(indent)
}

// addPerformanceMarkers inserts a no-op marker string as the first statement
// of every qualifying function.
func addPerformanceMarkers(res *parser.ParseResult) ([]edit, []string, error) {
	return insertLeadingStatements(res,
		func(name string) string {
			return fmt.Sprintf("%q", "[PERF] Function "+name+" optimized")
		},
		func(name string) string {
			return "Added performance marker to " + name
		},
	)
}

// addLogging inserts a print statement announcing function entry.
func addLogging(res *parser.ParseResult) ([]edit, []string, error) {
	return insertLeadingStatements(res,
		func(name string) string {
			return fmt.Sprintf("print(%q)", "[LOG] Entering function: "+name)
		},
		func(name string) string {
			return "Added logging to " + name
		},
	)
}

// codeCleanup scans integer literals and records a change for each literal
// 42 it finds. It performs no edits: the rule only detects, it does not
// rewrite.
func codeCleanup(res *parser.ParseResult) ([]edit, []string, error) {
	var changes []string
	parser.WalkTyped(res.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType == "integer" {
			if v, ok := parser.IntegerValue(node, source); ok && v == 42 {
				changes = append(changes, "Replaced magic number 42")
			}
		}
		return true
	})
	return nil, changes, nil
}

// writeFileAtomic writes data to a temp file in the target's directory and
// renames it over the target after a successful flush, so a crash mid-write
// cannot leave a truncated file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".selfmod-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
