package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// docFor extracts the documentation comment attached to a declaration node,
// cleaned of markers. Returns "" when the declaration carries none.
func (ex *extractor) docFor(node *sitter.Node) string {
	if ex.info.convention == docstringConvention {
		return ex.docstring(node)
	}
	return ex.precedingComment(ex.anchor(node))
}

// moduleDoc extracts file-level documentation: a leading docstring for
// Python-like grammars, or a comment starting on line 1 for the rest.
func (ex *extractor) moduleDoc(root *sitter.Node) (string, bool) {
	if ex.info.convention == docstringConvention {
		if doc := docstringOf(root, ex.source); doc != "" {
			return doc, true
		}
		return "", false
	}
	return ex.leadingFileComment()
}

// docstring returns the documentation string of a Python class or function:
// the first statement of its body when that statement is a bare string
// literal.
func (ex *extractor) docstring(node *sitter.Node) string {
	body := node.ChildByFieldName("body")
	if body == nil {
		return ""
	}
	return docstringOf(body, ex.source)
}

// docstringOf checks whether the first real statement under scope is a bare
// string literal and returns its cleaned text.
func docstringOf(scope *sitter.Node, source []byte) string {
	for i := 0; i < int(scope.NamedChildCount()); i++ {
		child := scope.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if child.Type() != "expression_statement" {
			return ""
		}
		str := child.NamedChild(0)
		if str == nil || str.Type() != "string" {
			return ""
		}
		return cleanPythonString(str.Content(source))
	}
	return ""
}

// wrapperNodes are syntactic wrappers whose leading keyword sits between a
// documentation comment and the declaration it documents.
var wrapperNodes = map[string]bool{
	"export_statement": true,
	"type_declaration": true,
}

// anchor returns the byte offset a preceding doc comment must be adjacent to.
// For wrapped declarations (export class Foo, type Foo struct) the comment
// precedes the wrapper, not the inner declaration. Grouped Go type blocks are
// not hopped: their specs start on their own lines and own their comments.
func (ex *extractor) anchor(node *sitter.Node) int {
	for {
		parent := node.Parent()
		if parent == nil || !wrapperNodes[parent.Type()] {
			break
		}
		if parent.StartPoint().Row != node.StartPoint().Row {
			break
		}
		node = parent
	}
	return int(node.StartByte())
}

// precedingComment scans backwards from the declaration start. Only
// whitespace may separate the comment from the declaration; anything else
// means the comment documents something other than this element.
func (ex *extractor) precedingComment(declStart int) string {
	if declStart > len(ex.source) {
		return ""
	}
	text := string(ex.source[:declStart])
	trimmed := strings.TrimRight(text, " \t\r\n")
	if trimmed == "" {
		return ""
	}

	if strings.HasSuffix(trimmed, "*/") {
		open := strings.LastIndex(trimmed, "/*")
		if open < 0 {
			return ""
		}
		body := trimmed[open+2 : len(trimmed)-2]
		if ex.info.name != "go" && !strings.HasPrefix(strings.TrimSpace(body), "*") {
			// Plain block comments are not documentation in JSDoc-style
			// grammars; only /** ... */ counts.
			return ""
		}
		return cleanBlockComment(body)
	}

	if ex.info.name == "go" {
		return trailingLineComments(trimmed)
	}
	return ""
}

// leadingFileComment returns a comment that literally starts on line 1.
func (ex *extractor) leadingFileComment() (string, bool) {
	text := string(ex.source)
	if strings.HasPrefix(text, "/*") {
		end := strings.Index(text, "*/")
		if end < 0 {
			return "", false
		}
		body := text[2:end]
		if ex.info.name != "go" && !strings.HasPrefix(strings.TrimSpace(body), "*") {
			return "", false
		}
		if doc := cleanBlockComment(body); doc != "" {
			return doc, true
		}
		return "", false
	}
	if ex.info.name == "go" && strings.HasPrefix(text, "//") {
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			if !strings.HasPrefix(strings.TrimSpace(line), "//") {
				break
			}
			lines = append(lines, line)
		}
		if doc := cleanLineComments(lines); doc != "" {
			return doc, true
		}
	}
	return "", false
}

// trailingLineComments collects a contiguous run of // comments at the end of
// the given text, as used by Go doc comments.
func trailingLineComments(text string) string {
	lines := strings.Split(text, "\n")
	var run []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "//") {
			break
		}
		run = append([]string{line}, run...)
	}
	return cleanLineComments(run)
}

// cleanBlockComment strips per-line * markers and surrounding whitespace from
// a block comment body, keeping non-empty lines.
func cleanBlockComment(body string) string {
	var cleaned []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// cleanLineComments strips // markers from a run of line comments.
func cleanLineComments(lines []string) string {
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// cleanPythonString strips string prefixes and quotes from a Python string
// literal and trims surrounding whitespace.
func cleanPythonString(lit string) string {
	lit = strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(lit, q) && strings.HasSuffix(lit, q) && len(lit) >= 2*len(q) {
			lit = lit[len(q) : len(lit)-len(q)]
			break
		}
	}
	return strings.TrimSpace(lit)
}
