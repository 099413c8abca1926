// Package parser provides tree-sitter-based multi-language source code parsing
// with automatic language detection from file extensions. It extracts
// documentable code elements (modules, classes, functions, methods) together
// with any documentation comment already attached to them.
package parser

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codantix/codantix/internal/element"
)

// docConvention selects how a language attaches documentation to a declaration.
type docConvention int

const (
	// docstringConvention: the first statement of a module/class/function body
	// is a bare string literal (Python).
	docstringConvention docConvention = iota
	// commentConvention: a comment immediately preceding the declaration, with
	// nothing but whitespace between comment end and declaration start.
	commentConvention
)

// langInfo holds tree-sitter language metadata including which node types
// represent classes, functions and methods for a given programming language.
type langInfo struct {
	name       string
	lang       *sitter.Language
	convention docConvention

	classNodes  map[string]bool
	funcNodes   map[string]bool
	methodNodes map[string]bool

	// receiverMethods marks languages where method membership is derived from
	// a receiver instead of lexical nesting (Go).
	receiverMethods bool
}

var jsLike = langInfo{
	name:        "javascript",
	lang:        javascript.GetLanguage(),
	convention:  commentConvention,
	classNodes:  map[string]bool{"class_declaration": true},
	funcNodes:   map[string]bool{"function_declaration": true},
	methodNodes: map[string]bool{"method_definition": true},
}

var tsLike = langInfo{
	name:        "typescript",
	lang:        typescript.GetLanguage(),
	convention:  commentConvention,
	classNodes:  map[string]bool{"class_declaration": true},
	funcNodes:   map[string]bool{"function_declaration": true},
	methodNodes: map[string]bool{"method_definition": true},
}

// registry maps file extensions to language info for auto-detection.
var registry = map[string]langInfo{
	".py": {
		name:       "python",
		lang:       python.GetLanguage(),
		convention: docstringConvention,
		classNodes: map[string]bool{"class_definition": true},
		funcNodes:  map[string]bool{"function_definition": true},
	},
	".js":  jsLike,
	".jsx": jsLike,
	".ts":  tsLike,
	".tsx": tsLike,
	".java": {
		name:       "java",
		lang:       java.GetLanguage(),
		convention: commentConvention,
		classNodes: map[string]bool{"class_declaration": true, "interface_declaration": true},
		methodNodes: map[string]bool{
			"method_declaration":      true,
			"constructor_declaration": true,
		},
	},
	".go": {
		name:            "go",
		lang:            golang.GetLanguage(),
		convention:      commentConvention,
		classNodes:      map[string]bool{"type_spec": true},
		funcNodes:       map[string]bool{"function_declaration": true},
		methodNodes:     map[string]bool{"method_declaration": true},
		receiverMethods: true,
	},
}

// extensionsByLanguage is the inverse of registry, keyed by language name.
var extensionsByLanguage = func() map[string][]string {
	m := make(map[string][]string)
	for ext, info := range registry {
		m[info.name] = append(m[info.name], ext)
	}
	return m
}()

// Supported reports whether a parser exists for the given file extension.
func Supported(ext string) bool {
	_, ok := registry[strings.ToLower(ext)]
	return ok
}

// SupportedExtensions returns every file extension a parser exists for.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	return exts
}

// KnownLanguage reports whether the given language name has a parser.
func KnownLanguage(name string) bool {
	_, ok := extensionsByLanguage[strings.ToLower(name)]
	return ok
}

// ExtensionsFor returns the set of file extensions covered by the given
// language names. Unknown languages contribute nothing.
func ExtensionsFor(languages []string) map[string]bool {
	out := make(map[string]bool)
	for _, lang := range languages {
		for _, ext := range extensionsByLanguage[strings.ToLower(lang)] {
			out[ext] = true
		}
	}
	return out
}

// Parser wraps tree-sitter to extract documentable elements from source files
// with automatic language detection.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{inner: sitter.NewParser()}
}

// ParseRange parses source code from the given filename and returns the
// elements whose declaration line falls within [startLine, endLine]. The
// module-level element is considered only when startLine is 1. The second
// return value is false when no parser exists for the file's extension.
//
// Malformed source never produces an error: the parse yields an empty slice
// and a warning is logged, so one broken file cannot take down a batch.
func (p *Parser) ParseRange(filename string, source []byte, startLine, endLine int) ([]element.Element, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	info, ok := registry[ext]
	if !ok {
		return nil, false
	}

	p.inner.SetLanguage(info.lang)
	tree, err := p.inner.ParseCtx(context.Background(), nil, source)
	if err != nil {
		slog.Warn("parse failed, skipping file", "file", filename, "error", err)
		return []element.Element{}, true
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		slog.Warn("syntax errors in source, skipping file", "file", filename)
		return []element.Element{}, true
	}

	ex := extractor{info: info, source: source, startLine: startLine, endLine: endLine}
	return ex.collect(root), true
}

// ParseAll parses the whole file, covering every line.
func (p *Parser) ParseAll(filename string, source []byte) ([]element.Element, bool) {
	lines := bytes.Count(source, []byte("\n")) + 1
	return p.ParseRange(filename, source, 1, lines)
}

// nodeKey identifies a syntax node by its span and type. Tree-sitter hands out
// fresh node wrappers on every access, so pointer identity cannot guard
// against revisits.
type nodeKey struct {
	start, end uint32
	typ        string
}

// workItem pairs a node with the name of its innermost enclosing class.
type workItem struct {
	node        *sitter.Node
	parentClass string
}

type extractor struct {
	info      langInfo
	source    []byte
	startLine int
	endLine   int
}

// collect walks the tree with an explicit stack and a visited set, emitting
// one element per recognized declaration inside the line range.
func (ex *extractor) collect(root *sitter.Node) []element.Element {
	elements := []element.Element{}

	if ex.startLine <= 1 {
		if doc, ok := ex.moduleDoc(root); ok {
			elements = append(elements, element.Element{
				Name:        element.ModuleName,
				Kind:        element.KindModule,
				LineNumber:  1,
				ExistingDoc: doc,
			})
		}
	}

	visited := make(map[nodeKey]bool)
	stack := []workItem{{node: root}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := item.node
		if node == nil {
			continue
		}

		key := nodeKey{start: node.StartByte(), end: node.EndByte(), typ: node.Type()}
		if visited[key] {
			continue
		}
		visited[key] = true

		childClass := item.parentClass
		nodeType := node.Type()

		switch {
		case ex.info.classNodes[nodeType]:
			if el, ok := ex.classElement(node); ok {
				if ex.inRange(el.LineNumber) {
					elements = append(elements, el)
				}
				childClass = el.Name
			}
		case ex.info.methodNodes[nodeType]:
			if el, ok := ex.callableElement(node, item.parentClass, true); ok && ex.inRange(el.LineNumber) {
				elements = append(elements, el)
			}
		case ex.info.funcNodes[nodeType]:
			// Python has no dedicated method node type: a function nested in a
			// class body is a method of that class.
			asMethod := item.parentClass != "" && ex.info.methodNodes == nil
			if el, ok := ex.callableElement(node, item.parentClass, asMethod); ok && ex.inRange(el.LineNumber) {
				elements = append(elements, el)
			}
		}

		// Children are pushed in reverse so the walk stays in source order.
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, workItem{node: child, parentClass: childClass})
			}
		}
	}

	return elements
}

func (ex *extractor) inRange(line int) bool {
	return line >= ex.startLine && line <= ex.endLine
}

// classElement builds a class element from a class declaration node. Go type
// specs only count when they declare a struct or interface.
func (ex *extractor) classElement(node *sitter.Node) (element.Element, bool) {
	if ex.info.receiverMethods && !isGoClassSpec(node) {
		return element.Element{}, false
	}

	name := ex.declName(node)
	if name == "" {
		return element.Element{}, false
	}

	return element.Element{
		Name:        name,
		Kind:        element.KindClass,
		LineNumber:  int(node.StartPoint().Row) + 1,
		ExistingDoc: ex.docFor(node),
	}, true
}

// callableElement builds a function or method element.
func (ex *extractor) callableElement(node *sitter.Node, parentClass string, asMethod bool) (element.Element, bool) {
	name := ex.declName(node)
	if name == "" {
		return element.Element{}, false
	}

	el := element.Element{
		Name:        name,
		Kind:        element.KindFunction,
		LineNumber:  int(node.StartPoint().Row) + 1,
		ExistingDoc: ex.docFor(node),
	}

	if asMethod {
		el.Kind = element.KindMethod
		el.Parent = parentClass
	}
	if ex.info.receiverMethods && node.Type() == "method_declaration" {
		el.Kind = element.KindMethod
		el.Parent = goReceiverType(node, ex.source)
	}
	return el, true
}

// declName finds the declared identifier of a node via its "name" field.
func (ex *extractor) declName(node *sitter.Node) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Content(ex.source)
}

// isGoClassSpec reports whether a Go type_spec declares a struct or interface.
func isGoClassSpec(node *sitter.Node) bool {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return false
	}
	t := typeNode.Type()
	return t == "struct_type" || t == "interface_type"
}

// goReceiverType extracts the receiver type name of a Go method declaration,
// stripping pointers and type parameters.
func goReceiverType(node *sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	text := strings.Trim(recv.Content(source), "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	typ = strings.TrimPrefix(typ, "*")
	if idx := strings.IndexByte(typ, '['); idx > 0 {
		typ = typ[:idx]
	}
	return typ
}
