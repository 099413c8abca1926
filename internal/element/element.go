// Package element defines the documentable code unit shared by the parser,
// the incremental classifier, and the index writer.
package element

// Kind identifies what sort of code unit an element is. The set is closed:
// parsers only ever produce these four values.
type Kind string

const (
	KindModule   Kind = "module"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
)

// ModuleName is the reserved element name for file-level documentation.
const ModuleName = "module"

// Element represents a single documentable code unit found in a source file.
type Element struct {
	Name        string
	Kind        Kind
	FilePath    string // relative to the repository root, set by the caller
	LineNumber  int    // 1-based declaration line
	Parent      string // enclosing class name, set only for methods
	ExistingDoc string // documentation already present in source, "" if absent
}

// Identity is the cross-commit identity of an element. Line numbers are
// deliberately excluded: code shifts lines without changing what it is.
type Identity struct {
	FilePath string
	Kind     Kind
	Name     string
	Parent   string
}

// Identity returns the comparable identity key for the element.
func (e Element) Identity() Identity {
	return Identity{
		FilePath: e.FilePath,
		Kind:     e.Kind,
		Name:     e.Name,
		Parent:   e.Parent,
	}
}

// Metadata builds the index metadata for the element. Parent is omitted when
// empty so that equality filters on the remaining keys stay exact.
func (e Element) Metadata() map[string]any {
	m := map[string]any{
		"file_path": e.FilePath,
		"element":   e.Name,
		"kind":      string(e.Kind),
		"line":      e.LineNumber,
	}
	if e.Parent != "" {
		m["parent"] = e.Parent
	}
	return m
}
