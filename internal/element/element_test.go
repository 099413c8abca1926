package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityIgnoresLineAndDoc(t *testing.T) {
	a := Element{Name: "f", Kind: KindFunction, FilePath: "a.py", LineNumber: 10, ExistingDoc: "old"}
	b := Element{Name: "f", Kind: KindFunction, FilePath: "a.py", LineNumber: 42, ExistingDoc: "new"}
	assert.Equal(t, a.Identity(), b.Identity())

	c := Element{Name: "f", Kind: KindMethod, FilePath: "a.py", Parent: "C"}
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestMetadataOmitsEmptyParent(t *testing.T) {
	fn := Element{Name: "f", Kind: KindFunction, FilePath: "a.py", LineNumber: 3}
	meta := fn.Metadata()
	assert.Equal(t, "a.py", meta["file_path"])
	assert.Equal(t, "f", meta["element"])
	assert.Equal(t, "function", meta["kind"])
	assert.Equal(t, 3, meta["line"])
	assert.NotContains(t, meta, "parent")

	m := Element{Name: "m", Kind: KindMethod, FilePath: "a.py", Parent: "C"}
	assert.Equal(t, "C", m.Metadata()["parent"])
}
