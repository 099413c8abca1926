package incremental

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codantix/codantix/internal/config"
	"github.com/codantix/codantix/internal/docgen"
	"github.com/codantix/codantix/internal/element"
	"github.com/codantix/codantix/internal/gitrepo"
	"github.com/codantix/codantix/internal/parser"
	"github.com/codantix/codantix/internal/project"
)

var pyExts = map[string]bool{".py": true}

// stubCompleter returns a canned response and records how often it was called.
type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{RequestsPerSecond: 1000, Burst: 100}
}

// ---------- git fixture helpers ----------

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func commitAll(t *testing.T, dir, msg string) string {
	t.Helper()
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", msg, "--allow-empty")

	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
}

func newTestClassifier(t *testing.T, dir string, completer docgen.Completer) *Classifier {
	t.Helper()
	repo := gitrepo.NewRepo(dir, pyExts)
	gen := docgen.NewGenerator(completer, config.DocStyleGoogle, testLLMConfig(), false)
	return NewClassifier(repo, parser.NewParser(), gen, project.Context{"name": "test"})
}

// ---------- tests ----------

func TestProcessCommitNewElement(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "base.py", "def base():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "mod.py", "def fresh():\n    pass\n")
	sha := commitAll(t, dir, "add fresh")

	stub := &stubCompleter{response: "Fresh does things."}
	changes, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	change := changes[0]
	assert.Equal(t, ChangeNew, change.Kind)
	assert.Equal(t, "fresh", change.Element.Name)
	assert.Equal(t, "mod.py", change.Element.FilePath)
	assert.Empty(t, change.OldDoc)
	assert.Equal(t, "Fresh does things.", change.NewDoc)
	assert.Equal(t, 1, stub.calls)
}

func TestProcessCommitUnchangedElement(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "base.py", "def base():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "doc.py", `def stable():
    """Stable docs."""
    pass
`)
	sha := commitAll(t, dir, "add documented fn")

	// The generator reproduces the existing documentation exactly.
	stub := &stubCompleter{response: "Stable docs."}
	changes, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, ChangeUnchanged, changes[0].Kind)
	assert.Equal(t, "Stable docs.", changes[0].OldDoc)
	assert.Equal(t, "Stable docs.", changes[0].NewDoc)
}

func TestProcessCommitUpdatedElement(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "base.py", "def base():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "doc.py", `def evolving():
    """Old docs."""
    pass
`)
	sha := commitAll(t, dir, "add documented fn")

	stub := &stubCompleter{response: "Better docs."}
	changes, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, ChangeUpdate, changes[0].Kind)
	assert.Equal(t, "Old docs.", changes[0].OldDoc)
	assert.Equal(t, "Better docs.", changes[0].NewDoc)
}

func TestProcessCommitDeletedFile(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "gone.py", `"""Module docs."""


class Widget:
    """A widget."""

    def spin(self):
        pass
`)
	commitAll(t, dir, "initial")

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.py")))
	sha := commitAll(t, dir, "remove gone.py")

	stub := &stubCompleter{response: "unused"}
	changes, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.NoError(t, err)

	require.Len(t, changes, 3)
	for _, change := range changes {
		assert.Equal(t, ChangeDeleted, change.Kind)
		assert.Equal(t, "gone.py", change.Element.FilePath)
		assert.Empty(t, change.NewDoc)
	}

	byName := map[string]Change{}
	for _, c := range changes {
		byName[c.Element.Name] = c
	}
	assert.Equal(t, "Module docs.", byName[element.ModuleName].OldDoc)
	assert.Equal(t, "A widget.", byName["Widget"].OldDoc)
	assert.Contains(t, byName, "spin")

	assert.Zero(t, stub.calls, "deleted elements must not trigger generation")
}

func TestProcessCommitGenerationErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "base.py", "def base():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "mod.py", "def f():\n    pass\n")
	sha := commitAll(t, dir, "add f")

	stub := &stubCompleter{err: assert.AnError}
	_, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mod.py::f")
}

func TestProcessCommitUnsupportedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "base.py", "def base():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "notes.txt", "hello\n")
	sha := commitAll(t, dir, "add notes")

	stub := &stubCompleter{response: "unused"}
	changes, err := newTestClassifier(t, dir, stub).ProcessCommit(context.Background(), sha)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Zero(t, stub.calls)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ChangeNew, classify("", "docs"))
	assert.Equal(t, ChangeNew, classify("", ""))
	assert.Equal(t, ChangeUpdate, classify("old", "new"))
	assert.Equal(t, ChangeUnchanged, classify("same", "same"))
}
