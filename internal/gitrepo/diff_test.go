package gitrepo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pyExts = map[string]bool{".py": true}

// ---------- git fixture helpers ----------

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func commitAll(t *testing.T, dir, msg string) string {
	t.Helper()
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", msg, "--allow-empty")
	return headSHA(t, dir)
}

func headSHA(t *testing.T, dir string) string {
	t.Helper()
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

// ---------- tests ----------

func TestChangedFilesRootCommit(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	writeFile(t, dir, "README.md", "# test\n")
	sha := commitAll(t, dir, "initial")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), sha)

	// A root commit reports every tracked file as added.
	require.Len(t, changes, 2)
	byPath := map[string]FileChange{}
	for _, c := range changes {
		byPath[c.FilePath] = c
	}

	a := byPath["a.py"]
	assert.Equal(t, ChangeAdded, a.Kind)
	require.Len(t, a.Hunks, 1)
	assert.Equal(t, 1, a.Hunks[0].Start)
	assert.GreaterOrEqual(t, a.Hunks[0].End, 2)

	readme := byPath["README.md"]
	assert.Equal(t, ChangeAdded, readme.Kind)
}

func TestChangedFilesModifiedHunks(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	var lines []string
	for i := 1; i <= 100; i++ {
		lines = append(lines, fmt.Sprintf("# line %d", i))
	}
	writeFile(t, dir, "big.py", strings.Join(lines, "\n")+"\n")
	commitAll(t, dir, "initial")

	for i := 9; i <= 11; i++ { // lines 10-12, zero-based index
		lines[i] = lines[i] + " changed"
	}
	writeFile(t, dir, "big.py", strings.Join(lines, "\n")+"\n")
	sha := commitAll(t, dir, "modify lines 10-12")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), sha)

	require.Len(t, changes, 1)
	change := changes[0]
	assert.Equal(t, "big.py", change.FilePath)
	assert.Equal(t, ChangeModified, change.Kind)
	require.Len(t, change.Hunks, 1)

	// The hunk is a superset of the touched lines, never wider than the file.
	hunk := change.Hunks[0]
	assert.LessOrEqual(t, hunk.Start, 10)
	assert.GreaterOrEqual(t, hunk.End, 12)
	assert.GreaterOrEqual(t, hunk.Start, 1)
	assert.LessOrEqual(t, hunk.End, 100)
}

func TestChangedFilesDisjointHunks(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	var lines []string
	for i := 1; i <= 60; i++ {
		lines = append(lines, fmt.Sprintf("# line %d", i))
	}
	writeFile(t, dir, "big.py", strings.Join(lines, "\n")+"\n")
	commitAll(t, dir, "initial")

	lines[4] = "# line 5 changed"
	lines[49] = "# line 50 changed"
	writeFile(t, dir, "big.py", strings.Join(lines, "\n")+"\n")
	sha := commitAll(t, dir, "modify far-apart lines")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), sha)

	require.Len(t, changes, 1)
	hunks := changes[0].Hunks
	require.Len(t, hunks, 2)
	assert.Less(t, hunks[0].End, hunks[1].Start, "hunks must be ascending and non-overlapping")
	// With the default three lines of context, a one-line change at line N
	// yields a hunk seeded at N-3 advanced by the +/- pair.
	assert.Equal(t, Hunk{Start: 2, End: 4}, hunks[0])
	assert.Equal(t, Hunk{Start: 47, End: 49}, hunks[1])
}

func TestChangedFilesDeleted(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "gone.py", "def f():\n    pass\n")
	writeFile(t, dir, "kept.py", "def g():\n    pass\n")
	commitAll(t, dir, "initial")

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.py")))
	sha := commitAll(t, dir, "delete gone.py")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), sha)

	require.Len(t, changes, 1)
	assert.Equal(t, "gone.py", changes[0].FilePath)
	assert.Equal(t, ChangeDeleted, changes[0].Kind)
	assert.Empty(t, changes[0].Hunks)
}

func TestChangedFilesUnsupportedExtensionSkipped(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	commitAll(t, dir, "initial")

	writeFile(t, dir, "notes.txt", "hello\n")
	sha := commitAll(t, dir, "add notes")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), sha)
	assert.Empty(t, changes)
}

func TestChangedFilesUnknownCommit(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	commitAll(t, dir, "initial")

	repo := NewRepo(dir, pyExts)
	changes := repo.ChangedFiles(context.Background(), "deadbeef")
	assert.Empty(t, changes)
}

func TestFileContent(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	first := commitAll(t, dir, "initial")

	writeFile(t, dir, "a.py", "def f():\n    return 1\n")
	second := commitAll(t, dir, "change f")

	repo := NewRepo(dir, pyExts)

	content, ok := repo.FileContent(context.Background(), "a.py", first)
	require.True(t, ok)
	assert.Contains(t, content, "pass")

	content, ok = repo.FileContent(context.Background(), "a.py", second)
	require.True(t, ok)
	assert.Contains(t, content, "return 1")

	_, ok = repo.FileContent(context.Background(), "missing.py", second)
	assert.False(t, ok)
}

func TestCommitMessageAndBranchName(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	sha := commitAll(t, dir, "initial commit")

	repo := NewRepo(dir, pyExts)

	msg, err := repo.CommitMessage(context.Background(), sha)
	require.NoError(t, err)
	assert.Equal(t, "initial commit", msg)

	branch, err := repo.BranchName(context.Background(), sha)
	require.NoError(t, err)
	assert.NotEmpty(t, branch)
}

func TestExtractHunks(t *testing.T) {
	diff := `diff --git a/f.py b/f.py
index 123..456 100644
--- a/f.py
+++ b/f.py
@@ -10,3 +10,3 @@ def f():
 context
-old line
+new line
 context
@@ -40,2 +40,3 @@ def g():
 context
+added line
+another added line
-removed line
`

	hunks := extractHunks(diff)
	require.Len(t, hunks, 2)
	assert.Equal(t, Hunk{Start: 10, End: 12}, hunks[0])
	assert.Equal(t, Hunk{Start: 40, End: 43}, hunks[1])
}

func TestParseHunkHeader(t *testing.T) {
	start, ok := parseHunkHeader("@@ -1,5 +7,6 @@")
	require.True(t, ok)
	assert.Equal(t, 7, start)

	start, ok = parseHunkHeader("@@ -1 +1 @@")
	require.True(t, ok)
	assert.Equal(t, 1, start)

	_, ok = parseHunkHeader("@@ malformed")
	assert.False(t, ok)
}
