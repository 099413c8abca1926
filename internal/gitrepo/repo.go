// Package gitrepo provides read-only access to a Git repository for the
// incremental documentation pipeline: commit diffing with post-image line
// ranges, and file content retrieval as of a given commit.
package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repo executes git commands against a single repository working directory.
type Repo struct {
	workDir string
	exts    map[string]bool // supported source extensions, lowercase
}

// NewRepo creates a Repo bound to the given directory. exts is the set of
// file extensions (".py", ".go", ...) eligible for hunk extraction.
func NewRepo(workDir string, exts map[string]bool) *Repo {
	return &Repo{workDir: workDir, exts: exts}
}

// FileContent returns the content of path as of the given commit. The second
// return value is false when the blob does not exist at that commit.
func (r *Repo) FileContent(ctx context.Context, path, commit string) (string, bool) {
	out, err := r.run(ctx, "show", commit+":"+path)
	if err != nil {
		return "", false
	}
	return out, true
}

// CommitMessage returns the full message of the given commit.
func (r *Repo) CommitMessage(ctx context.Context, commit string) (string, error) {
	out, err := r.run(ctx, "log", "-1", "--format=%B", commit)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BranchName returns the name of a branch pointing at the given commit, or ""
// when no branch does.
func (r *Repo) BranchName(ctx context.Context, commit string) (string, error) {
	out, err := r.run(ctx, "branch", "--points-at", commit, "--format=%(refname:short)")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
	}
	return "", nil
}

// parent resolves the first parent of commit. The second return value is
// false for a root commit.
func (r *Repo) parent(ctx context.Context, commit string) (string, bool, error) {
	if _, err := r.run(ctx, "rev-parse", "--verify", commit+"^{commit}"); err != nil {
		return "", false, fmt.Errorf("resolving commit %s: %w", commit, err)
	}
	out, err := r.run(ctx, "rev-parse", "--verify", "--quiet", commit+"^")
	if err != nil {
		return "", false, nil
	}
	return strings.TrimSpace(out), true, nil
}

// trackedFiles lists every path tracked at the given commit.
func (r *Repo) trackedFiles(ctx context.Context, commit string) ([]string, error) {
	out, err := r.run(ctx, "ls-tree", "-r", "--name-only", commit)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.workDir
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
