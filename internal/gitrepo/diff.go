package gitrepo

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
)

// ChangeKind classifies how a file changed between a commit and its parent.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// Hunk is a post-image line range touched by a change. The range is a
// conservative superset hint derived from unified-diff line counting, not an
// exact boundary.
type Hunk struct {
	Start int
	End   int
}

// FileChange is the result of diffing one file between a commit and its
// first parent. Hunks are ascending and non-overlapping; deleted files carry
// none.
type FileChange struct {
	FilePath string
	Kind     ChangeKind
	Hunks    []Hunk
}

// ChangedFiles computes the files changed by the given commit relative to its
// first parent. A root commit reports every tracked file as added with one
// hunk covering the whole file. Git failures (unknown SHA, not a repository)
// are reported as an empty result with a warning, never as an error: the
// caller sees "no changes found".
func (r *Repo) ChangedFiles(ctx context.Context, commit string) []FileChange {
	parent, hasParent, err := r.parent(ctx, commit)
	if err != nil {
		slog.Warn("cannot resolve commit, reporting no changes", "commit", commit, "error", err)
		return nil
	}

	if !hasParent {
		return r.rootCommitChanges(ctx, commit)
	}

	out, err := r.run(ctx, "diff", "--name-status", parent, commit)
	if err != nil {
		slog.Warn("diff failed, reporting no changes", "commit", commit, "error", err)
		return nil
	}

	var changes []FileChange
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status, path := fields[0], fields[1]

		switch {
		case strings.HasPrefix(status, "R"), strings.HasPrefix(status, "C"):
			// Renames and copies decompose into a deletion of the old path
			// and an addition of the new one.
			if len(fields) < 3 {
				continue
			}
			oldPath, newPath := fields[1], fields[2]
			if strings.HasPrefix(status, "R") && r.supported(oldPath) {
				changes = append(changes, FileChange{FilePath: oldPath, Kind: ChangeDeleted})
			}
			if r.supported(newPath) {
				changes = append(changes, FileChange{
					FilePath: newPath,
					Kind:     ChangeAdded,
					Hunks:    r.fileHunks(ctx, parent, commit, newPath),
				})
			}
		case status == "D":
			if r.supported(path) {
				changes = append(changes, FileChange{FilePath: path, Kind: ChangeDeleted})
			}
		case status == "A":
			if r.supported(path) {
				changes = append(changes, FileChange{
					FilePath: path,
					Kind:     ChangeAdded,
					Hunks:    r.fileHunks(ctx, parent, commit, path),
				})
			}
		default:
			if r.supported(path) {
				changes = append(changes, FileChange{
					FilePath: path,
					Kind:     ChangeModified,
					Hunks:    r.fileHunks(ctx, parent, commit, path),
				})
			}
		}
	}
	return changes
}

// rootCommitChanges reports every tracked file as added, spanning all lines.
func (r *Repo) rootCommitChanges(ctx context.Context, commit string) []FileChange {
	paths, err := r.trackedFiles(ctx, commit)
	if err != nil {
		slog.Warn("cannot list root commit tree, reporting no changes", "commit", commit, "error", err)
		return nil
	}

	var changes []FileChange
	for _, path := range paths {
		change := FileChange{FilePath: path, Kind: ChangeAdded}
		if content, ok := r.FileContent(ctx, path, commit); ok {
			change.Hunks = []Hunk{{Start: 1, End: countLines(content)}}
		}
		changes = append(changes, change)
	}
	return changes
}

// fileHunks extracts post-image hunk ranges from the unified diff of a
// single path between parent and commit.
func (r *Repo) fileHunks(ctx context.Context, parent, commit, path string) []Hunk {
	out, err := r.run(ctx, "diff", parent, commit, "--", path)
	if err != nil {
		slog.Warn("per-file diff failed", "path", path, "error", err)
		return nil
	}
	return extractHunks(out)
}

// extractHunks parses unified-diff hunk headers of the form @@ -a,b +c,d @@.
// The post-image start line c seeds a running counter; every subsequent added
// or removed line advances it by one. The (start, counter) pair is emitted at
// the next header or end of input. This mirrors line-oriented diff position
// tracking and deliberately yields a coarse superset of the touched range.
func extractHunks(diff string) []Hunk {
	var hunks []Hunk
	start, counter := 0, 0
	inHunk := false

	flush := func() {
		if inHunk && start > 0 {
			hunks = append(hunks, Hunk{Start: start, End: counter})
		}
	}

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "@@") {
			flush()
			inHunk = false
			if newStart, ok := parseHunkHeader(line); ok {
				start, counter = newStart, newStart
				inHunk = true
			}
			continue
		}
		if !inHunk {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			counter++
		}
	}
	flush()
	return hunks
}

// parseHunkHeader extracts the post-image start line from a @@ -a,b +c,d @@
// header.
func parseHunkHeader(line string) (int, bool) {
	parts := strings.Split(line, " ")
	if len(parts) < 3 || !strings.HasPrefix(parts[2], "+") {
		return 0, false
	}
	numText := strings.TrimPrefix(parts[2], "+")
	if idx := strings.IndexByte(numText, ','); idx >= 0 {
		numText = numText[:idx]
	}
	n, err := strconv.Atoi(numText)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (r *Repo) supported(path string) bool {
	return r.exts[strings.ToLower(filepath.Ext(path))]
}

func countLines(content string) int {
	return strings.Count(content, "\n") + 1
}
