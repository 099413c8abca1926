// Package project discovers documentable elements across a codebase and
// extracts project-level context from its README.
package project

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/codantix/codantix/internal/element"
	"github.com/codantix/codantix/internal/parser"
)

// skipDirs contains directory names that are excluded from traversal.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	"build":        true,
	"dist":         true,
	"__pycache__":  true,
}

// Traverser walks a directory tree and extracts every documentable element
// from files whose extension belongs to one of the configured languages.
type Traverser struct {
	parser *parser.Parser
	exts   map[string]bool
}

// NewTraverser creates a Traverser restricted to the given languages.
func NewTraverser(p *parser.Parser, languages []string) *Traverser {
	return &Traverser{
		parser: p,
		exts:   parser.ExtensionsFor(languages),
	}
}

// Traverse collects all elements under root. Each element's FilePath is set
// to its path relative to root. A nonexistent root yields an empty list.
func (t *Traverser) Traverse(ctx context.Context, root string) []element.Element {
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	var elements []element.Element
	for _, rel := range listFiles(ctx, root) {
		if shouldSkip(rel) || !t.exts[strings.ToLower(filepath.Ext(rel))] {
			continue
		}

		source, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			slog.Warn("cannot read file, skipping", "file", rel, "error", err)
			continue
		}

		parsed, ok := t.parser.ParseAll(rel, source)
		if !ok {
			continue
		}
		for i := range parsed {
			parsed[i].FilePath = filepath.ToSlash(rel)
		}
		elements = append(elements, parsed...)
	}
	return elements
}

// listFiles returns relative file paths under dir. It tries git ls-files
// first; outside a git repository it falls back to filepath.WalkDir.
func listFiles(ctx context.Context, dir string) []string {
	if paths, err := gitLsFiles(ctx, dir); err == nil {
		return paths
	}
	return walkFiles(dir)
}

func gitLsFiles(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, scanner.Err()
}

func walkFiles(dir string) []string {
	var paths []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("traverser skipping path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	return paths
}

// shouldSkip reports whether the relative path sits inside an excluded
// directory.
func shouldSkip(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if skipDirs[part] {
			return true
		}
	}
	return false
}
