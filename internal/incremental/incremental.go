// Package incremental classifies documentation changes for the code elements
// touched by a single commit, combining Git diff scoping, range-limited
// parsing and LLM-backed generation.
package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codantix/codantix/internal/docgen"
	"github.com/codantix/codantix/internal/element"
	"github.com/codantix/codantix/internal/gitrepo"
	"github.com/codantix/codantix/internal/parser"
	"github.com/codantix/codantix/internal/project"
)

// ChangeKind describes what happened to an element's documentation.
type ChangeKind string

const (
	ChangeNew       ChangeKind = "new"
	ChangeUpdate    ChangeKind = "update"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeDeleted   ChangeKind = "deleted"
)

// Change represents a documentation change for a single code element.
type Change struct {
	Element element.Element
	OldDoc  string
	NewDoc  string
	Kind    ChangeKind
}

// Classifier turns a commit into a list of documentation changes.
type Classifier struct {
	repo      *gitrepo.Repo
	parser    *parser.Parser
	generator *docgen.Generator
	context   project.Context
}

// NewClassifier creates a Classifier over the given repository.
func NewClassifier(repo *gitrepo.Repo, p *parser.Parser, gen *docgen.Generator, projCtx project.Context) *Classifier {
	return &Classifier{repo: repo, parser: p, generator: gen, context: projCtx}
}

// ProcessCommit inspects the commit's diff against its parent and returns one
// Change per affected code element. Elements in deleted files are reported as
// deleted without invoking generation; all other elements are re-generated
// and classified by comparing old and new documentation. Generation errors
// abort processing.
func (c *Classifier) ProcessCommit(ctx context.Context, sha string) ([]Change, error) {
	var changes []Change

	for _, fc := range c.repo.ChangedFiles(ctx, sha) {
		if fc.Kind == gitrepo.ChangeDeleted {
			changes = append(changes, c.deletedFileChanges(ctx, fc, sha)...)
			continue
		}

		fileChanges, err := c.modifiedFileChanges(ctx, fc, sha)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fileChanges...)
	}

	return changes, nil
}

// deletedFileChanges parses the pre-image of a deleted file and reports every
// element it contained as deleted.
func (c *Classifier) deletedFileChanges(ctx context.Context, fc gitrepo.FileChange, sha string) []Change {
	content, ok := c.repo.FileContent(ctx, fc.FilePath, sha+"^")
	if !ok {
		return nil
	}

	elements, ok := c.parser.ParseRange(fc.FilePath, []byte(content), 1, countLines(content))
	if !ok {
		return nil
	}

	changes := make([]Change, 0, len(elements))
	for _, el := range elements {
		el.FilePath = fc.FilePath
		changes = append(changes, Change{
			Element: el,
			OldDoc:  el.ExistingDoc,
			Kind:    ChangeDeleted,
		})
	}
	return changes
}

// modifiedFileChanges parses the elements overlapping each changed hunk of an
// added or modified file, generates documentation for them, and classifies
// the result against any existing in-source documentation.
func (c *Classifier) modifiedFileChanges(ctx context.Context, fc gitrepo.FileChange, sha string) ([]Change, error) {
	content, ok := c.repo.FileContent(ctx, fc.FilePath, sha)
	if !ok {
		slog.Warn("skipping file with unreadable content", "path", fc.FilePath, "commit", sha)
		return nil, nil
	}

	var changes []Change
	seen := map[element.Identity]bool{}

	for _, hunk := range fc.Hunks {
		elements, ok := c.parser.ParseRange(fc.FilePath, []byte(content), hunk.Start, hunk.End)
		if !ok {
			return nil, nil
		}

		for _, el := range elements {
			el.FilePath = fc.FilePath
			if seen[el.Identity()] {
				continue
			}
			seen[el.Identity()] = true

			oldDoc := el.ExistingDoc
			newDoc, err := c.generator.Generate(ctx, el, c.context)
			if err != nil {
				return nil, fmt.Errorf("generating documentation for %s::%s: %w", el.FilePath, el.Name, err)
			}

			changes = append(changes, Change{
				Element: el,
				OldDoc:  oldDoc,
				NewDoc:  newDoc,
				Kind:    classify(oldDoc, newDoc),
			})
		}
	}

	return changes, nil
}

// classify determines the change kind from old and new documentation.
func classify(oldDoc, newDoc string) ChangeKind {
	switch {
	case oldDoc == "":
		return ChangeNew
	case oldDoc != newDoc:
		return ChangeUpdate
	default:
		return ChangeUnchanged
	}
}

func countLines(content string) int {
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}
