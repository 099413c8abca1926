package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codantix/codantix/internal/config"
	"github.com/codantix/codantix/internal/docgen"
	"github.com/codantix/codantix/internal/element"
	"github.com/codantix/codantix/internal/gitrepo"
	"github.com/codantix/codantix/internal/incremental"
	"github.com/codantix/codantix/internal/index"
	"github.com/codantix/codantix/internal/parser"
	"github.com/codantix/codantix/internal/project"
	"github.com/codantix/codantix/internal/provider"
)

// pipeline bundles the components shared by the init, doc-pr and update-db
// commands.
type pipeline struct {
	cfg       *config.Config
	parser    *parser.Parser
	generator *docgen.Generator
	context   project.Context
	repoPath  string
}

// newPipeline loads configuration and constructs the parser, generator and
// project context. In freeze mode no LLM provider is needed, so none is
// created.
func newPipeline(freeze bool) (*pipeline, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	repoPath, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	var completer docgen.Completer
	if !freeze {
		p, err := provider.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating LLM provider: %w", err)
		}
		var temperature *float64
		if cfg.LLM.Temperature != 0 {
			temperature = &cfg.LLM.Temperature
		}
		completer = docgen.NewLLMCompleter(p, cfg.Provider.Model, cfg.LLM.MaxTokens, temperature)
	}

	projCtx := project.ReadmeContext(filepath.Join(repoPath, "README.md"))
	name := cfg.Project.Name
	if name == "" {
		name = filepath.Base(repoPath)
	}
	projCtx["name"] = name

	return &pipeline{
		cfg:       cfg,
		parser:    parser.NewParser(),
		generator: docgen.NewGenerator(completer, cfg.Project.DocStyle, cfg.LLM, freeze),
		context:   projCtx,
		repoPath:  repoPath,
	}, nil
}

// openWriter opens the index writer, attaching an embedder when embedding is
// enabled in the configuration.
func (p *pipeline) openWriter() (index.Writer, error) {
	var embedder index.Embedder
	emb := p.cfg.Index.Embedding
	if emb.Enabled {
		apiKey, err := config.ResolveAPIKey(emb.APIKeySource, emb.APIKey, "EMBEDDING_API_KEY")
		if err != nil {
			return nil, fmt.Errorf("resolving embedding API key: %w", err)
		}
		embedder, err = index.NewHTTPEmbedder(emb.BaseURL, apiKey, emb.Model, emb.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	writer, err := index.NewSQLiteWriter(p.cfg.Index.Path, p.cfg.Index.Collection, embedder)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	return writer, nil
}

// record builds the index record for an element and its documentation text.
func record(el element.Element, doc string) index.Record {
	meta := el.Metadata()
	if versionFlag != "" {
		meta["version"] = versionFlag
	}
	return index.Record{Text: doc, Metadata: meta}
}

// runFullScan documents every element under the configured source paths and
// updates the vector database.
func runFullScan(ctx context.Context, freeze bool) error {
	p, err := newPipeline(freeze)
	if err != nil {
		return err
	}

	traverser := project.NewTraverser(p.parser, p.cfg.Project.Languages)

	var elements []element.Element
	for _, src := range p.cfg.Project.SourcePaths {
		elements = append(elements, traverser.Traverse(ctx, filepath.Join(p.repoPath, src))...)
	}

	records, err := generateAll(ctx, p, elements)
	if err != nil {
		return fmt.Errorf("generating documentation: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No documentable elements found.")
		return nil
	}

	writer, err := p.openWriter()
	if err != nil {
		return err
	}
	defer writer.Close()

	if err := writer.Upsert(ctx, records); err != nil {
		return fmt.Errorf("updating index: %w", err)
	}

	fmt.Printf("Indexed documentation for %d elements.\n", len(records))
	return nil
}

// generateAll produces documentation for all elements, bounded by the
// configured LLM concurrency.
func generateAll(ctx context.Context, p *pipeline, elements []element.Element) ([]index.Record, error) {
	concurrency := p.cfg.LLM.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	records := make([]index.Record, len(elements))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			doc, err := p.generator.Generate(ctx, el, p.context)
			if err != nil {
				return fmt.Errorf("element %s::%s: %w", el.FilePath, el.Name, err)
			}
			mu.Lock()
			records[i] = record(el, doc)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// runDocPR classifies the changes in a commit and applies the resulting
// upserts and deletions to the vector database.
func runDocPR(ctx context.Context, sha string) error {
	p, err := newPipeline(false)
	if err != nil {
		return err
	}

	repo := gitrepo.NewRepo(p.repoPath, parser.ExtensionsFor(p.cfg.Project.Languages))
	classifier := incremental.NewClassifier(repo, p.parser, p.generator, p.context)

	changes, err := classifier.ProcessCommit(ctx, sha)
	if err != nil {
		return fmt.Errorf("processing commit %s: %w", sha, err)
	}

	var records []index.Record
	deletedFiles := map[string]bool{}
	var deletedElements []element.Element

	for _, change := range changes {
		fmt.Printf("%s: %s::%s\n", change.Kind, change.Element.FilePath, change.Element.Name)
		switch change.Kind {
		case incremental.ChangeNew, incremental.ChangeUpdate:
			records = append(records, record(change.Element, change.NewDoc))
		case incremental.ChangeDeleted:
			deletedFiles[change.Element.FilePath] = true
			deletedElements = append(deletedElements, change.Element)
		}
	}

	writer, err := p.openWriter()
	if err != nil {
		return err
	}
	defer writer.Close()

	if len(records) > 0 {
		if err := writer.Upsert(ctx, records); err != nil {
			return fmt.Errorf("updating index: %w", err)
		}
	}

	for filePath := range deletedFiles {
		if err := writer.Delete(ctx, index.Filter{"file_path": filePath}); err != nil {
			return fmt.Errorf("removing records for %s: %w", filePath, err)
		}
	}
	for _, el := range deletedElements {
		filter := index.Filter{
			"file_path": el.FilePath,
			"element":   el.Name,
			"kind":      string(el.Kind),
		}
		if err := writer.Delete(ctx, filter); err != nil {
			return fmt.Errorf("removing record for %s::%s: %w", el.FilePath, el.Name, err)
		}
	}

	fmt.Printf("Processed %d documentation changes.\n", len(changes))
	return nil
}
