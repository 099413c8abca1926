package docgen

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/time/rate"

	"github.com/codantix/codantix/internal/config"
	"github.com/codantix/codantix/internal/element"
	"github.com/codantix/codantix/internal/project"
)

const systemPrompt = "You are a documentation expert. Generate clear and concise documentation."

// ---------- prompt templates ----------

var docPromptTmpl = template.Must(template.New("doc").Parse(
	`{{if .Hierarchy}}Hierarchy context:
{{.Hierarchy}}

{{end}}Generate documentation for a {{.Kind}} named '{{.Name}}'{{if .Parent}} in class '{{.Parent}}'{{end}}
Documentation style: {{.Style}}
{{- if .Description}}
Project description: {{.Description}}{{end}}
{{- if .Architecture}}
Architecture context: {{.Architecture}}{{end}}
{{- if .Purpose}}
Project purpose: {{.Purpose}}{{end}}

{{.StyleGuide}}

Please provide a clear and concise description of what this code element does, with at least one example of usage.`))

// styleGuides shows the LLM the expected skeleton per documentation style.
var styleGuides = map[string]string{
	config.DocStyleGoogle: `Follow the Google docstring layout:
Description, then "Args:", "Returns:" and "Raises:" sections as applicable.`,
	config.DocStyleNumpy: `Follow the NumPy docstring layout:
Description, then "Parameters", "Returns" and "Raises" sections underlined with dashes.`,
	config.DocStyleJSDoc: `Follow the JSDoc layout:
Description, then @param, @returns and @throws tags as applicable.`,
}

// Generator produces documentation text for code elements.
type Generator struct {
	completer Completer
	style     string
	limiter   *rate.Limiter
	freeze    bool
}

// NewGenerator creates a Generator using the given completer, documentation
// style and LLM rate limits. When freeze is set, elements that already carry
// documentation are returned verbatim without calling the LLM.
func NewGenerator(completer Completer, style string, llm config.LLMConfig, freeze bool) *Generator {
	rps := llm.RequestsPerSecond
	if rps <= 0 {
		rps = 0.1
	}
	burst := llm.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Generator{
		completer: completer,
		style:     style,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		freeze:    freeze,
	}
}

// Frozen reports whether the generator reuses existing documentation verbatim.
func (g *Generator) Frozen() bool {
	return g.freeze
}

// Generate produces documentation for a code element. In freeze mode an
// element's existing documentation is reused as-is; otherwise the LLM is
// invoked and its failures are classified into the package sentinel errors.
func (g *Generator) Generate(ctx context.Context, el element.Element, projCtx project.Context) (string, error) {
	if g.freeze && el.ExistingDoc != "" {
		return el.ExistingDoc, nil
	}
	if g.freeze {
		return "", nil
	}

	prompt, err := g.buildPrompt(el, projCtx)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	doc, err := g.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", classifyError(err)
	}

	return strings.TrimSpace(doc), nil
}

func (g *Generator) buildPrompt(el element.Element, projCtx project.Context) (string, error) {
	var buf bytes.Buffer
	err := docPromptTmpl.Execute(&buf, struct {
		Hierarchy    string
		Kind         string
		Name         string
		Parent       string
		Style        string
		Description  string
		Architecture string
		Purpose      string
		StyleGuide   string
	}{
		Hierarchy:    hierarchyContext(el, projCtx),
		Kind:         string(el.Kind),
		Name:         el.Name,
		Parent:       el.Parent,
		Style:        g.style,
		Description:  projCtx["description"],
		Architecture: projCtx["architecture"],
		Purpose:      projCtx["purpose"],
		StyleGuide:   styleGuides[g.style],
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// hierarchyContext builds minimal one-line context rows for the element, most
// general first: project purpose, then the enclosing class for methods.
func hierarchyContext(el element.Element, projCtx project.Context) string {
	var lines []string

	purpose := projCtx["purpose"]
	if purpose == "" {
		purpose = projCtx["description"]
	}
	if purpose != "" {
		lines = append(lines, "Package: "+firstLine(purpose))
	}

	if el.Kind == element.KindClass && el.ExistingDoc != "" {
		lines = append(lines, "Class: "+firstLine(el.ExistingDoc))
	}
	if el.Kind == element.KindMethod && el.Parent != "" {
		lines = append(lines, "Class: "+el.Parent)
	}

	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
