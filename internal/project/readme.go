package project

import (
	"os"
	"regexp"
	"strings"
)

// Context is the free-form project context passed to the documentation
// generator: description, architecture, purpose, and project name. It is an
// immutable snapshot taken at run start.
type Context map[string]string

var (
	descriptionRe  = regexp.MustCompile(`(?ms)^# .*?\n\n(.*?)(?:\n##|\z)`)
	architectureRe = regexp.MustCompile(`(?s)## Architecture\n\n(.*?)(?:\n##|\z)`)
	purposeRe      = regexp.MustCompile(`(?s)## Purpose\n\n(.*?)(?:\n##|\z)`)
)

// ReadmeContext extracts project context from a README-style markdown file:
// the prose between the title and the first section becomes the description,
// and the Architecture and Purpose sections are captured verbatim. A missing
// or non-markdown file yields an empty context.
func ReadmeContext(path string) Context {
	ctx := Context{}
	if !strings.HasSuffix(strings.ToLower(path), ".md") {
		return ctx
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ctx
	}
	content := string(raw)

	if m := descriptionRe.FindStringSubmatch(content); m != nil {
		if d := strings.TrimSpace(m[1]); d != "" {
			ctx["description"] = d
		}
	}
	if m := architectureRe.FindStringSubmatch(content); m != nil {
		if a := strings.TrimSpace(m[1]); a != "" {
			ctx["architecture"] = a
		}
	}
	if m := purposeRe.FindStringSubmatch(content); m != nil {
		if p := strings.TrimSpace(m[1]); p != "" {
			ctx["purpose"] = p
		}
	}
	return ctx
}
