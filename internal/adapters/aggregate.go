package adapters

import (
	"strings"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	aggregateTitle     = "# Project Instructions"
	aggregateSeparator = "\n\n---\n\n"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// aggregate folds rules into one markdown document, one section per rule in
// the order given. It returns nil for an empty input.
func aggregate(rules []GlobalRule, filename string) *AggregateResult {
	if len(rules) == 0 {
		return nil
	}

	sections := make([]string, 0, len(rules))
	for _, r := range rules {
		sections = append(sections, section(r))
	}

	var b strings.Builder
	b.WriteString(aggregateTitle)
	b.WriteString("\n\n<!-- Generated by ")
	b.WriteString(branding.CLIName())
	b.WriteString(" from source rules. Local edits are overwritten on update. -->\n\n")
	b.WriteString(strings.Join(sections, aggregateSeparator))
	b.WriteString("\n")

	return &AggregateResult{Content: b.String(), Filename: filename}
}

func section(r GlobalRule) string {
	body := r.Content
	description := ""
	if doc, err := frontmatter.Parse(r.Content); err == nil {
		body = doc.Body
		description = doc.Description()
	}

	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(Heading(r.SourcePath))
	if description != "" {
		b.WriteString("\n\n_")
		b.WriteString(description)
		b.WriteString("_")
	}
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		b.WriteString("\n\n")
		b.WriteString(trimmed)
	}
	return b.String()
}

// Heading derives a section title from a rule filename:
// "error-handling.md" becomes "Error Handling".
func Heading(sourcePath string) string {
	name := baseName(sourcePath)
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}
