package adapters

import (
	"strings"

	"github.com/agentx-labs/rulesync/internal/frontmatter"
)

const keyApplyTo = "applyTo"

// PathsToApplyToAdapter targets editor assistants that read
// `*.instructions.md` files with an `applyTo` glob header. Always-apply
// rules are collected into a single repository-wide instructions file.
type PathsToApplyToAdapter struct {
	layout
	aggregateFile string
}

// NewPathsToApplyToAdapter returns an adapter rooted at outputDir that
// aggregates global rules into aggregateFile.
func NewPathsToApplyToAdapter(outputDir, aggregateFile string) *PathsToApplyToAdapter {
	return &PathsToApplyToAdapter{
		layout:        layout{outputDir: outputDir, rulesDir: "instructions", ext: ".instructions.md"},
		aggregateFile: aggregateFile,
	}
}

func (a *PathsToApplyToAdapter) TransformRule(content, sourcePath string) TransformResult {
	filename := a.OutputFilename(sourcePath)

	doc, ok := parseRule(content)
	if !ok {
		return TransformResult{Content: content, Filename: filename}
	}
	if doc.AlwaysApply() {
		return TransformResult{Content: content, Filename: filename, IsGlobal: true}
	}

	fm := frontmatter.New()
	applyTo := "**"
	if paths := doc.Paths(); len(paths) > 0 {
		applyTo = strings.Join(paths, ",")
	}
	fm.Set(keyApplyTo, applyTo)
	if d := doc.Description(); d != "" {
		fm.Set(frontmatter.KeyDescription, d)
	}

	out, err := frontmatter.Serialize(fm, doc.Body)
	if err != nil {
		return TransformResult{Content: content, Filename: filename}
	}
	return TransformResult{Content: out, Filename: filename}
}

func (a *PathsToApplyToAdapter) TransformSkill(content, sourcePath string) *SkillResult {
	return nil
}

func (a *PathsToApplyToAdapter) AggregateGlobalRules(rules []GlobalRule) *AggregateResult {
	return aggregate(rules, a.aggregateFile)
}
