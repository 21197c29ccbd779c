package adapters

import (
	"path/filepath"
	"strings"

	"github.com/agentx-labs/rulesync/internal/frontmatter"
)

// Activation triggers understood by workflow-oriented tools.
const (
	keyTrigger = "trigger"
	keyGlobs   = "globs"

	triggerAlwaysOn      = "always_on"
	triggerGlob          = "glob"
	triggerModelDecision = "model_decision"
)

// WorkflowAdapter targets tools with trigger-based rules and one markdown
// file per workflow. Skills are rendered as workflows.
type WorkflowAdapter struct {
	layout
}

// NewWorkflowAdapter returns an adapter rooted at outputDir.
func NewWorkflowAdapter(outputDir string) *WorkflowAdapter {
	return &WorkflowAdapter{layout{outputDir: outputDir, rulesDir: "rules", ext: ".md"}}
}

func (a *WorkflowAdapter) TransformRule(content, sourcePath string) TransformResult {
	filename := a.OutputFilename(sourcePath)

	doc, ok := parseRule(content)
	if !ok {
		return TransformResult{Content: content, Filename: filename}
	}

	fm := frontmatter.New()
	switch paths := doc.Paths(); {
	case doc.AlwaysApply():
		fm.Set(keyTrigger, triggerAlwaysOn)
	case len(paths) > 0:
		fm.Set(keyTrigger, triggerGlob)
		fm.Set(keyGlobs, strings.Join(paths, ","))
	default:
		fm.Set(keyTrigger, triggerModelDecision)
	}
	if d := doc.Description(); d != "" {
		fm.Set(frontmatter.KeyDescription, d)
	}

	out, err := frontmatter.Serialize(fm, doc.Body)
	if err != nil {
		return TransformResult{Content: content, Filename: filename}
	}
	return TransformResult{Content: out, Filename: filename}
}

func (a *WorkflowAdapter) TransformSkill(content, sourcePath string) *SkillResult {
	result := &SkillResult{
		Content:     content,
		Filename:    skillName(sourcePath) + a.ext,
		WorkflowDir: filepath.Join(a.outputDir, "workflows"),
	}

	doc, ok := parseRule(content)
	if !ok {
		return result
	}

	fm := frontmatter.New()
	if d := doc.Description(); d != "" {
		fm.Set(frontmatter.KeyDescription, d)
	}
	if out, err := frontmatter.Serialize(fm, doc.Body); err == nil {
		result.Content = out
	}
	return result
}

func (a *WorkflowAdapter) AggregateGlobalRules(rules []GlobalRule) *AggregateResult {
	return nil
}
