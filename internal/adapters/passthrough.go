package adapters

import "path/filepath"

// PassthroughAdapter writes rules and skills unchanged, keeping every
// frontmatter key. It has no aggregated file: tools that read per-file
// rules with a `paths` header handle always-apply rules natively.
type PassthroughAdapter struct {
	layout
}

// NewPassthroughAdapter returns an adapter rooted at outputDir.
func NewPassthroughAdapter(outputDir string) *PassthroughAdapter {
	return &PassthroughAdapter{layout{outputDir: outputDir, rulesDir: "rules", ext: ".md"}}
}

func (a *PassthroughAdapter) TransformRule(content, sourcePath string) TransformResult {
	return TransformResult{Content: content, Filename: a.OutputFilename(sourcePath)}
}

func (a *PassthroughAdapter) TransformSkill(content, sourcePath string) *SkillResult {
	return &SkillResult{
		Content:  content,
		Filename: filepath.Base(sourcePath),
		SkillDir: filepath.Join(a.outputDir, "skills", skillName(sourcePath)),
	}
}

func (a *PassthroughAdapter) AggregateGlobalRules(rules []GlobalRule) *AggregateResult {
	return nil
}
