package adapters

import (
	"path/filepath"
	"strings"

	"github.com/agentx-labs/rulesync/internal/frontmatter"
)

// TransformResult is a rule document rendered for one target.
type TransformResult struct {
	Content  string
	Filename string
	// IsGlobal marks rules that are folded into the aggregated
	// instructions file instead of being written on their own.
	IsGlobal bool
}

// SkillResult is a skill rendered for one target. Exactly one of SkillDir
// and WorkflowDir is set; both are relative to the project root.
type SkillResult struct {
	Content     string
	Filename    string
	SkillDir    string
	WorkflowDir string
}

// Dir returns the directory the skill file is written into.
func (s *SkillResult) Dir() string {
	if s.SkillDir != "" {
		return s.SkillDir
	}
	return s.WorkflowDir
}

// GlobalRule is a rule collected for aggregation, in traversal order.
type GlobalRule struct {
	Content    string
	SourcePath string
}

// AggregateResult is the consolidated instructions file. Filename is
// relative to the target's output directory.
type AggregateResult struct {
	Content  string
	Filename string
}

// Adapter renders canonical rule and skill documents into the file layout
// of a single AI tool. Implementations are stateless and never fail: a
// document they cannot interpret is passed through unchanged.
type Adapter interface {
	TransformRule(content, sourcePath string) TransformResult
	// TransformSkill returns nil when the target has no skill or workflow files.
	TransformSkill(content, sourcePath string) *SkillResult
	// AggregateGlobalRules returns nil for no input or when the target has
	// no aggregated file.
	AggregateGlobalRules(rules []GlobalRule) *AggregateResult

	// RuleOutputPath maps a technology rule to its project-relative path.
	// filename may carry the rule's subdirectory inside the technology.
	RuleOutputPath(tech, filename string) string
	// SharedRuleOutputPath maps a cross-technology rule to its
	// project-relative path.
	SharedRuleOutputPath(relativePath string) string
	OutputFilename(sourcePath string) string
	FileExtension() string
}

// sharedDirName is the directory shared rules land in under a rules root.
const sharedDirName = "_shared"

// layout holds the path mapping every adapter shares.
type layout struct {
	outputDir string
	rulesDir  string
	ext       string
}

func (l layout) RuleOutputPath(tech, filename string) string {
	return filepath.Join(l.outputDir, l.rulesDir, tech, filename)
}

func (l layout) SharedRuleOutputPath(relativePath string) string {
	return filepath.Join(l.outputDir, l.rulesDir, sharedDirName, relativePath)
}

func (l layout) OutputFilename(sourcePath string) string {
	return baseName(sourcePath) + l.ext
}

func (l layout) FileExtension() string {
	return l.ext
}

// baseName strips directory and the .md extension from a source path.
func baseName(sourcePath string) string {
	return strings.TrimSuffix(filepath.Base(sourcePath), ".md")
}

// skillName is the directory a SKILL.md lives in.
func skillName(sourcePath string) string {
	return filepath.Base(filepath.Dir(sourcePath))
}

// parseRule parses content and reports whether it can be transformed.
// Malformed frontmatter or an empty body means the document is passed
// through untouched.
func parseRule(content string) (*frontmatter.Document, bool) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, false
	}
	if strings.TrimSpace(doc.Body) == "" {
		return doc, false
	}
	return doc, true
}
