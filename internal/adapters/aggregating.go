package adapters

// AggregatingAdapter targets tools that read one instructions file and
// nothing else. Every rule is treated as global.
type AggregatingAdapter struct {
	layout
	aggregateFile string
}

// NewAggregatingAdapter returns an adapter rooted at outputDir that writes
// all rules into aggregateFile.
func NewAggregatingAdapter(outputDir, aggregateFile string) *AggregatingAdapter {
	return &AggregatingAdapter{
		layout:        layout{outputDir: outputDir, rulesDir: "rules", ext: ".md"},
		aggregateFile: aggregateFile,
	}
}

func (a *AggregatingAdapter) TransformRule(content, sourcePath string) TransformResult {
	return TransformResult{Content: content, Filename: a.OutputFilename(sourcePath), IsGlobal: true}
}

func (a *AggregatingAdapter) TransformSkill(content, sourcePath string) *SkillResult {
	return nil
}

func (a *AggregatingAdapter) AggregateGlobalRules(rules []GlobalRule) *AggregateResult {
	return aggregate(rules, a.aggregateFile)
}
