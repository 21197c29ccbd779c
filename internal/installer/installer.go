package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/agentx-labs/rulesync/internal/catalog"
	"github.com/agentx-labs/rulesync/internal/logging"
	"github.com/agentx-labs/rulesync/internal/manifest"
	"github.com/agentx-labs/rulesync/internal/variant"
	"github.com/agentx-labs/rulesync/internal/writer"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const skillFile = "SKILL.md"

// Stage is how far installation into one target has progressed.
type Stage string

const (
	StageNotStarted           Stage = "not-started"
	StageRulesInstalled       Stage = "rules-installed"
	StageSkillsInstalled      Stage = "skills-installed"
	StageSharedRulesInstalled Stage = "shared-rules-installed"
	StageGlobalsAggregated    Stage = "globals-aggregated"
	StageDone                 Stage = "done"
)

// MissingSourceError is returned when a technology's source directory does
// not exist.
type MissingSourceError struct {
	Technology string
	Path       string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("source directory for technology %q not found: %s", e.Technology, e.Path)
}

// Options are the install options a caller selects.
type Options struct {
	WithSkills bool
	WithRules  bool
	// TechChoices maps technology to its variant selection.
	TechChoices map[string]variant.Selection
	DryRun      bool
	// Force disables backups of overwritten files.
	Force bool
}

// Request describes one installation.
type Request struct {
	TargetDir    string
	Targets      []string
	Technologies []string
	Options      Options
}

// Result is the outcome of an installation. Operations are in the order
// they were performed.
type Result struct {
	Operations        []writer.Operation
	Stages            map[string]Stage
	SkippedCategories []string
	// ManifestPath is empty for dry runs.
	ManifestPath string
	DryRun       bool
}

// Counts tallies operations by type.
func (r *Result) Counts() map[writer.OperationType]int {
	counts := make(map[writer.OperationType]int)
	for _, op := range r.Operations {
		counts[op.Type]++
	}
	return counts
}

// Installer renders a catalog into a project for a set of targets.
type Installer struct {
	fs       afero.Fs
	registry *adapters.Registry
	catalog  *catalog.Catalog
	store    *manifest.Store
	version  string
	backup   bool
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithVersion sets the version recorded in manifests and compared by Update.
func WithVersion(v string) Option {
	return func(i *Installer) { i.version = v }
}

// WithBackup controls whether overwritten files are backed up when the
// request does not force.
func WithBackup(enabled bool) Option {
	return func(i *Installer) { i.backup = enabled }
}

// WithClock overrides the clock used for manifest and backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Installer) { i.now = now }
}

// WithLogger sets the installer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// New returns an Installer reading cat and writing through fs. cat may be
// nil when only Status is used.
func New(fs afero.Fs, registry *adapters.Registry, cat *catalog.Catalog, opts ...Option) *Installer {
	i := &Installer{
		fs:       fs,
		registry: registry,
		catalog:  cat,
		version:  "dev",
		backup:   true,
		now:      time.Now,
		logger:   logging.GetLogger("installer"),
	}
	for _, opt := range opts {
		opt(i)
	}

	roots := make([]string, 0, len(registry.IDs()))
	for _, d := range registry.Descriptors() {
		roots = append(roots, d.OutputDir)
	}
	i.store = manifest.NewStore(fs, roots...)
	return i
}

// Store returns the manifest store the installer writes to.
func (i *Installer) Store() *manifest.Store {
	return i.store
}

// Install runs one installation. Targets and technologies are validated
// before anything is written, also for dry runs. On failure the returned
// Result holds the operations already performed.
func (i *Installer) Install(req Request) (*Result, error) {
	if i.catalog == nil {
		return nil, errors.New("no catalog loaded")
	}
	if len(req.Targets) == 0 {
		return nil, errors.New("no targets selected")
	}
	if err := i.registry.Validate(req.Targets); err != nil {
		return nil, err
	}
	if err := i.catalog.Validate(req.Technologies); err != nil {
		return nil, err
	}
	for _, tech := range req.Technologies {
		dir := i.catalog.TechDir(tech)
		ok, err := afero.DirExists(i.fs, dir)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", dir, err)
		}
		if !ok {
			return nil, &MissingSourceError{Technology: tech, Path: dir}
		}
	}

	result := &Result{
		Stages: make(map[string]Stage, len(req.Targets)),
		DryRun: req.Options.DryRun,
	}
	for _, id := range req.Targets {
		result.Stages[id] = StageNotStarted
	}

	wopts := writer.Options{
		DryRun:    req.Options.DryRun,
		Backup:    i.backup && !req.Options.Force,
		TargetDir: req.TargetDir,
	}

	w := writer.New(i.fs, writer.WithClock(i.now), writer.WithLogger(i.logger))
	skipped := make(map[string]bool)
	for _, id := range req.Targets {
		run := &targetRun{
			Installer: i,
			writer:    w,
			req:       req,
			wopts:     wopts,
			result:    result,
			skipped:   skipped,
		}
		run.adapter, _ = i.registry.Get(id)
		run.desc, _ = i.registry.Descriptor(id)

		if err := run.install(); err != nil {
			return result, fmt.Errorf("installing for %s: %w", id, err)
		}
	}

	for cat := range skipped {
		result.SkippedCategories = append(result.SkippedCategories, cat)
	}
	sort.Strings(result.SkippedCategories)

	if req.Options.DryRun {
		return result, nil
	}

	path, err := i.writeManifest(req)
	if err != nil {
		return result, err
	}
	result.ManifestPath = path
	return result, nil
}

func (i *Installer) writeManifest(req Request) (string, error) {
	choices := make(map[string]map[string]string, len(req.Options.TechChoices))
	for tech, sel := range req.Options.TechChoices {
		if len(sel) > 0 {
			choices[tech] = map[string]string(sel)
		}
	}
	if len(choices) == 0 {
		choices = nil
	}

	m := &manifest.Manifest{
		Version:      i.version,
		InstalledAt:  i.now().UTC(),
		Technologies: append([]string{}, req.Technologies...),
		Targets:      append([]string(nil), req.Targets...),
		Options: manifest.Options{
			WithSkills:  req.Options.WithSkills,
			WithRules:   req.Options.WithRules,
			TechChoices: choices,
		},
	}

	primary, err := i.registry.Descriptor(m.PrimaryTarget())
	if err != nil {
		return "", err
	}
	path, err := i.store.Write(req.TargetDir, primary.OutputDir, m)
	if err != nil {
		return "", err
	}
	i.logger.Debug().Str("path", path).Msg("Wrote manifest")
	return path, nil
}

// targetRun installs every technology into a single target.
type targetRun struct {
	*Installer
	writer  *writer.Writer
	req     Request
	wopts   writer.Options
	adapter adapters.Adapter
	desc    adapters.Descriptor
	result  *Result
	skipped map[string]bool
	globals []adapters.GlobalRule
}

func (r *targetRun) install() error {
	id := r.desc.ID
	opts := r.req.Options
	log := r.logger.With().Str("target", id).Logger()

	for _, tech := range r.req.Technologies {
		if r.desc.Supports.Settings {
			if err := r.installSettings(tech); err != nil {
				return err
			}
		}
		if r.desc.Supports.Rules && opts.WithRules {
			if err := r.installRules(tech); err != nil {
				return err
			}
		}
	}
	r.result.Stages[id] = StageRulesInstalled

	if opts.WithSkills && (r.desc.Supports.Skills || r.desc.Supports.Workflows) {
		for _, tech := range r.req.Technologies {
			if err := r.installSkills(r.catalog.SkillsDir(tech)); err != nil {
				return err
			}
		}
	}
	r.result.Stages[id] = StageSkillsInstalled

	if r.desc.Supports.Rules && opts.WithRules {
		if err := r.installSharedRules(); err != nil {
			return err
		}
	}
	if opts.WithSkills && (r.desc.Supports.Skills || r.desc.Supports.Workflows) {
		if err := r.installSkills(r.catalog.SharedSkillsDir()); err != nil {
			return err
		}
	}
	r.result.Stages[id] = StageSharedRulesInstalled

	if len(r.globals) > 0 {
		if agg := r.adapter.AggregateGlobalRules(r.globals); agg != nil {
			dest := filepath.Join(r.req.TargetDir, r.desc.OutputDir, agg.Filename)
			if err := r.write(dest, agg.Content); err != nil {
				return err
			}
			log.Debug().Int("rules", len(r.globals)).Str("file", agg.Filename).Msg("Aggregated global rules")
		}
	}
	r.result.Stages[id] = StageGlobalsAggregated

	r.result.Stages[id] = StageDone
	return nil
}

func (r *targetRun) installSettings(tech string) error {
	src := r.catalog.SettingsPath(tech)
	ok, err := afero.Exists(r.fs, src)
	if err != nil {
		return fmt.Errorf("checking %s: %w", src, err)
	}
	if !ok {
		return nil
	}

	dest := filepath.Join(r.req.TargetDir, r.desc.OutputDir, filepath.Base(src))
	op, err := r.writer.MergeSettingsJSON(dest, src, r.wopts)
	if err != nil {
		return err
	}
	r.record(op)
	return nil
}

func (r *targetRun) installRules(tech string) error {
	sel := r.req.Options.TechChoices[tech]
	return r.walkRules(r.catalog.RulesDir(tech), func(rel, content, src string) error {
		if !variant.Include(rel, sel) {
			r.logger.Debug().Str("rule", rel).Str("technology", tech).Msg("Excluded by variant selection")
			return nil
		}
		res := r.adapter.TransformRule(content, src)
		if res.IsGlobal {
			r.globals = append(r.globals, adapters.GlobalRule{Content: content, SourcePath: src})
			return nil
		}
		out := r.adapter.RuleOutputPath(tech, filepath.Join(filepath.Dir(rel), res.Filename))
		return r.write(filepath.Join(r.req.TargetDir, out), res.Content)
	})
}

func (r *targetRun) installSharedRules() error {
	return r.walkRules(r.catalog.SharedRulesDir(), func(rel, content, src string) error {
		category := variant.Category(rel)
		if !r.catalog.SharedApplies(category, r.req.Technologies) {
			if !r.skipped[category] {
				r.logger.Info().Str("category", category).Msg("Skipping shared rules that do not apply to the selected technologies")
			}
			r.skipped[category] = true
			return nil
		}
		res := r.adapter.TransformRule(content, src)
		if res.IsGlobal {
			r.globals = append(r.globals, adapters.GlobalRule{Content: content, SourcePath: src})
			return nil
		}
		out := r.adapter.SharedRuleOutputPath(filepath.Join(filepath.Dir(rel), res.Filename))
		return r.write(filepath.Join(r.req.TargetDir, out), res.Content)
	})
}

// walkRules calls fn for every markdown file under root in lexical order
// with its slash-separated path relative to root. A missing root is not
// an error.
func (r *targetRun) walkRules(root string, fn func(rel, content, src string) error) error {
	ok, err := afero.DirExists(r.fs, root)
	if err != nil {
		return fmt.Errorf("checking %s: %w", root, err)
	}
	if !ok {
		r.logger.Debug().Str("path", root).Msg("No rules directory")
		return nil
	}

	return afero.Walk(r.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := afero.ReadFile(r.fs, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		return fn(filepath.ToSlash(rel), string(data), path)
	})
}

// installSkills renders every SKILL.md under root. Targets with skill
// directories also receive the files that sit alongside each SKILL.md.
func (r *targetRun) installSkills(root string) error {
	ok, err := afero.DirExists(r.fs, root)
	if err != nil {
		return fmt.Errorf("checking %s: %w", root, err)
	}
	if !ok {
		return nil
	}

	var skills []string
	err = afero.Walk(r.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == skillFile {
			skills = append(skills, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	for _, src := range skills {
		data, err := afero.ReadFile(r.fs, src)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src, err)
		}
		res := r.adapter.TransformSkill(string(data), src)
		if res == nil {
			continue
		}
		dir := filepath.Join(r.req.TargetDir, res.Dir())
		if err := r.write(filepath.Join(dir, res.Filename), res.Content); err != nil {
			return err
		}
		if res.SkillDir != "" {
			if err := r.copySupportFiles(filepath.Dir(src), dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// copySupportFiles copies the files that sit alongside a SKILL.md. A
// subdirectory with its own SKILL.md is a separate skill and is skipped.
func (r *targetRun) copySupportFiles(srcDir, destDir string) error {
	return afero.Walk(r.fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == srcDir {
				return nil
			}
			nested, err := afero.Exists(r.fs, filepath.Join(path, skillFile))
			if err != nil {
				return fmt.Errorf("checking %s: %w", path, err)
			}
			if nested {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() == skillFile {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		op, err := r.writer.CopyFile(filepath.Join(destDir, rel), path, r.wopts)
		if err != nil {
			return err
		}
		r.record(op)
		return nil
	})
}

func (r *targetRun) write(dest, content string) error {
	op, err := r.writer.WriteFile(dest, content, r.wopts)
	if err != nil {
		return err
	}
	r.record(op)
	return nil
}

func (r *targetRun) record(op writer.Operation) {
	r.result.Operations = append(r.result.Operations, op)
	r.logger.Debug().Str("target", r.desc.ID).Str("op", string(op.Type)).Str("path", op.Path).Msg("File operation")
}
