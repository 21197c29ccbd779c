package installer

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/agentx-labs/rulesync/internal/catalog"
	"github.com/agentx-labs/rulesync/internal/manifest"
	"github.com/agentx-labs/rulesync/internal/variant"
	"github.com/agentx-labs/rulesync/internal/writer"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	configsRoot = "/configs"
	projectDir  = "/proj"
)

func clock() time.Time {
	return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
}

func writeTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		if err := fs.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := afero.WriteFile(fs, full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(projectDir, path))
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func newInstaller(t *testing.T, fs afero.Fs, version string) *Installer {
	t.Helper()
	cat, err := catalog.Load(fs, configsRoot)
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return New(fs, adapters.NewRegistry(), cat,
		WithVersion(version),
		WithClock(clock),
		WithLogger(zerolog.Nop()),
	)
}

func paths(ops []writer.Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = filepath.ToSlash(op.Path)
	}
	return out
}

func types(ops []writer.Operation) []writer.OperationType {
	out := make([]writer.OperationType, len(ops))
	for i, op := range ops {
		out[i] = op.Type
	}
	return out
}

var fullTree = map[string]string{
	"catalog.yaml": `technologies:
  - name: go
    variants:
      conventions: [styleA, styleB]
  - name: python
shared:
  categories:
    python-only: [python]
`,
	"go/rules/a-core-principles.md":       "---\nalwaysApply: true\ndescription: Always on\n---\nBe kind.\n",
	"go/rules/b-errors.md":                "---\npaths:\n  - \"**/*.go\"\n---\nWrap errors.\n",
	"go/rules/conventions/styleA.md":      "# Style A\n",
	"go/rules/conventions/styleB.md":      "# Style B\n",
	"go/settings.json":                    `{"permissions":{"allow":["Bash(go test:*)"]}}`,
	"go/skills/lint/SKILL.md":             "---\ndescription: Lint code\nname: lint\n---\nRun the linter.\n",
	"go/skills/lint/scripts/run.sh":       "#!/bin/sh\n",
	"_shared/rules/security.md":           "---\ndescription: Security\n---\nNo secrets.\n",
	"_shared/rules/python-only/typing.md": "Use type hints.\n",
}

func TestInstallCopilotScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, map[string]string{
		"T/rules/first-rule.md":  "---\nalwaysApply: true\n---\nAlways do this.\n",
		"T/rules/second-rule.md": "---\npaths: [\"src/**\"]\n---\nOnly in src.\n",
	})
	inst := newInstaller(t, fs, "1.0.0")

	res, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Copilot},
		Technologies: []string{"T"},
		Options:      Options{WithRules: true, WithSkills: true},
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	want := []string{
		".github/instructions/T/second-rule.instructions.md",
		".github/copilot-instructions.md",
	}
	if got := paths(res.Operations); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected operations %v", got)
	}

	agg := readFile(t, fs, ".github/copilot-instructions.md")
	if !strings.Contains(agg, "## First Rule") {
		t.Errorf("aggregated file missing heading:\n%s", agg)
	}
	if strings.Contains(agg, "Only in src.") {
		t.Error("non-global rule leaked into aggregated file")
	}

	rule := readFile(t, fs, ".github/instructions/T/second-rule.instructions.md")
	if !strings.HasPrefix(rule, "---\napplyTo: src/**\n---\n") {
		t.Errorf("unexpected rule output:\n%s", rule)
	}

	if res.Stages[adapters.Copilot] != StageDone {
		t.Errorf("expected stage done, got %s", res.Stages[adapters.Copilot])
	}
	if res.ManifestPath != filepath.Join(projectDir, ".github", ".rulesync-manifest.json") {
		t.Errorf("unexpected manifest path %q", res.ManifestPath)
	}
}

func TestInstallClaudeFull(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	inst := newInstaller(t, fs, "1.0.0")

	res, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude},
		Technologies: []string{"go"},
		Options: Options{
			WithRules:   true,
			WithSkills:  true,
			TechChoices: map[string]variant.Selection{"go": {"conventions": "styleB"}},
		},
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	want := []string{
		".claude/settings.json",
		".claude/rules/go/a-core-principles.md",
		".claude/rules/go/b-errors.md",
		".claude/rules/go/conventions/styleB.md",
		".claude/skills/lint/SKILL.md",
		".claude/skills/lint/scripts/run.sh",
		".claude/rules/_shared/security.md",
	}
	if got := paths(res.Operations); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected operations:\n got  %v\n want %v", got, want)
	}
	if !reflect.DeepEqual(res.SkippedCategories, []string{"python-only"}) {
		t.Errorf("unexpected skipped categories %v", res.SkippedCategories)
	}

	m, _, err := inst.Store().Read(projectDir)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if m.Version != "1.0.0" || !reflect.DeepEqual(m.Targets, []string{"claude"}) {
		t.Errorf("unexpected manifest %+v", m)
	}
	if m.Options.TechChoices["go"]["conventions"] != "styleB" {
		t.Errorf("choices not recorded: %+v", m.Options)
	}
}

func TestInstallVariantNone(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	inst := newInstaller(t, fs, "1.0.0")

	res, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude},
		Technologies: []string{"go"},
		Options: Options{
			WithRules:   true,
			TechChoices: map[string]variant.Selection{"go": {"conventions": variant.None}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range paths(res.Operations) {
		if strings.Contains(p, "conventions") {
			t.Errorf("variant rule installed despite none: %s", p)
		}
		if strings.Contains(p, "skills") {
			t.Errorf("skill installed without skills requested: %s", p)
		}
	}
}

func TestInstallDryRunParity(t *testing.T) {
	req := Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude, adapters.Copilot, adapters.Codex, adapters.Windsurf},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true, WithSkills: true},
	}

	// Pre-populate one output so both runs see an overwrite and a merge.
	existing := map[string]string{
		".claude/settings.json": `{"permissions":{"allow":["a"]}}`,
		".codex/AGENTS.md":      "old\n",
	}

	dryFs := afero.NewMemMapFs()
	writeTree(t, dryFs, configsRoot, fullTree)
	writeTree(t, dryFs, projectDir, existing)
	dryReq := req
	dryReq.Options.DryRun = true
	dry, err := newInstaller(t, dryFs, "1.0.0").Install(dryReq)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	realFs := afero.NewMemMapFs()
	writeTree(t, realFs, configsRoot, fullTree)
	writeTree(t, realFs, projectDir, existing)
	wet, err := newInstaller(t, realFs, "1.0.0").Install(req)
	if err != nil {
		t.Fatalf("real run failed: %v", err)
	}

	if !reflect.DeepEqual(types(dry.Operations), types(wet.Operations)) {
		t.Errorf("classification differs:\n dry  %v\n real %v", types(dry.Operations), types(wet.Operations))
	}
	if !reflect.DeepEqual(paths(dry.Operations), paths(wet.Operations)) {
		t.Errorf("paths differ:\n dry  %v\n real %v", paths(dry.Operations), paths(wet.Operations))
	}

	if dry.ManifestPath != "" {
		t.Errorf("dry run wrote a manifest: %s", dry.ManifestPath)
	}
	if got := readFile(t, dryFs, ".codex/AGENTS.md"); got != "old\n" {
		t.Errorf("dry run modified AGENTS.md: %q", got)
	}
	if ok, _ := afero.Exists(dryFs, filepath.Join(projectDir, ".github")); ok {
		t.Error("dry run created output directories")
	}
	if ok, _ := afero.Exists(dryFs, filepath.Join(projectDir, writer.BackupDirName)); ok {
		t.Error("dry run created backups")
	}
	if ok, _ := afero.Exists(realFs, filepath.Join(projectDir, writer.BackupDirName)); !ok {
		t.Error("real run did not back up overwritten files")
	}
}

func TestInstallAggregationOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, map[string]string{
		"go/rules/zeta.md":        "Zeta body.\n",
		"go/rules/alpha.md":       "Alpha body.\n",
		"go/rules/nested/beta.md": "Beta body.\n",
		"py/rules/gamma.md":       "Gamma body.\n",
		"_shared/rules/omega.md":  "Omega body.\n",
	})
	inst := newInstaller(t, fs, "1.0.0")

	_, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Codex},
		Technologies: []string{"py", "go"},
		Options:      Options{WithRules: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	agg := readFile(t, fs, ".codex/AGENTS.md")
	order := []string{"## Gamma", "## Alpha", "## Beta", "## Zeta", "## Omega"}
	last := -1
	for _, h := range order {
		idx := strings.Index(agg, h)
		if idx < 0 {
			t.Fatalf("missing heading %q in:\n%s", h, agg)
		}
		if idx < last {
			t.Errorf("heading %q out of order in:\n%s", h, agg)
		}
		last = idx
	}
}

func TestInstallFatalErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	inst := newInstaller(t, fs, "1.0.0")

	t.Run("unknown target under dry run", func(t *testing.T) {
		_, err := inst.Install(Request{
			TargetDir:    projectDir,
			Targets:      []string{"emacs"},
			Technologies: []string{"go"},
			Options:      Options{WithRules: true, DryRun: true},
		})
		var unknown *adapters.UnknownTargetError
		if !errors.As(err, &unknown) {
			t.Errorf("expected UnknownTargetError, got %v", err)
		}
	})

	t.Run("unknown technology", func(t *testing.T) {
		_, err := inst.Install(Request{
			TargetDir:    projectDir,
			Targets:      []string{adapters.Claude},
			Technologies: []string{"cobol"},
			Options:      Options{WithRules: true, DryRun: true},
		})
		var unknown *catalog.UnknownTechnologyError
		if !errors.As(err, &unknown) {
			t.Errorf("expected UnknownTechnologyError, got %v", err)
		}
	})

	t.Run("missing source directory", func(t *testing.T) {
		_, err := inst.Install(Request{
			TargetDir:    projectDir,
			Targets:      []string{adapters.Claude},
			Technologies: []string{"go", "python"},
			Options:      Options{WithRules: true},
		})
		var missing *MissingSourceError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingSourceError, got %v", err)
		}
		if missing.Technology != "python" {
			t.Errorf("unexpected technology %q", missing.Technology)
		}
		if ok, _ := afero.Exists(fs, filepath.Join(projectDir, ".claude")); ok {
			t.Error("files written before validation failed")
		}
	})

	t.Run("no targets", func(t *testing.T) {
		if _, err := inst.Install(Request{TargetDir: projectDir, Technologies: []string{"go"}}); err == nil {
			t.Error("expected error for empty target list")
		}
	})
}

func TestInstallForceSkipsBackups(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	writeTree(t, fs, projectDir, map[string]string{".codex/AGENTS.md": "old\n"})
	inst := newInstaller(t, fs, "1.0.0")

	res, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Codex},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true, Force: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Counts()[writer.OpOverwrite] != 1 {
		t.Errorf("expected one overwrite, got %v", res.Counts())
	}
	if ok, _ := afero.Exists(fs, filepath.Join(projectDir, writer.BackupDirName)); ok {
		t.Error("force should not create backups")
	}
}

func TestInstallWindsurfWorkflows(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	inst := newInstaller(t, fs, "1.0.0")

	res, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Windsurf},
		Technologies: []string{"go"},
		Options:      Options{WithSkills: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := paths(res.Operations); !reflect.DeepEqual(got, []string{".windsurf/workflows/lint.md"}) {
		t.Errorf("unexpected operations %v", got)
	}
	if got := readFile(t, fs, ".windsurf/workflows/lint.md"); got != "---\ndescription: Lint code\n---\nRun the linter.\n" {
		t.Errorf("unexpected workflow:\n%s", got)
	}
}

func TestInitThenUpdateIsUpToDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)

	_, err := newInstaller(t, fs, "1.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude, adapters.Copilot},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true, WithSkills: true},
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Any write on a read-only filesystem fails the update.
	ro := afero.NewReadOnlyFs(fs)
	upd, err := newInstaller(t, ro, "1.0.0").Update(UpdateRequest{TargetDir: projectDir})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !upd.UpToDate {
		t.Error("expected already up to date")
	}
	if upd.Install != nil {
		t.Error("up-to-date update should not install")
	}
}

func TestUpdateReplaysManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)

	first, err := newInstaller(t, fs, "1.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Copilot},
		Technologies: []string{"go"},
		Options: Options{
			WithRules:   true,
			TechChoices: map[string]variant.Selection{"go": {"conventions": "styleA"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	upd, err := newInstaller(t, fs, "1.1.0").Update(UpdateRequest{TargetDir: projectDir})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if upd.UpToDate || upd.Install == nil {
		t.Fatal("expected a reinstall for a new version")
	}
	if upd.Previous.Version != "1.0.0" {
		t.Errorf("unexpected previous version %s", upd.Previous.Version)
	}
	if !reflect.DeepEqual(paths(first.Operations), paths(upd.Install.Operations)) {
		t.Errorf("update wrote different files:\n init   %v\n update %v", paths(first.Operations), paths(upd.Install.Operations))
	}
	for _, op := range upd.Install.Operations {
		if op.Type != writer.OpOverwrite {
			t.Errorf("expected overwrite on update, got %s for %s", op.Type, op.Path)
		}
	}

	m, _, err := newInstaller(t, fs, "1.1.0").Store().Read(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Version != "1.1.0" {
		t.Errorf("manifest not refreshed: %s", m.Version)
	}
}

func TestUpdateForceReinstallsSameVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)
	inst := newInstaller(t, fs, "1.0.0")

	if _, err := inst.Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Codex},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true},
	}); err != nil {
		t.Fatal(err)
	}

	upd, err := inst.Update(UpdateRequest{TargetDir: projectDir, Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if upd.UpToDate || upd.Install == nil {
		t.Fatal("force should reinstall")
	}
	if ok, _ := afero.Exists(fs, filepath.Join(projectDir, writer.BackupDirName)); ok {
		t.Error("forced update should not create backups")
	}
}

func TestUpdateWithoutManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)

	_, err := newInstaller(t, fs, "1.0.0").Update(UpdateRequest{TargetDir: projectDir})
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)

	if _, err := newInstaller(t, fs, "1.0.0").Status(projectDir); !errors.Is(err, manifest.ErrNotFound) {
		t.Errorf("expected ErrNotFound before install, got %v", err)
	}

	if _, err := newInstaller(t, fs, "1.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Windsurf},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true},
	}); err != nil {
		t.Fatal(err)
	}

	st, err := newInstaller(t, fs, "1.2.0").Status(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if st.Drift != manifest.DriftOlder {
		t.Errorf("expected older drift, got %s", st.Drift)
	}
	if st.Manifest.Version != "1.0.0" || st.Running != "1.2.0" {
		t.Errorf("unexpected status %+v", st)
	}
	if st.ManifestPath != filepath.Join(projectDir, ".windsurf", ".rulesync-manifest.json") {
		t.Errorf("unexpected manifest path %q", st.ManifestPath)
	}
}

func TestReinitWithOtherPrimaryTargetReplacesManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, fullTree)

	if _, err := newInstaller(t, fs, "1.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude, adapters.Copilot},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true},
	}); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if _, err := newInstaller(t, fs, "2.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Copilot},
		Technologies: []string{"go"},
		Options:      Options{WithRules: true},
	}); err != nil {
		t.Fatalf("second init failed: %v", err)
	}

	inst := newInstaller(t, fs, "2.0.0")
	st, err := inst.Status(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if st.Manifest.Version != "2.0.0" || !reflect.DeepEqual(st.Manifest.Targets, []string{adapters.Copilot}) {
		t.Errorf("status shows version %s targets %v, want the latest init", st.Manifest.Version, st.Manifest.Targets)
	}
	if st.ManifestPath != filepath.Join(projectDir, ".github", ".rulesync-manifest.json") {
		t.Errorf("unexpected manifest path %q", st.ManifestPath)
	}
	if st.Drift != manifest.DriftNone {
		t.Errorf("expected no drift, got %s", st.Drift)
	}

	upd, err := inst.Update(UpdateRequest{TargetDir: projectDir})
	if err != nil {
		t.Fatal(err)
	}
	if !upd.UpToDate {
		t.Error("update after the latest init should be up to date")
	}
}

func TestInstallNestedSkillKeepsItsOwnFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, configsRoot, map[string]string{
		"go/skills/lint/SKILL.md":          "---\ndescription: Lint code\n---\nRun the linter.\n",
		"go/skills/lint/scripts/run.sh":    "#!/bin/sh\n",
		"go/skills/lint/fmt/SKILL.md":      "---\ndescription: Format code\n---\nRun gofmt.\n",
		"go/skills/lint/fmt/helper.sh":     "#!/bin/sh\ngofmt -l .\n",
		"go/skills/lint/fmt/data/conf.txt": "tabs\n",
	})

	res, err := newInstaller(t, fs, "1.0.0").Install(Request{
		TargetDir:    projectDir,
		Targets:      []string{adapters.Claude},
		Technologies: []string{"go"},
		Options:      Options{WithSkills: true, DryRun: true},
	})
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	want := []string{
		".claude/skills/lint/SKILL.md",
		".claude/skills/lint/scripts/run.sh",
		".claude/skills/fmt/SKILL.md",
		".claude/skills/fmt/data/conf.txt",
		".claude/skills/fmt/helper.sh",
	}
	if got := paths(res.Operations); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected operations:\n got  %v\n want %v", got, want)
	}
}
