// Package catalog describes the source tree that installations read from.
//
// The configs root holds one directory per technology plus a _shared
// directory of cross-technology content:
//
//	configs/
//	  catalog.yaml            optional metadata
//	  <tech>/rules/**/*.md
//	  <tech>/skills/<name>/SKILL.md
//	  <tech>/settings.json
//	  _shared/rules/**/*.md
//	  _shared/skills/<name>/SKILL.md
//
// Every read goes through an afero.Fs.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

const (
	// FileName is the optional metadata file at the configs root.
	FileName = "catalog.yaml"

	// SharedDir holds content that applies across technologies.
	SharedDir = "_shared"

	rulesDir     = "rules"
	skillsDir    = "skills"
	settingsFile = "settings.json"
)

// Technology is one installable technology.
type Technology struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Variants maps a category directory under rules/ to its mutually
	// exclusive choices.
	Variants map[string][]string `yaml:"variants,omitempty"`
}

// VariantCategories returns the technology's variant categories in sorted
// order.
func (t Technology) VariantCategories() []string {
	cats := make([]string, 0, len(t.Variants))
	for c := range t.Variants {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

type sharedSpec struct {
	// Categories maps a top-level directory under _shared/rules to the
	// technologies it applies to. An empty list applies to all.
	Categories map[string][]string `yaml:"categories"`
}

type catalogFile struct {
	Technologies []Technology `yaml:"technologies"`
	Shared       sharedSpec   `yaml:"shared"`
}

// UnknownTechnologyError reports a technology that is not in the catalog.
type UnknownTechnologyError struct {
	Name  string
	Valid []string
}

func (e *UnknownTechnologyError) Error() string {
	return fmt.Sprintf("unknown technology %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// Catalog is a loaded configs root.
type Catalog struct {
	fs     afero.Fs
	root   string
	techs  []Technology
	shared map[string][]string
}

// Load reads the configs root. When catalog.yaml is absent, every top-level
// directory other than _shared is a technology.
func Load(fs afero.Fs, root string) (*Catalog, error) {
	info, err := fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configs directory %s does not exist", root)
		}
		return nil, fmt.Errorf("reading configs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("configs path %s is not a directory", root)
	}

	c := &Catalog{fs: fs, root: root}

	data, err := afero.ReadFile(fs, filepath.Join(root, FileName))
	switch {
	case err == nil:
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
		for _, t := range f.Technologies {
			if t.Name == "" {
				return nil, fmt.Errorf("parsing %s: technology without a name", FileName)
			}
		}
		c.techs = f.Technologies
		c.shared = f.Shared.Categories
	case errors.Is(err, os.ErrNotExist):
		c.techs, err = discover(fs, root)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	return c, nil
}

func discover(fs afero.Fs, root string) ([]Technology, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, fmt.Errorf("listing configs directory: %w", err)
	}

	var techs []Technology
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || name == SharedDir || strings.HasPrefix(name, ".") {
			continue
		}
		techs = append(techs, Technology{Name: name})
	}
	return techs, nil
}

// Root returns the configs root directory.
func (c *Catalog) Root() string {
	return c.root
}

// Technologies returns all technologies in catalog order.
func (c *Catalog) Technologies() []Technology {
	return append([]Technology(nil), c.techs...)
}

// Names returns all technology names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.techs))
	for i, t := range c.techs {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a technology by name.
func (c *Catalog) Lookup(name string) (Technology, bool) {
	for _, t := range c.techs {
		if t.Name == name {
			return t, true
		}
	}
	return Technology{}, false
}

// Validate returns an *UnknownTechnologyError for the first name not in the
// catalog.
func (c *Catalog) Validate(names []string) error {
	for _, n := range names {
		if _, ok := c.Lookup(n); !ok {
			return &UnknownTechnologyError{Name: n, Valid: c.Names()}
		}
	}
	return nil
}

// TechDir returns the source directory of a technology.
func (c *Catalog) TechDir(tech string) string {
	return filepath.Join(c.root, tech)
}

// RulesDir returns the rules directory of a technology.
func (c *Catalog) RulesDir(tech string) string {
	return filepath.Join(c.root, tech, rulesDir)
}

// SkillsDir returns the skills directory of a technology.
func (c *Catalog) SkillsDir(tech string) string {
	return filepath.Join(c.root, tech, skillsDir)
}

// SettingsPath returns the settings.json path of a technology.
func (c *Catalog) SettingsPath(tech string) string {
	return filepath.Join(c.root, tech, settingsFile)
}

// SharedRulesDir returns the cross-technology rules directory.
func (c *Catalog) SharedRulesDir() string {
	return filepath.Join(c.root, SharedDir, rulesDir)
}

// SharedSkillsDir returns the cross-technology skills directory.
func (c *Catalog) SharedSkillsDir() string {
	return filepath.Join(c.root, SharedDir, skillsDir)
}

// SharedApplies reports whether the shared rule category applies to an
// installation of techs. Categories without a technology list, and rules
// outside any category (category ""), always apply.
func (c *Catalog) SharedApplies(category string, techs []string) bool {
	if category == "" {
		return true
	}
	allowed := c.shared[category]
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		for _, t := range techs {
			if a == t {
				return true
			}
		}
	}
	return false
}
