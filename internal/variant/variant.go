// Package variant selects between mutually exclusive rule files.
//
// A technology may group alternative rules under a category directory, for
// example rules/conventions/styleA.md and rules/conventions/styleB.md. A
// Selection names which file of each category to install.
package variant

import (
	"path"
	"sort"
	"strings"
)

// None selects no file from a category.
const None = "__none__"

// Selection maps a category directory to the chosen file's base name, or
// to None.
type Selection map[string]string

// Include reports whether the rule at relPath should be installed.
// relPath is slash separated and relative to the technology's rules
// directory. Rules outside every selected category are always included.
// When nested categories both match, the deepest one decides.
func Include(relPath string, sel Selection) bool {
	relPath = strings.TrimPrefix(relPath, "./")
	match := ""
	for _, category := range sel.Categories() {
		if strings.HasPrefix(relPath, category+"/") && len(category) > len(match) {
			match = category
		}
	}
	if match == "" {
		return true
	}
	if choice := sel[match]; choice != None {
		return choice == stem(relPath)
	}
	return false
}

// Category returns the category a relative rule path falls under, or ""
// when it sits directly in the rules directory.
func Category(relPath string) string {
	dir, _, found := strings.Cut(strings.TrimPrefix(relPath, "./"), "/")
	if !found {
		return ""
	}
	return dir
}

// Merge returns a copy of base with every entry of override applied.
func Merge(base, override Selection) Selection {
	out := make(Selection, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Categories returns the selection's categories in sorted order.
func (s Selection) Categories() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stem(relPath string) string {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}
