package variant

import (
	"reflect"
	"testing"
)

func TestInclude(t *testing.T) {
	tests := []struct {
		name string
		path string
		sel  Selection
		want bool
	}{
		{"no selection", "conventions/styleA.md", nil, true},
		{"unrelated category", "testing/table.md", Selection{"conventions": "styleA"}, true},
		{"top-level rule", "errors.md", Selection{"conventions": "styleA"}, true},
		{"selected variant", "conventions/styleA.md", Selection{"conventions": "styleA"}, true},
		{"sibling variant", "conventions/styleB.md", Selection{"conventions": "styleA"}, false},
		{"none excludes", "conventions/styleA.md", Selection{"conventions": None}, false},
		{"none excludes sibling", "conventions/styleB.md", Selection{"conventions": None}, false},
		{"prefix is not a category", "conventionsx/styleA.md", Selection{"conventions": None}, true},
		{"leading dot slash", "./conventions/styleB.md", Selection{"conventions": "styleA"}, false},
		{"nested file uses base name", "conventions/deep/styleA.md", Selection{"conventions": "styleA"}, true},
		{"deepest category decides", "a/b/x.md", Selection{"a": None, "a/b": "x"}, true},
		{"deepest category excludes", "a/b/x.md", Selection{"a": "x", "a/b": None}, false},
		{"outer category still applies", "a/y.md", Selection{"a": "y", "a/b": None}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeat so that map iteration order cannot hide a wrong pick.
			for i := 0; i < 20; i++ {
				if got := Include(tt.path, tt.sel); got != tt.want {
					t.Fatalf("Include(%q, %v) = %v, want %v", tt.path, tt.sel, got, tt.want)
				}
			}
		})
	}
}

func TestIncludeOnlySelectedFileSurvives(t *testing.T) {
	files := []string{"conventions/styleA.md", "conventions/styleB.md", "conventions/styleC.md", "general.md"}

	var kept []string
	for _, f := range files {
		if Include(f, Selection{"conventions": "styleA"}) {
			kept = append(kept, f)
		}
	}
	want := []string{"conventions/styleA.md", "general.md"}
	if !reflect.DeepEqual(kept, want) {
		t.Errorf("expected %v, got %v", want, kept)
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"conventions/styleA.md": "conventions",
		"a/b/c.md":              "a",
		"top.md":                "",
	}
	for in, want := range tests {
		if got := Category(in); got != want {
			t.Errorf("Category(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMerge(t *testing.T) {
	base := Selection{"conventions": "styleA", "testing": None}
	got := Merge(base, Selection{"testing": "table"})

	want := Selection{"conventions": "styleA", "testing": "table"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if base["testing"] != None {
		t.Error("Merge modified its base")
	}
}

func TestCategories(t *testing.T) {
	sel := Selection{"b": "x", "a": "y"}
	if got := sel.Categories(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("unexpected order %v", got)
	}
}
