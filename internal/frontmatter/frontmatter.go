// Package frontmatter parses and serializes rule documents: a `---` delimited
// YAML header followed by a free-text markdown body.
//
// Header keys keep their original order so that a parse/serialize round trip
// only ever changes whitespace and quoting inside the header, never the body.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

const delimiter = "---"

// Recognized keys of the rule schema. Any other key is carried along.
const (
	KeyPaths       = "paths"
	KeyDescription = "description"
	KeyAlwaysApply = "alwaysApply"
)

// Document is a parsed rule document. Frontmatter is nil when the content
// has no header block.
type Document struct {
	Frontmatter *Frontmatter
	Body        string
}

// Frontmatter is an insertion-ordered key/value mapping.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// New returns an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: make(map[string]any)}
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in insertion order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Set stores a value. Existing keys keep their position.
func (f *Frontmatter) Set(key string, value any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Delete removes key if present.
func (f *Frontmatter) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// String returns the value of key when it is a string.
func (f *Frontmatter) String(key string) string {
	v, _ := f.Get(key)
	s, _ := v.(string)
	return s
}

// Bool returns true only when key holds the boolean true.
func (f *Frontmatter) Bool(key string) bool {
	v, _ := f.Get(key)
	b, ok := v.(bool)
	return ok && b
}

// Strings returns key as a list of strings. A scalar string is returned as a
// one-element list; non-string list entries are formatted with %v.
func (f *Frontmatter) Strings(key string) []string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return []string{fmt.Sprint(val)}
	}
}

// Description returns the rule description, if any.
func (d *Document) Description() string { return d.Frontmatter.String(KeyDescription) }

// Paths returns the rule applicability globs.
func (d *Document) Paths() []string { return d.Frontmatter.Strings(KeyPaths) }

// AlwaysApply reports whether the rule is marked as global.
func (d *Document) AlwaysApply() bool { return d.Frontmatter.Bool(KeyAlwaysApply) }

// Parse splits content into header and body. Content that does not open
// with a `---` line, or whose header is never closed, has no frontmatter and
// is returned whole as the body.
func Parse(content string) (*Document, error) {
	first, rest, ok := cutLine(content)
	if !ok || first != delimiter {
		return &Document{Body: content}, nil
	}

	headerStart := len(content) - len(rest)
	offset := headerStart
	for {
		line, next, found := cutLine(content[offset:])
		if line == delimiter {
			header := content[headerStart:offset]
			body := ""
			if found {
				body = next
			}
			fm, err := decodeHeader(header)
			if err != nil {
				return nil, err
			}
			return &Document{Frontmatter: fm, Body: body}, nil
		}
		if !found {
			break
		}
		offset = len(content) - len(next)
	}

	return &Document{Body: content}, nil
}

// Serialize emits frontmatter keys in insertion order followed by body.
// An empty or nil frontmatter returns body unchanged.
func Serialize(fm *Frontmatter, body string) (string, error) {
	if fm.Len() == 0 {
		return body, nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range fm.keys {
		var valueNode yaml.Node
		if err := valueNode.Encode(fm.values[key]); err != nil {
			return "", fmt.Errorf("encoding frontmatter key %q: %w", key, err)
		}
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
		root.Content = append(root.Content, keyNode, &valueNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}

	return delimiter + "\n" + buf.String() + delimiter + "\n" + body, nil
}

// String re-serializes the document.
func (d *Document) String() (string, error) {
	return Serialize(d.Frontmatter, d.Body)
}

func decodeHeader(header string) (*Frontmatter, error) {
	fm := New()
	if strings.TrimSpace(header) == "" {
		return fm, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return fm, nil
	}

	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing frontmatter: expected a mapping, got %s", kindName(mapping.Kind))
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := mapping.Content[i], mapping.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("parsing frontmatter key %q: %w", keyNode.Value, err)
		}
		fm.Set(keyNode.Value, value)
	}

	return fm, nil
}

// cutLine returns the first line of s (without its line ending), the text
// after that line ending, and whether a line ending was found.
func cutLine(s string) (line, rest string, found bool) {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return strings.TrimSuffix(s, "\r"), "", false
	}
	return strings.TrimSuffix(s[:idx], "\r"), s[idx+1:], true
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "mapping"
	}
}
