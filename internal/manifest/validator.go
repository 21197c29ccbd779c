package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

const schemaURL = "manifest.schema.json"

var printer = message.NewPrinter(language.English)

// Issue is one schema violation in a manifest.
type Issue struct {
	Path    string // JSON pointer into the manifest, "" for the document root
	Message string
}

func (i Issue) String() string {
	loc := i.Path
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + i.Message
}

// InvalidError is returned by Store.Read for a manifest that does not match
// the schema.
type InvalidError struct {
	Path   string
	Issues []Issue
}

func (e *InvalidError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return printer.Sprintf("invalid manifest %s (%d issues): %s", e.Path, len(e.Issues), strings.Join(parts, "; "))
}

var loadSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding manifest schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("registering manifest schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling manifest schema: %w", err)
	}
	return s, nil
})

// Validate checks manifest JSON against the embedded schema and returns its
// violations, sorted by path. A nil slice means the manifest is valid. The
// error is reserved for input that is not JSON.
func Validate(data []byte) ([]Issue, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing manifest JSON: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validating manifest: %w", err)
	}
	return leafIssues(verr), nil
}

// leafIssues flattens a validation error tree into its leaves. The root
// error only says that validation failed, so it is reported on its own only
// when it has no causes.
func leafIssues(root *jsonschema.ValidationError) []Issue {
	seen := make(map[Issue]bool)
	var issues []Issue

	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		ve := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(ve.Causes) > 0 {
			stack = append(stack, ve.Causes...)
			continue
		}

		issue := Issue{Message: ve.Error()}
		if ve.ErrorKind != nil {
			issue.Message = ve.ErrorKind.LocalizedString(printer)
		}
		if len(ve.InstanceLocation) > 0 {
			issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		if !seen[issue] {
			seen[issue] = true
			issues = append(issues, issue)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}
