// Package manifest records the last successful installation into a project.
//
// The manifest is a JSON file written inside the first target's output
// directory after every non-dry-run install or update. Reads validate the
// file against an embedded JSON schema before decoding it, so a
// hand-edited or truncated manifest is reported with the offending paths
// instead of being half-applied by update.
package manifest
