package writer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	keyPermissions = "permissions"
	keyEnv         = "env"
)

// permission lists that are unioned rather than replaced.
var unionKeys = []string{"allow", "deny"}

// MergeSettingsJSON merges the settings file at sourcePath into destPath.
//
// An absent destination is created from the source verbatim. An existing
// destination that is not valid JSON is logged and overwritten. Otherwise
// permissions.allow and permissions.deny become the union of both sides,
// env is shallow-merged with incoming keys winning, and every other
// incoming top-level key replaces the existing one.
func (w *Writer) MergeSettingsJSON(destPath, sourcePath string, opts Options) (Operation, error) {
	incomingRaw, err := w.read(sourcePath)
	if err != nil {
		return Operation{}, fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	exists, err := w.exists(destPath)
	if err != nil {
		return Operation{}, err
	}
	if !exists {
		return w.WriteFile(destPath, string(incomingRaw), opts)
	}

	incoming, err := decodeObject(incomingRaw)
	if err != nil {
		return Operation{}, fmt.Errorf("parsing %s: %w", sourcePath, err)
	}

	existingRaw, err := w.read(destPath)
	if err != nil {
		return Operation{}, fmt.Errorf("reading %s: %w", destPath, err)
	}

	existing, err := decodeObject(existingRaw)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", destPath).Msg("Existing settings file is not valid JSON, overwriting")
		return w.WriteFile(destPath, string(incomingRaw), opts)
	}

	merged, err := encodeObject(MergeSettings(existing, incoming))
	if err != nil {
		return Operation{}, fmt.Errorf("encoding merged settings: %w", err)
	}

	op, err := w.WriteFile(destPath, merged, opts)
	if err != nil {
		return Operation{}, err
	}
	op.Type = OpMerge
	return op, nil
}

// MergeSettings merges incoming into existing and returns a new map. Inputs
// are not modified.
func MergeSettings(existing, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}

	for k, v := range incoming {
		switch k {
		case keyPermissions:
			out[k] = mergePermissions(asObject(existing[k]), asObject(v), v)
		case keyEnv:
			out[k] = mergeShallow(asObject(existing[k]), asObject(v), v)
		default:
			out[k] = v
		}
	}
	return out
}

func mergePermissions(existing, incoming map[string]any, raw any) any {
	if incoming == nil {
		return raw
	}
	out := mergeShallow(existing, incoming, raw).(map[string]any)
	for _, key := range unionKeys {
		a, aok := existing[key].([]any)
		b, bok := incoming[key].([]any)
		if !aok && !bok {
			continue
		}
		out[key] = union(a, b)
	}
	return out
}

func mergeShallow(existing, incoming map[string]any, raw any) any {
	if incoming == nil {
		return raw
	}
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// union keeps first occurrences, existing entries first.
func union(a, b []any) []any {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, list := range [][]any{a, b} {
		for _, item := range list {
			key := identity(item)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}

func identity(v any) string {
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("v:%v", v)
	}
	return "j:" + string(data)
}

// decodeObject decodes a JSON object keeping numbers as json.Number, so
// integers beyond float64 precision survive a merge unchanged.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after the top-level object")
	}
	return obj, nil
}

// encodeObject renders obj with two-space indentation and a trailing
// newline. Characters such as & in permission rules are written as is.
func encodeObject(obj map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
