// Package source loads a topology document from text into the raw tree the
// normalizer and schema validator work on: nested map[string]any, []any and
// scalar values (string, int, float64, bool).
//
// Three textual forms are accepted: YAML, JSON and attribute-only HCL.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"topogen/internal/diag"
)

// Format names a textual topology form.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
)

// Extensions maps file extensions to formats.
var Extensions = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
	".hcl":  FormatHCL,
}

// ParseFormat accepts "yaml", "yml", "json" or "hcl", case-insensitively.
func ParseFormat(s string) (Format, error) {
	if f, ok := Extensions["."+strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown topology format %q (want yaml, json or hcl)", s)
}

// FormatOf picks the format from path's extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := Extensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cannot tell topology format of %s from extension %q", path, ext)
}

// Load reads path and parses it in the format its extension names.
func Load(path string) (map[string]any, Format, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, f, fmt.Errorf("read topology: %w", err)
	}
	raw, err := Parse(data, f, path)
	return raw, f, err
}

// Parse decodes data in format f. name labels parse errors. Syntax errors
// and a top level that is not a mapping come back as *diag.ParseError. An
// empty document parses to an empty tree.
func Parse(data []byte, f Format, name string) (map[string]any, error) {
	var (
		tree any
		err  error
	)
	switch f {
	case FormatYAML:
		tree, err = parseYAML(data)
	case FormatJSON:
		tree, err = parseJSON(data)
	case FormatHCL:
		tree, err = parseHCL(data, name)
	default:
		return nil, fmt.Errorf("unknown topology format %q", f)
	}
	if err != nil {
		return nil, &diag.ParseError{Source: name, Err: err}
	}

	switch t := tree.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	default:
		return nil, &diag.ParseError{Source: name, Err: fmt.Errorf("top level must be a mapping, got %T", tree)}
	}
}

// ---------------------------------------------------------------------------
// YAML
// ---------------------------------------------------------------------------

func parseYAML(data []byte) (any, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return sanitize(tree), nil
}

// sanitize turns the map[any]any yaml.v3 produces for non-string keys into
// map[string]any, recursively.
func sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = sanitize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = sanitize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = sanitize(e)
		}
		return t
	default:
		return v
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func parseJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return numbers(tree), nil
}

// numbers converts json.Number leaves to int when integral, float64 otherwise.
func numbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = numbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = numbers(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
