// Package frontmatter reads and writes markdown files that open with a YAML
// block between --- delimiters. Generated bundles use it to stamp README.md
// with a manifest of what produced them.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delim = "---\n"

// Parse splits a markdown document into its frontmatter (raw YAML bytes) and
// body. The document must begin with "---\n"; the next "---" line closes the
// block.
func Parse(data []byte) (fm []byte, body []byte, err error) {
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, nil, fmt.Errorf("frontmatter: missing opening --- delimiter")
	}
	rest := data[len(delim):]
	var idx int
	if bytes.HasPrefix(rest, []byte("---")) {
		idx = 0
	} else if idx = bytes.Index(rest, []byte("\n---")); idx < 0 {
		return nil, nil, fmt.Errorf("frontmatter: missing closing --- delimiter")
	} else {
		idx++
	}
	fm = rest[:idx]
	body = rest[idx+3:]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return fm, body, nil
}

// Decode parses data and unmarshals its frontmatter into v. It returns the
// body.
func Decode(data []byte, v any) ([]byte, error) {
	fm, body, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(fm, v); err != nil {
		return nil, fmt.Errorf("frontmatter: unmarshal: %w", err)
	}
	return body, nil
}

// Write marshals v as YAML frontmatter followed by body.
func Write(v any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim)
	buf.Write(fm)
	buf.WriteString(delim)
	buf.WriteString(body)
	return buf.Bytes(), nil
}
