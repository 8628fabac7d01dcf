package topology

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal renders m in the input topology form (YAML, two-space indent).
// Feeding the result back through the compiler yields a semantically equal
// model.
func Marshal(m *Model) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("topology: marshal %q: %w", m.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("topology: marshal %q: %w", m.Name, err)
	}
	return buf.Bytes(), nil
}
