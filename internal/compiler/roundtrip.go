package compiler

import (
	"bytes"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"topogen/internal/diag"
	"topogen/internal/emit"
	"topogen/internal/reader"
	"topogen/internal/topology"
)

// RoundTrip emits m, reads the document back and compares the two models
// under semantic equality. It returns the diff (-emitted +read), empty when
// they agree, along with any reader warnings.
func RoundTrip(m *topology.Model) (string, diag.Report, error) {
	doc, err := emit.Emit(m)
	if err != nil {
		return "", diag.Report{}, err
	}
	back, rep, err := reader.Read(bytes.NewReader(doc), reader.Options{Name: m.Name, Source: m.Name})
	if err != nil {
		return "", rep, fmt.Errorf("read back %s: %w", m.Name, err)
	}
	return cmp.Diff(topology.Canonical(m), topology.Canonical(back)), rep, nil
}
