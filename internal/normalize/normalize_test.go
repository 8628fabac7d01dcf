package normalize

// normalize_test.go — Tests for the legacy enum tables and copy semantics.

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"topogen/internal/topology"
)

func TestMappingKindCodes(t *testing.T) {
	tests := []struct {
		in   any
		want topology.MappingKind
	}{
		{0, topology.MappingRBF},
		{1, topology.MappingNearestProjection},
		{2, topology.MappingConsistent},
		{3, topology.MappingConservative},
		// Unknown codes fall back to the first variant.
		{7, topology.MappingRBF},
		{-1, topology.MappingRBF},
		// Integral floats (JSON, HCL) and quoted digits are codes too.
		{float64(1), topology.MappingNearestProjection},
		{"3", topology.MappingConservative},
		// Alternate spellings.
		{"RBF", topology.MappingRBF},
		{"nearest_projection", topology.MappingNearestProjection},
		{"Nearest-Projection", topology.MappingNearestProjection},
		{"radial-basis-function", topology.MappingRBF},
	}
	for _, tt := range tests {
		got, ok := MappingKind(tt.in)
		if !ok || got != tt.want {
			t.Errorf("MappingKind(%#v) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}

	if _, ok := MappingKind("nearest-neighbor"); ok {
		t.Error("unknown mapping string should not resolve")
	}
	if _, ok := MappingKind(1.5); ok {
		t.Error("fractional float should not resolve as a code")
	}
}

func TestCouplingKindCodes(t *testing.T) {
	tests := []struct {
		in   any
		want topology.CouplingKind
	}{
		{0, topology.SerialExplicit},
		{1, topology.SerialImplicit},
		{2, topology.ParallelExplicit},
		{3, topology.ParallelImplicit},
		{42, topology.SerialExplicit},
		{int64(2), topology.ParallelExplicit},
		{"Parallel_Implicit", topology.ParallelImplicit},
		{"SerialExplicit", topology.SerialExplicit},
		{"serial-implicit", topology.SerialImplicit},
	}
	for _, tt := range tests {
		got, ok := CouplingKind(tt.in)
		if !ok || got != tt.want {
			t.Errorf("CouplingKind(%#v) = %q, %v; want %q", tt.in, got, ok, tt.want)
		}
	}
	if _, ok := CouplingKind("multi"); ok {
		t.Error("unknown coupling string should not resolve")
	}
}

func TestDataKindDefaultsToVector(t *testing.T) {
	tests := []struct {
		in   any
		want topology.DataKind
	}{
		{"scalar", topology.DataScalar},
		{"Tensor", topology.DataTensor},
		{" vector ", topology.DataVector},
		{"matrix", topology.DataVector},
		{3, topology.DataVector},
		{nil, topology.DataVector},
	}
	for _, tt := range tests {
		if got := DataKind(tt.in); got != tt.want {
			t.Errorf("DataKind(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRewritesLiterals(t *testing.T) {
	raw := map[string]any{
		"name": "fsi",
		"data": []any{
			map[string]any{"name": "T", "type": "Scalar"},
			map[string]any{"name": "F", "type": "weird"},
			map[string]any{"name": "P"},
		},
		"participants": []any{
			map[string]any{"name": "A", "mapping_type": 1},
			map[string]any{"name": "B", "mapping_type": "bogus"},
			map[string]any{"name": "C"},
		},
		"coupling": map[string]any{"type": 3, "extra": true},
	}

	got := Normalize(raw)
	want := map[string]any{
		"name": "fsi",
		"data": []any{
			map[string]any{"name": "T", "type": "scalar"},
			map[string]any{"name": "F", "type": "vector"},
			// Absent stays absent; the schema layer applies defaults.
			map[string]any{"name": "P"},
		},
		"participants": []any{
			map[string]any{"name": "A", "mapping_type": "nearest-projection"},
			// Unknown strings are left for the schema validator.
			map[string]any{"name": "B", "mapping_type": "bogus"},
			map[string]any{"name": "C"},
		},
		"coupling": map[string]any{"type": "parallel-implicit", "extra": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	data := map[string]any{"name": "T", "type": "SCALAR"}
	raw := map[string]any{
		"data":     []any{data},
		"coupling": map[string]any{"type": 0},
	}
	_ = Normalize(raw)

	if data["type"] != "SCALAR" {
		t.Errorf("input data type mutated to %v", data["type"])
	}
	if raw["coupling"].(map[string]any)["type"] != 0 {
		t.Error("input coupling type mutated")
	}
}

func TestNormalizeNil(t *testing.T) {
	got := Normalize(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Normalize(nil) = %#v, want empty map", got)
	}
}
