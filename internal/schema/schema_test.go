package schema

// schema_test.go — Tests for structural validation and lifting.
//
// Covers: required fields, enum and numeric checks, error accumulation,
// default application, duplicate-reference warnings and skipping of broken
// sub-trees.

import (
	"testing"

	"github.com/stretchr/testify/require"

	"topogen/internal/diag"
	"topogen/internal/topology"
)

func minimal() map[string]any {
	return map[string]any{
		"name": "fsi",
		"data": []any{map[string]any{"name": "Temperature", "type": "scalar"}},
		"meshes": []any{
			map[string]any{"name": "FluidMesh", "dimensions": 2, "data": []any{"Temperature"}},
			map[string]any{"name": "SolidMesh", "data": []any{"Temperature"}},
		},
		"participants": []any{
			map[string]any{"name": "Fluid", "provides_mesh": "FluidMesh", "write_data": []any{"Temperature"}},
			map[string]any{"name": "Solid", "provides_mesh": "SolidMesh", "receives_meshes": []any{"FluidMesh"}, "read_data": []any{"Temperature"}},
		},
		"coupling": map[string]any{
			"participants": []any{"Fluid", "Solid"},
			"exchanges": []any{
				map[string]any{"data": "Temperature", "mesh": "FluidMesh", "from": "Fluid", "to": "Solid"},
			},
		},
	}
}

func kinds(issues []diag.Issue) []diag.Kind {
	out := make([]diag.Kind, len(issues))
	for i, is := range issues {
		out[i] = is.Kind
	}
	return out
}

func TestValidateAcceptsMinimal(t *testing.T) {
	require.Empty(t, Validate(minimal(), Options{}))
}

func TestValidateMissingFields(t *testing.T) {
	raw := minimal()
	delete(raw, "name")
	delete(raw, "coupling")
	raw["participants"] = []any{map[string]any{"provides_mesh": "FluidMesh"}}

	issues := Validate(raw, Options{})
	require.Len(t, issues, 3)
	require.Equal(t, "name", issues[0].Path)
	require.Equal(t, "participants[0].name", issues[1].Path)
	require.Equal(t, "coupling", issues[2].Path)
	for _, is := range issues {
		require.Equal(t, KindMissingField, is.Kind)
		require.Equal(t, diag.SeverityError, is.Severity)
	}
	require.NotEmpty(t, issues[0].Hint)
}

func TestValidateEmptyRequiredString(t *testing.T) {
	raw := minimal()
	raw["name"] = "   "
	issues := Validate(raw, Options{})
	require.Equal(t, []diag.Kind{KindMissingField}, kinds(issues))
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	raw := minimal()
	raw["data"] = []any{map[string]any{"name": "T", "type": "matrix"}}
	raw["meshes"] = []any{map[string]any{"name": "M", "dimensions": 4}}
	raw["participants"] = []any{
		map[string]any{"name": "A", "mapping_type": "nearest-neighbor"},
		map[string]any{"name": "B", "read_data": "T"},
	}
	raw["coupling"] = map[string]any{
		"type":             "multi",
		"time_window_size": "soon",
		"participants":     []any{"A", 7},
	}

	issues := Validate(raw, Options{})
	require.Equal(t, []diag.Kind{
		KindInvalidEnum,   // data[0].type
		KindOutOfRange,    // meshes[0].dimensions
		KindInvalidEnum,   // participants[0].mapping_type
		KindWrongType,     // participants[1].read_data
		KindInvalidEnum,   // coupling.type
		KindInvalidNumber, // coupling.time_window_size
		KindWrongType,     // coupling.participants[1]
	}, kinds(issues))
	require.Equal(t, "coupling.participants[1]", issues[6].Path)
	require.Contains(t, issues[0].Hint, "scalar, vector, tensor")
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"float", 0.01, true},
		{"int", 1, true},
		{"scientific string", "1e-3", true},
		{"decimal string", " 0.5 ", true},
		{"word", "fast", false},
		{"bool", true, false},
		{"nan", "NaN", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := minimal()
			raw["coupling"].(map[string]any)["max_time"] = tt.value
			issues := Validate(raw, Options{})
			if tt.ok {
				require.Empty(t, issues)
			} else {
				require.Equal(t, []diag.Kind{KindInvalidNumber}, kinds(issues))
			}
		})
	}
}

func TestValidatePositivityIsOptIn(t *testing.T) {
	raw := minimal()
	raw["coupling"].(map[string]any)["time_window_size"] = 0

	require.Empty(t, Validate(raw, Options{}))

	issues := Validate(raw, Options{CheckPositive: true})
	require.Equal(t, []diag.Kind{KindNonPositiveValue}, kinds(issues))
	require.Equal(t, "coupling.time_window_size", issues[0].Path)
}

func TestValidateIgnoresUnknownKeys(t *testing.T) {
	raw := minimal()
	raw["comment"] = "free text"
	raw["coupling"].(map[string]any)["acceleration"] = map[string]any{"type": "aitken"}
	require.Empty(t, Validate(raw, Options{}))
}

func TestLiftAppliesDefaults(t *testing.T) {
	m, rep := Lift(minimal(), Options{})
	require.True(t, rep.OK())
	require.Empty(t, rep.Warnings)

	require.Equal(t, "fsi", m.Name)
	require.Equal(t, 2, m.Meshes[0].Dimensions)
	require.Equal(t, topology.DefaultDimensions, m.Meshes[1].Dimensions)

	solid := m.Participants[1]
	require.Equal(t, topology.MappingRBF, solid.MappingKind)
	require.Equal(t, topology.DefaultMappingConstraint, solid.MappingConstraint)

	require.Equal(t, topology.SerialExplicit, m.Coupling.Kind)
	require.Equal(t, topology.DefaultTimeWindowSize, m.Coupling.TimeWindowSize)
	require.Equal(t, topology.DefaultMaxTime, m.Coupling.MaxTime)
	require.Equal(t, []string{"Fluid", "Solid"}, m.Coupling.Participants)
	require.Equal(t, []topology.Exchange{{Data: "Temperature", Mesh: "FluidMesh", From: "Fluid", To: "Solid"}}, m.Coupling.Exchanges)
}

func TestLiftExplicitValues(t *testing.T) {
	raw := minimal()
	raw["participants"].([]any)[1].(map[string]any)["mapping_type"] = "nearest-projection"
	raw["participants"].([]any)[1].(map[string]any)["mapping_constraint"] = "conservative"
	c := raw["coupling"].(map[string]any)
	c["type"] = "parallel-implicit"
	c["time_window_size"] = "1e-2"
	c["max_time"] = 1

	m, rep := Lift(raw, Options{})
	require.True(t, rep.OK())
	require.Equal(t, topology.MappingNearestProjection, m.Participants[1].MappingKind)
	require.Equal(t, "conservative", m.Participants[1].MappingConstraint)
	require.Equal(t, topology.ParallelImplicit, m.Coupling.Kind)
	require.Equal(t, 0.01, m.Coupling.TimeWindowSize)
	require.Equal(t, 1.0, m.Coupling.MaxTime)
}

func TestLiftDeduplicatesSets(t *testing.T) {
	raw := minimal()
	raw["participants"].([]any)[1].(map[string]any)["receives_meshes"] = []any{"FluidMesh", "FluidMesh"}
	raw["meshes"].([]any)[0].(map[string]any)["data"] = []any{"Temperature", "Temperature", "Temperature"}

	m, rep := Lift(raw, Options{})
	require.True(t, rep.OK())
	require.Equal(t, []string{"FluidMesh"}, m.Participants[1].ReceivesMeshes)
	require.Equal(t, []string{"Temperature"}, m.Meshes[0].Data)
	require.Equal(t, []diag.Kind{KindDuplicateReference, KindDuplicateReference, KindDuplicateReference}, rep.WarningKinds())
	require.Equal(t, "meshes[0].data[1]", rep.Warnings[0].Path)
}

func TestLiftSkipsBrokenSubtrees(t *testing.T) {
	raw := minimal()
	raw["meshes"] = append(raw["meshes"].([]any), map[string]any{"name": "Bad", "dimensions": "three"})

	m, rep := Lift(raw, Options{})
	require.False(t, rep.OK())
	require.Equal(t, []diag.Kind{KindInvalidNumber}, rep.Kinds())
	require.Equal(t, []string{"FluidMesh", "SolidMesh"}, m.MeshNames())
}

func TestLiftCouplingParticipantsNotDeduplicated(t *testing.T) {
	raw := minimal()
	raw["coupling"].(map[string]any)["participants"] = []any{"Fluid", "Fluid"}
	m, rep := Lift(raw, Options{})
	require.True(t, rep.OK())
	require.Equal(t, []string{"Fluid", "Fluid"}, m.Coupling.Participants)
}
