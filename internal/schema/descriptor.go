// Package schema checks a raw topology tree against a fixed descriptor and
// lifts it into a topology.Model.
//
// The descriptor is permissive: unknown keys are ignored. It only enforces
// presence of required fields, value types, enum literals and numeric
// bounds. Cross-references are the semantic validator's job.
package schema

import "topogen/internal/topology"

// Type is the expected shape of a raw value.
type Type int

const (
	String Type = iota
	Int
	Float
	StringList
	Object
	ObjectList
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "number"
	case StringList:
		return "list of strings"
	case Object:
		return "mapping"
	case ObjectList:
		return "list of mappings"
	default:
		return "unknown"
	}
}

// Field describes one key of a mapping.
type Field struct {
	Key      string
	Type     Type
	Required bool
	// Enum lists the permitted literals of a String field.
	Enum []string
	// Min and Max bound an Int field when Max > 0.
	Min, Max int
	// Positive marks a Float field that must be > 0 when positivity is checked.
	Positive bool
	// Fields describes the keys of an Object, or of each ObjectList element.
	Fields []Field
	Hint   string
}

// Topology is the descriptor of the input topology form.
var Topology = []Field{
	{Key: "name", Type: String, Required: true, Hint: "set a top-level name, e.g. name: fluid-structure"},
	{Key: "data", Type: ObjectList, Fields: []Field{
		{Key: "name", Type: String, Required: true},
		{Key: "type", Type: String, Enum: topology.Literals(topology.DataKinds)},
	}},
	{Key: "meshes", Type: ObjectList, Fields: []Field{
		{Key: "name", Type: String, Required: true},
		{Key: "dimensions", Type: Int, Min: 1, Max: 3, Hint: "dimensions must be 1, 2 or 3"},
		{Key: "data", Type: StringList},
	}},
	{Key: "participants", Type: ObjectList, Fields: []Field{
		{Key: "name", Type: String, Required: true, Hint: "every participant needs a name"},
		{Key: "provides_mesh", Type: String},
		{Key: "receives_meshes", Type: StringList},
		{Key: "read_data", Type: StringList},
		{Key: "write_data", Type: StringList},
		{Key: "mapping_type", Type: String, Enum: topology.Literals(topology.MappingKinds)},
		{Key: "mapping_constraint", Type: String},
	}},
	{Key: "coupling", Type: Object, Required: true, Hint: "add a coupling section naming two participants", Fields: []Field{
		{Key: "type", Type: String, Enum: topology.Literals(topology.CouplingKinds)},
		{Key: "time_window_size", Type: Float, Positive: true},
		{Key: "max_time", Type: Float, Positive: true},
		{Key: "participants", Type: StringList, Required: true, Hint: "list the two coupled participants, first then second"},
		{Key: "exchanges", Type: ObjectList, Fields: []Field{
			{Key: "data", Type: String, Required: true},
			{Key: "mesh", Type: String, Required: true},
			{Key: "from", Type: String, Required: true},
			{Key: "to", Type: String, Required: true},
		}},
	}},
}
