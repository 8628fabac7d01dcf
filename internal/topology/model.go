// Package topology holds the canonical in-memory model of a coupled
// simulation topology: data fields, meshes, participants and the coupling
// scheme between exactly two of them.
//
// A Model is built once per compilation by the schema lifter (or by the
// document reader) and is treated as read-only afterwards. Nothing in this
// module mutates a Model that has been handed to the validator or emitter.
package topology

// model.go — canonical model types.
//
// Field tags mirror the input topology form, so a Model marshals straight
// back into a topology YAML document (see encode.go).

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

const (
	DefaultName              = "precice-simulation"
	DefaultDimensions        = 3
	DefaultMappingConstraint = "consistent"
	DefaultTimeWindowSize    = 0.025
	DefaultMaxTime           = 2.5
)

// ---------------------------------------------------------------------------
// Top-level aggregate
// ---------------------------------------------------------------------------

// Model is the canonical topology. Slice order is declaration order and is
// significant: the emitter writes children in exactly this order.
type Model struct {
	Name         string            `yaml:"name"`
	Data         []DataDecl        `yaml:"data"`
	Meshes       []MeshDecl        `yaml:"meshes"`
	Participants []ParticipantDecl `yaml:"participants"`
	Coupling     CouplingScheme    `yaml:"coupling"`
}

// DataDecl is one quantity exchanged between participants.
type DataDecl struct {
	Name string   `yaml:"name"`
	Kind DataKind `yaml:"type"`
}

// MeshDecl is a named mesh and the data fields it carries.
type MeshDecl struct {
	Name       string   `yaml:"name"`
	Dimensions int      `yaml:"dimensions"`
	Data       []string `yaml:"data,omitempty"`
}

// ParticipantDecl is one simulation component.
type ParticipantDecl struct {
	Name              string      `yaml:"name"`
	ProvidesMesh      string      `yaml:"provides_mesh,omitempty"`
	ReceivesMeshes    []string    `yaml:"receives_meshes,omitempty"`
	ReadData          []string    `yaml:"read_data,omitempty"`
	WriteData         []string    `yaml:"write_data,omitempty"`
	MappingKind       MappingKind `yaml:"mapping_type"`
	MappingConstraint string      `yaml:"mapping_constraint"`
}

// CouplingScheme is the time-stepping strategy between two participants.
// Participants order maps to first/second in the emitted document.
type CouplingScheme struct {
	Kind           CouplingKind `yaml:"type"`
	TimeWindowSize float64      `yaml:"time_window_size"`
	MaxTime        float64      `yaml:"max_time"`
	Participants   []string     `yaml:"participants"`
	Exchanges      []Exchange   `yaml:"exchanges,omitempty"`
}

// Exchange is one directed transfer of a data field over a mesh.
type Exchange struct {
	Data string `yaml:"data"`
	Mesh string `yaml:"mesh"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}
