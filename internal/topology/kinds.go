package topology

// DataKind is the shape of an exchanged quantity.
type DataKind string

const (
	DataScalar DataKind = "scalar"
	DataVector DataKind = "vector"
	DataTensor DataKind = "tensor"
)

// DataKinds lists every DataKind in canonical order.
var DataKinds = []DataKind{DataScalar, DataVector, DataTensor}

// MappingKind is the mapping method a participant applies to received meshes.
type MappingKind string

const (
	MappingRBF               MappingKind = "rbf"
	MappingNearestProjection MappingKind = "nearest-projection"
	MappingConsistent        MappingKind = "consistent"
	MappingConservative      MappingKind = "conservative"
)

// MappingKinds lists every MappingKind in legacy code order (0..3).
var MappingKinds = []MappingKind{MappingRBF, MappingNearestProjection, MappingConsistent, MappingConservative}

// CouplingKind selects serial/parallel and explicit/implicit coupling.
type CouplingKind string

const (
	SerialExplicit   CouplingKind = "serial-explicit"
	SerialImplicit   CouplingKind = "serial-implicit"
	ParallelExplicit CouplingKind = "parallel-explicit"
	ParallelImplicit CouplingKind = "parallel-implicit"
)

// CouplingKinds lists every CouplingKind in legacy code order (0..3).
var CouplingKinds = []CouplingKind{SerialExplicit, SerialImplicit, ParallelExplicit, ParallelImplicit}

const (
	DefaultDataKind     = DataVector
	DefaultMappingKind  = MappingRBF
	DefaultCouplingKind = SerialExplicit
)

// ParseDataKind returns the DataKind spelled exactly as s.
func ParseDataKind(s string) (DataKind, bool) {
	for _, k := range DataKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ParseMappingKind returns the MappingKind spelled exactly as s.
func ParseMappingKind(s string) (MappingKind, bool) {
	for _, k := range MappingKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// ParseCouplingKind returns the CouplingKind spelled exactly as s.
func ParseCouplingKind(s string) (CouplingKind, bool) {
	for _, k := range CouplingKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Literals returns the string forms of kinds, for enum descriptors and
// error hints.
func Literals[K ~string](kinds []K) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
