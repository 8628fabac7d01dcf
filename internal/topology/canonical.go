package topology

// Canonical returns a deep copy of m in the form used for semantic equality.
//
// Two models are semantically equal when their canonical forms are equal:
//   - empty slices are nil;
//   - a participant that receives no mesh applies no mapping, so its mapping
//     kind and constraint are reset to the defaults.
//
// The input is not modified.
func Canonical(m *Model) *Model {
	if m == nil {
		return nil
	}
	out := &Model{
		Name:     m.Name,
		Data:     append([]DataDecl(nil), m.Data...),
		Meshes:   make([]MeshDecl, 0, len(m.Meshes)),
		Coupling: m.Coupling,
	}
	for _, mesh := range m.Meshes {
		mesh.Data = cloneStrings(mesh.Data)
		out.Meshes = append(out.Meshes, mesh)
	}
	for _, p := range m.Participants {
		p.ReceivesMeshes = cloneStrings(p.ReceivesMeshes)
		p.ReadData = cloneStrings(p.ReadData)
		p.WriteData = cloneStrings(p.WriteData)
		if len(p.ReceivesMeshes) == 0 {
			p.MappingKind = DefaultMappingKind
			p.MappingConstraint = DefaultMappingConstraint
		}
		out.Participants = append(out.Participants, p)
	}
	out.Coupling.Participants = cloneStrings(m.Coupling.Participants)
	out.Coupling.Exchanges = append([]Exchange(nil), m.Coupling.Exchanges...)

	if len(out.Data) == 0 {
		out.Data = nil
	}
	if len(out.Meshes) == 0 {
		out.Meshes = nil
	}
	if len(out.Coupling.Exchanges) == 0 {
		out.Coupling.Exchanges = nil
	}
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}
