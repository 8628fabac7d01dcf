package topology

// nameSet builds a membership set from a list of names.
func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// DataNames returns the declared data names in declaration order.
func (m *Model) DataNames() []string {
	out := make([]string, len(m.Data))
	for i, d := range m.Data {
		out[i] = d.Name
	}
	return out
}

// MeshNames returns the declared mesh names in declaration order.
func (m *Model) MeshNames() []string {
	out := make([]string, len(m.Meshes))
	for i, mesh := range m.Meshes {
		out[i] = mesh.Name
	}
	return out
}

// ParticipantNames returns the declared participant names in declaration order.
func (m *Model) ParticipantNames() []string {
	out := make([]string, len(m.Participants))
	for i, p := range m.Participants {
		out[i] = p.Name
	}
	return out
}

// DataSet returns the declared data names as a membership set.
func (m *Model) DataSet() map[string]bool { return nameSet(m.DataNames()) }

// MeshSet returns the declared mesh names as a membership set.
func (m *Model) MeshSet() map[string]bool { return nameSet(m.MeshNames()) }

// ParticipantSet returns the declared participant names as a membership set.
func (m *Model) ParticipantSet() map[string]bool { return nameSet(m.ParticipantNames()) }

// Providers maps each provided mesh to the first participant, in declaration
// order, that provides it. This is the producer named by the "from"
// attribute of a receive-mesh declaration.
func (m *Model) Providers() map[string]string {
	out := make(map[string]string)
	for _, p := range m.Participants {
		if p.ProvidesMesh == "" {
			continue
		}
		if _, seen := out[p.ProvidesMesh]; !seen {
			out[p.ProvidesMesh] = p.Name
		}
	}
	return out
}

// Participant returns the participant declared with name.
func (m *Model) Participant(name string) (ParticipantDecl, bool) {
	for _, p := range m.Participants {
		if p.Name == name {
			return p, true
		}
	}
	return ParticipantDecl{}, false
}
