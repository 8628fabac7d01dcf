// Package validate performs the semantic checks over a lifted topology
// model: name uniqueness, reference closure, cardinality, coupling subset,
// exchange closure and positivity. Every independent violation is reported;
// nothing short-circuits.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"topogen/internal/diag"
	"topogen/internal/topology"
)

// Hard failures. Any of these blocks emission.
const (
	KindDuplicateDataName        diag.Kind = "DuplicateDataName"
	KindDuplicateMeshName        diag.Kind = "DuplicateMeshName"
	KindDuplicateParticipantName diag.Kind = "DuplicateParticipantName"

	KindDanglingMeshReference diag.Kind = "DanglingMeshReference"
	KindDanglingProvideMesh   diag.Kind = "DanglingProvideMesh"
	KindDanglingReceiveMesh   diag.Kind = "DanglingReceiveMesh"
	KindDanglingReadData      diag.Kind = "DanglingReadData"
	KindDanglingWriteData     diag.Kind = "DanglingWriteData"

	KindInsufficientParticipants     diag.Kind = "InsufficientParticipants"
	KindCouplingParticipantCount     diag.Kind = "CouplingParticipantCount"
	KindDuplicateCouplingParticipant diag.Kind = "DuplicateCouplingParticipant"

	KindUnknownCouplingParticipant diag.Kind = "UnknownCouplingParticipant"

	KindDanglingExchangeData diag.Kind = "DanglingExchangeData"
	KindDanglingExchangeMesh diag.Kind = "DanglingExchangeMesh"
	KindDanglingExchangeFrom diag.Kind = "DanglingExchangeFrom"
	KindDanglingExchangeTo   diag.Kind = "DanglingExchangeTo"

	KindNonPositiveTimeWindow diag.Kind = "NonPositiveTimeWindow"
	KindNonPositiveMaxTime    diag.Kind = "NonPositiveMaxTime"
)

// Advisory warnings. These never block emission.
const (
	KindNonStandardDataName    diag.Kind = "NonStandardDataName"
	KindSharedProvidedMesh     diag.Kind = "SharedProvidedMesh"
	KindUnprovidedMesh         diag.Kind = "UnprovidedMesh"
	KindMaxTimeBelowTimeWindow diag.Kind = "MaxTimeBelowTimeWindow"
	KindSmallTimeWindow        diag.Kind = "SmallTimeWindow"
)

// smallTimeWindow is the window size below which runs tend to be dominated
// by communication overhead.
const smallTimeWindow = 1e-3

// Check runs the six hard checks in order, then the advisory checks. The
// model is not modified.
func Check(m *topology.Model) diag.Report {
	var rep diag.Report
	if m == nil {
		return rep
	}
	rep.Add(uniqueness(m)...)
	rep.Add(closure(m)...)
	rep.Add(cardinality(m)...)
	rep.Add(couplingSubset(m)...)
	rep.Add(exchangeClosure(m)...)
	rep.Add(positivity(m)...)
	rep.Add(advisories(m)...)
	return rep
}

// Errors returns the hard failures of Check(m) as a SemanticErrors value, or
// nil when the model is valid.
func Errors(m *topology.Model) error {
	rep := Check(m)
	if rep.OK() {
		return nil
	}
	return diag.SemanticErrors(rep.Errors)
}

// ---------------------------------------------------------------------------
// 1. Uniqueness
// ---------------------------------------------------------------------------

func uniqueness(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	out = append(out, duplicates(m.DataNames(), "data", KindDuplicateDataName, "data field")...)
	out = append(out, duplicates(m.MeshNames(), "meshes", KindDuplicateMeshName, "mesh")...)
	out = append(out, duplicates(m.ParticipantNames(), "participants", KindDuplicateParticipantName, "participant")...)
	return out
}

// duplicates reports each repeated name once, at its second occurrence.
func duplicates(names []string, section string, kind diag.Kind, noun string) []diag.Issue {
	var out []diag.Issue
	seen := make(map[string]int, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] == 2 {
			out = append(out, diag.Errorf(kind, fmt.Sprintf("%s[%d].name", section, i), []string{n},
				"%s %q is declared more than once", noun, n))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// 2. Closure
// ---------------------------------------------------------------------------

func closure(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	data := m.DataSet()
	meshes := m.MeshSet()

	for i, mesh := range m.Meshes {
		for j, d := range mesh.Data {
			if !data[d] {
				out = append(out, diag.Errorf(KindDanglingMeshReference, fmt.Sprintf("meshes[%d].data[%d]", i, j),
					[]string{d, mesh.Name}, "mesh %q uses undeclared data %q", mesh.Name, d).
					WithHint("declare " + strconv.Quote(d) + " under data or drop it from the mesh"))
			}
		}
	}

	for i, p := range m.Participants {
		base := fmt.Sprintf("participants[%d]", i)
		if p.ProvidesMesh != "" && !meshes[p.ProvidesMesh] {
			out = append(out, diag.Errorf(KindDanglingProvideMesh, base+".provides_mesh",
				[]string{p.ProvidesMesh, p.Name}, "participant %q provides undeclared mesh %q", p.Name, p.ProvidesMesh))
		}
		for j, name := range p.ReceivesMeshes {
			if !meshes[name] {
				out = append(out, diag.Errorf(KindDanglingReceiveMesh, fmt.Sprintf("%s.receives_meshes[%d]", base, j),
					[]string{name, p.Name}, "participant %q receives undeclared mesh %q", p.Name, name))
			}
		}
		for j, name := range p.ReadData {
			if !data[name] {
				out = append(out, diag.Errorf(KindDanglingReadData, fmt.Sprintf("%s.read_data[%d]", base, j),
					[]string{name, p.Name}, "participant %q reads undeclared data %q", p.Name, name))
			}
		}
		for j, name := range p.WriteData {
			if !data[name] {
				out = append(out, diag.Errorf(KindDanglingWriteData, fmt.Sprintf("%s.write_data[%d]", base, j),
					[]string{name, p.Name}, "participant %q writes undeclared data %q", p.Name, name))
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// 3. Cardinality
// ---------------------------------------------------------------------------

func cardinality(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	if n := len(m.Participants); n < 2 {
		out = append(out, diag.Errorf(KindInsufficientParticipants, "participants",
			[]string{strconv.Itoa(n)}, "a coupled simulation needs at least 2 participants, found %d", n).
			WithHint("declare a second participant to couple with"))
	}
	cp := m.Coupling.Participants
	if len(cp) != 2 {
		out = append(out, diag.Errorf(KindCouplingParticipantCount, "coupling.participants",
			[]string{strconv.Itoa(len(cp))}, "a coupling scheme couples exactly 2 participants, found %d", len(cp)))
	}
	if len(cp) == 2 && cp[0] == cp[1] {
		out = append(out, diag.Errorf(KindDuplicateCouplingParticipant, "coupling.participants[1]",
			[]string{cp[1]}, "participant %q cannot be coupled with itself", cp[1]))
	}
	return out
}

// ---------------------------------------------------------------------------
// 4. Coupling subset
// ---------------------------------------------------------------------------

func couplingSubset(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	known := m.ParticipantSet()
	reported := make(map[string]bool)
	for i, name := range m.Coupling.Participants {
		if !known[name] && !reported[name] {
			reported[name] = true
			out = append(out, diag.Errorf(KindUnknownCouplingParticipant, fmt.Sprintf("coupling.participants[%d]", i),
				[]string{name}, "coupling names undeclared participant %q", name))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// 5. Exchange closure
// ---------------------------------------------------------------------------

func exchangeClosure(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	data := m.DataSet()
	meshes := m.MeshSet()
	parts := m.ParticipantSet()

	for i, ex := range m.Coupling.Exchanges {
		base := fmt.Sprintf("coupling.exchanges[%d]", i)
		if !data[ex.Data] {
			out = append(out, diag.Errorf(KindDanglingExchangeData, base+".data", []string{ex.Data},
				"exchange of undeclared data %q", ex.Data))
		}
		if !meshes[ex.Mesh] {
			out = append(out, diag.Errorf(KindDanglingExchangeMesh, base+".mesh", []string{ex.Mesh},
				"exchange over undeclared mesh %q", ex.Mesh))
		}
		if !parts[ex.From] {
			out = append(out, diag.Errorf(KindDanglingExchangeFrom, base+".from", []string{ex.From},
				"exchange from undeclared participant %q", ex.From))
		}
		if !parts[ex.To] {
			out = append(out, diag.Errorf(KindDanglingExchangeTo, base+".to", []string{ex.To},
				"exchange to undeclared participant %q", ex.To))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// 6. Positivity
// ---------------------------------------------------------------------------

func positivity(m *topology.Model) []diag.Issue {
	var out []diag.Issue
	c := m.Coupling
	if !(c.TimeWindowSize > 0) {
		out = append(out, diag.Errorf(KindNonPositiveTimeWindow, "coupling.time_window_size",
			[]string{formatFloat(c.TimeWindowSize)}, "time window size must be positive, got %s", formatFloat(c.TimeWindowSize)))
	}
	if !(c.MaxTime > 0) {
		out = append(out, diag.Errorf(KindNonPositiveMaxTime, "coupling.max_time",
			[]string{formatFloat(c.MaxTime)}, "max time must be positive, got %s", formatFloat(c.MaxTime)))
	}
	return out
}

// ---------------------------------------------------------------------------
// Advisories
// ---------------------------------------------------------------------------

func advisories(m *topology.Model) []diag.Issue {
	var out []diag.Issue

	for i, d := range m.Data {
		if !standardName(d.Name) {
			out = append(out, diag.Warnf(KindNonStandardDataName, fmt.Sprintf("data[%d].name", i), []string{d.Name},
				"data name %q has characters other than letters, digits and underscores", d.Name).
				WithHint("some solver adapters reject such names"))
		}
	}

	providers := make(map[string][]string)
	var order []string
	for _, p := range m.Participants {
		if p.ProvidesMesh == "" {
			continue
		}
		if _, seen := providers[p.ProvidesMesh]; !seen {
			order = append(order, p.ProvidesMesh)
		}
		providers[p.ProvidesMesh] = append(providers[p.ProvidesMesh], p.Name)
	}
	for _, mesh := range order {
		if names := providers[mesh]; len(names) > 1 {
			out = append(out, diag.Warnf(KindSharedProvidedMesh, "participants", append([]string{mesh}, names...),
				"mesh %q is provided by %s; the first is used as producer", mesh, strings.Join(names, ", ")))
		}
	}

	meshes := m.MeshSet()
	for i, p := range m.Participants {
		for j, name := range p.ReceivesMeshes {
			if meshes[name] && len(providers[name]) == 0 {
				out = append(out, diag.Warnf(KindUnprovidedMesh, fmt.Sprintf("participants[%d].receives_meshes[%d]", i, j),
					[]string{name, p.Name}, "participant %q receives mesh %q which no participant provides", p.Name, name))
			}
		}
	}

	c := m.Coupling
	if c.TimeWindowSize > 0 && c.MaxTime > 0 && c.MaxTime < c.TimeWindowSize {
		out = append(out, diag.Warnf(KindMaxTimeBelowTimeWindow, "coupling.max_time",
			[]string{formatFloat(c.MaxTime), formatFloat(c.TimeWindowSize)},
			"max time %s is shorter than one time window (%s)", formatFloat(c.MaxTime), formatFloat(c.TimeWindowSize)))
	}
	if c.TimeWindowSize > 0 && c.TimeWindowSize < smallTimeWindow {
		out = append(out, diag.Warnf(KindSmallTimeWindow, "coupling.time_window_size",
			[]string{formatFloat(c.TimeWindowSize)}, "time window size %s is very small", formatFloat(c.TimeWindowSize)).
			WithHint("consider a time window of at least "+formatFloat(smallTimeWindow)))
	}
	return out
}

// standardName reports whether name is alphanumeric once underscores are
// removed.
func standardName(name string) bool {
	rest := strings.ReplaceAll(name, "_", "")
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
