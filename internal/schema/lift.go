package schema

import (
	"fmt"
	"strings"

	"topogen/internal/diag"
	"topogen/internal/topology"
)

// KindDuplicateReference flags a repeated name inside a set-valued field.
const KindDuplicateReference diag.Kind = "DuplicateReference"

// Lift validates raw and builds a Model from it. Defaults are applied to
// absent optional fields. Sub-trees with structural errors are left out of
// the model, so callers must not use it when the report has errors.
//
// Repeated names inside set-valued fields (mesh data, receives_meshes,
// read_data, write_data) keep their first occurrence and produce a
// DuplicateReference warning.
func Lift(raw map[string]any, opts Options) (*topology.Model, diag.Report) {
	var rep diag.Report
	rep.Add(Validate(raw, opts)...)

	l := &lifter{rep: &rep, bad: make(map[string]bool)}
	for _, e := range rep.Errors {
		l.bad[e.Path] = true
	}
	return l.model(raw), rep
}

type lifter struct {
	rep *diag.Report
	bad map[string]bool
}

// broken reports whether path, or anything beneath it, failed validation.
func (l *lifter) broken(path string) bool {
	for p := range l.bad {
		if p == path || strings.HasPrefix(p, path+".") || strings.HasPrefix(p, path+"[") {
			return true
		}
	}
	return false
}

func (l *lifter) model(raw map[string]any) *topology.Model {
	m := &topology.Model{}
	if !l.broken("name") {
		m.Name = strings.TrimSpace(str(raw["name"]))
	}

	for i, item := range objects(raw["data"]) {
		p := fmt.Sprintf("data[%d]", i)
		if l.broken(p) || item == nil {
			continue
		}
		kind := topology.DefaultDataKind
		if s, ok := item["type"].(string); ok {
			kind, _ = topology.ParseDataKind(s)
		}
		m.Data = append(m.Data, topology.DataDecl{Name: str(item["name"]), Kind: kind})
	}

	for i, item := range objects(raw["meshes"]) {
		p := fmt.Sprintf("meshes[%d]", i)
		if l.broken(p) || item == nil {
			continue
		}
		mesh := topology.MeshDecl{Name: str(item["name"]), Dimensions: topology.DefaultDimensions}
		if v, ok := item["dimensions"]; ok && v != nil {
			mesh.Dimensions, _ = asInt(v)
		}
		mesh.Data = l.set(p+".data", item["data"])
		m.Meshes = append(m.Meshes, mesh)
	}

	for i, item := range objects(raw["participants"]) {
		p := fmt.Sprintf("participants[%d]", i)
		if l.broken(p) || item == nil {
			continue
		}
		part := topology.ParticipantDecl{
			Name:              str(item["name"]),
			ProvidesMesh:      str(item["provides_mesh"]),
			ReceivesMeshes:    l.set(p+".receives_meshes", item["receives_meshes"]),
			ReadData:          l.set(p+".read_data", item["read_data"]),
			WriteData:         l.set(p+".write_data", item["write_data"]),
			MappingKind:       topology.DefaultMappingKind,
			MappingConstraint: topology.DefaultMappingConstraint,
		}
		if s := str(item["mapping_type"]); s != "" {
			part.MappingKind, _ = topology.ParseMappingKind(s)
		}
		if s := strings.TrimSpace(str(item["mapping_constraint"])); s != "" {
			part.MappingConstraint = s
		}
		m.Participants = append(m.Participants, part)
	}

	if c, ok := raw["coupling"].(map[string]any); ok {
		m.Coupling = l.coupling(c)
	}
	return m
}

func (l *lifter) coupling(c map[string]any) topology.CouplingScheme {
	cs := topology.CouplingScheme{
		Kind:           topology.DefaultCouplingKind,
		TimeWindowSize: topology.DefaultTimeWindowSize,
		MaxTime:        topology.DefaultMaxTime,
	}
	if s := str(c["type"]); s != "" && !l.broken("coupling.type") {
		cs.Kind, _ = topology.ParseCouplingKind(s)
	}
	if v, ok := c["time_window_size"]; ok && v != nil && !l.broken("coupling.time_window_size") {
		cs.TimeWindowSize, _ = asFloat(v)
	}
	if v, ok := c["max_time"]; ok && v != nil && !l.broken("coupling.max_time") {
		cs.MaxTime, _ = asFloat(v)
	}
	if !l.broken("coupling.participants") {
		cs.Participants = strs(c["participants"])
	}
	for i, item := range objects(c["exchanges"]) {
		if l.broken(fmt.Sprintf("coupling.exchanges[%d]", i)) || item == nil {
			continue
		}
		cs.Exchanges = append(cs.Exchanges, topology.Exchange{
			Data: str(item["data"]),
			Mesh: str(item["mesh"]),
			From: str(item["from"]),
			To:   str(item["to"]),
		})
	}
	return cs
}

// set reads a string list, dropping repeats after the first occurrence.
func (l *lifter) set(path string, v any) []string {
	if l.broken(path) {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for i, s := range strs(v) {
		if seen[s] {
			l.rep.Add(diag.Warnf(KindDuplicateReference, fmt.Sprintf("%s[%d]", path, i), []string{s},
				"%q is listed more than once; keeping the first", s))
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ---------------------------------------------------------------------------
// Raw accessors
// ---------------------------------------------------------------------------

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	l, _ := v.([]any)
	var out []string
	for _, e := range l {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objects returns the elements of a list of mappings. Non-mapping elements
// come back as nil so indices still line up with validation paths.
func objects(v any) []map[string]any {
	l, _ := v.([]any)
	out := make([]map[string]any, len(l))
	for i, e := range l {
		out[i], _ = e.(map[string]any)
	}
	return out
}
