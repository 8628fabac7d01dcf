// Package reader reconstructs a topology model from an existing
// coupling-runtime configuration document.
//
// It decodes the same vocabulary the emitter writes and tolerates a few
// older shapes: the solver-interface and data-configuration wrappers,
// timestep-length, a participant element holding first/second, and _from on
// exchanges. It does not run the semantic validator; callers decide whether
// to.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"topogen/internal/diag"
	"topogen/internal/emit"
	"topogen/internal/markup"
	"topogen/internal/topology"
)

// Warning kinds. A document that produces them still reads.
const (
	KindUnknownDataKind       diag.Kind = "UnknownDataKind"
	KindUnknownMappingKind    diag.Kind = "UnknownMappingKind"
	KindInconsistentMapping   diag.Kind = "InconsistentMapping"
	KindMismatchedReceiveFrom diag.Kind = "MismatchedReceiveFrom"
	KindExtraCouplingScheme   diag.Kind = "ExtraCouplingScheme"
)

// ErrNoCouplingScheme is wrapped in the ParseError returned for a document
// without a coupling-scheme element.
var ErrNoCouplingScheme = errors.New("document has no coupling-scheme element")

// Options controls naming and error attribution.
type Options struct {
	// Name is the topology name. Empty derives it from Source.
	Name string
	// Source labels parse errors, usually the file path.
	Source string
}

// ReadFile opens path and reads it. Source defaults to path.
func ReadFile(path string, opts Options) (*topology.Model, diag.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, diag.Report{}, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	if opts.Source == "" {
		opts.Source = path
	}
	return Read(f, opts)
}

// Read decodes a document into a model. Malformed markup, a wrong root
// element, a missing coupling scheme or an unparsable number is a
// *diag.ParseError. Everything else it can recover from becomes a warning.
func Read(r io.Reader, opts Options) (*topology.Model, diag.Report, error) {
	var rep diag.Report
	root, err := markup.Decode(r, emit.Prefixes())
	if err != nil {
		return nil, rep, &diag.ParseError{Source: opts.Source, Err: err}
	}
	if root.Name != emit.ElemRoot {
		return nil, rep, &diag.ParseError{Source: opts.Source,
			Err: fmt.Errorf("root element is <%s>, want <%s>", root.Name, emit.ElemRoot)}
	}

	rd := &reader{rep: &rep, dims: topology.DefaultDimensions}
	m, err := rd.document(root)
	if err != nil {
		return nil, rep, &diag.ParseError{Source: opts.Source, Err: err}
	}

	m.Name = opts.Name
	if m.Name == "" {
		m.Name = NameFromPath(opts.Source)
	}
	if m.Name == "" {
		m.Name = topology.DefaultName
	}
	return m, rep, nil
}

// NameFromPath derives a topology name from a document path:
// "out/fsi-config.xml" gives "fsi".
func NameFromPath(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".xml")
	base = strings.TrimSuffix(base, "-config")
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return base
}

// ---------------------------------------------------------------------------
// Document walk
// ---------------------------------------------------------------------------

// dataConfiguration is the wrapper older generators put around the data
// declarations.
const dataConfiguration = "data-configuration"

type receive struct {
	participant string
	mesh        string
	from        string
}

type reader struct {
	rep      *diag.Report
	dims     int
	receives []receive
}

func (rd *reader) document(root *markup.Element) (*topology.Model, error) {
	scope := root
	if si := root.Child(emit.ElemSolverIface); si != nil {
		scope = si
		if v, ok := si.Attr("dimensions"); ok {
			n, err := parseInt(si.Name, "dimensions", v)
			if err != nil {
				return nil, err
			}
			rd.dims = n
		}
	}

	m := &topology.Model{}
	var coupled bool
	for _, e := range scope.Children {
		switch {
		case e.Prefix() == emit.PrefixData && e.Local() == dataConfiguration:
			for _, d := range e.Children {
				if d.Prefix() == emit.PrefixData {
					m.Data = append(m.Data, rd.data(d))
				}
			}

		case e.Prefix() == emit.PrefixData:
			m.Data = append(m.Data, rd.data(e))

		case e.Name == emit.ElemMesh:
			mesh, err := rd.mesh(e)
			if err != nil {
				return nil, err
			}
			m.Meshes = append(m.Meshes, mesh)

		case e.Name == emit.ElemParticipant:
			m.Participants = append(m.Participants, rd.participant(e))

		case e.Prefix() == emit.PrefixCoupling:
			if coupled {
				rd.rep.Add(diag.Warnf(KindExtraCouplingScheme, e.Name, []string{e.Local()},
					"only the first coupling scheme is read; <%s> ignored", e.Name))
				continue
			}
			cs, err := rd.coupling(e)
			if err != nil {
				return nil, err
			}
			m.Coupling = cs
			coupled = true
		}
	}
	if !coupled {
		return nil, ErrNoCouplingScheme
	}

	providers := m.Providers()
	for _, rc := range rd.receives {
		if rc.from == "" {
			continue
		}
		if want := providers[rc.mesh]; rc.from != want {
			rd.rep.Add(diag.Warnf(KindMismatchedReceiveFrom, rc.participant, []string{rc.mesh, rc.from, want},
				"participant %q receives %q from %q, but its provider is %q", rc.participant, rc.mesh, rc.from, want))
		}
	}
	return m, nil
}

func (rd *reader) data(e *markup.Element) topology.DataDecl {
	name, _ := e.Attr("name")
	kind, ok := topology.ParseDataKind(e.Local())
	if !ok {
		kind = topology.DefaultDataKind
		rd.rep.Add(diag.Warnf(KindUnknownDataKind, e.Name, []string{name, e.Local()},
			"data %q has unknown kind %q; read as %s", name, e.Local(), kind))
	}
	return topology.DataDecl{Name: name, Kind: kind}
}

func (rd *reader) mesh(e *markup.Element) (topology.MeshDecl, error) {
	name, _ := e.Attr("name")
	mesh := topology.MeshDecl{Name: name, Dimensions: rd.dims}
	if v, ok := e.Attr("dimensions"); ok {
		n, err := parseInt("mesh "+strconv.Quote(name), "dimensions", v)
		if err != nil {
			return mesh, err
		}
		mesh.Dimensions = n
	}
	for _, u := range e.ChildrenNamed(emit.ElemUseData) {
		d, _ := u.Attr("name")
		mesh.Data = append(mesh.Data, d)
	}
	return mesh, nil
}

func (rd *reader) participant(e *markup.Element) topology.ParticipantDecl {
	name, _ := e.Attr("name")
	p := topology.ParticipantDecl{
		Name:              name,
		MappingKind:       topology.DefaultMappingKind,
		MappingConstraint: topology.DefaultMappingConstraint,
	}

	var mapped bool
	for _, c := range e.Children {
		ref, _ := c.Attr("name")
		switch {
		case c.Name == emit.ElemProvideMesh:
			if p.ProvidesMesh == "" {
				p.ProvidesMesh = ref
			}
		case c.Name == emit.ElemReceiveMesh:
			p.ReceivesMeshes = append(p.ReceivesMeshes, ref)
			from, _ := c.Attr("from")
			rd.receives = append(rd.receives, receive{participant: name, mesh: ref, from: from})
		case c.Prefix() == emit.PrefixMapping:
			kind, ok := topology.ParseMappingKind(c.Local())
			if !ok {
				kind = topology.DefaultMappingKind
				rd.rep.Add(diag.Warnf(KindUnknownMappingKind, c.Name, []string{name, c.Local()},
					"participant %q uses unknown mapping %q; read as %s", name, c.Local(), kind))
			}
			constraint, ok := c.Attr("constraint")
			if !ok || constraint == "" {
				constraint = topology.DefaultMappingConstraint
			}
			if !mapped {
				p.MappingKind, p.MappingConstraint = kind, constraint
				mapped = true
			} else if kind != p.MappingKind || constraint != p.MappingConstraint {
				rd.rep.Add(diag.Warnf(KindInconsistentMapping, c.Name, []string{name},
					"participant %q mixes mappings; keeping %s/%s", name, p.MappingKind, p.MappingConstraint))
			}
		case c.Name == emit.ElemReadData:
			p.ReadData = append(p.ReadData, ref)
		case c.Name == emit.ElemWriteData:
			p.WriteData = append(p.WriteData, ref)
		}
	}
	return p
}

func (rd *reader) coupling(e *markup.Element) (topology.CouplingScheme, error) {
	kind, ok := topology.ParseCouplingKind(e.Local())
	if !ok {
		return topology.CouplingScheme{}, fmt.Errorf("unknown coupling scheme <%s>", e.Name)
	}
	// Missing times take the topology defaults, not the 0.1/10 the first
	// generator used, so a read-back model matches what Lift would build.
	cs := topology.CouplingScheme{
		Kind:           kind,
		TimeWindowSize: topology.DefaultTimeWindowSize,
		MaxTime:        topology.DefaultMaxTime,
	}

	for _, c := range e.Children {
		switch c.Name {
		case emit.ElemTimeWindowSize, emit.ElemTimestepLength:
			v, err := floatValue(c)
			if err != nil {
				return cs, err
			}
			cs.TimeWindowSize = v
		case emit.ElemMaxTime:
			v, err := floatValue(c)
			if err != nil {
				return cs, err
			}
			cs.MaxTime = v
		case emit.ElemExchange:
			cs.Exchanges = append(cs.Exchanges, exchange(c))
		}
	}

	pair := e.Child(emit.ElemParticipants)
	if pair == nil {
		pair = e.Child(emit.ElemParticipant)
	}
	if pair != nil {
		for _, key := range []string{"first", "second"} {
			if v, ok := pair.Attr(key); ok && v != "" {
				cs.Participants = append(cs.Participants, v)
			}
		}
	}
	return cs, nil
}

func exchange(e *markup.Element) topology.Exchange {
	ex := topology.Exchange{}
	ex.Data, _ = e.Attr("data")
	ex.Mesh, _ = e.Attr("mesh")
	ex.To, _ = e.Attr("to")
	if from, ok := e.Attr("from"); ok {
		ex.From = from
	} else {
		ex.From, _ = e.Attr("_from")
	}
	return ex
}

func floatValue(e *markup.Element) (float64, error) {
	v, ok := e.Attr("value")
	if !ok {
		return 0, fmt.Errorf("<%s> has no value attribute", e.Name)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("<%s> value %q: %w", e.Name, v, err)
	}
	return f, nil
}

func parseInt(owner, attr, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s %s %q: %w", owner, attr, v, err)
	}
	return n, nil
}
