// Package emit lowers a validated topology model into the namespaced
// coupling-runtime configuration document.
//
// Build order is fixed: log sink, data declarations, meshes, participants,
// m2n sockets, coupling scheme. Within each section children follow
// declaration order. Emitting the same model twice yields identical bytes.
//
// The emitter does not validate. Callers run validate.Check first.
package emit

import (
	"errors"
	"fmt"
	"strconv"

	"topogen/internal/markup"
	"topogen/internal/topology"
)

// Build returns the document tree for m. Kinds and mesh dimensions must
// already hold values the vocabulary can spell, as models from schema.Lift
// do; Emit checks this, Build does not.
func Build(m *topology.Model) *markup.Element {
	root := markup.New(ElemRoot)
	for _, ns := range Namespaces {
		name := "xmlns"
		if ns.Prefix != "" {
			name += ":" + ns.Prefix
		}
		root.Attrs = append(root.Attrs, markup.A(name, ns.URI))
	}

	root.Add(ElemLog).Add(ElemSink,
		markup.A("filter", SinkFilter),
		markup.A("format", SinkFormat),
		markup.A("enabled", SinkEnabled),
	)

	for _, d := range m.Data {
		root.Add(PrefixData+":"+string(d.Kind), markup.A("name", d.Name))
	}

	for _, mesh := range m.Meshes {
		e := root.Add(ElemMesh, markup.A("name", mesh.Name), markup.A("dimensions", strconv.Itoa(mesh.Dimensions)))
		for _, d := range mesh.Data {
			e.Add(ElemUseData, markup.A("name", d))
		}
	}

	providers := m.Providers()
	for _, p := range m.Participants {
		root.Append(participant(p, providers))
	}

	if len(m.Participants) > 1 {
		root.Add(ElemSockets,
			markup.A("acceptor", m.Participants[0].Name),
			markup.A("connector", m.Participants[1].Name),
			markup.A("exchange-directory", ExchangeDirectory),
		)
	}

	root.Append(coupling(m.Coupling))
	return root
}

// Emit builds and serializes the document for m.
func Emit(m *topology.Model) ([]byte, error) {
	if m == nil {
		return nil, errors.New("emit: nil model")
	}
	if err := spellable(m); err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	return markup.Marshal(Build(m))
}

// spellable rejects enum and dimension values that have no element or
// attribute form, such as the zero values of a model built in code.
func spellable(m *topology.Model) error {
	for _, d := range m.Data {
		if _, ok := topology.ParseDataKind(string(d.Kind)); !ok {
			return fmt.Errorf("data %q has unknown kind %q", d.Name, d.Kind)
		}
	}
	for _, mesh := range m.Meshes {
		if mesh.Dimensions < 1 || mesh.Dimensions > 3 {
			return fmt.Errorf("mesh %q has %d dimensions, want 1, 2 or 3", mesh.Name, mesh.Dimensions)
		}
	}
	for _, p := range m.Participants {
		if len(p.ReceivesMeshes) == 0 {
			continue
		}
		if _, ok := topology.ParseMappingKind(string(p.MappingKind)); !ok {
			return fmt.Errorf("participant %q has unknown mapping kind %q", p.Name, p.MappingKind)
		}
	}
	if _, ok := topology.ParseCouplingKind(string(m.Coupling.Kind)); !ok {
		return fmt.Errorf("unknown coupling kind %q", m.Coupling.Kind)
	}
	return nil
}

func participant(p topology.ParticipantDecl, providers map[string]string) *markup.Element {
	e := markup.New(ElemParticipant, markup.A("name", p.Name))
	if p.ProvidesMesh != "" {
		e.Add(ElemProvideMesh, markup.A("name", p.ProvidesMesh))
	}
	for _, mesh := range p.ReceivesMeshes {
		attrs := []markup.Attr{markup.A("name", mesh)}
		if from, ok := providers[mesh]; ok {
			attrs = append(attrs, markup.A("from", from))
		}
		e.Add(ElemReceiveMesh, attrs...)
	}
	for _, mesh := range p.ReceivesMeshes {
		attrs := []markup.Attr{markup.A("direction", MappingDirection), markup.A("from", mesh)}
		if p.ProvidesMesh != "" {
			attrs = append(attrs, markup.A("to", p.ProvidesMesh))
		}
		attrs = append(attrs, markup.A("constraint", p.MappingConstraint))
		e.Add(PrefixMapping+":"+string(p.MappingKind), attrs...)
	}
	for _, d := range p.ReadData {
		e.Add(ElemReadData, dataAttrs(d, p.ProvidesMesh)...)
	}
	for _, d := range p.WriteData {
		e.Add(ElemWriteData, dataAttrs(d, p.ProvidesMesh)...)
	}
	return e
}

func dataAttrs(name, mesh string) []markup.Attr {
	attrs := []markup.Attr{markup.A("name", name)}
	if mesh != "" {
		attrs = append(attrs, markup.A("mesh", mesh))
	}
	return attrs
}

func coupling(c topology.CouplingScheme) *markup.Element {
	e := markup.New(PrefixCoupling + ":" + string(c.Kind))
	e.Add(ElemTimeWindowSize, markup.A("value", FormatFloat(c.TimeWindowSize)))
	e.Add(ElemMaxTime, markup.A("value", FormatFloat(c.MaxTime)))

	var pair []markup.Attr
	if len(c.Participants) > 0 {
		pair = append(pair, markup.A("first", c.Participants[0]))
	}
	if len(c.Participants) > 1 {
		pair = append(pair, markup.A("second", c.Participants[1]))
	}
	e.Add(ElemParticipants, pair...)

	for _, ex := range c.Exchanges {
		e.Add(ElemExchange,
			markup.A("data", ex.Data),
			markup.A("mesh", ex.Mesh),
			markup.A("from", ex.From),
			markup.A("to", ex.To),
		)
	}
	return e
}

// FormatFloat renders v in its shortest round-trippable form.
func FormatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
