package emit

// vocab.go — namespaces and the element/attribute vocabulary of the target
// document. The reader decodes against the same constants.

// Namespace URIs. The root namespace is the default namespace of the document.
const (
	NamespaceURI         = "http://www.precice.org/namespace/precice-config"
	DataNamespaceURI     = NamespaceURI + "/data"
	M2NNamespaceURI      = NamespaceURI + "/m2n"
	MappingNamespaceURI  = NamespaceURI + "/mapping"
	CouplingNamespaceURI = NamespaceURI + "/coupling-scheme"
)

// Prefixes bound on the root element.
const (
	PrefixData     = "data"
	PrefixM2N      = "m2n"
	PrefixMapping  = "mapping"
	PrefixCoupling = "coupling-scheme"
)

// Namespace is one prefix binding declared on the root element.
type Namespace struct {
	Prefix string
	URI    string
}

// Namespaces lists the root bindings in the order they are declared.
var Namespaces = []Namespace{
	{"", NamespaceURI},
	{PrefixData, DataNamespaceURI},
	{PrefixM2N, M2NNamespaceURI},
	{PrefixMapping, MappingNamespaceURI},
	{PrefixCoupling, CouplingNamespaceURI},
}

// Prefixes maps each namespace URI to its prefix, for markup.Decode.
func Prefixes() map[string]string {
	out := make(map[string]string, len(Namespaces))
	for _, ns := range Namespaces {
		out[ns.URI] = ns.Prefix
	}
	return out
}

// Element names.
const (
	ElemRoot           = "precice-configuration"
	ElemSolverIface    = "solver-interface"
	ElemLog            = "log"
	ElemSink           = "sink"
	ElemMesh           = "mesh"
	ElemUseData        = "use-data"
	ElemParticipant    = "participant"
	ElemProvideMesh    = "provide-mesh"
	ElemReceiveMesh    = "receive-mesh"
	ElemReadData       = "read-data"
	ElemWriteData      = "write-data"
	ElemSockets        = PrefixM2N + ":sockets"
	ElemTimeWindowSize = "time-window-size"
	ElemTimestepLength = "timestep-length"
	ElemMaxTime        = "max-time"
	ElemParticipants   = "participants"
	ElemExchange       = "exchange"
)

// Logging sink defaults. They are fixed: documents are compared byte for byte.
const (
	SinkFilter  = "%Severity% > debug"
	SinkFormat  = "---[precice] %ColorizedSeverity% %Message%"
	SinkEnabled = "true"
)

// ExchangeDirectory is the m2n:sockets exchange-directory attribute.
const ExchangeDirectory = ".."

// MappingDirection is the direction attribute of every emitted mapping.
const MappingDirection = "read"
