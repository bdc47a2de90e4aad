package classify

import "github.com/agentic-research/pubsubconf/internal/nodespace"

// TransportKind is the structural shape of a TransportSettings sub-node.
// It is independent of the connection's transport profile URI.
type TransportKind int

const (
	TransportNone TransportKind = iota
	TransportDatagram
	TransportBroker
)

func (k TransportKind) String() string {
	switch k {
	case TransportDatagram:
		return "datagram"
	case TransportBroker:
		return "broker"
	default:
		return "none"
	}
}

var transports = map[uint32]TransportKind{
	DatagramConnectionTransportType:  TransportDatagram,
	DatagramWriterGroupTransportType: TransportDatagram,
	BrokerConnectionTransportType:    TransportBroker,
	BrokerWriterGroupTransportType:   TransportBroker,
	BrokerDataSetWriterTransportType: TransportBroker,
	BrokerDataSetReaderTransportType: TransportBroker,
}

// Transport returns the transport shape of ref, or TransportNone.
func Transport(ref nodespace.Reference) TransportKind {
	td := ref.TypeDefinition
	if td.Namespace != 0 || td.Type != nodespace.IDNumeric {
		return TransportNone
	}
	return transports[td.Numeric]
}
