// Package classify maps a reference's type-definition tag to the structural
// role it plays in a PubSub configuration.
package classify

import "github.com/agentic-research/pubsubconf/internal/nodespace"

// Role is the structural role of a node.
type Role int

const (
	Unclassified Role = iota
	Connection
	ReaderGroup
	WriterGroup
	DataSetReader
	DataSetWriter
	PublishedDataItems
	DataSetFolder
	Status
)

var roleNames = [...]string{
	Unclassified:       "Unclassified",
	Connection:         "Connection",
	ReaderGroup:        "ReaderGroup",
	WriterGroup:        "WriterGroup",
	DataSetReader:      "DataSetReader",
	DataSetWriter:      "DataSetWriter",
	PublishedDataItems: "PublishedDataItems",
	DataSetFolder:      "DataSetFolder",
	Status:             "Status",
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return roleNames[Unclassified]
	}
	return roleNames[r]
}

// Standard type definitions (namespace 0, numeric).
const (
	PubSubConnectionType   uint32 = 14209
	ReaderGroupType        uint32 = 17999
	WriterGroupType        uint32 = 17725
	DataSetReaderType      uint32 = 15306
	DataSetWriterType      uint32 = 15298
	PublishedDataItemsType uint32 = 14534
	DataSetFolderType      uint32 = 14477
	PubSubStatusType       uint32 = 14643

	DatagramConnectionTransportType  uint32 = 15064
	DatagramWriterGroupTransportType uint32 = 21133
	BrokerConnectionTransportType    uint32 = 15155
	BrokerWriterGroupTransportType   uint32 = 21136
	BrokerDataSetWriterTransportType uint32 = 21138
	BrokerDataSetReaderTransportType uint32 = 21142

	PublishSubscribeType uint32 = 14416
	// PublishSubscribe is the standard root object of the PubSub configuration.
	PublishSubscribe uint32 = 14443
)

// roles is built once; every recognised tag appears exactly once.
var roles = map[uint32]Role{
	PubSubConnectionType:   Connection,
	ReaderGroupType:        ReaderGroup,
	WriterGroupType:        WriterGroup,
	DataSetReaderType:      DataSetReader,
	DataSetWriterType:      DataSetWriter,
	PublishedDataItemsType: PublishedDataItems,
	DataSetFolderType:      DataSetFolder,
	PubSubStatusType:       Status,
}

// Classify returns the role of ref. Unknown tags yield Unclassified.
func Classify(ref nodespace.Reference) Role {
	return ClassifyTag(ref.TypeDefinition)
}

// ClassifyTag is Classify for a bare type-definition id.
func ClassifyTag(td nodespace.NodeID) Role {
	if td.Namespace != 0 || td.Type != nodespace.IDNumeric {
		return Unclassified
	}
	return roles[td.Numeric]
}

// Roles lists every role Classify can return other than Unclassified.
func Roles() []Role {
	return []Role{Connection, ReaderGroup, WriterGroup, DataSetReader, DataSetWriter,
		PublishedDataItems, DataSetFolder, Status}
}

// TypeDefinition returns the standard type definition for a role.
func TypeDefinition(r Role) (nodespace.NodeID, bool) {
	for tag, role := range roles {
		if role == r {
			return nodespace.Numeric(0, tag), true
		}
	}
	return nodespace.NodeID{}, false
}
