package nodespacetest

import (
	"github.com/agentic-research/pubsubconf/internal/classify"
	"github.com/agentic-research/pubsubconf/internal/nodespace"
)

// Profile URIs as they appear in TransportProfileUri.
const (
	UDPUADP  = "http://opcfoundation.org/UA-Profile/Transport/pubsub-udp-uadp"
	MQTTUADP = "http://opcfoundation.org/UA-Profile/Transport/pubsub-mqtt-uadp"
	MQTTJSON = "http://opcfoundation.org/UA-Profile/Transport/pubsub-mqtt-json"
)

func tag(id uint32) nodespace.NodeID { return nodespace.Numeric(0, id) }

// PublishSubscribe adds the standard root object (i=14443) and its
// PublishedDataSets folder.
func PublishSubscribe(m *nodespace.Memory) (root, datasets nodespace.NodeID) {
	root = tag(classify.PublishSubscribe)
	m.AddRoot(&nodespace.Node{
		ID:             root,
		BrowseName:     nodespace.QN("PublishSubscribe"),
		DisplayName:    "PublishSubscribe",
		NodeClass:      nodespace.NodeClassObject,
		TypeDefinition: tag(classify.PublishSubscribeType),
	})
	datasets = m.Object(root, "PublishedDataSets", tag(classify.DataSetFolderType))
	return root, datasets
}

// Status adds a Status object whose State is Operational (2) or Disabled (0).
func Status(m *nodespace.Memory, parent nodespace.NodeID, enabled bool) nodespace.NodeID {
	st := m.Object(parent, "Status", tag(classify.PubSubStatusType))
	state := int32(0)
	if enabled {
		state = 2
	}
	m.Variable(st, "State", state)
	return st
}

// Connection adds an enabled connection with an address.
func Connection(m *nodespace.Memory, parent nodespace.NodeID, name, profileURI string, publisherID any) nodespace.NodeID {
	c := m.Object(parent, name, tag(classify.PubSubConnectionType))
	Status(m, c, true)
	m.Variable(c, "PublisherId", publisherID)
	m.Variable(c, "TransportProfileUri", profileURI)
	addr := m.Object(c, "Address", nodespace.NodeID{})
	m.Variable(addr, "NetworkInterface", "eth0")
	m.Variable(addr, "Url", "opc.udp://239.0.0.1:4840")
	return c
}

// WriterGroup adds an enabled writer group with every required scalar but
// no message or transport settings.
func WriterGroup(m *nodespace.Memory, conn nodespace.NodeID, name string, id uint16) nodespace.NodeID {
	wg := m.Object(conn, name, tag(classify.WriterGroupType))
	Status(m, wg, true)
	m.Variable(wg, "WriterGroupId", id)
	m.Variable(wg, "PublishingInterval", float64(100))
	m.Variable(wg, "KeepAliveTime", float64(1000))
	m.Variable(wg, "Priority", uint8(1))
	m.Variable(wg, "HeaderLayoutUri", "http://opcfoundation.org/UA/PubSub-Layouts/UADP-Periodic-Fixed")
	m.Variable(wg, "MaxNetworkMessageSize", uint32(1472))
	return wg
}

// ReaderGroup adds an enabled reader group.
func ReaderGroup(m *nodespace.Memory, conn nodespace.NodeID, name string) nodespace.NodeID {
	rg := m.Object(conn, name, tag(classify.ReaderGroupType))
	Status(m, rg, true)
	m.Variable(rg, "MaxNetworkMessageSize", uint32(1472))
	return rg
}

// DataSetWriter adds an enabled writer without settings.
func DataSetWriter(m *nodespace.Memory, wg nodespace.NodeID, name string, id uint16, dataSetName string) nodespace.NodeID {
	w := m.Object(wg, name, tag(classify.DataSetWriterType))
	Status(m, w, true)
	m.Variable(w, "DataSetWriterId", id)
	m.Variable(w, "DataSetName", dataSetName)
	m.Variable(w, "DataSetFieldContentMask", uint32(0))
	m.Variable(w, "KeyFrameCount", uint32(1))
	return w
}

// DataSetReader adds an enabled reader subscribed to publisher/writer ids.
func DataSetReader(m *nodespace.Memory, rg nodespace.NodeID, name string, publisherID any, writerGroupID, writerID uint16) nodespace.NodeID {
	r := m.Object(rg, name, tag(classify.DataSetReaderType))
	Status(m, r, true)
	m.Variable(r, "PublisherId", publisherID)
	m.Variable(r, "WriterGroupId", writerGroupID)
	m.Variable(r, "DataSetWriterId", writerID)
	m.Variable(r, "DataSetMetaData", MetaData(name))
	m.Variable(r, "DataSetFieldContentMask", uint32(0))
	m.Variable(r, "MessageReceiveTimeout", float64(500))
	return r
}

// TargetVariables adds the SubscribedDataSet/TargetVariables array.
func TargetVariables(m *nodespace.Memory, reader nodespace.NodeID, targets ...nodespace.ExtensionObject) nodespace.NodeID {
	sub := m.Object(reader, "SubscribedDataSet", nodespace.NodeID{})
	return m.Variable(sub, "TargetVariables", targets)
}

// FieldTarget builds one target-variable binding.
func FieldTarget(fieldID string, target nodespace.NodeID) nodespace.ExtensionObject {
	return nodespace.ExtensionObject{
		TypeID: nodespace.TypeIDFieldTargetData,
		Body: nodespace.FieldTargetData{
			DataSetFieldID: fieldID,
			TargetNodeID:   target,
			AttributeID:    nodespace.AttributeValue,
		},
	}
}

// MetaData builds a one-field DataSetMetaData value.
func MetaData(name string) nodespace.ExtensionObject {
	return nodespace.ExtensionObject{
		TypeID: nodespace.TypeIDDataSetMetaData,
		Body: nodespace.DataSetMetaData{
			Name: name,
			Fields: []nodespace.FieldMetaData{{
				Name:        "Value",
				BuiltInType: 11,
				DataType:    nodespace.Numeric(0, 11),
				ValueRank:   -1,
			}},
			ConfigurationVersion: nodespace.ConfigurationVersion{MajorVersion: 1, MinorVersion: 1},
		},
	}
}

// UADPWriterGroupMessage adds UADP writer-group message settings.
func UADPWriterGroupMessage(m *nodespace.Memory, wg nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(wg, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "GroupVersion", uint32(734))
	m.Variable(ms, "DataSetOrdering", int32(0))
	m.Variable(ms, "NetworkMessageContentMask", uint32(0x3f))
	m.Variable(ms, "SamplingOffset", float64(-1))
	return ms
}

// JSONWriterGroupMessage adds JSON writer-group message settings.
func JSONWriterGroupMessage(m *nodespace.Memory, wg nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(wg, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "NetworkMessageContentMask", uint32(0x07))
	return ms
}

// UADPDataSetWriterMessage adds UADP writer message settings.
func UADPDataSetWriterMessage(m *nodespace.Memory, w nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(w, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "DataSetMessageContentMask", uint32(0x21))
	m.Variable(ms, "ConfiguredSize", uint16(0))
	m.Variable(ms, "NetworkMessageNumber", uint16(1))
	m.Variable(ms, "DataSetOffset", uint16(15))
	return ms
}

// JSONDataSetWriterMessage adds JSON writer message settings.
func JSONDataSetWriterMessage(m *nodespace.Memory, w nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(w, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "DataSetMessageContentMask", uint32(0x1f))
	return ms
}

// UADPDataSetReaderMessage adds UADP reader message settings.
func UADPDataSetReaderMessage(m *nodespace.Memory, r nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(r, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "GroupVersion", uint32(734))
	m.Variable(ms, "NetworkMessageNumber", uint16(1))
	m.Variable(ms, "DataSetOffset", uint16(15))
	m.Variable(ms, "DataSetClassId", "")
	m.Variable(ms, "NetworkMessageContentMask", uint32(0x3f))
	m.Variable(ms, "DataSetMessageContentMask", uint32(0x21))
	m.Variable(ms, "PublishingInterval", float64(100))
	m.Variable(ms, "ReceiveOffset", float64(0))
	m.Variable(ms, "ProcessingOffset", float64(0))
	return ms
}

// JSONDataSetReaderMessage adds JSON reader message settings.
func JSONDataSetReaderMessage(m *nodespace.Memory, r nodespace.NodeID) nodespace.NodeID {
	ms := m.Object(r, "MessageSettings", nodespace.NodeID{})
	m.Variable(ms, "NetworkMessageContentMask", uint32(0x07))
	m.Variable(ms, "DataSetMessageContentMask", uint32(0x1f))
	return ms
}

// DatagramWriterGroupTransport adds datagram writer-group transport settings.
func DatagramWriterGroupTransport(m *nodespace.Memory, wg nodespace.NodeID) nodespace.NodeID {
	ts := m.Object(wg, "TransportSettings", tag(classify.DatagramWriterGroupTransportType))
	m.Variable(ts, "MessageRepeatCount", uint8(2))
	m.Variable(ts, "MessageRepeatDelay", float64(10))
	return ts
}

// BrokerTransport adds broker transport settings of the given type under
// parent. Writer and reader variants get their metadata fields too.
func BrokerTransport(m *nodespace.Memory, parent nodespace.NodeID, typeDef uint32, queue string) nodespace.NodeID {
	ts := m.Object(parent, "TransportSettings", tag(typeDef))
	m.Variable(ts, "QueueName", queue)
	m.Variable(ts, "ResourceUri", "")
	m.Variable(ts, "AuthenticationProfileUri", "")
	m.Variable(ts, "RequestedDeliveryGuarantee", int32(1))
	switch typeDef {
	case classify.BrokerDataSetWriterTransportType:
		m.Variable(ts, "MetaDataQueueName", queue+"/meta")
		m.Variable(ts, "MetaDataUpdateTime", float64(0))
	case classify.BrokerDataSetReaderTransportType:
		m.Variable(ts, "MetaDataQueueName", queue+"/meta")
	}
	return ts
}

// Folder adds a DataSetFolder.
func Folder(m *nodespace.Memory, parent nodespace.NodeID, name string) nodespace.NodeID {
	return m.Object(parent, name, tag(classify.DataSetFolderType))
}

// PublishedDataItems adds a dataset with one published variable.
func PublishedDataItems(m *nodespace.Memory, folder nodespace.NodeID, name string) nodespace.NodeID {
	pds := m.Object(folder, name, tag(classify.PublishedDataItemsType))
	m.Variable(pds, "ConfigurationVersion", nodespace.ExtensionObject{
		TypeID: nodespace.TypeIDConfigurationVersion,
		Body:   nodespace.ConfigurationVersion{MajorVersion: 1, MinorVersion: 1},
	})
	m.Variable(pds, "DataSetMetaData", MetaData(name))
	m.Variable(pds, "PublishedData", []nodespace.ExtensionObject{{
		TypeID: nodespace.TypeIDPublishedVariableData,
		Body: nodespace.PublishedVariableData{
			PublishedVariable:    nodespace.Numeric(1, 6001),
			AttributeID:          nodespace.AttributeValue,
			SamplingIntervalHint: 50,
		},
	}})
	return pds
}

// ExtensionFields adds an ExtensionFields container holding one variable per pair.
func ExtensionFields(m *nodespace.Memory, pds nodespace.NodeID, kv ...any) nodespace.NodeID {
	ef := m.Object(pds, "ExtensionFields", nodespace.NodeID{})
	for i := 0; i+1 < len(kv); i += 2 {
		m.Variable(ef, kv[i].(string), kv[i+1])
	}
	return ef
}
