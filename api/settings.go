package api

// MessageEncoding is the message-settings shape selected by the transport profile.
type MessageEncoding string

const (
	EncodingNone MessageEncoding = "none"
	EncodingUADP MessageEncoding = "uadp"
	EncodingJSON MessageEncoding = "json"
)

// MessageSettings is a tagged variant. At most one pointer is set, and it
// always matches Encoding. Reader groups carry Encoding only.
type MessageSettings struct {
	Encoding MessageEncoding `json:"encoding" yaml:"encoding"`

	WriterGroupUADP   *UadpWriterGroupMessage   `json:"writer_group_uadp,omitempty" yaml:"writer_group_uadp,omitempty"`
	WriterGroupJSON   *JSONWriterGroupMessage   `json:"writer_group_json,omitempty" yaml:"writer_group_json,omitempty"`
	DataSetWriterUADP *UadpDataSetWriterMessage `json:"data_set_writer_uadp,omitempty" yaml:"data_set_writer_uadp,omitempty"`
	DataSetWriterJSON *JSONDataSetWriterMessage `json:"data_set_writer_json,omitempty" yaml:"data_set_writer_json,omitempty"`
	DataSetReaderUADP *UadpDataSetReaderMessage `json:"data_set_reader_uadp,omitempty" yaml:"data_set_reader_uadp,omitempty"`
	DataSetReaderJSON *JSONDataSetReaderMessage `json:"data_set_reader_json,omitempty" yaml:"data_set_reader_json,omitempty"`
}

type UadpWriterGroupMessage struct {
	GroupVersion              uint32    `json:"group_version" yaml:"group_version"`
	DataSetOrdering           int32     `json:"data_set_ordering" yaml:"data_set_ordering"`
	NetworkMessageContentMask uint32    `json:"network_message_content_mask" yaml:"network_message_content_mask"`
	SamplingOffset            float64   `json:"sampling_offset" yaml:"sampling_offset"`
	PublishingOffset          []float64 `json:"publishing_offset,omitempty" yaml:"publishing_offset,omitempty"`
}

type JSONWriterGroupMessage struct {
	NetworkMessageContentMask uint32 `json:"network_message_content_mask" yaml:"network_message_content_mask"`
}

type UadpDataSetWriterMessage struct {
	DataSetMessageContentMask uint32 `json:"data_set_message_content_mask" yaml:"data_set_message_content_mask"`
	ConfiguredSize            uint16 `json:"configured_size" yaml:"configured_size"`
	NetworkMessageNumber      uint16 `json:"network_message_number" yaml:"network_message_number"`
	DataSetOffset             uint16 `json:"data_set_offset" yaml:"data_set_offset"`
}

type JSONDataSetWriterMessage struct {
	DataSetMessageContentMask uint32 `json:"data_set_message_content_mask" yaml:"data_set_message_content_mask"`
}

type UadpDataSetReaderMessage struct {
	GroupVersion              uint32  `json:"group_version" yaml:"group_version"`
	NetworkMessageNumber      uint16  `json:"network_message_number" yaml:"network_message_number"`
	DataSetOffset             uint16  `json:"data_set_offset" yaml:"data_set_offset"`
	DataSetClassID            string  `json:"data_set_class_id,omitempty" yaml:"data_set_class_id,omitempty"`
	NetworkMessageContentMask uint32  `json:"network_message_content_mask" yaml:"network_message_content_mask"`
	DataSetMessageContentMask uint32  `json:"data_set_message_content_mask" yaml:"data_set_message_content_mask"`
	PublishingInterval        float64 `json:"publishing_interval" yaml:"publishing_interval"`
	ReceiveOffset             float64 `json:"receive_offset" yaml:"receive_offset"`
	ProcessingOffset          float64 `json:"processing_offset" yaml:"processing_offset"`
}

type JSONDataSetReaderMessage struct {
	NetworkMessageContentMask uint32 `json:"network_message_content_mask" yaml:"network_message_content_mask"`
	DataSetMessageContentMask uint32 `json:"data_set_message_content_mask" yaml:"data_set_message_content_mask"`
}

// TransportKind is the transport-settings shape found under a group or item.
type TransportKind string

const (
	TransportNone     TransportKind = "none"
	TransportDatagram TransportKind = "datagram"
	TransportBroker   TransportKind = "broker"
)

// TransportSettings is a tagged variant. At most one pointer is set, and it
// always matches Kind.
type TransportSettings struct {
	Kind TransportKind `json:"kind" yaml:"kind"`

	DatagramWriterGroup *DatagramWriterGroupTransport `json:"datagram_writer_group,omitempty" yaml:"datagram_writer_group,omitempty"`
	BrokerWriterGroup   *BrokerTransport              `json:"broker_writer_group,omitempty" yaml:"broker_writer_group,omitempty"`
	BrokerDataSetWriter *BrokerDataSetWriterTransport `json:"broker_data_set_writer,omitempty" yaml:"broker_data_set_writer,omitempty"`
	BrokerDataSetReader *BrokerDataSetReaderTransport `json:"broker_data_set_reader,omitempty" yaml:"broker_data_set_reader,omitempty"`
}

type DatagramWriterGroupTransport struct {
	MessageRepeatCount uint8   `json:"message_repeat_count" yaml:"message_repeat_count"`
	MessageRepeatDelay float64 `json:"message_repeat_delay" yaml:"message_repeat_delay"`
}

// BrokerTransport holds the fields every broker transport shares.
type BrokerTransport struct {
	QueueName                  string `json:"queue_name" yaml:"queue_name"`
	ResourceURI                string `json:"resource_uri,omitempty" yaml:"resource_uri,omitempty"`
	AuthenticationProfileURI   string `json:"authentication_profile_uri,omitempty" yaml:"authentication_profile_uri,omitempty"`
	RequestedDeliveryGuarantee int32  `json:"requested_delivery_guarantee" yaml:"requested_delivery_guarantee"`
}

type BrokerDataSetWriterTransport struct {
	BrokerTransport    `yaml:",inline"`
	MetaDataQueueName  string  `json:"meta_data_queue_name,omitempty" yaml:"meta_data_queue_name,omitempty"`
	MetaDataUpdateTime float64 `json:"meta_data_update_time,omitempty" yaml:"meta_data_update_time,omitempty"`
}

type BrokerDataSetReaderTransport struct {
	BrokerTransport   `yaml:",inline"`
	MetaDataQueueName string `json:"meta_data_queue_name,omitempty" yaml:"meta_data_queue_name,omitempty"`
}
